package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"haulpulse/internal/dataprocessing"
	"haulpulse/internal/exporter"
	"haulpulse/internal/services"
	"haulpulse/pkg/contracts/domain"
)

func newSummaryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary FILE",
		Short: "Show what was read, kept and dropped from a shipment file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0], func(_ context.Context, s *session) (any, []exporter.Table, error) {
				return s.info.Summary, []exporter.Table{exporter.SummaryTable(s.info.Summary)}, nil
			})
		},
	}
}

func newDayCmd(opts *globalOptions) *cobra.Command {
	var date, dimension string

	cmd := &cobra.Command{
		Use:   "day FILE",
		Short: "Daily report: totals, breakdowns, regulations and rankings for one day",
		Long: `Prints the full day report as JSON. CSV output lists the breakdown of
--dimension; XLSX output writes one sheet per dimension, --dimension first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate("date", date)
			if err != nil {
				return err
			}
			dim, err := domain.ParseDimension(dimension)
			if err != nil {
				return err
			}

			return run(cmd, opts, args[0], func(ctx context.Context, s *session) (any, []exporter.Table, error) {
				report, err := s.service.DayReport(ctx, s.id, day)
				if err != nil {
					return nil, nil, err
				}
				return report, dayTables(report, dim), nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to report, YYYY-MM-DD")
	cmd.Flags().StringVar(&dimension, "dimension", string(domain.DimensionCarrier), "breakdown for CSV output: carrier, product or destination")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// dayTables returns the report's breakdowns with dim first.
func dayTables(report domain.DayReport, dim domain.Dimension) []exporter.Table {
	breakdowns := map[domain.Dimension][]domain.AggregateRow{
		domain.DimensionCarrier:     report.Carriers,
		domain.DimensionProduct:     report.Products,
		domain.DimensionDestination: report.Destinations,
	}

	tables := []exporter.Table{exporter.AggregateTable(dim, breakdowns[dim])}
	for _, d := range domain.Dimensions() {
		if d != dim {
			tables = append(tables, exporter.AggregateTable(d, breakdowns[d]))
		}
	}
	return tables
}

func newAggregateCmd(opts *globalOptions) *cobra.Command {
	var from, to, dimension, metrics string

	cmd := &cobra.Command{
		Use:   "aggregate FILE",
		Short: "Volume and guide count per carrier, product or destination over a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := parsePeriod("from", from, "to", to)
			if err != nil {
				return err
			}
			dim, err := domain.ParseDimension(dimension)
			if err != nil {
				return err
			}
			m, err := dataprocessing.ParseMetrics(metrics)
			if err != nil {
				return err
			}

			return run(cmd, opts, args[0], func(ctx context.Context, s *session) (any, []exporter.Table, error) {
				res, err := s.service.Aggregate(ctx, s.id, services.RangeQuery{Period: period, Dimension: dim, Metrics: m})
				if err != nil {
					return nil, nil, err
				}
				return res, []exporter.Table{exporter.AggregateTable(res.Dimension, res.Rows)}, nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default: first day in file)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default: last day in file)")
	cmd.Flags().StringVar(&dimension, "dimension", string(domain.DimensionCarrier), "carrier, product or destination")
	cmd.Flags().StringVar(&metrics, "metrics", "all", "volume, count or all")
	return cmd
}

func newTrendCmd(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "trend FILE",
		Short: "Daily volume and guides emitted over a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := parsePeriod("from", from, "to", to)
			if err != nil {
				return err
			}

			return run(cmd, opts, args[0], func(ctx context.Context, s *session) (any, []exporter.Table, error) {
				res, err := s.service.Trend(ctx, s.id, period)
				if err != nil {
					return nil, nil, err
				}
				return res, []exporter.Table{exporter.TrendTable(res.Points)}, nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default: first day in file)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default: last day in file)")
	return cmd
}

func newCompareCmd(opts *globalOptions) *cobra.Command {
	var p1From, p1To, p2From, p2To, dimension string

	cmd := &cobra.Command{
		Use:   "compare FILE",
		Short: "Compare two periods per carrier, product or destination",
		Long: `Compares the volume of each key between period 1 and period 2.
Delta is period 1 minus period 2; the percentage is relative to period 2 and
left empty when period 2 has no volume.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p1, err := parsePeriod("p1-from", p1From, "p1-to", p1To)
			if err != nil {
				return err
			}
			p2, err := parsePeriod("p2-from", p2From, "p2-to", p2To)
			if err != nil {
				return err
			}
			dim, err := domain.ParseDimension(dimension)
			if err != nil {
				return err
			}

			return run(cmd, opts, args[0], func(ctx context.Context, s *session) (any, []exporter.Table, error) {
				res, err := s.service.Compare(ctx, s.id, services.CompareQuery{Period1: p1, Period2: p2, Dimension: dim})
				if err != nil {
					return nil, nil, err
				}
				return res, []exporter.Table{exporter.ComparisonTable(res.Dimension, res.Rows)}, nil
			})
		},
	}

	cmd.Flags().StringVar(&p1From, "p1-from", "", "period 1 first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&p1To, "p1-to", "", "period 1 last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&p2From, "p2-from", "", "period 2 first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&p2To, "p2-to", "", "period 2 last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&dimension, "dimension", string(domain.DimensionCarrier), "carrier, product or destination")
	for _, name := range []string{"p1-from", "p1-to", "p2-from", "p2-to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// parseDate reads an ISO date flag; empty gives the zero time.
func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dataprocessing.DateLayoutISO, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", flag, value)
	}
	return t, nil
}

func parsePeriod(fromFlag, from, toFlag, to string) (services.Period, error) {
	f, err := parseDate(fromFlag, from)
	if err != nil {
		return services.Period{}, err
	}
	t, err := parseDate(toFlag, to)
	if err != nil {
		return services.Period{}, err
	}
	if !f.IsZero() && !t.IsZero() && t.Before(f) {
		return services.Period{}, fmt.Errorf("--%s %s is before --%s %s", toFlag, to, fromFlag, from)
	}
	return services.Period{From: f, To: t}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
