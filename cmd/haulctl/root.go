package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"haulpulse/internal/config"
	"haulpulse/internal/dataprocessing"
	"haulpulse/internal/exporter"
	"haulpulse/internal/files"
	"haulpulse/internal/infrastructure"
	"haulpulse/internal/services"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	format     string
	output     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "haulctl",
		Short: "Offline shipment analytics for haulage dispatch exports",
		Long: `haulctl normalizes a shipment export (.xlsx, .xlsm or .csv) and answers
the same questions as the haulpulse API without running a server.

FILE may also be a directory of exports; the most recently modified .xlsx,
.xlsm or .csv file in it is used.

Column names, date layout and carrier aliases come from the pipeline section
of the config file (--config) and HAUL_PIPELINE_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (YAML)")
	flags.StringVarP(&opts.format, "format", "f", "json", "output format: json, csv or xlsx")
	flags.StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(
		newSummaryCmd(opts),
		newDayCmd(opts),
		newAggregateCmd(opts),
		newTrendCmd(opts),
		newCompareCmd(opts),
	)
	return rootCmd
}

// session is one loaded file behind the analytics service.
type session struct {
	service *services.AnalyticsService
	store   *services.SessionStore
	id      string
	info    services.SessionInfo
}

func (s *session) Close() error {
	return s.store.Close()
}

// openSession loads path, or the newest export in the directory path,
// through the configured pipeline.
func openSession(ctx context.Context, cmd *cobra.Command, opts *globalOptions, path string) (*session, error) {
	cfg, err := config.LoadFrom(opts.configFile)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger, _, err := infrastructure.NewLogger(config.LoggingConfig{Level: level, Format: "text", Output: "console"}, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	pipeline, err := dataprocessing.NewPipeline(dataprocessing.ConfigFromSettings(cfg.Pipeline), logger, nil)
	if err != nil {
		return nil, err
	}

	store := services.NewSessionStore(config.SessionConfig{TTL: 24 * time.Hour, MaxSessions: 1}, nil, logger)
	service := services.NewAnalyticsService(pipeline, store, nil, logger)

	path, err = files.ResolveInput(path)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	logger.DebugContext(ctx, "Loading shipment file", slog.String("path", path))

	info, err := service.CreateSession(ctx, filepath.Base(path), f)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, w := range info.Summary.Warnings {
		logger.WarnContext(ctx, "Batch warning",
			slog.String("code", w.Code),
			slog.String("message", w.Message),
			slog.Int("count", w.Count))
	}

	return &session{service: service, store: store, id: info.ID, info: info}, nil
}

// printer writes results in the selected format.
type printer struct {
	format string
	w      io.Writer
	close  func() error
}

func (o *globalOptions) validate() error {
	switch o.format {
	case "json", "csv":
		return nil
	case "xlsx":
		if o.output == "" {
			return errors.New("xlsx output needs --output")
		}
		return nil
	}
	return fmt.Errorf("unknown format %q: want json, csv or xlsx", o.format)
}

func newPrinter(cmd *cobra.Command, opts *globalOptions) (*printer, error) {
	if opts.output == "" {
		return &printer{format: opts.format, w: cmd.OutOrStdout(), close: func() error { return nil }}, nil
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", opts.output, err)
	}
	return &printer{format: opts.format, w: f, close: f.Close}, nil
}

// print writes v as JSON, or the tables as CSV or XLSX. CSV carries the
// first table only; XLSX gets one sheet per table.
func (p *printer) print(v any, tables []exporter.Table) error {
	var err error
	switch p.format {
	case "csv":
		err = exporter.WriteCSV(p.w, tables[0], exporter.WriteOptions{})
	case "xlsx":
		err = exporter.WriteXLSX(p.w, tables...)
	default:
		err = writeJSON(p.w, v)
	}
	if cerr := p.close(); err == nil {
		err = cerr
	}
	return err
}

// run opens the file, runs fn and prints its result.
func run(cmd *cobra.Command, opts *globalOptions, path string, fn func(ctx context.Context, s *session) (any, []exporter.Table, error)) error {
	if err := opts.validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, cmd, opts, path)
	if err != nil {
		return err
	}
	defer s.Close()

	v, tables, err := fn(ctx, s)
	if err != nil {
		return err
	}

	p, err := newPrinter(cmd, opts)
	if err != nil {
		return err
	}
	return p.print(v, tables)
}
