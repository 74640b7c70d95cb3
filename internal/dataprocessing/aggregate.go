package dataprocessing

import (
	"fmt"
	"sort"
	"time"

	"haulpulse/pkg/contracts/domain"
)

// Metric selects the measures computed by an aggregation.
type Metric uint8

const (
	MetricVolume Metric = 1 << iota
	MetricCount

	MetricAll = MetricVolume | MetricCount
)

// Has reports whether m includes metric.
func (m Metric) Has(metric Metric) bool {
	return m&metric != 0
}

// ParseMetrics reads "volume", "count" or "all"; empty means all.
func ParseMetrics(s string) (Metric, error) {
	switch s {
	case "", "all":
		return MetricAll, nil
	case "volume":
		return MetricVolume, nil
	case "count":
		return MetricCount, nil
	}
	return 0, fmt.Errorf("unknown metrics %q", s)
}

// Engine derives analytics tables from a batch. It holds no state between calls;
// every result is recomputed from the immutable batch.
type Engine struct {
	insights *InsightGenerator
}

// NewEngine creates an aggregation engine.
func NewEngine() *Engine {
	return &Engine{insights: NewInsightGenerator()}
}

// Insights returns the generator used for day reports.
func (e *Engine) Insights() *InsightGenerator {
	return e.insights
}

// group is the result of one grouping pass, keys in first-seen order.
type group[T int | float64] struct {
	keys  []string
	first map[string]int // source row of the first record seen per key
	value map[string]T
}

func groupBy[T int | float64](records []domain.ShipmentRecord, key func(domain.ShipmentRecord) string, measure func(domain.ShipmentRecord) T) group[T] {
	g := group[T]{first: make(map[string]int), value: make(map[string]T)}
	for _, r := range records {
		k := key(r)
		if _, ok := g.first[k]; !ok {
			g.first[k] = r.Row
			g.keys = append(g.keys, k)
		}
		g.value[k] += measure(r)
	}
	return g
}

func volumeOf(r domain.ShipmentRecord) float64 { return r.Volume }

func one(domain.ShipmentRecord) int { return 1 }

// Aggregate groups the selected records by dim. Volume sums and record counts are
// separate passes joined on key with zero fill. Rows are sorted by descending
// volume, or descending count when volume is not requested, ties in first-seen order.
func (e *Engine) Aggregate(b *Batch, sel DateSelector, dim domain.Dimension, metrics Metric) ([]domain.AggregateRow, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	if !metrics.Has(MetricAll) {
		metrics = MetricAll
	}

	records := b.selectRecords(sel)
	if len(records) == 0 {
		return []domain.AggregateRow{}, nil
	}

	var volumes group[float64]
	var counts group[int]
	if metrics.Has(MetricVolume) {
		volumes = groupBy(records, dim.Key, volumeOf)
	}
	if metrics.Has(MetricCount) {
		counts = groupBy(records, dim.Key, one)
	}

	rows, first := outerJoin(volumes, counts)
	sortRows(rows, first, metrics)
	return rows, nil
}

// outerJoin merges the volume and count passes on key; a side that did not run contributes zero.
func outerJoin(volumes group[float64], counts group[int]) ([]domain.AggregateRow, map[string]int) {
	first := make(map[string]int, len(volumes.keys)+len(counts.keys))
	index := make(map[string]int)
	var rows []domain.AggregateRow

	add := func(key string, row int) {
		if prev, ok := first[key]; !ok || row < prev {
			first[key] = row
		}
		if _, ok := index[key]; !ok {
			index[key] = len(rows)
			rows = append(rows, domain.AggregateRow{Key: key})
		}
	}
	for _, k := range volumes.keys {
		add(k, volumes.first[k])
		rows[index[k]].Volume = volumes.value[k]
	}
	for _, k := range counts.keys {
		add(k, counts.first[k])
		rows[index[k]].Count = counts.value[k]
	}
	return rows, first
}

func sortRows(rows []domain.AggregateRow, first map[string]int, metrics Metric) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if metrics.Has(MetricVolume) {
			if a.Volume != b.Volume {
				return a.Volume > b.Volume
			}
		} else if a.Count != b.Count {
			return a.Count > b.Count
		}
		return first[a.Key] < first[b.Key]
	})
}

// Totals sums volume and counts records of the selection.
func (e *Engine) Totals(b *Batch, sel DateSelector) domain.Totals {
	var t domain.Totals
	for _, r := range b.selectRecords(sel) {
		t.Volume += r.Volume
		t.Count++
	}
	return t
}

// DailyTrend returns volume and record count per day, ascending, for days with records.
func (e *Engine) DailyTrend(b *Batch, sel DateSelector) []domain.TrendPoint {
	byDay := make(map[time.Time]*domain.TrendPoint)
	for _, r := range b.selectRecords(sel) {
		p, ok := byDay[r.Date]
		if !ok {
			p = &domain.TrendPoint{Date: r.Date}
			byDay[r.Date] = p
		}
		p.Volume += r.Volume
		p.Count++
	}

	points := make([]domain.TrendPoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// RegulationCounts counts flagged records per regulation column present in the batch.
func (e *Engine) RegulationCounts(b *Batch, sel DateSelector) domain.RegulationSummary {
	summary := domain.RegulationSummary{
		Available: b.RegulationTracking(),
		Counts:    make([]domain.RegulationCount, len(b.regulationColumns)),
	}
	for i, col := range b.regulationColumns {
		summary.Counts[i].Column = col
	}
	for _, r := range b.selectRecords(sel) {
		for i, flagged := range r.RegulationFlags {
			if flagged && i < len(summary.Counts) {
				summary.Counts[i].Count++
			}
		}
	}
	return summary
}

// DayReport assembles totals, breakdowns, regulation counts and ranking insights for one day.
func (e *Engine) DayReport(b *Batch, day time.Time) domain.DayReport {
	sel := OnDay(day)
	report := domain.DayReport{
		Date:         CivilDate(day),
		Status:       domain.InsightOK,
		Totals:       e.Totals(b, sel),
		Carriers:     []domain.AggregateRow{},
		Products:     []domain.AggregateRow{},
		Destinations: []domain.AggregateRow{},
		Regulations:  e.RegulationCounts(b, sel),
	}
	if report.Totals.Count == 0 {
		report.Status = domain.InsightNoData
	}

	for _, dim := range domain.Dimensions() {
		// Dimensions() only yields valid dimensions.
		rows, _ := e.Aggregate(b, sel, dim, MetricAll)
		switch dim {
		case domain.DimensionCarrier:
			report.Carriers = rows
		case domain.DimensionProduct:
			report.Products = rows
		case domain.DimensionDestination:
			report.Destinations = rows
		}
		report.Insights = append(report.Insights, e.insights.Rank(dim, rows, report.Totals.Volume))
	}
	return report
}
