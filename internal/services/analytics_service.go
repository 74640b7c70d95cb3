package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"haulpulse/internal/dataprocessing"
	"haulpulse/internal/exporter"
	"haulpulse/internal/infrastructure"
	"haulpulse/pkg/contracts/domain"
)

// SessionInfo describes a stored session.
type SessionInfo struct {
	ID        string              `json:"session_id"`
	Filename  string              `json:"filename"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
	Summary   domain.BatchSummary `json:"summary"`
}

// Period is an inclusive range of calendar days. A zero bound is open and
// resolves to the batch's first or last day.
type Period struct {
	From time.Time
	To   time.Time
}

// RangeQuery asks for an aggregation over a period.
type RangeQuery struct {
	Period    Period
	Dimension domain.Dimension
	Metrics   dataprocessing.Metric
}

// AggregateResult is an aggregate table with its totals and ranking insight.
type AggregateResult struct {
	Dimension domain.Dimension      `json:"dimension"`
	Range     string                `json:"range"`
	Status    domain.InsightStatus  `json:"status"`
	Rows      []domain.AggregateRow `json:"rows"`
	Totals    domain.Totals         `json:"totals"`
	Insight   domain.RankingInsight `json:"insight"`
}

// TrendResult is the daily series of a period.
type TrendResult struct {
	Range  string              `json:"range"`
	Status domain.InsightStatus `json:"status"`
	Points []domain.TrendPoint `json:"points"`
	Totals domain.Totals       `json:"totals"`
}

// CompareQuery asks for a comparison of two closed periods.
type CompareQuery struct {
	Period1   Period
	Period2   Period
	Dimension domain.Dimension
}

// CompareResult is a comparison table with batch totals and mover insight.
type CompareResult struct {
	Dimension domain.Dimension        `json:"dimension"`
	Period1   string                  `json:"period_1"`
	Period2   string                  `json:"period_2"`
	Rows      []domain.ComparisonRow  `json:"rows"`
	Totals    domain.TotalsComparison `json:"totals"`
	Movers    domain.MoverInsight     `json:"movers"`
}

// ExportTable names an exportable result.
type ExportTable string

const (
	TableAggregate  ExportTable = "aggregate"
	TableTrend      ExportTable = "trend"
	TableComparison ExportTable = "comparison"
)

// ParseExportTable resolves a table name; empty means aggregate.
func ParseExportTable(s string) (ExportTable, error) {
	switch t := ExportTable(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TableAggregate, nil
	case TableAggregate, TableTrend, TableComparison:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, s)
}

// ExportQuery selects a table and the file format to render it in.
// Range drives aggregate and trend tables, Compare the comparison table.
type ExportQuery struct {
	Table   ExportTable
	Format  exporter.Format
	Range   RangeQuery
	Compare CompareQuery
}

// Filename is the download name of the export, e.g. aggregate_carrier.xlsx.
func (q ExportQuery) Filename() string {
	parts := []string{string(q.Table)}
	switch q.Table {
	case TableAggregate:
		dim := q.Range.Dimension
		if dim == "" {
			dim = domain.DimensionCarrier
		}
		parts = append(parts, string(dim))
	case TableComparison:
		parts = append(parts, string(q.Compare.Dimension))
	}
	if q.Table != TableComparison {
		for _, t := range []time.Time{q.Range.Period.From, q.Range.Period.To} {
			if !t.IsZero() {
				parts = append(parts, t.Format(dataprocessing.DateLayoutISO))
			}
		}
	}
	return strings.Join(parts, "_") + "." + q.Format.Extension()
}

// AnalyticsService turns uploads into sessions and answers analytics queries on them.
type AnalyticsService struct {
	pipeline *dataprocessing.Pipeline
	engine   *dataprocessing.Engine
	store    *SessionStore
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewAnalyticsService creates the service. A nil metrics records nothing.
func NewAnalyticsService(pipeline *dataprocessing.Pipeline, store *SessionStore, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		pipeline: pipeline,
		engine:   pipeline.Engine(),
		store:    store,
		metrics:  metricsOrNoop(metrics),
		logger:   logger.With(slog.String("component", "analytics_service")),
	}
}

// CreateSession normalizes the uploaded file and stores the batch.
func (s *AnalyticsService) CreateSession(ctx context.Context, filename string, r io.Reader) (SessionInfo, error) {
	counter := &countingReader{r: r}
	batch, err := s.pipeline.LoadReaderAndRun(ctx, counter, filename)
	s.metrics.UploadBytes.Record(ctx, counter.n)
	if err != nil {
		s.countUpload(ctx, "rejected")
		return SessionInfo{}, fmt.Errorf("failed to process %s: %w", filename, err)
	}

	sess, err := s.store.Put(filename, batch)
	if err != nil {
		s.countUpload(ctx, "rejected")
		return SessionInfo{}, err
	}
	s.countUpload(ctx, "accepted")

	info := sessionInfo(sess)
	infrastructure.LoggerWithContext(ctx, s.logger).InfoContext(ctx, "Session created",
		slog.String("session_id", sess.ID),
		slog.String("filename", filename),
		slog.Int64("bytes", counter.n),
		slog.Int("rows_kept", info.Summary.RowsKept),
		slog.Int("rows_dropped", info.Summary.RowsDropped))
	return info, nil
}

// GetSession returns the session's description.
func (s *AnalyticsService) GetSession(ctx context.Context, id string) (SessionInfo, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return SessionInfo{}, err
	}
	return sessionInfo(sess), nil
}

// DeleteSession drops the session and its batch.
func (s *AnalyticsService) DeleteSession(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	infrastructure.LoggerWithContext(ctx, s.logger).InfoContext(ctx, "Session deleted",
		slog.String("session_id", id))
	return nil
}

// DayReport returns the dashboard of one day.
func (s *AnalyticsService) DayReport(ctx context.Context, id string, day time.Time) (domain.DayReport, error) {
	sess, err := s.session(ctx, id, "day")
	if err != nil {
		return domain.DayReport{}, err
	}
	return s.engine.DayReport(sess.Batch, day), nil
}

// Aggregate groups the period's records by the query dimension.
func (s *AnalyticsService) Aggregate(ctx context.Context, id string, q RangeQuery) (AggregateResult, error) {
	sess, err := s.session(ctx, id, "aggregate")
	if err != nil {
		return AggregateResult{}, err
	}
	return s.aggregate(sess.Batch, q)
}

func (s *AnalyticsService) aggregate(b *dataprocessing.Batch, q RangeQuery) (AggregateResult, error) {
	if q.Metrics == 0 {
		q.Metrics = dataprocessing.MetricAll
	}
	if q.Dimension == "" {
		q.Dimension = domain.DimensionCarrier
	}
	sel := selectorFor(b, q.Period)

	rows, err := s.engine.Aggregate(b, sel, q.Dimension, q.Metrics)
	if err != nil {
		return AggregateResult{}, err
	}
	totals := s.engine.Totals(b, sel)

	return AggregateResult{
		Dimension: q.Dimension,
		Range:     sel.String(),
		Status:    statusOf(totals),
		Rows:      rows,
		Totals:    totals,
		Insight:   s.engine.Insights().Rank(q.Dimension, rows, totals.Volume),
	}, nil
}

// Trend returns the daily volume and guide count over a period.
func (s *AnalyticsService) Trend(ctx context.Context, id string, p Period) (TrendResult, error) {
	sess, err := s.session(ctx, id, "trend")
	if err != nil {
		return TrendResult{}, err
	}
	return s.trend(sess.Batch, p), nil
}

func (s *AnalyticsService) trend(b *dataprocessing.Batch, p Period) TrendResult {
	sel := selectorFor(b, p)
	totals := s.engine.Totals(b, sel)
	return TrendResult{
		Range:  sel.String(),
		Status: statusOf(totals),
		Points: s.engine.DailyTrend(b, sel),
		Totals: totals,
	}
}

// Compare compares two periods key by key and in total.
func (s *AnalyticsService) Compare(ctx context.Context, id string, q CompareQuery) (CompareResult, error) {
	if err := q.validate(); err != nil {
		return CompareResult{}, err
	}
	sess, err := s.session(ctx, id, "compare")
	if err != nil {
		return CompareResult{}, err
	}
	return s.compare(sess.Batch, q)
}

func (s *AnalyticsService) compare(b *dataprocessing.Batch, q CompareQuery) (CompareResult, error) {
	p1 := dataprocessing.Between(q.Period1.From, q.Period1.To)
	p2 := dataprocessing.Between(q.Period2.From, q.Period2.To)

	rows, err := s.engine.Compare(b, p1, p2, q.Dimension)
	if err != nil {
		return CompareResult{}, err
	}

	return CompareResult{
		Dimension: q.Dimension,
		Period1:   p1.String(),
		Period2:   p2.String(),
		Rows:      rows,
		Totals:    s.engine.CompareTotals(b, p1, p2),
		Movers:    s.engine.Insights().Movers(q.Dimension, rows),
	}, nil
}

// Export renders the requested table to w.
func (s *AnalyticsService) Export(ctx context.Context, id string, q ExportQuery, w io.Writer) error {
	if q.Table == TableComparison {
		if err := q.Compare.validate(); err != nil {
			return err
		}
	}
	sess, err := s.session(ctx, id, "export")
	if err != nil {
		return err
	}

	var table exporter.Table
	switch q.Table {
	case TableAggregate:
		res, err := s.aggregate(sess.Batch, q.Range)
		if err != nil {
			return err
		}
		table = exporter.AggregateTable(res.Dimension, res.Rows)
	case TableTrend:
		table = exporter.TrendTable(s.trend(sess.Batch, q.Range.Period).Points)
	case TableComparison:
		res, err := s.compare(sess.Batch, q.Compare)
		if err != nil {
			return err
		}
		table = exporter.ComparisonTable(res.Dimension, res.Rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTable, q.Table)
	}

	if err := exporter.Write(w, q.Format, table); err != nil {
		return fmt.Errorf("failed to export %s: %w", q.Table, err)
	}
	s.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", string(q.Format)),
		attribute.String("table", string(q.Table))))

	infrastructure.LoggerWithContext(ctx, s.logger).InfoContext(ctx, "Table exported",
		slog.String("session_id", id),
		slog.String("table", string(q.Table)),
		slog.String("format", string(q.Format)),
		slog.Int("rows", len(table.Rows)))
	return nil
}

func (s *AnalyticsService) session(ctx context.Context, id, kind string) (Session, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return Session{}, err
	}
	s.metrics.QueriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	return sess, nil
}

func (s *AnalyticsService) countUpload(ctx context.Context, outcome string) {
	s.metrics.UploadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (q CompareQuery) validate() error {
	bounds := []struct {
		name string
		t    time.Time
	}{
		{"period 1 start", q.Period1.From},
		{"period 1 end", q.Period1.To},
		{"period 2 start", q.Period2.From},
		{"period 2 end", q.Period2.To},
	}
	var missing []string
	for _, b := range bounds {
		if b.t.IsZero() {
			missing = append(missing, b.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if !q.Dimension.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownDimension, q.Dimension)
	}
	return nil
}

// selectorFor resolves open bounds against the batch's date span.
func selectorFor(b *dataprocessing.Batch, p Period) dataprocessing.DateSelector {
	if p.From.IsZero() && p.To.IsZero() {
		return dataprocessing.AllDates()
	}
	first, last, ok := b.DateSpan()
	if !ok {
		return dataprocessing.AllDates()
	}
	from, to := p.From, p.To
	if from.IsZero() {
		from = first
	}
	if to.IsZero() {
		to = last
	}
	return dataprocessing.Between(from, to)
}

func statusOf(t domain.Totals) domain.InsightStatus {
	if t.Count == 0 {
		return domain.InsightNoData
	}
	return domain.InsightOK
}

func sessionInfo(sess Session) SessionInfo {
	return SessionInfo{
		ID:        sess.ID,
		Filename:  sess.Filename,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
		Summary:   sess.Batch.Summary(),
	}
}

func metricsOrNoop(m *infrastructure.BusinessMetrics) *infrastructure.BusinessMetrics {
	if m != nil {
		return m
	}
	// The no-op meter never fails to create instruments.
	m, _ = infrastructure.CreateBusinessMetrics(noop.NewMeterProvider().Meter(""))
	return m
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
