package dataprocessing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulpulse/pkg/contracts/domain"
)

func sampleBatch(t *testing.T) *Batch {
	t.Helper()
	return batchOf(t,
		shipment("01-01-2024", "10", "ARENA", "BETA", "NORTE"),
		shipment("01-01-2024", "30", "GRAVA", "ALFA", "SUR"),
		shipment("01-01-2024", "10", "ARENA", "GAMMA", "NORTE"),
		shipment("01-01-2024", "5", "ARENA", "BETA", "SUR"),
		shipment("02-01-2024", "100", "GRAVA", "DELTA", "ESTE"),
		shipment("03-01-2024", "bad", "ARENA", "ALFA", "NORTE"),
	)
}

func TestAggregate(t *testing.T) {
	e := NewEngine()
	b := sampleBatch(t)

	tests := []struct {
		name    string
		sel     DateSelector
		dim     domain.Dimension
		metrics Metric
		want    []domain.AggregateRow
	}{
		{
			name:    "carrier on one day sorted by volume",
			sel:     OnDay(date("2024-01-01")),
			dim:     domain.DimensionCarrier,
			metrics: MetricAll,
			want: []domain.AggregateRow{
				{Key: "ALFA", Volume: 30, Count: 1},
				{Key: "BETA", Volume: 15, Count: 2},
				{Key: "GAMMA", Volume: 10, Count: 1},
			},
		},
		{
			name:    "destination on one day",
			sel:     OnDay(date("2024-01-01")),
			dim:     domain.DimensionDestination,
			metrics: MetricAll,
			want: []domain.AggregateRow{
				{Key: "SUR", Volume: 35, Count: 2},
				{Key: "NORTE", Volume: 20, Count: 2},
			},
		},
		{
			name:    "count only sorts by count",
			sel:     AllDates(),
			dim:     domain.DimensionProduct,
			metrics: MetricCount,
			want: []domain.AggregateRow{
				{Key: "ARENA", Count: 4},
				{Key: "GRAVA", Count: 2},
			},
		},
		{
			name:    "volume only leaves counts at zero",
			sel:     AllDates(),
			dim:     domain.DimensionProduct,
			metrics: MetricVolume,
			want: []domain.AggregateRow{
				{Key: "GRAVA", Volume: 130},
				{Key: "ARENA", Volume: 25},
			},
		},
		{
			name:    "zero volume rows still count",
			sel:     OnDay(date("2024-01-03")),
			dim:     domain.DimensionCarrier,
			metrics: MetricAll,
			want:    []domain.AggregateRow{{Key: "ALFA", Volume: 0, Count: 1}},
		},
		{
			name:    "range is inclusive",
			sel:     Between(date("2024-01-02"), date("2024-01-03")),
			dim:     domain.DimensionCarrier,
			metrics: MetricAll,
			want: []domain.AggregateRow{
				{Key: "DELTA", Volume: 100, Count: 1},
				{Key: "ALFA", Volume: 0, Count: 1},
			},
		},
		{
			name:    "empty selection",
			sel:     OnDay(date("2025-01-01")),
			dim:     domain.DimensionCarrier,
			metrics: MetricAll,
			want:    []domain.AggregateRow{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Aggregate(b, tt.sel, tt.dim, tt.metrics)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAggregateTiesKeepFirstSeenOrder(t *testing.T) {
	b := batchOf(t,
		shipment("01-01-2024", "10", "A", "YUNGAY", "D"),
		shipment("01-01-2024", "10", "A", "ANDES", "D"),
		shipment("01-01-2024", "20", "A", "BIOBIO", "D"),
		shipment("01-01-2024", "10", "A", "ZAPALLAR", "D"),
	)

	rows, err := NewEngine().Aggregate(b, AllDates(), domain.DimensionCarrier, MetricAll)
	require.NoError(t, err)

	var keys []string
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"BIOBIO", "YUNGAY", "ANDES", "ZAPALLAR"}, keys)
}

func TestAggregateInvariants(t *testing.T) {
	e := NewEngine()
	b := sampleBatch(t)

	for _, dim := range domain.Dimensions() {
		for _, sel := range []DateSelector{AllDates(), OnDay(date("2024-01-01")), Between(date("2024-01-01"), date("2024-01-02"))} {
			rows, err := e.Aggregate(b, sel, dim, MetricAll)
			require.NoError(t, err)

			totals := e.Totals(b, sel)
			var volume float64
			var count int
			for i, r := range rows {
				assert.Positive(t, r.Count, "no key without matching records")
				if i > 0 {
					assert.GreaterOrEqual(t, rows[i-1].Volume, r.Volume, "descending volume")
				}
				volume += r.Volume
				count += r.Count
			}
			assert.InDelta(t, totals.Volume, volume, 1e-9, "volume is conserved")
			assert.Equal(t, totals.Count, count, "every record is counted once")
		}
	}
}

func TestAggregateReversedRange(t *testing.T) {
	e := NewEngine()
	b := sampleBatch(t)

	forward, err := e.Aggregate(b, Between(date("2024-01-01"), date("2024-01-02")), domain.DimensionCarrier, MetricAll)
	require.NoError(t, err)
	reversed, err := e.Aggregate(b, Between(date("2024-01-02"), date("2024-01-01")), domain.DimensionCarrier, MetricAll)
	require.NoError(t, err)

	assert.Equal(t, forward, reversed)
}

func TestAggregateUnknownDimension(t *testing.T) {
	_, err := NewEngine().Aggregate(sampleBatch(t), AllDates(), domain.Dimension("region"), MetricAll)
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func TestAggregateIsRepeatable(t *testing.T) {
	e := NewEngine()
	b := sampleBatch(t)

	first, err := e.Aggregate(b, AllDates(), domain.DimensionCarrier, MetricAll)
	require.NoError(t, err)
	first[0].Volume = -1

	second, err := e.Aggregate(b, AllDates(), domain.DimensionCarrier, MetricAll)
	require.NoError(t, err)
	assert.Equal(t, "DELTA", second[0].Key)
	assert.Equal(t, 100.0, second[0].Volume)
}

func TestParseMetrics(t *testing.T) {
	for in, want := range map[string]Metric{"": MetricAll, "all": MetricAll, "volume": MetricVolume, "count": MetricCount} {
		got, err := ParseMetrics(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMetrics("sum")
	assert.Error(t, err)
}

func TestDailyTrend(t *testing.T) {
	points := NewEngine().DailyTrend(sampleBatch(t), AllDates())

	want := []domain.TrendPoint{
		{Date: date("2024-01-01"), Volume: 55, Count: 4},
		{Date: date("2024-01-02"), Volume: 100, Count: 1},
		{Date: date("2024-01-03"), Volume: 0, Count: 1},
	}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Errorf("DailyTrend() mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, NewEngine().DailyTrend(sampleBatch(t), OnDay(date("2030-01-01"))))
}

func TestRegulationCounts(t *testing.T) {
	flagged := func(fecha string, regs ...string) domain.RawRecord {
		r := shipment(fecha, "1", "A", "C", "D")
		for _, col := range regs {
			r[col] = "X"
		}
		return r
	}
	b := batchOf(t,
		flagged("01-01-2024", "REGULACION 1"),
		flagged("01-01-2024", "REGULACION 1", "REGULACION 3"),
		flagged("02-01-2024", "REGULACION 2"),
	)

	summary := NewEngine().RegulationCounts(b, OnDay(date("2024-01-01")))

	assert.True(t, summary.Available)
	assert.Equal(t, []domain.RegulationCount{
		{Column: "REGULACION 1", Count: 2},
		{Column: "REGULACION 2", Count: 0},
		{Column: "REGULACION 3", Count: 1},
	}, summary.Counts)
}

func TestRegulationCountsUnavailable(t *testing.T) {
	table := rawTable(shipment("01-01-2024", "1", "A", "C", "D"))
	table.Header = []string{"FECHA", "TONELAJE", "PRODUCTO", "TRANSPORTISTA", "DESTINO"}
	b := newTestNormalizer(t).Normalize(table)

	summary := NewEngine().RegulationCounts(b, AllDates())

	assert.False(t, summary.Available)
	assert.Empty(t, summary.Counts)
}

func TestDayReport(t *testing.T) {
	e := NewEngine()
	b := sampleBatch(t)

	report := e.DayReport(b, date("2024-01-01"))

	assert.Equal(t, domain.InsightOK, report.Status)
	assert.Equal(t, domain.Totals{Volume: 55, Count: 4}, report.Totals)
	assert.Equal(t, "ALFA", report.Carriers[0].Key)
	assert.Equal(t, "GRAVA", report.Products[0].Key)
	assert.Equal(t, "SUR", report.Destinations[0].Key)
	require.Len(t, report.Insights, 3)
	assert.Equal(t, domain.DimensionCarrier, report.Insights[0].Dimension)
	assert.InDelta(t, 30.0/55*100, report.Insights[0].TopShare, 1e-9)
}

func TestDayReportNoData(t *testing.T) {
	report := NewEngine().DayReport(sampleBatch(t), date("2030-06-01"))

	assert.Equal(t, domain.InsightNoData, report.Status)
	assert.Zero(t, report.Totals.Count)
	assert.NotNil(t, report.Carriers)
	assert.Empty(t, report.Carriers)
	require.Len(t, report.Insights, 3)
	for _, insight := range report.Insights {
		assert.Equal(t, domain.InsightNoData, insight.Status)
	}
}

func TestDateSelector(t *testing.T) {
	sel := Between(date("2024-01-03"), date("2024-01-01"))

	assert.True(t, sel.Contains(date("2024-01-01")))
	assert.True(t, sel.Contains(date("2024-01-03").Add(23*3600e9)))
	assert.False(t, sel.Contains(date("2024-01-04")))
	assert.Equal(t, "2024-01-01..2024-01-03", sel.String())
	assert.Equal(t, "2024-01-02", OnDay(date("2024-01-02")).String())
	assert.Equal(t, "all dates", AllDates().String())
}
