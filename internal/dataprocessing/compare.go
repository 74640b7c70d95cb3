package dataprocessing

import (
	"haulpulse/pkg/contracts/domain"
)

// Compare aggregates volume over two periods and joins them on key with zero fill.
// Keys of period 1 come first in its order, then keys only present in period 2.
// DeltaPct is undefined whenever period 2 has no volume for the key.
func (e *Engine) Compare(b *Batch, p1, p2 DateSelector, dim domain.Dimension) ([]domain.ComparisonRow, error) {
	rows1, err := e.Aggregate(b, p1, dim, MetricVolume)
	if err != nil {
		return nil, err
	}
	rows2, err := e.Aggregate(b, p2, dim, MetricVolume)
	if err != nil {
		return nil, err
	}

	volume2 := make(map[string]float64, len(rows2))
	for _, r := range rows2 {
		volume2[r.Key] = r.Volume
	}

	out := make([]domain.ComparisonRow, 0, len(rows1)+len(rows2))
	seen := make(map[string]bool, len(rows1))
	for _, r := range rows1 {
		seen[r.Key] = true
		out = append(out, comparisonRow(r.Key, r.Volume, volume2[r.Key]))
	}
	for _, r := range rows2 {
		if !seen[r.Key] {
			out = append(out, comparisonRow(r.Key, 0, r.Volume))
		}
	}
	return out, nil
}

// CompareTotals compares whole-selection volume and record counts of two periods.
func (e *Engine) CompareTotals(b *Batch, p1, p2 DateSelector) domain.TotalsComparison {
	t1, t2 := e.Totals(b, p1), e.Totals(b, p2)
	countDelta := t1.Count - t2.Count
	return domain.TotalsComparison{
		Period1:    t1,
		Period2:    t2,
		Delta:      t1.Volume - t2.Volume,
		DeltaPct:   percentChange(t1.Volume-t2.Volume, t2.Volume),
		CountDelta: countDelta,
		CountPct:   percentChange(float64(countDelta), float64(t2.Count)),
	}
}

func comparisonRow(key string, v1, v2 float64) domain.ComparisonRow {
	delta := v1 - v2
	return domain.ComparisonRow{
		Key:      key,
		Volume1:  v1,
		Volume2:  v2,
		Delta:    delta,
		DeltaPct: percentChange(delta, v2),
	}
}

// percentChange is delta relative to base, undefined for a zero base.
func percentChange(delta, base float64) domain.Percent {
	if base <= 0 {
		return domain.UndefinedPercent()
	}
	return domain.DefinedPercent(delta / base * 100)
}
