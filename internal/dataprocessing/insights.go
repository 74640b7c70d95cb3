package dataprocessing

import (
	"fmt"
	"strconv"

	"haulpulse/pkg/contracts/domain"
)

// InsightGenerator extracts presentation facts from aggregate and comparison tables.
type InsightGenerator struct {
	unit string
}

// NewInsightGenerator creates a generator that renders volumes in tonnes.
func NewInsightGenerator() *InsightGenerator {
	return &InsightGenerator{unit: "t"}
}

// Rank highlights the first and last rows of an aggregate table already sorted
// by descending volume. The bottom entity is only reported when there is more
// than one row. TopShare is zero when total is zero.
func (g *InsightGenerator) Rank(dim domain.Dimension, rows []domain.AggregateRow, total float64) domain.RankingInsight {
	insight := domain.RankingInsight{
		Dimension: dim,
		Status:    domain.InsightNoData,
		Total:     total,
		Narrative: []string{},
	}
	if len(rows) == 0 {
		insight.Narrative = append(insight.Narrative, fmt.Sprintf("No %s data for the selected dates.", dim))
		return insight
	}

	insight.Status = domain.InsightOK
	top := rows[0]
	insight.Top = &domain.RankedEntity{Key: top.Key, Volume: top.Volume, Count: top.Count}
	if total > 0 {
		insight.TopShare = top.Volume / total * 100
	}
	insight.Narrative = append(insight.Narrative,
		fmt.Sprintf("Top %s: %s with %s (%.1f%% of total).", dim, top.Key, g.volume(top.Volume), insight.TopShare))

	if len(rows) > 1 {
		bottom := rows[len(rows)-1]
		insight.Bottom = &domain.RankedEntity{Key: bottom.Key, Volume: bottom.Volume, Count: bottom.Count}
		insight.Narrative = append(insight.Narrative,
			fmt.Sprintf("Lowest %s: %s with %s.", dim, bottom.Key, g.volume(bottom.Volume)))
	}
	return insight
}

// Movers finds the largest increase and the largest decrease of a comparison by
// linear scan; ties go to the row seen first.
func (g *InsightGenerator) Movers(dim domain.Dimension, rows []domain.ComparisonRow) domain.MoverInsight {
	insight := domain.MoverInsight{
		Dimension: dim,
		Status:    domain.InsightNoData,
		Narrative: []string{},
	}
	if len(rows) == 0 {
		insight.Narrative = append(insight.Narrative, fmt.Sprintf("No %s data in either period.", dim))
		return insight
	}

	growth, decline := rows[0], rows[0]
	for _, r := range rows[1:] {
		if r.Delta > growth.Delta {
			growth = r
		}
		if r.Delta < decline.Delta {
			decline = r
		}
	}

	insight.Status = domain.InsightOK
	insight.Growth = &domain.Mover{Key: growth.Key, Delta: growth.Delta, DeltaPct: growth.DeltaPct}
	insight.Decline = &domain.Mover{Key: decline.Key, Delta: decline.Delta, DeltaPct: decline.DeltaPct}
	insight.Narrative = append(insight.Narrative,
		fmt.Sprintf("Largest increase: %s (%s, %s).", growth.Key, g.signedVolume(growth.Delta), growth.DeltaPct),
		fmt.Sprintf("Largest decrease: %s (%s, %s).", decline.Key, g.signedVolume(decline.Delta), decline.DeltaPct))
	return insight
}

func (g *InsightGenerator) volume(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " " + g.unit
}

func (g *InsightGenerator) signedVolume(v float64) string {
	if v > 0 {
		return "+" + g.volume(v)
	}
	return g.volume(v)
}
