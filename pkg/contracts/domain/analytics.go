package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// AggregateRow is one group of an aggregation over a selected subset of a batch.
type AggregateRow struct {
	Key    string  `json:"key"`
	Volume float64 `json:"volume" validate:"min=0"`
	Count  int     `json:"count" validate:"min=0"`
}

// Percent is a percentage that may be undefined (division by zero).
// Undefined values marshal to null and print as "n/a".
type Percent struct {
	Value   float64
	Defined bool
}

// DefinedPercent wraps a computed percentage.
func DefinedPercent(v float64) Percent {
	return Percent{Value: v, Defined: true}
}

// UndefinedPercent is the percentage of a zero base.
func UndefinedPercent() Percent {
	return Percent{}
}

// MarshalJSON implements json.Marshaler.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Percent) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = UndefinedPercent()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = DefinedPercent(v)
	return nil
}

// String renders the percentage with one decimal, or "n/a".
func (p Percent) String() string {
	if !p.Defined {
		return "n/a"
	}
	return strconv.FormatFloat(p.Value, 'f', 1, 64) + "%"
}

// ComparisonRow is one key of a two-period comparison.
type ComparisonRow struct {
	Key      string  `json:"key"`
	Volume1  float64 `json:"volume_1"`
	Volume2  float64 `json:"volume_2"`
	Delta    float64 `json:"delta"`
	DeltaPct Percent `json:"delta_pct"`
}

// Totals is the whole-subset volume and record count.
type Totals struct {
	Volume float64 `json:"volume"`
	Count  int     `json:"count"`
}

// TotalsComparison collapses a comparison to batch totals.
type TotalsComparison struct {
	Period1    Totals  `json:"period_1"`
	Period2    Totals  `json:"period_2"`
	Delta      float64 `json:"delta"`
	DeltaPct   Percent `json:"delta_pct"`
	CountDelta int     `json:"count_delta"`
	CountPct   Percent `json:"count_pct"`
}

// TrendPoint is the volume and number of guides of one calendar day.
type TrendPoint struct {
	Date   time.Time `json:"date"`
	Volume float64   `json:"volume"`
	Count  int       `json:"count"`
}

// RegulationCount is the number of records flagged in one regulation column.
type RegulationCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// RegulationSummary lists counts for every regulation column present in the batch.
// Available is false when the batch carries no regulation column at all.
type RegulationSummary struct {
	Available bool              `json:"available"`
	Counts    []RegulationCount `json:"counts"`
}

// InsightStatus tells whether an insight was computed over data.
type InsightStatus string

const (
	InsightOK     InsightStatus = "ok"
	InsightNoData InsightStatus = "no_data"
)

// RankedEntity is a key highlighted by a ranking insight.
type RankedEntity struct {
	Key    string  `json:"key"`
	Volume float64 `json:"volume"`
	Count  int     `json:"count"`
}

// RankingInsight highlights the leader and the trailer of an aggregate table.
type RankingInsight struct {
	Dimension Dimension     `json:"dimension"`
	Status    InsightStatus `json:"status"`
	Top       *RankedEntity `json:"top,omitempty"`
	Bottom    *RankedEntity `json:"bottom,omitempty"`
	TopShare  float64       `json:"top_share"`
	Total     float64       `json:"total"`
	Narrative []string      `json:"narrative"`
}

// Mover is a key highlighted by a mover insight.
type Mover struct {
	Key      string  `json:"key"`
	Delta    float64 `json:"delta"`
	DeltaPct Percent `json:"delta_pct"`
}

// MoverInsight highlights the largest increase and decrease of a comparison.
type MoverInsight struct {
	Dimension Dimension     `json:"dimension"`
	Status    InsightStatus `json:"status"`
	Growth    *Mover        `json:"growth,omitempty"`
	Decline   *Mover        `json:"decline,omitempty"`
	Narrative []string      `json:"narrative"`
}

// DayReport bundles everything the dashboard shows for one day.
type DayReport struct {
	Date         time.Time         `json:"date"`
	Status       InsightStatus     `json:"status"`
	Totals       Totals            `json:"totals"`
	Carriers     []AggregateRow    `json:"carriers"`
	Products     []AggregateRow    `json:"products"`
	Destinations []AggregateRow    `json:"destinations"`
	Regulations  RegulationSummary `json:"regulations"`
	Insights     []RankingInsight  `json:"insights"`
}
