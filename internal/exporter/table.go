package exporter

import (
	"strings"
	"time"

	"haulpulse/pkg/contracts/domain"
)

// Kind tells writers how to render a column's cells.
type Kind int

const (
	KindText    Kind = iota // string
	KindNumber              // float64
	KindInteger             // int
	KindPercent             // domain.Percent
	KindDate                // time.Time
)

// Column is a table header cell and the kind of values below it.
type Column struct {
	Name string
	Kind Kind
}

// Table is an export-ready result set. Every row holds one value per column,
// typed according to the column's Kind.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Header returns the column names.
func (t Table) Header() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// AggregateTable lists volume and guide count per key of the dimension.
func AggregateTable(dim domain.Dimension, rows []domain.AggregateRow) Table {
	t := Table{
		Name: "aggregate_" + string(dim),
		Columns: []Column{
			{Name: titleCase(string(dim)), Kind: KindText},
			{Name: "Volume", Kind: KindNumber},
			{Name: "Guides", Kind: KindInteger},
		},
		Rows: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Key, r.Volume, r.Count})
	}
	return t
}

// ComparisonTable lists both periods' volumes and the change per key.
func ComparisonTable(dim domain.Dimension, rows []domain.ComparisonRow) Table {
	t := Table{
		Name: "comparison_" + string(dim),
		Columns: []Column{
			{Name: titleCase(string(dim)), Kind: KindText},
			{Name: "Period 1", Kind: KindNumber},
			{Name: "Period 2", Kind: KindNumber},
			{Name: "Delta", Kind: KindNumber},
			{Name: "Delta %", Kind: KindPercent},
		},
		Rows: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Key, r.Volume1, r.Volume2, r.Delta, r.DeltaPct})
	}
	return t
}

// TrendTable lists the daily volume and guide count.
func TrendTable(points []domain.TrendPoint) Table {
	t := Table{
		Name: "trend",
		Columns: []Column{
			{Name: "Date", Kind: KindDate},
			{Name: "Volume", Kind: KindNumber},
			{Name: "Guides", Kind: KindInteger},
		},
		Rows: make([][]any, 0, len(points)),
	}
	for _, p := range points {
		t.Rows = append(t.Rows, []any{p.Date, p.Volume, p.Count})
	}
	return t
}

// SummaryTable lists a batch summary as field/value pairs.
func SummaryTable(s domain.BatchSummary) Table {
	t := Table{
		Name: "summary",
		Columns: []Column{
			{Name: "Field", Kind: KindText},
			{Name: "Value", Kind: KindText},
		},
	}
	add := func(field, value string) {
		t.Rows = append(t.Rows, []any{field, value})
	}

	add("Source", s.Source)
	if s.Sheet != "" {
		add("Sheet", s.Sheet)
	}
	add("Rows read", formatInt(s.RowsRead))
	add("Rows kept", formatInt(s.RowsKept))
	add("Rows dropped", formatInt(s.RowsDropped))
	add("Volumes coerced", formatInt(s.VolumesCoerced))
	if s.FirstDate != nil && s.LastDate != nil {
		add("First date", formatDate(*s.FirstDate))
		add("Last date", formatDate(*s.LastDate))
	}
	add("Total volume", formatFloat(s.TotalVolume))
	add("Carriers", formatInt(s.Carriers))
	add("Products", formatInt(s.Products))
	add("Destinations", formatInt(s.Destinations))
	add("Regulation columns", strings.Join(s.RegulationColumns, ", "))
	for _, w := range s.Warnings {
		add("Warning "+w.Code, w.Message)
	}
	return t
}

// record renders one row as CSV strings.
func (t Table) record(row []any) []string {
	out := make([]string, len(t.Columns))
	for i := range t.Columns {
		if i >= len(row) || row[i] == nil {
			continue
		}
		switch v := row[i].(type) {
		case float64:
			out[i] = formatFloat(v)
		case int:
			out[i] = formatInt(v)
		case domain.Percent:
			out[i] = formatPercent(v)
		case time.Time:
			out[i] = formatDate(v)
		case string:
			out[i] = v
		}
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
