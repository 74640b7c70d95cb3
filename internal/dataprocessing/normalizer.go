package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"

	"haulpulse/pkg/contracts/domain"
)

// Normalizer turns a validated RawTable into a Batch of typed, cleaned records.
type Normalizer struct {
	cols     ColumnConfig
	layouts  []string
	carriers *CarrierCanonicalizer
	logger   *slog.Logger
}

// NewNormalizer builds a normalizer for cfg.
func NewNormalizer(cfg Config, logger *slog.Logger) (*Normalizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	carriers, err := NewCarrierCanonicalizer(cfg.CarrierAliases, cfg.LooseCarrierMatching)
	if err != nil {
		return nil, err
	}
	cfg = cfg.clone()
	return &Normalizer{
		cols:     cfg.Columns,
		layouts:  dateLayouts(cfg.DateLayout),
		carriers: carriers,
		logger:   logger.With(slog.String("component", "normalizer")),
	}, nil
}

// Carriers returns the canonicalizer used for the carrier column.
func (n *Normalizer) Carriers() *CarrierCanonicalizer {
	return n.carriers
}

// stagedRow is one row moving through the normalization steps.
type stagedRow struct {
	raw domain.RawRecord
	rec domain.ShipmentRecord
}

// stagedTable is the table passed between steps. Steps never modify their input.
type stagedTable struct {
	header            []string
	keys              map[string]string // cleaned column name -> key in raw records
	rows              []stagedRow
	regulationColumns []string
	volumesCoerced    int
}

func (t stagedTable) withRows(rows []stagedRow) stagedTable {
	t.rows = rows
	return t
}

func (t stagedTable) value(row stagedRow, column string) any {
	key, ok := t.keys[cleanHeader(column)]
	if !ok {
		return nil
	}
	return row.raw[key]
}

func stage(table domain.RawTable) stagedTable {
	keys := make(map[string]string, len(table.Header))
	for _, h := range table.Header {
		c := cleanHeader(h)
		if _, dup := keys[c]; !dup {
			keys[c] = h
		}
	}
	rows := make([]stagedRow, len(table.Rows))
	for i, raw := range table.Rows {
		rows[i] = stagedRow{raw: raw, rec: domain.ShipmentRecord{Row: i + 1}}
	}
	return stagedTable{header: table.Header, keys: keys, rows: rows}
}

// Normalize runs every step over the table and returns the resulting batch.
// The table is expected to have passed ValidateSchema.
func (n *Normalizer) Normalize(table domain.RawTable) *Batch {
	t := stage(table)

	steps := []func(stagedTable) (stagedTable, []domain.Warning){
		n.normalizeDates,
		n.normalizeVolumes,
		n.normalizeCategories,
		n.normalizeRegulations,
	}
	var warnings []domain.Warning
	for _, step := range steps {
		var w []domain.Warning
		t, w = step(t)
		warnings = append(warnings, w...)
	}

	records := make([]domain.ShipmentRecord, len(t.rows))
	for i, row := range t.rows {
		records[i] = row.rec
	}

	for _, w := range warnings {
		n.logger.Warn("Normalization warning",
			slog.String("source", table.Source),
			slog.String("code", w.Code),
			slog.Int("count", w.Count),
			slog.Any("columns", w.Columns))
	}
	n.logger.Info("Batch normalized",
		slog.String("source", table.Source),
		slog.Int("rows_read", len(table.Rows)),
		slog.Int("rows_kept", len(records)),
		slog.Int("volumes_coerced", t.volumesCoerced),
		slog.Int("regulation_columns", len(t.regulationColumns)))

	return &Batch{
		source:            table.Source,
		sheet:             table.Sheet,
		records:           records,
		regulationColumns: t.regulationColumns,
		warnings:          warnings,
		rowsRead:          len(table.Rows),
		volumesCoerced:    t.volumesCoerced,
	}
}

// normalizeDates parses the date column and drops rows whose date cannot be read.
func (n *Normalizer) normalizeDates(t stagedTable) (stagedTable, []domain.Warning) {
	rows := make([]stagedRow, 0, len(t.rows))
	dropped := 0
	for _, row := range t.rows {
		d, ok := parseDate(t.value(row, n.cols.Date), n.layouts)
		if !ok {
			dropped++
			continue
		}
		row.rec.Date = d
		rows = append(rows, row)
	}

	var warnings []domain.Warning
	if dropped > 0 {
		warnings = append(warnings, domain.Warning{
			Code:     domain.WarningInvalidDates,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("%d rows dropped: %s could not be read as a date", dropped, n.cols.Date),
			Count:    dropped,
			Columns:  []string{n.cols.Date},
		})
	}
	return t.withRows(rows), warnings
}

// normalizeVolumes parses the volume column. Unusable values become zero and the row is kept.
func (n *Normalizer) normalizeVolumes(t stagedTable) (stagedTable, []domain.Warning) {
	rows := make([]stagedRow, len(t.rows))
	coerced, negative := 0, 0
	for i, row := range t.rows {
		v, status := parseVolume(t.value(row, n.cols.Volume))
		switch status {
		case volumeCoerced:
			coerced++
		case volumeNegative:
			negative++
		}
		row.rec.Volume = v
		rows[i] = row
	}

	out := t.withRows(rows)
	out.volumesCoerced = coerced + negative

	var warnings []domain.Warning
	if coerced > 0 {
		warnings = append(warnings, domain.Warning{
			Code:     domain.WarningVolumesCoerced,
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("%d %s values could not be read and were counted as 0", coerced, n.cols.Volume),
			Count:    coerced,
			Columns:  []string{n.cols.Volume},
		})
	}
	if negative > 0 {
		warnings = append(warnings, domain.Warning{
			Code:     domain.WarningNegativeVolumes,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("%d negative %s values were counted as 0", negative, n.cols.Volume),
			Count:    negative,
			Columns:  []string{n.cols.Volume},
		})
	}
	return out, warnings
}

// normalizeCategories copies product and destination and canonicalizes the carrier.
func (n *Normalizer) normalizeCategories(t stagedTable) (stagedTable, []domain.Warning) {
	rows := make([]stagedRow, len(t.rows))
	for i, row := range t.rows {
		row.rec.Product = cellString(t.value(row, n.cols.Product))
		row.rec.Destination = cellString(t.value(row, n.cols.Destination))
		raw := cellString(t.value(row, n.cols.Carrier))
		row.rec.CarrierRaw = raw
		row.rec.Carrier = n.carriers.Canonicalize(raw)
		rows[i] = row
	}
	return t.withRows(rows), nil
}

// normalizeRegulations derives one flag per present regulation column: set when the cell is not blank.
func (n *Normalizer) normalizeRegulations(t stagedTable) (stagedTable, []domain.Warning) {
	present, missing := presentColumns(t.header, n.cols.Regulations)

	rows := make([]stagedRow, len(t.rows))
	for i, row := range t.rows {
		row.rec.RegulationFlags = nil
		if len(present) > 0 {
			flags := make([]bool, len(present))
			for j, col := range present {
				flags[j] = strings.TrimSpace(cellString(t.value(row, col))) != ""
			}
			row.rec.RegulationFlags = flags
		}
		rows[i] = row
	}

	out := t.withRows(rows)
	out.regulationColumns = present

	var warnings []domain.Warning
	if len(missing) > 0 {
		msg := fmt.Sprintf("regulation columns not found: %s", strings.Join(missing, ", "))
		if len(present) == 0 {
			msg += "; regulation counts are unavailable"
		}
		warnings = append(warnings, domain.Warning{
			Code:     domain.WarningRegulationsMissing,
			Severity: domain.SeverityWarning,
			Message:  msg,
			Columns:  missing,
		})
	}
	return out, warnings
}
