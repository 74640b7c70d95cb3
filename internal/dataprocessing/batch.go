package dataprocessing

import (
	"time"

	"haulpulse/pkg/contracts/domain"
)

// Batch is the immutable, normalized working set of one uploaded file.
// All accessors return copies; nothing writes to a Batch after Normalize returns it.
type Batch struct {
	source            string
	sheet             string
	records           []domain.ShipmentRecord
	regulationColumns []string
	warnings          []domain.Warning
	rowsRead          int
	volumesCoerced    int
}

// Len returns the number of normalized records.
func (b *Batch) Len() int {
	return len(b.records)
}

// Source returns the name of the uploaded file.
func (b *Batch) Source() string {
	return b.source
}

// Records returns a copy of the normalized records in source order.
func (b *Batch) Records() []domain.ShipmentRecord {
	out := make([]domain.ShipmentRecord, len(b.records))
	for i, r := range b.records {
		out[i] = r.Clone()
	}
	return out
}

// RegulationColumns returns the regulation columns present in the upload,
// aligned with ShipmentRecord.RegulationFlags.
func (b *Batch) RegulationColumns() []string {
	out := make([]string, len(b.regulationColumns))
	copy(out, b.regulationColumns)
	return out
}

// RegulationTracking reports whether any regulation column was present.
func (b *Batch) RegulationTracking() bool {
	return len(b.regulationColumns) > 0
}

// Warnings returns the aggregated normalization warnings.
func (b *Batch) Warnings() []domain.Warning {
	out := make([]domain.Warning, len(b.warnings))
	for i, w := range b.warnings {
		if w.Columns != nil {
			w.Columns = append([]string(nil), w.Columns...)
		}
		out[i] = w
	}
	return out
}

// DateSpan returns the first and last calendar day with records.
func (b *Batch) DateSpan() (first, last time.Time, ok bool) {
	for i, r := range b.records {
		if i == 0 || r.Date.Before(first) {
			first = r.Date
		}
		if i == 0 || r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last, len(b.records) > 0
}

// Summary describes the batch for upload responses and the CLI.
func (b *Batch) Summary() domain.BatchSummary {
	s := domain.BatchSummary{
		Source:             b.source,
		Sheet:              b.sheet,
		RowsRead:           b.rowsRead,
		RowsKept:           len(b.records),
		RowsDropped:        b.rowsRead - len(b.records),
		VolumesCoerced:     b.volumesCoerced,
		RegulationColumns:  b.RegulationColumns(),
		RegulationTracking: b.RegulationTracking(),
		Warnings:           b.Warnings(),
	}

	if first, last, ok := b.DateSpan(); ok {
		s.FirstDate = &first
		s.LastDate = &last
	}

	carriers := make(map[string]struct{})
	products := make(map[string]struct{})
	destinations := make(map[string]struct{})
	for _, r := range b.records {
		s.TotalVolume += r.Volume
		carriers[r.Carrier] = struct{}{}
		products[r.Product] = struct{}{}
		destinations[r.Destination] = struct{}{}
	}
	s.Carriers = len(carriers)
	s.Products = len(products)
	s.Destinations = len(destinations)

	return s
}

// selectRecords returns the records whose date the selector contains, in source order.
// The returned slice shares elements with the batch and must be treated as read-only.
func (b *Batch) selectRecords(sel DateSelector) []domain.ShipmentRecord {
	if sel.all {
		return b.records
	}
	var out []domain.ShipmentRecord
	for _, r := range b.records {
		if sel.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}
