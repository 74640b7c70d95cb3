package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RawRecord is one uploaded row keyed by header name.
// Values are the untyped cell contents and may be missing or malformed.
type RawRecord map[string]any

// RawTable is an uploaded sheet before any validation.
// Header keeps the column order of the source.
type RawTable struct {
	Source string      `json:"source"`
	Sheet  string      `json:"sheet,omitempty"`
	Header []string    `json:"header"`
	Rows   []RawRecord `json:"rows"`
}

// ShipmentRecord represents a single normalized shipment (one guide) of the batch.
type ShipmentRecord struct {
	Row             int       `json:"row" validate:"min=1"` // 1-based data row in the source table
	Date            time.Time `json:"date" validate:"required"`
	Volume          float64   `json:"volume" validate:"min=0"`
	Product         string    `json:"product"`
	Destination     string    `json:"destination"`
	Carrier         string    `json:"carrier"`
	CarrierRaw      string    `json:"carrier_raw"`
	RegulationFlags []bool    `json:"regulation_flags,omitempty"`
}

// Clone returns a copy that shares no slices with r.
func (r ShipmentRecord) Clone() ShipmentRecord {
	if r.RegulationFlags != nil {
		flags := make([]bool, len(r.RegulationFlags))
		copy(flags, r.RegulationFlags)
		r.RegulationFlags = flags
	}
	return r
}

// Dimension is a categorical attribute records can be grouped by.
type Dimension string

const (
	DimensionCarrier     Dimension = "carrier"
	DimensionProduct     Dimension = "product"
	DimensionDestination Dimension = "destination"
)

// Dimensions lists the supported grouping dimensions in report order.
func Dimensions() []Dimension {
	return []Dimension{DimensionCarrier, DimensionProduct, DimensionDestination}
}

// ErrUnknownDimension is returned when a dimension name is not supported.
var ErrUnknownDimension = errors.New("unknown dimension")

// ParseDimension resolves a dimension name, ignoring case and surrounding spaces.
func ParseDimension(name string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(name)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDimension, name)
	}
	return d, nil
}

// Valid reports whether d is one of the supported dimensions.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionCarrier, DimensionProduct, DimensionDestination:
		return true
	}
	return false
}

// Key returns the value of the dimension for one record.
func (d Dimension) Key(r ShipmentRecord) string {
	switch d {
	case DimensionCarrier:
		return r.Carrier
	case DimensionProduct:
		return r.Product
	case DimensionDestination:
		return r.Destination
	}
	return ""
}

// Severity grades a normalization warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Warning codes emitted while normalizing a batch.
const (
	WarningInvalidDates       = "invalid_dates_dropped"
	WarningVolumesCoerced     = "volumes_coerced"
	WarningNegativeVolumes    = "negative_volumes_zeroed"
	WarningRegulationsMissing = "regulation_columns_missing"
)

// Warning is an aggregated, non-fatal finding of normalization.
type Warning struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Count    int      `json:"count,omitempty"`
	Columns  []string `json:"columns,omitempty"`
}

// BatchSummary describes an ingested batch.
type BatchSummary struct {
	Source             string     `json:"source"`
	Sheet              string     `json:"sheet,omitempty"`
	RowsRead           int        `json:"rows_read" validate:"min=0"`
	RowsKept           int        `json:"rows_kept" validate:"min=0"`
	RowsDropped        int        `json:"rows_dropped" validate:"min=0"`
	VolumesCoerced     int        `json:"volumes_coerced" validate:"min=0"`
	FirstDate          *time.Time `json:"first_date,omitempty"`
	LastDate           *time.Time `json:"last_date,omitempty"`
	TotalVolume        float64    `json:"total_volume"`
	Carriers           int        `json:"carriers"`
	Products           int        `json:"products"`
	Destinations       int        `json:"destinations"`
	RegulationColumns  []string   `json:"regulation_columns"`
	RegulationTracking bool       `json:"regulation_tracking"`
	Warnings           []Warning  `json:"warnings"`
}
