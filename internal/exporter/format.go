package exporter

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"haulpulse/pkg/contracts/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for formats other than csv and xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat resolves a format name case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension is the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Write renders the table in the given format. CSV output carries a BOM so
// spreadsheet tools read accented names correctly.
func Write(w io.Writer, f Format, t Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t, WriteOptions{BOMPrefix: true})
	case FormatXLSX:
		return WriteXLSX(w, t)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatPercent prints one decimal, or nothing when the percentage is undefined.
func formatPercent(p domain.Percent) string {
	if !p.Defined {
		return ""
	}
	return strconv.FormatFloat(p.Value, 'f', 1, 64)
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
