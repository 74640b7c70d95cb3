package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM makes Excel open UTF-8 CSV files with the right encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
	Comma     rune // Field separator, ',' when zero
}

// WriteCSV writes the table header and rows to w.
func WriteCSV(w io.Writer, t Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if options.Comma != 0 {
		writer.Comma = options.Comma
	}

	if err := writer.Write(t.Header()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range t.Rows {
		if err := writer.Write(t.record(row)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
