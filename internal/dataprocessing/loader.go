package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"haulpulse/pkg/contracts/domain"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are neither workbooks nor CSV files.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyWorkbook is returned when no sheet has a header row.
	ErrEmptyWorkbook = errors.New("no header row found")
	// ErrUnreadableFile is returned when an upload cannot be decoded in its declared format.
	ErrUnreadableFile = errors.New("file could not be read")
)

// LoadOptions controls sheet discovery.
type LoadOptions struct {
	// Sheet forces a worksheet; empty means discover.
	Sheet string
	// HeaderHint is a column name expected in the header row, usually the date column.
	HeaderHint string
}

// Supported reports whether LoadReader can read a file called name.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// LoadFile reads an .xlsx/.xlsm workbook or .csv file into a RawTable.
func LoadFile(path string, opts LoadOptions) (domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return LoadReader(f, filepath.Base(path), opts)
}

// LoadReader reads an upload; the format is chosen from the extension of name.
func LoadReader(r io.Reader, name string, opts LoadOptions) (domain.RawTable, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return loadWorkbook(r, name, opts)
	case ".csv":
		return loadCSV(r, name)
	default:
		return domain.RawTable{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

func loadWorkbook(r io.Reader, name string, opts LoadOptions) (domain.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if opts.Sheet != "" {
		sheets = []string{opts.Sheet}
	}

	// The first sheet whose header names the hint column wins; otherwise the
	// first sheet that has any header at all.
	var fallback *domain.RawTable
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			if opts.Sheet != "" {
				return domain.RawTable{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
			}
			continue
		}
		table, ok := buildTable(rows)
		if !ok {
			continue
		}
		table.Source, table.Sheet = name, sheet

		if opts.HeaderHint == "" || headerContains(table.Header, opts.HeaderHint) {
			slog.Debug("Found shipment data in sheet",
				slog.String("source", name),
				slog.String("sheet_name", sheet),
				slog.Int("rows", len(table.Rows)))
			return table, nil
		}
		if fallback == nil {
			fallback = &table
		}
	}

	if fallback != nil {
		return *fallback, nil
	}
	return domain.RawTable{}, ErrEmptyWorkbook
}

func loadCSV(r io.Reader, name string) (domain.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte(byteOrderMark))

	// Spreadsheet exports in comma-decimal locales separate fields with semicolons.
	first := data
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	cr := csv.NewReader(bytes.NewReader(data))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	table, ok := buildTable(records)
	if !ok {
		return domain.RawTable{}, ErrEmptyWorkbook
	}
	table.Source = name
	return table, nil
}

// buildTable uses the first non-blank row as header and skips blank rows.
// Blank header cells are ignored; for repeated header names the first column wins.
func buildTable(rows [][]string) (domain.RawTable, bool) {
	headerAt := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return domain.RawTable{}, false
	}

	type column struct {
		index int
		name  string
	}
	var columns []column
	var header []string
	seen := make(map[string]bool)
	for i, cell := range rows[headerAt] {
		h := cleanHeader(cell)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		columns = append(columns, column{index: i, name: h})
		header = append(header, h)
	}

	table := domain.RawTable{Header: header, Rows: []domain.RawRecord{}}
	for _, row := range rows[headerAt+1:] {
		if blankRow(row) {
			continue
		}
		rec := make(domain.RawRecord, len(columns))
		for _, c := range columns {
			if c.index < len(row) {
				rec[c.name] = row[c.index]
			} else {
				rec[c.name] = ""
			}
		}
		table.Rows = append(table.Rows, rec)
	}
	return table, true
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func headerContains(header []string, name string) bool {
	want := cleanHeader(name)
	for _, h := range header {
		if cleanHeader(h) == want {
			return true
		}
	}
	return false
}
