package exporter

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"haulpulse/pkg/contracts/domain"
)

// maxSheetName is Excel's limit on worksheet name length, in characters.
const maxSheetName = 31

var (
	numberFormat  = "#,##0.00"
	integerFormat = "#,##0"
	percentFormat = `0.0"%"`
	dateFormat    = "yyyy-mm-dd"
)

// WriteXLSX writes each table as a worksheet of one workbook.
func WriteXLSX(w io.Writer, tables ...Table) (err error) {
	if len(tables) == 0 {
		return errors.New("no tables to export")
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	styles, err := newSheetStyles(f)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(tables))
	for i, t := range tables {
		name := sheetName(t.Name, i, seen)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, t, styles); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	header int
	byKind map[Kind]int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "9BC2E6", Style: 1},
		},
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("failed to create header style: %w", err)
	}

	s := sheetStyles{header: header, byKind: make(map[Kind]int)}
	for kind, format := range map[Kind]*string{
		KindNumber:  &numberFormat,
		KindInteger: &integerFormat,
		KindPercent: &percentFormat,
		KindDate:    &dateFormat,
	} {
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: format})
		if err != nil {
			return sheetStyles{}, fmt.Errorf("failed to create column style: %w", err)
		}
		s.byKind[kind] = id
	}
	return s, nil
}

func writeSheet(f *excelize.File, sheet string, t Table, styles sheetStyles) error {
	for i, c := range t.Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if id, ok := styles.byKind[c.Kind]; ok {
			if err := f.SetColStyle(sheet, col, id); err != nil {
				return err
			}
		}
		width := 14.0
		if c.Kind == KindText {
			width = 32
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	header := make([]any, len(t.Columns))
	for i, name := range t.Header() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, styles.header); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	if len(t.Columns) == 0 {
		return nil
	}
	// Time cells get a default format on write; restore the column's.
	if len(t.Rows) > 0 {
		for i, c := range t.Columns {
			id, ok := styles.byKind[c.Kind]
			if !ok {
				continue
			}
			top, _ := excelize.CoordinatesToCellName(i+1, 2)
			bottom, _ := excelize.CoordinatesToCellName(i+1, len(t.Rows)+1)
			if err := f.SetCellStyle(sheet, top, bottom, id); err != nil {
				return err
			}
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(t.Columns), len(t.Rows)+1)
	if err != nil {
		return err
	}
	return f.AutoFilter(sheet, "A1:"+last, nil)
}

// cellValue unwraps values excelize cannot store directly.
func cellValue(v any) any {
	if p, ok := v.(domain.Percent); ok {
		if !p.Defined {
			return nil
		}
		return p.Value
	}
	return v
}

// sheetName makes a valid, unique worksheet name from a table name.
func sheetName(name string, index int, seen map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	name = truncateRunes(name, maxSheetName)
	for base, n := name, 2; seen[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	seen[strings.ToLower(name)] = true
	return name
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
