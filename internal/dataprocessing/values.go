package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// Excel stores dates as day serials; 2958465 is 9999-12-31.
const maxExcelSerial = 2958466

// minTextSerial is the smallest serial accepted from a text cell (1950-01-01).
// Shorter numbers in text are years or day numbers, not dates.
const minTextSerial = 18264

// dateLayouts expands the configured layout into the layouts tried before the
// permissive fallback: alternate separators, unpadded day and month, and a time of day.
func dateLayouts(primary string) []string {
	base := []string{primary}
	switch {
	case strings.Contains(primary, "-"):
		base = append(base, strings.ReplaceAll(primary, "-", "/"))
	case strings.Contains(primary, "/"):
		base = append(base, strings.ReplaceAll(primary, "/", "-"))
	}

	unpadded := strings.NewReplacer("02", "2", "01", "1")
	for _, l := range base {
		if u := unpadded.Replace(l); u != l {
			base = append(base, u)
		}
	}

	var layouts []string
	seen := make(map[string]bool)
	for _, l := range base {
		for _, layout := range []string{l, l + " 15:04", l + " 15:04:05"} {
			if !seen[layout] {
				seen[layout] = true
				layouts = append(layouts, layout)
			}
		}
	}
	return layouts
}

// parseDate converts a cell to a calendar date. Strings are tried against the
// configured layouts first, then as an Excel serial no earlier than 1950, then
// with dateparse reading ambiguous numeric dates day first. Numeric cells are
// serials over Excel's whole range.
func parseDate(v any, layouts []string) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return CivilDate(x), true
	case float64:
		return excelSerialDate(x)
	case int:
		return excelSerialDate(float64(x))
	case int64:
		return excelSerialDate(float64(x))
	case string:
		return parseDateString(x, layouts)
	default:
		return parseDateString(fmt.Sprint(x), layouts)
	}
}

func parseDateString(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CivilDate(t), true
		}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < minTextSerial {
			return time.Time{}, false
		}
		if t, ok := excelSerialDate(f); ok {
			return t, true
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return CivilDate(t), true
}

func excelSerialDate(f float64) (time.Time, bool) {
	if math.IsNaN(f) || f < 1 || f >= maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return CivilDate(t), true
}

type volumeStatus int

const (
	volumeOK volumeStatus = iota
	volumeCoerced
	volumeNegative
)

// parseVolume converts a tonnage cell. Values that cannot be used become zero
// and the status says why.
func parseVolume(v any) (float64, volumeStatus) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, volumeCoerced
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		parsed, ok := parseNumber(cellString(x))
		if !ok {
			return 0, volumeCoerced
		}
		f = parsed
	}

	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, volumeCoerced
	case f < 0:
		return 0, volumeNegative
	case f == 0:
		return 0, volumeOK
	}
	return f, volumeOK
}

// parseNumber parses a decimal written with either separator convention.
// When both "." and "," appear the last one is the decimal separator and the
// other groups thousands ("1.234,5", "1,234.5"). A separator that appears
// once on its own is decimal ("12,5", "1.234"); one that repeats groups
// thousands ("1.234.567").
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	dot, comma := strings.LastIndexByte(s, '.'), strings.LastIndexByte(s, ',')
	var decimal, thousands string
	switch {
	case dot >= 0 && comma >= 0:
		decimal, thousands = ",", "."
		if dot > comma {
			decimal, thousands = ".", ","
		}
	case comma >= 0:
		decimal, thousands = ",", ","
		if strings.Count(s, ",") > 1 {
			decimal = ""
		}
	case dot >= 0:
		decimal, thousands = ".", "."
		if strings.Count(s, ".") > 1 {
			decimal = ""
		}
	}

	whole, frac := s, ""
	if decimal != "" {
		if strings.Count(s, decimal) > 1 {
			return 0, false
		}
		i := strings.LastIndex(s, decimal)
		whole, frac = s[:i], s[i+1:]
	}
	if thousands != "" && strings.Contains(whole, thousands) {
		groups := strings.Split(whole, thousands)
		if !validGroups(groups) {
			return 0, false
		}
		whole = strings.Join(groups, "")
	}

	num := whole
	if decimal != "" {
		num += "." + frac
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// validGroups reports whether thousands groups are well formed: a leading
// group of one to three digits, optionally signed, then groups of exactly three.
func validGroups(groups []string) bool {
	for i, g := range groups {
		if i == 0 {
			g = strings.TrimLeft(g, "+-")
			if len(g) < 1 || len(g) > 3 {
				return false
			}
		} else if len(g) != 3 {
			return false
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// cellString renders a cell value as text.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(DateLayoutISO)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
