package dataprocessing

import (
	"fmt"
	"strings"
)

// SchemaError reports every required column absent from an uploaded header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ValidateSchema checks the header against the required columns and reports all
// missing ones at once, in configured order. Matching is case-sensitive after
// trimming whitespace and a byte order mark.
func ValidateSchema(header []string, cols ColumnConfig) error {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[cleanHeader(h)] = struct{}{}
	}

	var missing []string
	for _, name := range cols.Required() {
		if _, ok := present[cleanHeader(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// presentColumns returns the subset of names found in the header, preserving the order of names.
func presentColumns(header []string, names []string) (present, missing []string) {
	set := make(map[string]struct{}, len(header))
	for _, h := range header {
		set[cleanHeader(h)] = struct{}{}
	}
	for _, name := range names {
		if _, ok := set[cleanHeader(name)]; ok {
			present = append(present, name)
		} else {
			missing = append(missing, name)
		}
	}
	return present, missing
}

const byteOrderMark = "\ufeff"

// cleanHeader trims a header cell the way spreadsheet exports pad them.
func cleanHeader(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), byteOrderMark))
}
