// Package exporter renders analytics results as downloadable tables.
//
// A Table is built from aggregate, comparison or trend results and written
// to any io.Writer, either as CSV (optionally with a UTF-8 BOM so Excel
// detects the encoding) or as an XLSX workbook through excelize.
//
// Example usage:
//
//	table := exporter.AggregateTable(domain.DimensionCarrier, rows)
//	if err := exporter.Write(w, exporter.FormatXLSX, table); err != nil {
//		return err
//	}
package exporter
