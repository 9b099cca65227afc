// Package exporter writes a loaded dataset out of the process.
//
// Three writers are provided:
//
// WorkbookExporter: an xlsx workbook with a Countries sheet, one sheet per
// indicator (countries by years) and a Limits sheet.
//
// CSVExporter: long-format, semicolon separated text with one row per
// country, year and indicator, optionally prefixed with a UTF-8 BOM for Excel.
//
// TableRenderer: plain text tables for terminals.
//
// Example usage:
//
//	exp, err := exporter.New("xlsx", exporter.Options{})
//	if err != nil {
//		return err
//	}
//	w.Header().Set("Content-Type", exp.ContentType())
//	err = exp.Write(w, ds)
package exporter
