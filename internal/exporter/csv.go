package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// csvHeader is the column layout of the long-format export
var csvHeader = []string{"code", "name", "region", "year", "indicator", "value"}

const utf8BOM = "\ufeff"

// CSVExporter writes one row per country, year and indicator
type CSVExporter struct {
	bom    bool
	logger *slog.Logger
}

// NewCSVExporter creates a CSV exporter. bom adds a UTF-8 byte order mark so
// spreadsheet programs detect the encoding.
func NewCSVExporter(bom bool, logger *slog.Logger) *CSVExporter {
	return &CSVExporter{
		bom:    bom,
		logger: logger.With(slog.String("component", "csv_exporter")),
	}
}

// ContentType implements Exporter
func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

// Extension implements Exporter
func (e *CSVExporter) Extension() string { return string(FormatCSV) }

// Write streams the dataset as semicolon separated text
func (e *CSVExporter) Write(w io.Writer, ds Dataset) error {
	if e.bom {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	countries := ds.GetCountries()
	rows := 0
	for _, c := range countries {
		for _, year := range domain.Years() {
			ys, ok := c.Year(year)
			if !ok {
				ys = domain.NewYearlyStats()
			}
			for _, ind := range domain.AllIndicators() {
				record := []string{c.Code, c.Name, c.Region, year, ind.String(), formatValue(ind, ys.Get(ind))}
				if err := writer.Write(record); err != nil {
					return fmt.Errorf("failed to write record for %s %s: %w", c.Code, year, err)
				}
				rows++
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}

	e.logger.Debug("csv export written",
		slog.Int("countries", len(countries)),
		slog.Int("rows", rows),
		slog.Bool("bom", e.bom))
	return nil
}
