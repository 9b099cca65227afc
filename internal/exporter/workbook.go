package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// Sheet names of the workbook. Indicator sheets are named by the indicator's
// wire name.
const (
	SheetCountries = "Countries"
	SheetLimits    = "Limits"
)

// limitsAggregate labels the combined inequality range on the Limits sheet
const limitsAggregate = "inequality"

// WorkbookExporter writes the dataset as an xlsx workbook
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates an xlsx exporter
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	return &WorkbookExporter{logger: logger.With(slog.String("component", "workbook_exporter"))}
}

// ContentType implements Exporter
func (e *WorkbookExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Exporter
func (e *WorkbookExporter) Extension() string { return string(FormatXLSX) }

// Write builds the workbook in memory and writes it to w
func (e *WorkbookExporter) Write(w io.Writer, ds Dataset) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	countries := ds.GetCountries()

	if err := f.SetSheetName(f.GetSheetName(0), SheetCountries); err != nil {
		return fmt.Errorf("failed to rename first sheet: %w", err)
	}
	if err := writeCountriesSheet(f, countries); err != nil {
		return err
	}
	for _, ind := range domain.AllIndicators() {
		if err := writeIndicatorSheet(f, ind, countries); err != nil {
			return err
		}
	}
	if err := writeLimitsSheet(f, ds.GetStatLimits()); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("workbook export written",
		slog.Int("countries", len(countries)),
		slog.Int("sheets", len(f.GetSheetList())))
	return nil
}

func writeCountriesSheet(f *excelize.File, countries []domain.Country) error {
	rows := [][]interface{}{{"code", "name", "region"}}
	for _, c := range countries {
		rows = append(rows, []interface{}{c.Code, c.Name, c.Region})
	}
	if err := setRows(f, SheetCountries, rows); err != nil {
		return err
	}
	return f.SetColWidth(SheetCountries, "B", "C", 28)
}

// writeIndicatorSheet lays out one indicator with countries as rows and years
// as columns. Missing values stay blank.
func writeIndicatorSheet(f *excelize.File, ind domain.Indicator, countries []domain.Country) error {
	sheet := ind.String()
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := []interface{}{"code", "name"}
	for _, year := range domain.Years() {
		header = append(header, year)
	}
	rows := [][]interface{}{header}

	for _, c := range countries {
		row := []interface{}{c.Code, c.Name}
		for _, year := range domain.Years() {
			row = append(row, cellValue(c, year, ind))
		}
		rows = append(rows, row)
	}
	return setRows(f, sheet, rows)
}

func writeLimitsSheet(f *excelize.File, limits *domain.StatLimits) error {
	if _, err := f.NewSheet(SheetLimits); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetLimits, err)
	}
	if limits == nil {
		limits = domain.NewStatLimits()
	}

	rows := [][]interface{}{{"indicator", "label", "min", "max"}}
	for _, ind := range domain.AllIndicators() {
		rows = append(rows, limitRow(ind.String(), ind.Label(), *limits.For(ind)))
	}
	rows = append(rows, limitRow(limitsAggregate, "All inequality indicators", limits.Inequality()))
	return setRows(f, SheetLimits, rows)
}

func limitRow(name, label string, l domain.Limit) []interface{} {
	if !l.Valid() {
		return []interface{}{name, label, nil, nil}
	}
	return []interface{}{name, label, l.Min, l.Max}
}

func cellValue(c domain.Country, year string, ind domain.Indicator) interface{} {
	ys, ok := c.Year(year)
	if !ok {
		return nil
	}
	v := ys.Get(ind)
	if !finite(v) {
		return nil
	}
	return v
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
