package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

func writeWorkbook(t *testing.T, ds Dataset) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewWorkbookExporter(quietLogger()).Write(&buf, ds))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWorkbookExporter_Sheets(t *testing.T) {
	f := writeWorkbook(t, testDataset())

	want := []string{SheetCountries}
	for _, ind := range domain.AllIndicators() {
		want = append(want, ind.String())
	}
	want = append(want, SheetLimits)
	assert.Equal(t, want, f.GetSheetList())
}

func TestWorkbookExporter_Countries(t *testing.T) {
	f := writeWorkbook(t, testDataset())

	rows, err := f.GetRows(SheetCountries)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"code", "name", "region"},
		{"DEU", "Germany", "Europe"},
		{"CIV", "Côte d'Ivoire", "Africa"},
	}, rows)
}

func TestWorkbookExporter_IndicatorCells(t *testing.T) {
	f := writeWorkbook(t, testDataset())
	raw := excelize.Options{RawCellValue: true}

	tests := []struct {
		name  string
		sheet string
		cell  string
		want  string
	}{
		{name: "header year", sheet: "gdp", cell: "C1", want: "2010"},
		{name: "last header year", sheet: "gdp", cell: "J1", want: "2017"},
		{name: "gdp value", sheet: "gdp", cell: "C2", want: "41531"},
		{name: "missing is blank", sheet: "gdp", cell: "D2", want: ""},
		{name: "second country", sheet: "ineqInc", cell: "G3", want: "0.31"},
		{name: "row label", sheet: "ineqLife", cell: "B3", want: "Côte d'Ivoire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.GetCellValue(tt.sheet, tt.cell, raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkbookExporter_Limits(t *testing.T) {
	f := writeWorkbook(t, testDataset())
	raw := excelize.Options{RawCellValue: true}

	tests := []struct {
		name string
		cell string
		want string
	}{
		{name: "header", cell: "C1", want: "min"},
		{name: "gdp min", cell: "C2", want: "1546"},
		{name: "gdp max", cell: "D2", want: "44469"},
		{name: "unobserved indicator", cell: "C4", want: ""},
		{name: "aggregate label", cell: "A7", want: "inequality"},
		{name: "aggregate min", cell: "C7", want: "0.038"},
		{name: "aggregate max", cell: "D7", want: "0.31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.GetCellValue(SheetLimits, tt.cell, raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
