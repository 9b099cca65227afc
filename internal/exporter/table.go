package exporter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// missingCell is shown for values the dataset does not have
const missingCell = "-"

// TableRenderer prints datasets as terminal tables
type TableRenderer struct {
	style table.Style
}

// NewTableRenderer creates a renderer using the light box style
func NewTableRenderer() *TableRenderer {
	return &TableRenderer{style: table.StyleLight}
}

// Countries lists identities in the given order
func (r *TableRenderer) Countries(w io.Writer, countries []domain.Country) error {
	t := r.newWriter()
	t.AppendHeader(table.Row{"#", "Code", "Name", "Region"})
	for i, c := range countries {
		t.AppendRow(table.Row{i + 1, c.Code, c.Name, c.Region})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(countries)})
	return render(w, t)
}

// Country prints one country with a row per year and a column per indicator
func (r *TableRenderer) Country(w io.Writer, c domain.Country) error {
	if _, err := fmt.Fprintf(w, "%s (%s), %s\n", c.Name, c.Code, c.Region); err != nil {
		return err
	}

	t := r.newWriter()
	header := table.Row{"Year"}
	for _, ind := range domain.AllIndicators() {
		header = append(header, ind.String())
	}
	t.AppendHeader(header)

	for _, year := range domain.Years() {
		ys, ok := c.Year(year)
		if !ok {
			ys = domain.NewYearlyStats()
		}
		row := table.Row{year}
		for _, ind := range domain.AllIndicators() {
			row = append(row, textCell(ind, ys.Get(ind)))
		}
		t.AppendRow(row)
	}
	return render(w, t)
}

// Limits prints the range of every indicator plus the inequality aggregate
func (r *TableRenderer) Limits(w io.Writer, limits *domain.StatLimits) error {
	t := r.newWriter()
	t.AppendHeader(table.Row{"Indicator", "Label", "Min", "Max"})
	for _, ind := range domain.AllIndicators() {
		l := *limits.For(ind)
		t.AppendRow(table.Row{ind.String(), ind.Label(), limitCell(ind, l.Min, l.Valid()), limitCell(ind, l.Max, l.Valid())})
	}
	agg := limits.Inequality()
	t.AppendFooter(table.Row{limitsAggregate, "", limitCell(domain.IndicatorIneqComb, agg.Min, agg.Valid()),
		limitCell(domain.IndicatorIneqComb, agg.Max, agg.Valid())})
	return render(w, t)
}

// Snapshot prints the scatter points of one year
func (r *TableRenderer) Snapshot(w io.Writer, year string, ind domain.Indicator, points []domain.ScatterPoint) error {
	if _, err := fmt.Fprintf(w, "%s against gdp, %s\n", ind.Label(), year); err != nil {
		return err
	}

	t := r.newWriter()
	t.AppendHeader(table.Row{"Code", "Name", "Region", "gdp", ind.String()})
	for _, p := range points {
		t.AppendRow(table.Row{p.Code, p.Name, p.Region,
			textCell(domain.IndicatorGDP, p.GDP), textCell(ind, p.Value)})
	}
	t.AppendFooter(table.Row{"", "", "Points", len(points), ""})
	return render(w, t)
}

func (r *TableRenderer) newWriter() table.Writer {
	t := table.NewWriter()
	t.SetStyle(r.style)
	return t
}

func render(w io.Writer, t table.Writer) error {
	_, err := io.WriteString(w, t.Render()+"\n")
	return err
}

func textCell(ind domain.Indicator, v float64) string {
	if s := formatValue(ind, v); s != "" {
		return s
	}
	return missingCell
}

func limitCell(ind domain.Indicator, v float64, valid bool) string {
	if !valid {
		return missingCell
	}
	return textCell(ind, v)
}
