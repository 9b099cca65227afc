package storage

import (
	"fmt"
	"math"
	"strconv"

	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// statIndicators fixes the indicator order behind statColumns[2:]
var statIndicators = []domain.Indicator{
	domain.IndicatorGDP,
	domain.IndicatorIneqComb,
	domain.IndicatorIneqEdu,
	domain.IndicatorIneqInc,
	domain.IndicatorIneqLife,
}

// countryRows builds the COPY rows of the countries table. position keeps
// the load order.
func countryRows(countries []domain.Country) [][]any {
	rows := make([][]any, 0, len(countries))
	for i, c := range countries {
		rows = append(rows, []any{c.Code, c.Name, c.Region, int32(i)})
	}
	return rows
}

// statRows builds one COPY row per country and year. Missing values become
// NULL; years with no value at all are still written so the table is dense.
func statRows(countries []domain.Country) ([][]any, error) {
	rows := make([][]any, 0, len(countries)*len(domain.Years()))
	for _, c := range countries {
		for _, year := range domain.Years() {
			y, err := strconv.Atoi(year)
			if err != nil {
				return nil, fmt.Errorf("invalid year label %q: %w", year, err)
			}

			ys, ok := c.Year(year)
			if !ok {
				ys = domain.NewYearlyStats()
			}

			row := make([]any, 0, len(statColumns))
			row = append(row, c.Code, int32(y))
			for _, ind := range statIndicators {
				row = append(row, nullable(ys.Get(ind)))
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// nullable maps non-finite values to SQL NULL
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
