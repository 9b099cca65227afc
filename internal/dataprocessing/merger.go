package dataprocessing

import (
	"fmt"
	"log/slog"

	apperrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// Merger joins the indicator tables into per-country series
type Merger struct {
	logger *slog.Logger
}

// NewMerger creates a merger
func NewMerger(logger *slog.Logger) *Merger {
	return &Merger{logger: logger.With(slog.String("component", "merger"))}
}

// MergeResult is the output of one merge
type MergeResult struct {
	// Countries in order of first appearance in the GDP table
	Countries []domain.Country
	// Duplicates counts GDP rows that resolved to an already merged country
	Duplicates int
	// MissingCells counts cells that ended up NaN
	MissingCells int
}

// Merge walks the GDP table, resolves every name and reads all indicators for
// every year. Every parsed value widens limits before it is stored. The
// result holds one country per resolved code.
func (m *Merger) Merge(tables Tables, index *CountryIndex, limits *domain.StatLimits) (*MergeResult, error) {
	gdp := tables[domain.IndicatorGDP.ResourceID()]
	if gdp == nil {
		return nil, apperrors.NewAppValidationError("gdp table is required")
	}
	if index == nil {
		return nil, apperrors.NewAppValidationError("country index is required")
	}
	if limits == nil {
		limits = domain.NewStatLimits()
	}

	result := &MergeResult{}
	position := make(map[string]int, gdp.Len())
	sourceName := make(map[string]string, gdp.Len())
	indicators := domain.AllIndicators()

	for _, name := range gdp.Names {
		info, ok := index.Info(name)
		if !ok {
			return nil, apperrors.NewIntegrityError(fmt.Sprintf("no country info for %q", name)).
				WithContext("name", name)
		}

		stats := make(map[string]domain.YearlyStats, len(domain.Years()))
		missing := 0
		for _, year := range domain.Years() {
			ys := domain.NewYearlyStats()
			for _, ind := range indicators {
				v := cellValue(tables[ind.ResourceID()], name, year, ind)
				if !isFinite(v) {
					missing++
				}
				limits.For(ind).ExpandRange(v)
				ys.Set(ind, v)
			}
			stats[year] = ys
		}
		result.MissingCells += missing

		if missing > 0 {
			m.logger.Debug("missing indicator cells",
				slog.String("country", info.Name),
				slog.String("source_name", name),
				slog.Int("missing", missing))
		}

		country := domain.Country{CountryInfo: info, Stats: stats}
		if pos, dup := position[info.Code]; dup {
			result.Duplicates++
			m.logger.Warn("two source names resolve to one country, keeping the later stats",
				slog.String("country", info.Name),
				slog.String("code", info.Code),
				slog.String("source_name", name),
				slog.String("replaced", sourceName[info.Code]))
			result.Countries[pos] = country
			sourceName[info.Code] = name
			continue
		}
		position[info.Code] = len(result.Countries)
		sourceName[info.Code] = name
		result.Countries = append(result.Countries, country)
	}

	m.logger.Info("tables merged",
		slog.Int("countries", len(result.Countries)),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("missing_cells", result.MissingCells))
	return result, nil
}

// cellValue returns NaN when the table, row or cell is absent
func cellValue(t *Table, name, year string, ind domain.Indicator) float64 {
	row, ok := t.Row(name)
	if !ok {
		return nan()
	}
	cell, ok := row[year]
	if !ok {
		return nan()
	}
	if ind.IsInteger() {
		return ParseIntPrefix(cell)
	}
	return ParseFloatPrefix(cell)
}
