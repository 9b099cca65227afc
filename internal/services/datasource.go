package services

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"

	"github.com/MorMundHS-MA/GDV/internal/dataprocessing"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// DataSource is one fully loaded, immutable dataset. Every method is safe
// for concurrent use.
type DataSource struct {
	countries []domain.Country
	byName    map[string]int
	byCode    map[string]int
	limits    *domain.StatLimits
	index     *dataprocessing.CountryIndex
	search    []searchEntry

	fingerprint  string
	loadedAt     time.Time
	duplicates   int
	missingCells int
	logger       *slog.Logger
}

type searchEntry struct {
	folded  string
	country int
}

// DatasetInfo summarizes a loaded dataset
type DatasetInfo struct {
	Countries    int       `json:"countries"`
	Names        int       `json:"names"`
	Regions      int       `json:"regions"`
	Collisions   int       `json:"collisions"`
	Duplicates   int       `json:"duplicates"`
	MissingCells int       `json:"missing_cells"`
	Years        []string  `json:"years"`
	Fingerprint  string    `json:"fingerprint"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// NewDataSource wraps a merge result. limits must be the ranges fed
// during that merge.
func NewDataSource(result *dataprocessing.MergeResult, index *dataprocessing.CountryIndex,
	limits *domain.StatLimits, fingerprint string, loadedAt time.Time, logger *slog.Logger) *DataSource {
	if logger == nil {
		logger = slog.Default()
	}
	if index == nil {
		index = &dataprocessing.CountryIndex{}
	}
	if limits == nil {
		limits = domain.NewStatLimits()
	}

	ds := &DataSource{
		byName:      make(map[string]int),
		byCode:      make(map[string]int),
		limits:      limits,
		index:       index,
		fingerprint: fingerprint,
		loadedAt:    loadedAt,
		logger:      logger.With(slog.String("component", "datasource")),
	}
	if result != nil {
		ds.countries = result.Countries
		ds.duplicates = result.Duplicates
		ds.missingCells = result.MissingCells
	}

	for i, c := range ds.countries {
		ds.byName[c.Name] = i
		ds.byCode[c.Code] = i

		seen := map[string]bool{}
		for _, name := range append([]string{c.Name}, index.Names(c.Code)...) {
			folded := foldName(name)
			if folded == "" || seen[folded] {
				continue
			}
			seen[folded] = true
			ds.search = append(ds.search, searchEntry{folded: folded, country: i})
		}
	}
	return ds
}

// GetCountry returns the country with the given canonical name
func (ds *DataSource) GetCountry(name string) (domain.Country, bool) {
	i, ok := ds.byName[name]
	if !ok {
		return domain.Country{}, false
	}
	return ds.countries[i], true
}

// Lookup finds a country by canonical name, code or any alternate name
func (ds *DataSource) Lookup(name string) (domain.Country, bool) {
	name = strings.TrimSpace(name)
	if c, ok := ds.GetCountry(name); ok {
		return c, true
	}
	if i, ok := ds.byCode[strings.ToUpper(name)]; ok && len(name) == 3 {
		return ds.countries[i], true
	}
	if code, ok := ds.index.Resolve(name); ok {
		if i, ok := ds.byCode[code]; ok {
			return ds.countries[i], true
		}
	}
	return domain.Country{}, false
}

// GetCountries returns every country in load order
func (ds *DataSource) GetCountries() []domain.Country {
	out := make([]domain.Country, len(ds.countries))
	copy(out, ds.countries)
	return out
}

// GetCountryStats returns one finite point list per indicator
func (ds *DataSource) GetCountryStats(c domain.Country) domain.IndicatorSeries {
	return c.IndicatorSeries()
}

// GetStatLimits returns the dataset ranges. Callers must not modify them.
func (ds *DataSource) GetStatLimits() *domain.StatLimits {
	return ds.limits
}

// Len returns the number of countries
func (ds *DataSource) Len() int {
	return len(ds.countries)
}

// Fingerprint identifies the source content the dataset was built from
func (ds *DataSource) Fingerprint() string {
	return ds.fingerprint
}

// LoadedAt returns when the dataset was built
func (ds *DataSource) LoadedAt() time.Time {
	return ds.loadedAt
}

// Index exposes the name index the dataset was resolved with
func (ds *DataSource) Index() *dataprocessing.CountryIndex {
	return ds.index
}

// Snapshot joins GDP with ind for one year. Countries missing either value
// are left out.
func (ds *DataSource) Snapshot(year string, ind domain.Indicator) ([]domain.ScatterPoint, error) {
	if !domain.IsYear(year) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownYear, year)
	}
	if !ind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIndicator, int(ind))
	}

	points := make([]domain.ScatterPoint, 0, len(ds.countries))
	dropped := 0
	for _, c := range ds.countries {
		ys := c.Stats[year]
		gdp, value := ys.GDP, ind.Value(ys)
		if !finite(gdp) || !finite(value) {
			dropped++
			continue
		}
		points = append(points, domain.ScatterPoint{
			Code:   c.Code,
			Name:   c.Name,
			Region: c.Region,
			GDP:    gdp,
			Value:  value,
		})
	}

	if dropped > 0 {
		ds.logger.Debug("snapshot points dropped",
			slog.String("year", year),
			slog.String("indicator", ind.String()),
			slog.Int("dropped", dropped))
	}
	return points, nil
}

// SnapshotLimits returns the axis ranges of a snapshot for ind. X is the
// indicator, Y is GDP. Inequality indicators share one combined range so
// switching between them keeps the axis stable.
func (ds *DataSource) SnapshotLimits(ind domain.Indicator) (x, y domain.Limit) {
	x = *ds.limits.For(ind)
	if ind.IsInequality() {
		x = ds.limits.Inequality()
	}
	return x, ds.limits.GDP
}

// CountriesByName returns the countries found by Lookup in argument order
// together with the names that matched nothing
func (ds *DataSource) CountriesByName(names []string) ([]domain.Country, []string) {
	var (
		found   []domain.Country
		missing []string
	)
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		c, ok := ds.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		found = append(found, c)
	}
	return found, missing
}

// SelectionLimits computes fresh ranges over the named countries only
func (ds *DataSource) SelectionLimits(names []string) *domain.StatLimits {
	limits := domain.NewStatLimits()
	found, _ := ds.CountriesByName(names)
	for _, c := range found {
		limits.ExpandCountry(c)
	}
	return limits
}

// Regions groups country names by region in order of first appearance
func (ds *DataSource) Regions() []domain.RegionGroup {
	var groups []domain.RegionGroup
	pos := make(map[string]int)
	for _, c := range ds.countries {
		i, ok := pos[c.Region]
		if !ok {
			i = len(groups)
			pos[c.Region] = i
			groups = append(groups, domain.RegionGroup{Region: c.Region})
		}
		groups[i].Countries = append(groups[i].Countries, c.Name)
	}
	return groups
}

// Search matches query against every known spelling, ignoring case and
// accents. Each country appears once, in load order.
func (ds *DataSource) Search(query string) []domain.Country {
	q := foldName(query)
	if q == "" {
		return nil
	}

	hit := make([]bool, len(ds.countries))
	for _, e := range ds.search {
		if !hit[e.country] && strings.Contains(e.folded, q) {
			hit[e.country] = true
		}
	}

	var out []domain.Country
	for i, ok := range hit {
		if ok {
			out = append(out, ds.countries[i])
		}
	}
	return out
}

// Info summarizes the dataset
func (ds *DataSource) Info() DatasetInfo {
	return DatasetInfo{
		Countries:    len(ds.countries),
		Names:        len(ds.index.NameToCode),
		Regions:      len(ds.Regions()),
		Collisions:   ds.index.Collisions,
		Duplicates:   ds.duplicates,
		MissingCells: ds.missingCells,
		Years:        domain.Years(),
		Fingerprint:  ds.fingerprint,
		LoadedAt:     ds.loadedAt,
	}
}

func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
