package domain

import (
	"encoding/json"
	"math"
)

// years is the fixed reporting range of every country series
var years = [...]string{"2010", "2011", "2012", "2013", "2014", "2015", "2016", "2017"}

// Years returns the fixed year labels in chronological order
func Years() []string {
	out := make([]string, len(years))
	copy(out, years[:])
	return out
}

// IsYear reports whether y is one of the fixed year labels
func IsYear(y string) bool {
	for _, year := range years {
		if year == y {
			return true
		}
	}
	return false
}

// CountryInfo is the canonical identity of a country
type CountryInfo struct {
	Code   string `json:"code" db:"code" validate:"required,len=3"`
	Name   string `json:"name" db:"name" validate:"required"`
	Region string `json:"region" db:"region"`
}

// Inequality holds the four inequality sub-indices of one year
type Inequality struct {
	Combined       float64
	Education      float64
	Income         float64
	LifeExpectancy float64
}

// YearlyStats is the merged record of one country for one year.
// Missing source data is NaN, never an absent entry.
type YearlyStats struct {
	GDP        float64
	Inequality Inequality
}

// NewYearlyStats returns a record with every value missing
func NewYearlyStats() YearlyStats {
	nan := math.NaN()
	return YearlyStats{
		GDP:        nan,
		Inequality: Inequality{Combined: nan, Education: nan, Income: nan, LifeExpectancy: nan},
	}
}

// Get returns the value of one indicator
func (s YearlyStats) Get(ind Indicator) float64 {
	return ind.Value(s)
}

// Set stores the value of one indicator
func (s *YearlyStats) Set(ind Indicator, v float64) {
	*indicatorSpecs[ind].stat(s) = v
}

type yearlyStatsJSON struct {
	GDP        jsonFloat `json:"gdp"`
	Inequality struct {
		Combined       jsonFloat `json:"combined"`
		Education      jsonFloat `json:"education"`
		Income         jsonFloat `json:"income"`
		LifeExpectancy jsonFloat `json:"life_expectancy"`
	} `json:"inequality"`
}

// MarshalJSON renders missing values as null
func (s YearlyStats) MarshalJSON() ([]byte, error) {
	var out yearlyStatsJSON
	out.GDP = jsonFloat(s.GDP)
	out.Inequality.Combined = jsonFloat(s.Inequality.Combined)
	out.Inequality.Education = jsonFloat(s.Inequality.Education)
	out.Inequality.Income = jsonFloat(s.Inequality.Income)
	out.Inequality.LifeExpectancy = jsonFloat(s.Inequality.LifeExpectancy)
	return json.Marshal(out)
}

// UnmarshalJSON turns null values back into NaN
func (s *YearlyStats) UnmarshalJSON(data []byte) error {
	var aux struct {
		GDP        *float64 `json:"gdp"`
		Inequality struct {
			Combined       *float64 `json:"combined"`
			Education      *float64 `json:"education"`
			Income         *float64 `json:"income"`
			LifeExpectancy *float64 `json:"life_expectancy"`
		} `json:"inequality"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = YearlyStats{
		GDP: orNaN(aux.GDP),
		Inequality: Inequality{
			Combined:       orNaN(aux.Inequality.Combined),
			Education:      orNaN(aux.Inequality.Education),
			Income:         orNaN(aux.Inequality.Income),
			LifeExpectancy: orNaN(aux.Inequality.LifeExpectancy),
		},
	}
	return nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Country is a canonical identity plus its merged series keyed by year label
type Country struct {
	CountryInfo
	Stats map[string]YearlyStats `json:"stats"`
}

// Year returns the record for one year label
func (c Country) Year(year string) (YearlyStats, bool) {
	ys, ok := c.Stats[year]
	return ys, ok
}

// StatPoint is one finite observation of an indicator
type StatPoint struct {
	Year  string  `json:"year"`
	Value float64 `json:"value"`
}

// IndicatorSeries holds one point list per indicator
type IndicatorSeries map[Indicator][]StatPoint

// Series returns the finite points of one indicator in year order
func (c Country) Series(ind Indicator) []StatPoint {
	points := make([]StatPoint, 0, len(years))
	for _, year := range years {
		ys, ok := c.Stats[year]
		if !ok {
			continue
		}
		if v := ind.Value(ys); isFinite(v) {
			points = append(points, StatPoint{Year: year, Value: v})
		}
	}
	return points
}

// IndicatorSeries reshapes the year-keyed storage into per-indicator lists.
// Every indicator has an entry, possibly empty.
func (c Country) IndicatorSeries() IndicatorSeries {
	out := make(IndicatorSeries, indicatorCount)
	for _, ind := range AllIndicators() {
		out[ind] = c.Series(ind)
	}
	return out
}

// ScatterPoint joins GDP with one other indicator for a single year
type ScatterPoint struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Region string  `json:"region"`
	GDP    float64 `json:"gdp"`
	Value  float64 `json:"value"`
}

// RegionGroup lists the countries of one region
type RegionGroup struct {
	Region    string   `json:"region"`
	Countries []string `json:"countries"`
}
