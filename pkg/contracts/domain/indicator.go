package domain

import (
	"fmt"
	"strings"
)

// Indicator identifies one of the five scalar measurement series
type Indicator int

const (
	IndicatorGDP Indicator = iota
	IndicatorIneqComb
	IndicatorIneqEdu
	IndicatorIneqInc
	IndicatorIneqLife

	indicatorCount
)

// indicatorSpec binds an indicator kind to its names and field accessors
type indicatorSpec struct {
	name     string // wire name used by API consumers
	resource string // resource id of the delimited source table
	label    string
	integer  bool
	stat     func(*YearlyStats) *float64
	limit    func(*StatLimits) *Limit
}

// indicatorSpecs is indexed by Indicator; every kind must have an entry
var indicatorSpecs = [indicatorCount]indicatorSpec{
	IndicatorGDP: {
		name:     "gdp",
		resource: "gdp",
		label:    "GDP",
		integer:  true,
		stat:     func(s *YearlyStats) *float64 { return &s.GDP },
		limit:    func(l *StatLimits) *Limit { return &l.GDP },
	},
	IndicatorIneqComb: {
		name:     "ineqComb",
		resource: "ineq_comb",
		label:    "Inequality (combined)",
		stat:     func(s *YearlyStats) *float64 { return &s.Inequality.Combined },
		limit:    func(l *StatLimits) *Limit { return &l.IneqComb },
	},
	IndicatorIneqEdu: {
		name:     "ineqEdu",
		resource: "ineq_edu",
		label:    "Inequality in education",
		stat:     func(s *YearlyStats) *float64 { return &s.Inequality.Education },
		limit:    func(l *StatLimits) *Limit { return &l.IneqEdu },
	},
	IndicatorIneqInc: {
		name:     "ineqInc",
		resource: "ineq_inc",
		label:    "Inequality in income",
		stat:     func(s *YearlyStats) *float64 { return &s.Inequality.Income },
		limit:    func(l *StatLimits) *Limit { return &l.IneqInc },
	},
	IndicatorIneqLife: {
		name:     "ineqLife",
		resource: "ineq_life",
		label:    "Inequality in life expectancy",
		stat:     func(s *YearlyStats) *float64 { return &s.Inequality.LifeExpectancy },
		limit:    func(l *StatLimits) *Limit { return &l.IneqLife },
	},
}

// AllIndicators returns every indicator in declaration order
func AllIndicators() []Indicator {
	out := make([]Indicator, 0, indicatorCount)
	for i := Indicator(0); i < indicatorCount; i++ {
		out = append(out, i)
	}
	return out
}

// InequalityIndicators returns the four inequality sub-indicators
func InequalityIndicators() []Indicator {
	return []Indicator{IndicatorIneqComb, IndicatorIneqEdu, IndicatorIneqInc, IndicatorIneqLife}
}

// Valid reports whether the indicator is a known kind
func (i Indicator) Valid() bool {
	return i >= 0 && i < indicatorCount
}

// String returns the wire name of the indicator
func (i Indicator) String() string {
	if !i.Valid() {
		return fmt.Sprintf("Indicator(%d)", int(i))
	}
	return indicatorSpecs[i].name
}

// ResourceID returns the id of the delimited table that feeds the indicator
func (i Indicator) ResourceID() string {
	if !i.Valid() {
		return ""
	}
	return indicatorSpecs[i].resource
}

// Label returns a human readable name
func (i Indicator) Label() string {
	if !i.Valid() {
		return ""
	}
	return indicatorSpecs[i].label
}

// IsInteger reports whether source cells of this indicator are parsed as integers
func (i Indicator) IsInteger() bool {
	return i.Valid() && indicatorSpecs[i].integer
}

// IsInequality reports whether the indicator shares the inequality axis
func (i Indicator) IsInequality() bool {
	return i.Valid() && i != IndicatorGDP
}

// Value extracts the indicator's value from a yearly record
func (i Indicator) Value(s YearlyStats) float64 {
	return *indicatorSpecs[i].stat(&s)
}

// ParseIndicator accepts either the wire name ("ineqComb") or the
// resource id ("ineq_comb"), case-insensitively
func ParseIndicator(s string) (Indicator, error) {
	key := strings.TrimSpace(s)
	for i, spec := range indicatorSpecs {
		if strings.EqualFold(key, spec.name) || strings.EqualFold(key, spec.resource) {
			return Indicator(i), nil
		}
	}
	return 0, fmt.Errorf("unknown indicator %q", s)
}

// MarshalText implements encoding.TextMarshaler so indicators can key JSON objects
func (i Indicator) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("invalid indicator %d", int(i))
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *Indicator) UnmarshalText(text []byte) error {
	parsed, err := ParseIndicator(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
