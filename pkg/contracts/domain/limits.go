package domain

import (
	"encoding/json"
	"math"
)

// Limit is a running {min, max} range over a scalar series.
//
// A fresh Limit is {+Inf, -Inf} and means "no data observed"; consumers
// must check Valid before scaling by it. The zero value is NOT empty, use NewLimit.
type Limit struct {
	Min float64
	Max float64
}

// NewLimit returns an empty range
func NewLimit() Limit {
	return Limit{Min: math.Inf(1), Max: math.Inf(-1)}
}

// ExpandRange widens the range to include value. Non-finite values are ignored.
func (l *Limit) ExpandRange(value float64) {
	if !isFinite(value) {
		return
	}
	if value < l.Min {
		l.Min = value
	}
	if value > l.Max {
		l.Max = value
	}
}

// Expand merges another range into this one
func (l *Limit) Expand(other Limit) {
	l.ExpandRange(other.Min)
	l.ExpandRange(other.Max)
}

// Valid reports whether at least one finite value has been observed
func (l Limit) Valid() bool {
	return l.Min <= l.Max
}

// Span returns Max-Min, or 0 for an empty range
func (l Limit) Span() float64 {
	if !l.Valid() {
		return 0
	}
	return l.Max - l.Min
}

// MarshalJSON renders infinite bounds as null
func (l Limit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Min jsonFloat `json:"min"`
		Max jsonFloat `json:"max"`
	}{jsonFloat(l.Min), jsonFloat(l.Max)})
}

// UnmarshalJSON restores null bounds to the empty range sentinels
func (l *Limit) UnmarshalJSON(data []byte) error {
	var aux struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*l = NewLimit()
	if aux.Min != nil {
		l.Min = *aux.Min
	}
	if aux.Max != nil {
		l.Max = *aux.Max
	}
	return nil
}

// StatLimits tracks one Limit per indicator
type StatLimits struct {
	GDP      Limit `json:"gdp"`
	IneqComb Limit `json:"ineqComb"`
	IneqEdu  Limit `json:"ineqEdu"`
	IneqInc  Limit `json:"ineqInc"`
	IneqLife Limit `json:"ineqLife"`
}

// NewStatLimits returns limits with every range empty
func NewStatLimits() *StatLimits {
	s := &StatLimits{}
	s.Reset()
	return s
}

// Reset empties every range
func (s *StatLimits) Reset() {
	for _, ind := range AllIndicators() {
		*s.For(ind) = NewLimit()
	}
}

// For returns the tracker of a single indicator
func (s *StatLimits) For(ind Indicator) *Limit {
	return indicatorSpecs[ind].limit(s)
}

// ExpandStats feeds every value of one yearly record
func (s *StatLimits) ExpandStats(stats YearlyStats) {
	for _, ind := range AllIndicators() {
		s.For(ind).ExpandRange(ind.Value(stats))
	}
}

// ExpandMany feeds a batch of yearly records
func (s *StatLimits) ExpandMany(stats []YearlyStats) {
	for _, ys := range stats {
		s.ExpandStats(ys)
	}
}

// ExpandCountry feeds every year of a country's series
func (s *StatLimits) ExpandCountry(c Country) {
	for _, year := range Years() {
		if ys, ok := c.Stats[year]; ok {
			s.ExpandStats(ys)
		}
	}
}

// Inequality aggregates the four inequality sub-indicators into one range,
// since they share a single chart axis
func (s *StatLimits) Inequality() Limit {
	agg := NewLimit()
	for _, ind := range InequalityIndicators() {
		agg.Expand(*s.For(ind))
	}
	return agg
}

// Clone returns an independent copy
func (s *StatLimits) Clone() *StatLimits {
	c := *s
	return &c
}

// MarshalJSON adds the aggregated inequality range to the per-indicator ranges
func (s *StatLimits) MarshalJSON() ([]byte, error) {
	type alias StatLimits
	return json.Marshal(struct {
		*alias
		Inequality Limit `json:"inequality"`
	}{(*alias)(s), s.Inequality()})
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// jsonFloat encodes non-finite values as null
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	if !isFinite(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}
