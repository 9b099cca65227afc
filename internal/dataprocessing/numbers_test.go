package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{in: "1000", want: 1000},
		{in: "  42", want: 42},
		{in: "-17", want: -17},
		{in: "+8", want: 8},
		{in: "1.9", want: 1},
		{in: "1200 USD", want: 1200},
		{in: "12,500", want: 12},
		{in: "0x1A", want: 26},
		{in: "-0XfF rows", want: -255},
		{in: "0x", want: math.NaN()},
		{in: "0xg1", want: math.NaN()},
		{in: "0", want: 0},
		{in: "012", want: 12},
		{in: "", want: math.NaN()},
		{in: "n/a", want: math.NaN()},
		{in: "-", want: math.NaN()},
		{in: ".5", want: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseIntPrefix(tt.in)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFloatPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{in: "0.25", want: 0.25},
		{in: " 0.25%", want: 0.25},
		{in: ".5", want: 0.5},
		{in: "-.5", want: -0.5},
		{in: "5.", want: 5},
		{in: "1e3", want: 1000},
		{in: "1.5E-2x", want: 0.015},
		{in: "2e", want: 2},
		{in: "2e+", want: 2},
		{in: "3.1.4", want: 3.1},
		{in: "0,35", want: 0},
		{in: "Infinity", want: math.Inf(1)},
		{in: "-Infinity", want: math.Inf(-1)},
		{in: "", want: math.NaN()},
		{in: ".", want: math.NaN()},
		{in: "abc", want: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseFloatPrefix(tt.in)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got), "got %v", got)
				return
			}
			if math.IsInf(tt.want, 0) {
				assert.Equal(t, tt.want, got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
