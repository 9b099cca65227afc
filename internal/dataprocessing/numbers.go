package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseIntPrefix reads the leading signed integer of s and ignores whatever
// follows, so "1200 USD" is 1200 and "1.9" is 1. A 0x prefix switches to
// hexadecimal. A cell without a leading digit is NaN.
func ParseIntPrefix(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := signLen(s)
	if rest := s[end:]; len(rest) > 1 && rest[0] == '0' && (rest[1] == 'x' || rest[1] == 'X') {
		v := parseHexPrefix(rest[2:])
		if end == 1 && s[0] == '-' {
			v = -v
		}
		return v
	}
	digits := countDigits(s[end:])
	if digits == 0 {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s[:end+digits], 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseFloatPrefix reads the longest leading decimal number of s, with an
// optional fraction and exponent. "0.25%" is 0.25 and ".5" is 0.5.
func ParseFloatPrefix(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := signLen(s)

	if strings.HasPrefix(s[end:], "Infinity") {
		if strings.HasPrefix(s, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	intDigits := countDigits(s[end:])
	end += intDigits

	fracDigits := 0
	if end < len(s) && s[end] == '.' {
		fracDigits = countDigits(s[end+1:])
		if intDigits > 0 || fracDigits > 0 {
			end += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return math.NaN()
	}

	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		exp += signLen(s[exp:])
		if n := countDigits(s[exp:]); n > 0 {
			end = exp + n
		}
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// out of range values saturate like any float parse would
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v
		}
		return math.NaN()
	}
	return v
}

func signLen(s string) int {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		return 1
	}
	return 0
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

func nan() float64 { return math.NaN() }

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// parseHexPrefix reads the leading hexadecimal digits of s, NaN if there are none
func parseHexPrefix(s string) float64 {
	v, n := 0.0, 0
	for ; n < len(s); n++ {
		var d int
		switch c := s[n]; {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'f':
			d = int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int(c-'A') + 10
		default:
			if n == 0 {
				return math.NaN()
			}
			return v
		}
		v = v*16 + float64(d)
	}
	if n == 0 {
		return math.NaN()
	}
	return v
}
