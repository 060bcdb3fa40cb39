package csv

import (
	"strconv"
	"strings"

	"salesetl/internal/frame"
)

type kind int

const (
	kindInt kind = iota
	kindFloat
	kindText
)

// inferTypes narrows each column to the tightest of int64, float64 or
// string that fits every non-NULL cell, and converts the cells in place.
func inferTypes(f *frame.Frame) {
	for c := range f.Columns {
		k := kindInt
		seen := false
		for _, row := range f.Rows {
			s, ok := row[c].(string)
			if !ok {
				continue
			}
			seen = true
			k = max(k, classify(s))
			if k == kindText {
				break
			}
		}
		if !seen || k == kindText {
			continue
		}
		for _, row := range f.Rows {
			s, ok := row[c].(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if k == kindInt {
				n, _ := strconv.ParseInt(s, 10, 64)
				row[c] = n
			} else {
				x, _ := strconv.ParseFloat(s, 64)
				row[c] = x
			}
		}
	}
}

func classify(s string) kind {
	s = strings.TrimSpace(s)
	if s == "" {
		return kindText
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return kindInt
	}
	if !looksDecimal(s) {
		return kindText
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return kindFloat
	}
	return kindText
}

// looksDecimal rejects spellings strconv accepts but a CSV export would not
// mean as numbers: inf, nan, hex floats and digit separators.
func looksDecimal(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return true
}
