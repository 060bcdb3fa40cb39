// Package currency converts local monetary values into the common reporting
// currency using exact decimal arithmetic.
package currency

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// USD is the common reporting currency.
const USD = "USD"

// Rate is a fixed multiplicative conversion from one currency to another.
type Rate struct {
	From   string
	To     string
	Factor decimal.Decimal
}

// Identity returns the no-op rate for values already in code.
func Identity(code string) Rate {
	return Rate{From: code, To: code, Factor: decimal.NewFromInt(1)}
}

// MustRate builds a rate from a decimal literal such as "0.0065". It panics
// on malformed input and is meant for package-level profile tables.
func MustRate(from, to, factor string) Rate {
	return Rate{From: from, To: to, Factor: decimal.RequireFromString(factor)}
}

// IsIdentity reports whether converting leaves values unchanged.
func (r Rate) IsIdentity() bool {
	return r.Factor.Equal(decimal.NewFromInt(1))
}

func (r Rate) String() string {
	return fmt.Sprintf("%s->%s x%s", r.From, r.To, r.Factor.String())
}

// Convert returns v expressed in r.To. NULL stays NULL. For identity rates the
// value is returned as-is so integer prices stay integers; otherwise the
// result is a float64 computed from the exact decimal product.
func (r Rate) Convert(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if r.IsIdentity() {
		if _, err := ToDecimal(v); err != nil {
			return nil, err
		}
		return v, nil
	}
	d, err := ToDecimal(v)
	if err != nil {
		return nil, err
	}
	return d.Mul(r.Factor).InexactFloat64(), nil
}

// Total returns the product of the given cells times the rate factor, or nil
// when any cell is NULL. Under an identity rate a product of int64 cells
// that fits stays an int64; every other result is a float64.
func (r Rate) Total(cells ...any) (any, error) {
	acc := r.Factor
	ints := r.IsIdentity()
	for _, c := range cells {
		if c == nil {
			return nil, nil
		}
		if _, ok := c.(int64); !ok {
			ints = false
		}
		d, err := ToDecimal(c)
		if err != nil {
			return nil, err
		}
		acc = acc.Mul(d)
	}
	if ints && acc.GreaterThanOrEqual(minInt64) && acc.LessThanOrEqual(maxInt64) {
		return acc.IntPart(), nil
	}
	return acc.InexactFloat64(), nil
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// ToDecimal converts a numeric cell (int64, float64, or numeric text) to a
// decimal.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case int64:
		return decimal.NewFromInt(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("currency: %q is not numeric: %w", t, err)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("currency: unsupported value type %T", v)
	}
}
