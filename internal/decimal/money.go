package decimal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits carried by every monetary amount
const Places = 2

// Zero is decimal zero
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// Limits on amount text accepted by FromString
const (
	MaxAmountLength = 40
	MinExponent     = -20
	MaxExponent     = 20
)

// FromInt creates decimal from int
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// FromString parses decimal from string. Text longer than MaxAmountLength
// or with an exponent outside [MinExponent, MaxExponent] is an error.
func FromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if len(s) > MaxAmountLength {
		return Zero, fmt.Errorf("amount exceeds %d characters", MaxAmountLength)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, err
	}
	if exp := d.Exponent(); exp < MinExponent || exp > MaxExponent {
		return Zero, fmt.Errorf("amount %q out of range", s)
	}
	return d, nil
}

// MustFromString parses decimal from string, panics on error
func MustFromString(s string) decimal.Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseOr parses s and falls back to def when s is empty, not a number or
// out of range. Coercion failures are never surfaced to the caller.
func ParseOr(s string, def decimal.Decimal) decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return def
	}
	d, err := FromString(s)
	if err != nil {
		return def
	}
	return d
}

// Round rounds to 2 places, half away from zero
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Mul multiplies two decimals, rounds to 2 places
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(Places)
}

// Div divides a by b, rounds to 2 places
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return Zero
	}
	return a.Div(b).Round(Places)
}

// CalculateVAT computes VAT amount: amount * (rate/100), rounded to 2 places
func CalculateVAT(amount, ratePercent decimal.Decimal) decimal.Decimal {
	if ratePercent.IsZero() {
		return Zero
	}
	return amount.Mul(ratePercent).Div(hundred).Round(Places)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// Format renders d with exactly 2 fractional digits
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// WithinTolerance reports whether |a-b| <= tol
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
