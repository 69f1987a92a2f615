// Package money converts between display amounts and the scaled integers
// (hundredths) stored on items, parcels and ledgers.
package money

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of stored units per display unit
const Scale = 100

// MaxAmount is the largest magnitude, in stored units, any amount or total may reach
const MaxAmount int64 = 1_000_000_000_000_000

// ErrOutOfRange is returned when an amount or a total exceeds MaxAmount
var ErrOutOfRange = errors.New("amount out of range")

var (
	scale    = decimal.NewFromInt(Scale)
	maxValue = decimal.NewFromInt(MaxAmount)
)

// ToScaled converts a display amount into stored units, rounding half away
// from zero at the second decimal place. The caller must know d is in range;
// FromDecimal is the checked form.
func ToScaled(d decimal.Decimal) int64 {
	return d.Round(2).Mul(scale).IntPart()
}

// FromDecimal is ToScaled with a range check against MaxAmount
func FromDecimal(d decimal.Decimal) (int64, error) {
	v := d.Round(2).Mul(scale)
	if v.Abs().GreaterThan(maxValue) {
		return 0, fmt.Errorf("%s: %w", d.String(), ErrOutOfRange)
	}
	return v.IntPart(), nil
}

// Mul returns v*n, failing once the product leaves [-MaxAmount, MaxAmount]
func Mul(v int64, n int) (int64, error) {
	if n < 0 || v < -MaxAmount || v > MaxAmount {
		return 0, ErrOutOfRange
	}
	if n > 0 && (v > MaxAmount/int64(n) || v < -MaxAmount/int64(n)) {
		return 0, ErrOutOfRange
	}
	return v * int64(n), nil
}

// Add returns a+b, failing once the sum leaves [-MaxAmount, MaxAmount]
func Add(a, b int64) (int64, error) {
	if a < -MaxAmount || a > MaxAmount || b < -MaxAmount || b > MaxAmount {
		return 0, ErrOutOfRange
	}
	sum := a + b
	if sum < -MaxAmount || sum > MaxAmount {
		return 0, ErrOutOfRange
	}
	return sum, nil
}

// FromScaled converts stored units back into a display amount
func FromScaled(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

// Format renders stored units with two decimals, e.g. 12550 -> "125.50"
func Format(v int64) string {
	return FromScaled(v).StringFixed(2)
}

// Parse reads a display amount such as "125.5" into stored units
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// Amount is a stored-unit value that travels as a JSON decimal number
type Amount int64

// MarshalJSON writes the amount as a decimal number with two places
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(Format(int64(a))), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = Amount(v)
	return nil
}

// Scaled returns the stored-unit value
func (a Amount) Scaled() int64 {
	return int64(a)
}
