package domain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits kept for money values.
const AmountScale = 2

// Amount is a fixed-point money value. Every constructor rounds half away
// from zero to AmountScale digits, so two Amounts compare exactly.
type Amount struct {
	d decimal.Decimal
}

// ZeroAmount is the balance of a new wallet.
var ZeroAmount = Amount{}

// NewAmount rounds d to AmountScale digits.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d: d.Round(AmountScale)}
}

// AmountFromInt builds a whole-unit amount.
func AmountFromInt(n int64) Amount {
	return Amount{d: decimal.NewFromInt(n)}
}

// Rounding rescales through big.Int powers of ten, so the magnitude
// (digits + exponent) is bounded before NewAmount sees the value.
const (
	maxAmountInputLen  = 40
	maxAmountMagnitude = 13 // 10^13 is far above any accepted amount
	minAmountMagnitude = -3 // below 0.001 the value rounds to zero
)

// ErrAmountOutOfRange reports an amount too large for the ledger to hold.
var ErrAmountOutOfRange = errors.New("amount out of range")

// ParseAmount parses a decimal string such as "100" or "12.345".
func ParseAmount(s string) (Amount, error) {
	if len(s) > maxAmountInputLen {
		return Amount{}, fmt.Errorf("parse amount: %d characters: %w", len(s), ErrAmountOutOfRange)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsZero() {
		return ZeroAmount, nil
	}
	switch magnitude := d.NumDigits() + int(d.Exponent()); {
	case magnitude > maxAmountMagnitude:
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, ErrAmountOutOfRange)
	case magnitude < minAmountMagnitude:
		return ZeroAmount, nil
	}
	return NewAmount(d), nil
}

// MustAmount is ParseAmount for literals; it panics on bad input.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int          { return a.d.Cmp(b.d) }
func (a Amount) Equal(b Amount) bool       { return a.d.Equal(b.d) }
func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }
func (a Amount) LessThan(b Amount) bool    { return a.d.LessThan(b.d) }
func (a Amount) IsPositive() bool          { return a.d.IsPositive() }
func (a Amount) IsNegative() bool          { return a.d.IsNegative() }
func (a Amount) IsZero() bool              { return a.d.IsZero() }

// Decimal exposes the underlying value for storage adapters.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// String renders the shortest exact form ("100", "50.5").
func (a Amount) String() string { return a.d.String() }

// MarshalJSON writes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("amount must be a number")
	}
	b = bytes.Trim(b, `"`)
	parsed, err := ParseAmount(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
