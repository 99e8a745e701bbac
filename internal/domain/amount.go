package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits kept for every monetary value.
const AmountPrecision = 4

// Amount is a non-negative monetary quantity with four fractional digits.
type Amount struct {
	value decimal.Decimal
}

// NewAmount rounds d to AmountPrecision and rejects negative values.
func NewAmount(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	return Amount{value: d.Round(AmountPrecision)}, nil
}

func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewAmount(d)
}

// MustParseAmount is ParseAmount for literals known to be valid. It panics otherwise.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

func (a Amount) String() string {
	return FormatMoney(a.value)
}

// FormatMoney renders d with exactly AmountPrecision fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(AmountPrecision)
}
