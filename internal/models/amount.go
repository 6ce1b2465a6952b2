package models

import (
	"fmt"
	"strings"

	"fjacquet/expense-bot/internal/parsererror"

	"github.com/shopspring/decimal"
)

// Amount is an exact, strictly positive decimal sum of money. The zero value
// is not a valid Amount and is only used as a placeholder.
type Amount struct {
	value decimal.Decimal
}

// NewAmount wraps a decimal, rejecting zero and negative values.
func NewAmount(d decimal.Decimal) (Amount, error) {
	if !d.IsPositive() {
		return Amount{}, parsererror.ErrNonPositiveAmount
	}
	return Amount{value: d}, nil
}

// ParseAmount parses a decimal string. A comma is accepted as the decimal separator.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %v", parsererror.ErrInvalidAmount, err)
	}
	return NewAmount(d)
}

// MustParseAmount is ParseAmount that panics on error. Intended for tests and constants.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// IsZero reports whether a is the zero placeholder.
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// Equal compares two amounts by value, so 200 equals 200.00.
func (a Amount) Equal(b Amount) bool {
	return a.value.Equal(b.value)
}

// String renders the amount keeping the precision it was written with,
// so "200.50" stays "200.50".
func (a Amount) String() string {
	if exp := a.value.Exponent(); exp < 0 {
		return a.value.StringFixed(-exp)
	}
	return a.value.String()
}
