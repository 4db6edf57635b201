// Package money handles euro amounts for display and totals. Documents carry
// French invoice amounts; arithmetic happens on integer cents via go-money so
// summed totals never drift.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the ISO-4217 code all document amounts share.
const Currency = "EUR"

// Amount is a monetary value in euro cents.
type Amount struct {
	m *money.Money
}

// New creates an Amount from integer cents.
func New(cents int64) *Amount {
	return &Amount{m: money.New(cents, Currency)}
}

// Zero returns the zero amount.
func Zero() *Amount {
	return New(0)
}

var centsPerEuro = decimal.New(1, 2)

// FromDecimal converts a decimal euro value, rounding to the nearest cent.
func FromDecimal(d decimal.Decimal) *Amount {
	return New(d.Mul(centsPerEuro).Round(0).IntPart())
}

// FromFloat converts a float euro value, rounding to the nearest cent.
// Prefer FromDecimal when a decimal is already at hand.
func FromFloat(v float64) *Amount {
	return FromDecimal(decimal.NewFromFloat(v))
}

// Cents returns the amount in cents.
func (a *Amount) Cents() int64 {
	if a == nil || a.m == nil {
		return 0
	}
	return a.m.Amount()
}

// IsZero reports whether the amount is zero.
func (a *Amount) IsZero() bool {
	return a.Cents() == 0
}

// IsNegative reports whether the amount is below zero.
func (a *Amount) IsNegative() bool {
	return a.Cents() < 0
}

// Add returns a+other. Amounts share a single currency, so addition never
// fails.
func (a *Amount) Add(other *Amount) *Amount {
	return New(a.Cents() + other.Cents())
}

// Negate returns the negated amount.
func (a *Amount) Negate() *Amount {
	return New(-a.Cents())
}

// Equal reports whether two amounts carry the same number of cents.
func (a *Amount) Equal(other *Amount) bool {
	return a.Cents() == other.Cents()
}

// ToDecimal converts back to a decimal euro value, exactly.
func (a *Amount) ToDecimal() decimal.Decimal {
	return decimal.New(a.Cents(), -2)
}

// Display returns the formatted value with the currency symbol.
func (a *Amount) Display() string {
	if a == nil || a.m == nil {
		return money.New(0, Currency).Display()
	}
	return a.m.Display()
}

// String returns the plain decimal value, e.g. "1234.56".
func (a *Amount) String() string {
	return a.ToDecimal().StringFixed(2)
}
