// Package money provides fixed-point monetary arithmetic.
//
// All amounts are stored as int64 minor units (cents): $10.50 is 1050.
// Balances and transaction amounts never touch binary floating point;
// derived fractional quantities (ownership shares) are carried in basis
// points and rounded half-to-even.
package money

import (
	"fmt"
)

// Currency is an ISO-4217 currency code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// Money is an amount in minor units of a currency.
type Money struct {
	Amount   int64    `json:"amount"`
	Currency Currency `json:"currency"`
}

// New creates a Money value from minor units.
func New(amount int64, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// Add returns m + other. Mixing currencies is an error, not a conversion.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: cannot add %s to %s", other.Currency, m.Currency)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub returns m - other. Mixing currencies is an error.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: cannot subtract %s from %s", other.Currency, m.Currency)
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// String formats the amount with two decimal places, e.g. "1028.64 USD".
func (m Money) String() string {
	sign := ""
	amt := m.Amount
	if amt < 0 {
		sign = "-"
		amt = -amt
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amt/100, amt%100, m.Currency)
}

// DivRoundHalfEven divides numerator by denominator rounding the result
// half-to-even (banker's rounding). Denominator must be positive.
func DivRoundHalfEven(numerator, denominator int64) int64 {
	if denominator <= 0 {
		panic("money: non-positive denominator")
	}

	neg := numerator < 0
	if neg {
		numerator = -numerator
	}

	quo := numerator / denominator
	rem := numerator % denominator

	// Compare twice the remainder against the denominator to decide the
	// rounding direction without leaving integer arithmetic.
	switch {
	case 2*rem > denominator:
		quo++
	case 2*rem == denominator && quo%2 == 1:
		quo++
	}

	if neg {
		quo = -quo
	}
	return quo
}

// BasisPoints returns part/whole expressed in basis points (1 bp = 0.01%),
// rounded half-to-even. 50000/450000 of a whole yields 1111 bp (11.11%).
func BasisPoints(part, whole int64) int64 {
	return DivRoundHalfEven(part*10000, whole)
}

// FormatBasisPoints renders basis points as a percentage string: 1111 -> "11.11".
func FormatBasisPoints(bp int64) string {
	sign := ""
	if bp < 0 {
		sign = "-"
		bp = -bp
	}
	return fmt.Sprintf("%s%d.%02d", sign, bp/100, bp%100)
}
