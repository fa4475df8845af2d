package domain

import (
	"strings"
)

// Money holds an amount in "minor units" (cents) with its currency code.
// Example: 10.50 EUR is stored as {1050, "eur"}.
type Money struct {
	Amount   int64
	Currency string
}

// NewMoney creates a new Money instance
func NewMoney(amount int64, currency string) Money {
	return Money{
		Amount:   amount,
		Currency: strings.TrimSpace(currency),
	}
}

// IsCurrency compares currency codes case-insensitively ("EUR" == "eur").
func (m Money) IsCurrency(code string) bool {
	return strings.EqualFold(m.Currency, strings.TrimSpace(code))
}

// Covers reports whether an available amount can pay for m.
func (m Money) Covers(available int64) bool {
	return available >= m.Amount
}
