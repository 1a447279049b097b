package domain

import (
	"fmt"
	"math"
)

// Currency is the only currency the storefront sells in.
const Currency = "USD"

// Money is an amount in US cents.
type Money int64

// FromDollars converts a decimal dollar amount, as sent by the commerce API,
// to cents. Rounds half away from zero so 6.98 becomes 698.
func FromDollars(d float64) Money {
	return Money(math.Round(d * 100))
}

// Dollars returns the amount in major units.
func (m Money) Dollars() float64 {
	return float64(m) / 100
}

// Times multiplies a unit price by a quantity.
func (m Money) Times(qty int) Money {
	return m * Money(qty)
}

// String renders the amount with two decimals, e.g. "20.94".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
