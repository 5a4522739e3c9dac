package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent is a percentage value with the /100 conversion in one place.
// Negative inputs are clamped to zero; there is no upper bound, so markups
// above 100% pass through unchanged.
type Percent struct {
	value decimal.Decimal
}

// PercentOf builds a Percent from a decimal percentage (15 means 15%).
func PercentOf(value decimal.Decimal) Percent {
	if value.IsNegative() {
		return Percent{}
	}
	return Percent{value: value}
}

// PercentFromFloat builds a Percent from a float percentage.
func PercentFromFloat(value float64) Percent {
	return PercentOf(decimal.NewFromFloat(value))
}

// Value returns the percentage as entered (15 for 15%).
func (p Percent) Value() decimal.Decimal {
	return p.value
}

// Fraction returns the multiplier form (0.15 for 15%).
func (p Percent) Fraction() decimal.Decimal {
	return p.value.Div(hundred)
}

// IsZero reports whether the percentage is zero.
func (p Percent) IsZero() bool {
	return p.value.IsZero()
}
