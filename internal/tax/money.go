package tax

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places every money value carries.
const MoneyPlaces = 2

// Round rounds to cents with ties away from zero: 12.345 becomes 12.35 and
// -0.005 becomes -0.01. Every computed money value goes through Round once.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
