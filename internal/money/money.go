package money

import "github.com/shopspring/decimal"

// Float converts a stored amount to the plain JSON number sent to clients.
func Float(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func NullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := Float(d.Decimal)
	return &f
}

// Line is quantity × unit price.
func Line(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}
