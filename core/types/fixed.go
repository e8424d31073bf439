package types

import "github.com/shopspring/decimal"

// Fixed is a presentation value rounded to two decimals.
// It marshals as a JSON number with exactly two fractional digits.
type Fixed struct {
	decimal.Decimal
}

// Round2 rounds d half away from zero to cents
func Round2(d decimal.Decimal) Fixed {
	return Fixed{Decimal: d.Round(2)}
}

// FixedFromFloat rounds f to cents
func FixedFromFloat(f float64) Fixed {
	return Round2(decimal.NewFromFloat(f))
}

// MarshalJSON renders the value as an unquoted number
func (f Fixed) MarshalJSON() ([]byte, error) {
	return []byte(f.StringFixed(2)), nil
}

// String renders the value with two fractional digits
func (f Fixed) String() string {
	return f.StringFixed(2)
}

// Float64 returns the nearest float64
func (f Fixed) Float64() float64 {
	return f.InexactFloat64()
}
