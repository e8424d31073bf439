// Package primitives - Centralized lookup math
// Step-function lookups shared by the pricing pipeline.
// Every table here is ordered and read-only once built.
package primitives

import "github.com/shopspring/decimal"

// UnknownBracket labels a value that fell outside every bracket
const UnknownBracket = "Unknown"

// Tier is a threshold-triggered multiplier.
// Threshold is inclusive: a value <= Threshold selects the tier.
type Tier struct {
	Threshold      decimal.Decimal
	RateAdjustment decimal.Decimal

	// Unit records which threshold key the tier came from (max_pounds, max_miles)
	Unit string
}

// Bracket is a labeled inclusive [Min, Max] range
type Bracket struct {
	Min   decimal.Decimal
	Max   decimal.Decimal
	Label string
}

// Contains reports whether v lies in the inclusive range
func (b Bracket) Contains(v decimal.Decimal) bool {
	return b.Min.LessThanOrEqual(v) && v.LessThanOrEqual(b.Max)
}

// Matrix is the 2-D transportation rate table.
// Rates is indexed [weight bracket][distance bracket].
type Matrix struct {
	WeightBrackets   []Bracket
	DistanceBrackets []Bracket
	Rates            [][]decimal.Decimal
}
