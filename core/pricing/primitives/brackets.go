// Package primitives - Bracket lookup primitives
package primitives

import "github.com/shopspring/decimal"

// FindBracket returns the index and label of the first bracket containing v.
// A miss degrades to index 0 labeled UnknownBracket.
func FindBracket(v decimal.Decimal, brackets []Bracket) (int, string) {
	for idx, bracket := range brackets {
		if bracket.Contains(v) {
			return idx, bracket.Label
		}
	}
	return 0, UnknownBracket
}

// LookupTransportationRate resolves weight and distance brackets and reads
// the matching cell. No interpolation: it is a pure step function.
func LookupTransportationRate(weight, distance decimal.Decimal, m Matrix) (decimal.Decimal, string, string) {
	weightIdx, weightLabel := FindBracket(weight, m.WeightBrackets)
	distanceIdx, distanceLabel := FindBracket(distance, m.DistanceBrackets)

	return m.Rates[weightIdx][distanceIdx], weightLabel, distanceLabel
}
