// Package primitives - Tiered adjustment primitives
package primitives

import "github.com/shopspring/decimal"

// ResolveTier returns the multiplier of the first tier whose threshold is
// >= value. Past the last threshold, the last tier is the open-ended ceiling.
// Tiers must already be sorted ascending; nothing here sorts them.
func ResolveTier(value decimal.Decimal, tiers []Tier) decimal.Decimal {
	if len(tiers) == 0 {
		return decimal.NewFromInt(1)
	}

	for _, tier := range tiers {
		if value.LessThanOrEqual(tier.Threshold) {
			return tier.RateAdjustment
		}
	}

	return tiers[len(tiers)-1].RateAdjustment
}
