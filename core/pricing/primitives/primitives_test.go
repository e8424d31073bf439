package primitives

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func weightTiers() []Tier {
	return []Tier{
		{Threshold: d(2000), RateAdjustment: d(1.15), Unit: "max_pounds"},
		{Threshold: d(5000), RateAdjustment: d(1.0), Unit: "max_pounds"},
		{Threshold: d(10000), RateAdjustment: d(0.95), Unit: "max_pounds"},
	}
}

func TestResolveTierFirstMatchWins(t *testing.T) {
	tiers := weightTiers()

	assert.True(t, ResolveTier(d(100), tiers).Equal(d(1.15)))
	assert.True(t, ResolveTier(d(2000), tiers).Equal(d(1.15)), "threshold is inclusive")
	assert.True(t, ResolveTier(d(2000.01), tiers).Equal(d(1.0)))
	assert.True(t, ResolveTier(d(9999), tiers).Equal(d(0.95)))
}

func TestResolveTierCeilingIsLastTier(t *testing.T) {
	assert.True(t, ResolveTier(d(250000), weightTiers()).Equal(d(0.95)))
}

func TestResolveTierDoesNotSort(t *testing.T) {
	unsorted := []Tier{
		{Threshold: d(10000), RateAdjustment: d(0.9)},
		{Threshold: d(1000), RateAdjustment: d(1.2)},
	}
	// 500 <= 10000 hits the first entry even though a tighter tier follows
	assert.True(t, ResolveTier(d(500), unsorted).Equal(d(0.9)))
}

func TestResolveTierEmptyIsNeutral(t *testing.T) {
	assert.True(t, ResolveTier(d(10), nil).Equal(decimal.NewFromInt(1)))
}

func testMatrix() Matrix {
	return Matrix{
		WeightBrackets: []Bracket{
			{Min: d(0), Max: d(1999), Label: "Under 2,000 lbs"},
			{Min: d(2000), Max: d(3999), Label: "2,000-3,999 lbs"},
		},
		DistanceBrackets: []Bracket{
			{Min: d(0), Max: d(100), Label: "0-100 miles"},
			{Min: d(101), Max: d(500), Label: "101-500 miles"},
		},
		Rates: [][]decimal.Decimal{
			{d(350), d(520)},
			{d(650), d(980)},
		},
	}
}

func TestLookupTransportationRate(t *testing.T) {
	rate, wl, dl := LookupTransportationRate(d(2500), d(300), testMatrix())

	assert.True(t, rate.Equal(d(980)))
	assert.Equal(t, "2,000-3,999 lbs", wl)
	assert.Equal(t, "101-500 miles", dl)
}

func TestLookupTransportationRateIsStepFunction(t *testing.T) {
	m := testMatrix()
	low, _, _ := LookupTransportationRate(d(2000), d(101), m)
	high, _, _ := LookupTransportationRate(d(3999), d(500), m)

	assert.True(t, low.Equal(high))
}

func TestLookupTransportationRateUnknownFallsBackToFirstBracket(t *testing.T) {
	m := testMatrix()

	rate, wl, dl := LookupTransportationRate(d(50000), d(100.5), m)
	assert.True(t, rate.Equal(d(350)))
	assert.Equal(t, UnknownBracket, wl)
	assert.Equal(t, UnknownBracket, dl)

	rate, wl, dl = LookupTransportationRate(d(2500), d(900), m)
	assert.True(t, rate.Equal(d(650)))
	assert.Equal(t, "2,000-3,999 lbs", wl)
	assert.Equal(t, UnknownBracket, dl)
}
