package location

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"move-cost/core/types"
)

func TestClassifyRegion(t *testing.T) {
	cases := map[string]types.Region{
		"New York, NY": types.RegionNortheast,
		"Atlanta, GA":  types.RegionSoutheast,
		"Chicago, IL":  types.RegionMidwest,
		"Phoenix, AZ":  types.RegionSouthwest,
		"Seattle, WA":  types.RegionWest,
		"":             types.RegionDefault,
		"90210":        types.RegionDefault,
	}
	for input, want := range cases {
		assert.Equal(t, want, ClassifyRegion(input), input)
	}
}

func TestClassifyRegionSubstringFalsePositivesArePreserved(t *testing.T) {
	// "in" inside "Austin" beats the TX southwest code because midwest is checked first
	assert.Equal(t, types.RegionMidwest, ClassifyRegion("Austin, TX"))
	// "al" inside "Dallas" makes it southeast
	assert.Equal(t, types.RegionSoutheast, ClassifyRegion("Dallas, TX"))
	assert.Equal(t, types.RegionSouthwest, ClassifyRegion("Houston, TX"))
}

func TestExtractStateCode(t *testing.T) {
	cases := map[string]string{
		"Austin, TX":        "TX",
		"Los Angeles, CA":   "CA",
		"New York, NY":      "NY",
		"Bentonville, AR":   "AR",
		"portland or 97201": "OR",
		"Austin,TX":         "TX",
		"Boston MA":         "MA",
		"Springfield":       "",
		"90210":             "",
		"":                  "",
	}
	for input, want := range cases {
		assert.Equal(t, want, ExtractStateCode(input), input)
	}
}

func TestExtractStateCodeIsWordBounded(t *testing.T) {
	// "IN" inside AUSTIN and "OR" inside YORK must not match
	assert.Equal(t, "", ExtractStateCode("Austin"))
	assert.Equal(t, "", ExtractStateCode("York"))
	// a code glued to following text is not a token
	assert.Equal(t, "", ExtractStateCode("Reno, NV89501"))
}

func TestExtractStateCodeReturnsFirstInTableOrder(t *testing.T) {
	// both CA and AL are tokens; AL comes first in the scan order
	assert.Equal(t, "AL", ExtractStateCode("Somewhere, CA AL"))
}
