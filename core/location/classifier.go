// Package location derives coarse geography from free-text locations.
//
// State extraction and region classification deliberately use different
// matching rules. ExtractStateCode is word-bounded. ClassifyRegion matches
// raw substrings, so a city name that happens to contain a state code
// ("Austin" contains "in") lands in that state's region. Callers already
// depend on those classifications; keep them stable.
package location

import (
	"regexp"
	"strings"

	"move-cost/core/types"
)

// States is the fixed scan order for ExtractStateCode
var States = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

type regionCodes struct {
	region types.Region
	codes  []string
}

// regionPriority is checked top to bottom; first hit wins
var regionPriority = []regionCodes{
	{types.RegionNortheast, []string{"ny", "ma", "ct", "ri", "nh", "vt", "me", "nj", "pa"}},
	{types.RegionSoutheast, []string{"fl", "ga", "sc", "nc", "va", "wv", "ky", "tn", "al", "ms", "ar", "la"}},
	{types.RegionMidwest, []string{"oh", "in", "il", "mi", "wi", "mn", "ia", "mo", "nd", "sd", "ne", "ks"}},
	{types.RegionSouthwest, []string{"tx", "ok", "nm", "az"}},
	{types.RegionWest, []string{"ca", "or", "wa", "nv", "id", "ut", "mt", "wy", "co", "ak", "hi"}},
}

// statePatterns[i] matches States[i] after a comma or whitespace and before
// whitespace or end of input.
var statePatterns = compileStatePatterns()

func compileStatePatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(States))
	for i, code := range States {
		patterns[i] = regexp.MustCompile(`(?:,\s*|\s)` + regexp.QuoteMeta(code) + `(?:\s|$)`)
	}
	return patterns
}

// ExtractStateCode returns the first state code, in States order, that appears
// as a standalone token in location. Empty when nothing matches.
func ExtractStateCode(location string) string {
	upper := strings.ToUpper(location)
	for i, pattern := range statePatterns {
		if pattern.MatchString(upper) {
			return States[i]
		}
	}
	return ""
}

// ClassifyRegion returns the first region, in priority order, that has any of
// its state codes as a substring of the lower-cased location.
func ClassifyRegion(location string) types.Region {
	lower := strings.ToLower(location)
	for _, rc := range regionPriority {
		for _, code := range rc.codes {
			if strings.Contains(lower, code) {
				return rc.region
			}
		}
	}
	return types.RegionDefault
}
