// Package ratetable loads the immutable rate table that supplies every
// numeric constant and lookup table used by the pricing pipeline.
// A Table is never modified after it is built and may be shared freely
// across goroutines.
package ratetable

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"move-cost/core/determinism"
	"move-cost/core/pricing/primitives"
	"move-cost/core/types"
)

// Tariff rates used when the tariffs section omits them
var (
	DefaultInterstateTariffRate = decimal.RequireFromString("0.03")
	DefaultIntrastateTariffRate = decimal.Zero
)

// SourceBuiltin names the embedded default table
const SourceBuiltin = "builtin"

var one = decimal.NewFromInt(1)

// Table is an immutable, validated rate table
type Table struct {
	baseRatePerPound     decimal.Decimal
	weightTiers          []primitives.Tier
	matrix               primitives.Matrix
	serviceMultipliers   map[string]decimal.Decimal
	regionalAdjustments  map[string]decimal.Decimal
	insuranceRatePer1000 decimal.Decimal
	fuelSurcharge        decimal.Decimal
	minimumCharge        decimal.Decimal

	tariffsEnabled       bool
	interstateTariffRate decimal.Decimal
	intrastateTariffRate decimal.Decimal
	stateTaxes           map[string]decimal.Decimal

	// Identity
	hash     determinism.ContentHash
	source   string
	loadedAt time.Time
	doc      Document
}

// BaseRatePerPound returns the material cost rate
func (t *Table) BaseRatePerPound() decimal.Decimal { return t.baseRatePerPound }

// InsuranceRatePer1000 returns the valuation rate per 1,000 lbs
func (t *Table) InsuranceRatePer1000() decimal.Decimal { return t.insuranceRatePer1000 }

// FuelSurcharge returns the fuel surcharge fraction
func (t *Table) FuelSurcharge() decimal.Decimal { return t.fuelSurcharge }

// MinimumCharge returns the price floor
func (t *Table) MinimumCharge() decimal.Decimal { return t.minimumCharge }

// TariffsEnabled reports whether interstate/intrastate tariffs are charged
func (t *Table) TariffsEnabled() bool { return t.tariffsEnabled }

// WeightTiers returns a copy of the ordered weight tiers
func (t *Table) WeightTiers() []primitives.Tier {
	return slices.Clone(t.weightTiers)
}

// WeightAdjustment resolves the material tier multiplier for a weight
func (t *Table) WeightAdjustment(weight decimal.Decimal) decimal.Decimal {
	return primitives.ResolveTier(weight, t.weightTiers)
}

// Matrix returns a deep copy of the transportation matrix
func (t *Table) Matrix() primitives.Matrix {
	rates := make([][]decimal.Decimal, len(t.matrix.Rates))
	for i, row := range t.matrix.Rates {
		rates[i] = slices.Clone(row)
	}
	return primitives.Matrix{
		WeightBrackets:   slices.Clone(t.matrix.WeightBrackets),
		DistanceBrackets: slices.Clone(t.matrix.DistanceBrackets),
		Rates:            rates,
	}
}

// Transportation looks up the matrix rate and bracket labels
func (t *Table) Transportation(weight, distance decimal.Decimal) (decimal.Decimal, string, string) {
	return primitives.LookupTransportationRate(weight, distance, t.matrix)
}

// Multiplier returns the service multiplier for a packing or storage key
func (t *Table) Multiplier(key string) (decimal.Decimal, bool) {
	m, ok := t.serviceMultipliers[key]
	return m, ok
}

// RegionalMultiplier returns the adjustment for a region, 1.0 when absent
func (t *Table) RegionalMultiplier(region types.Region) decimal.Decimal {
	if m, ok := t.regionalAdjustments[string(region)]; ok {
		return m
	}
	return one
}

// TariffRate returns the configured tariff rate for a move type.
// Moves of unknown type carry no tariff.
func (t *Table) TariffRate(moveType types.MoveType) decimal.Decimal {
	switch moveType {
	case types.MoveInterstate:
		return t.interstateTariffRate
	case types.MoveIntrastate:
		return t.intrastateTariffRate
	}
	return decimal.Zero
}

// StateTaxRate returns the destination tax for a two-letter state code
func (t *Table) StateTaxRate(code string) (decimal.Decimal, bool) {
	rate, ok := t.stateTaxes[strings.ToUpper(code)]
	return rate, ok
}

// StateTaxes returns a copy of the per-state tax table
func (t *Table) StateTaxes() map[string]decimal.Decimal {
	return maps.Clone(t.stateTaxes)
}

// Hash returns the SHA-256 of the source bytes
func (t *Table) Hash() determinism.ContentHash { return t.hash }

// Source returns the file path the table came from, or SourceBuiltin
func (t *Table) Source() string { return t.source }

// LoadedAt returns when the table was parsed
func (t *Table) LoadedAt() time.Time { return t.loadedAt }

// Ref identifies the table on a quote
func (t *Table) Ref() types.RateTableRef {
	return types.RateTableRef{
		Hash:     t.hash.Hex(),
		Source:   t.source,
		LoadedAt: t.loadedAt,
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Document returns a deep copy of the table in its file shape, with tariff defaults filled in
func (t *Table) Document() Document {
	doc := Document{
		BaseRatePerPound:     cloneFloat(t.doc.BaseRatePerPound),
		ServiceMultipliers:   maps.Clone(t.doc.ServiceMultipliers),
		RegionalAdjustments:  maps.Clone(t.doc.RegionalAdjustments),
		InsuranceRatePer1000: cloneFloat(t.doc.InsuranceRatePer1000),
		FuelSurcharge:        cloneFloat(t.doc.FuelSurcharge),
		MinimumCharge:        cloneFloat(t.doc.MinimumCharge),
	}
	if t.doc.WeightTiers != nil {
		doc.WeightTiers = make([]TierDoc, len(t.doc.WeightTiers))
		for i, tier := range t.doc.WeightTiers {
			doc.WeightTiers[i] = TierDoc{
				MaxPounds:      cloneFloat(tier.MaxPounds),
				MaxMiles:       cloneFloat(tier.MaxMiles),
				RateAdjustment: cloneFloat(tier.RateAdjustment),
			}
		}
	}
	if src := t.doc.TransportationMatrix; src != nil {
		m := MatrixDoc{
			WeightBrackets:   slices.Clone(src.WeightBrackets),
			DistanceBrackets: slices.Clone(src.DistanceBrackets),
			Rates:            make([][]float64, len(src.Rates)),
		}
		for i, row := range src.Rates {
			m.Rates[i] = slices.Clone(row)
		}
		doc.TransportationMatrix = &m
	}

	interstate := t.interstateTariffRate.InexactFloat64()
	intrastate := t.intrastateTariffRate.InexactFloat64()
	taxes := make(map[string]float64, len(t.stateTaxes))
	for code, rate := range t.stateTaxes {
		taxes[code] = rate.InexactFloat64()
	}
	doc.Tariffs = &TariffsDoc{
		EnableInterstateTariffs: t.tariffsEnabled,
		InterstateTariffRate:    &interstate,
		IntrastateTariffRate:    &intrastate,
		StateSpecificTaxes:      taxes,
	}
	return doc
}
