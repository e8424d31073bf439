package ratetable

import (
	"github.com/hashicorp/hcl/v2"
)

// Document is the on-disk shape of a rate table.
// Scalars are pointers so a missing key can be told apart from zero.
type Document struct {
	BaseRatePerPound     *float64           `json:"base_rate_per_pound" yaml:"base_rate_per_pound"`
	WeightTiers          []TierDoc          `json:"weight_tiers" yaml:"weight_tiers"`
	TransportationMatrix *MatrixDoc         `json:"transportation_matrix" yaml:"transportation_matrix"`
	ServiceMultipliers   map[string]float64 `json:"service_multipliers" yaml:"service_multipliers"`
	RegionalAdjustments  map[string]float64 `json:"regional_adjustments" yaml:"regional_adjustments"`
	InsuranceRatePer1000 *float64           `json:"insurance_rate_per_1000" yaml:"insurance_rate_per_1000"`
	FuelSurcharge        *float64           `json:"fuel_surcharge" yaml:"fuel_surcharge"`
	MinimumCharge        *float64           `json:"minimum_charge" yaml:"minimum_charge"`
	Tariffs              *TariffsDoc        `json:"tariffs,omitempty" yaml:"tariffs,omitempty"`
}

// TierDoc is one weight tier; exactly one of MaxPounds or MaxMiles is set
type TierDoc struct {
	MaxPounds      *float64 `json:"max_pounds,omitempty" yaml:"max_pounds,omitempty"`
	MaxMiles       *float64 `json:"max_miles,omitempty" yaml:"max_miles,omitempty"`
	RateAdjustment *float64 `json:"rate_adjustment" yaml:"rate_adjustment"`
}

// MatrixDoc is the transportation matrix
type MatrixDoc struct {
	WeightBrackets   []BracketDoc `json:"weight_brackets" yaml:"weight_brackets"`
	DistanceBrackets []BracketDoc `json:"distance_brackets" yaml:"distance_brackets"`
	Rates            [][]float64  `json:"rates" yaml:"rates"`
}

// BracketDoc is a labeled inclusive range
type BracketDoc struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Label string  `json:"label" yaml:"label"`
}

// TariffsDoc is the optional tariff and tax section
type TariffsDoc struct {
	EnableInterstateTariffs bool               `json:"enable_interstate_tariffs" yaml:"enable_interstate_tariffs"`
	InterstateTariffRate    *float64           `json:"interstate_tariff_rate,omitempty" yaml:"interstate_tariff_rate,omitempty"`
	IntrastateTariffRate    *float64           `json:"intrastate_tariff_rate,omitempty" yaml:"intrastate_tariff_rate,omitempty"`
	StateSpecificTaxes      map[string]float64 `json:"state_specific_taxes,omitempty" yaml:"state_specific_taxes,omitempty"`
}

// hclDocument mirrors Document with HCL block structure:
//
//	base_rate_per_pound = 0.15
//	weight_tier { max_pounds = 2000  rate_adjustment = 1.15 }
//	transportation_matrix {
//	  weight_bracket   { min = 0  max = 1999  label = "Under 2,000 lbs" }
//	  distance_bracket { min = 0  max = 100   label = "0-100 miles" }
//	  rates = [[350, 520]]
//	}
//	tariffs { state_specific_taxes = { TX = 0.0625 } }
type hclDocument struct {
	BaseRatePerPound     *float64           `hcl:"base_rate_per_pound,optional"`
	WeightTiers          []hclTier          `hcl:"weight_tier,block"`
	TransportationMatrix *hclMatrix         `hcl:"transportation_matrix,block"`
	ServiceMultipliers   map[string]float64 `hcl:"service_multipliers,optional"`
	RegionalAdjustments  map[string]float64 `hcl:"regional_adjustments,optional"`
	InsuranceRatePer1000 *float64           `hcl:"insurance_rate_per_1000,optional"`
	FuelSurcharge        *float64           `hcl:"fuel_surcharge,optional"`
	MinimumCharge        *float64           `hcl:"minimum_charge,optional"`
	Tariffs              *hclTariffs        `hcl:"tariffs,block"`
	Remain               hcl.Body           `hcl:",remain"`
}

type hclTier struct {
	MaxPounds      *float64 `hcl:"max_pounds,optional"`
	MaxMiles       *float64 `hcl:"max_miles,optional"`
	RateAdjustment *float64 `hcl:"rate_adjustment,optional"`
}

type hclMatrix struct {
	WeightBrackets   []hclBracket `hcl:"weight_bracket,block"`
	DistanceBrackets []hclBracket `hcl:"distance_bracket,block"`
	Rates            [][]float64  `hcl:"rates,optional"`
}

type hclBracket struct {
	Min   float64 `hcl:"min"`
	Max   float64 `hcl:"max"`
	Label string  `hcl:"label"`
}

type hclTariffs struct {
	EnableInterstateTariffs *bool              `hcl:"enable_interstate_tariffs,optional"`
	InterstateTariffRate    *float64           `hcl:"interstate_tariff_rate,optional"`
	IntrastateTariffRate    *float64           `hcl:"intrastate_tariff_rate,optional"`
	StateSpecificTaxes      map[string]float64 `hcl:"state_specific_taxes,optional"`
}

// document converts the HCL form into the common Document
func (h *hclDocument) document() *Document {
	doc := &Document{
		BaseRatePerPound:     h.BaseRatePerPound,
		ServiceMultipliers:   h.ServiceMultipliers,
		RegionalAdjustments:  h.RegionalAdjustments,
		InsuranceRatePer1000: h.InsuranceRatePer1000,
		FuelSurcharge:        h.FuelSurcharge,
		MinimumCharge:        h.MinimumCharge,
	}
	for _, t := range h.WeightTiers {
		doc.WeightTiers = append(doc.WeightTiers, TierDoc(t))
	}
	if h.TransportationMatrix != nil {
		m := &MatrixDoc{Rates: h.TransportationMatrix.Rates}
		for _, b := range h.TransportationMatrix.WeightBrackets {
			m.WeightBrackets = append(m.WeightBrackets, BracketDoc(b))
		}
		for _, b := range h.TransportationMatrix.DistanceBrackets {
			m.DistanceBrackets = append(m.DistanceBrackets, BracketDoc(b))
		}
		doc.TransportationMatrix = m
	}
	if h.Tariffs != nil {
		t := &TariffsDoc{
			InterstateTariffRate: h.Tariffs.InterstateTariffRate,
			IntrastateTariffRate: h.Tariffs.IntrastateTariffRate,
			StateSpecificTaxes:   h.Tariffs.StateSpecificTaxes,
		}
		if h.Tariffs.EnableInterstateTariffs != nil {
			t.EnableInterstateTariffs = *h.Tariffs.EnableInterstateTariffs
		}
		doc.Tariffs = t
	}
	return doc
}
