package types

import "time"

// CostBreakdown is the itemized result of pricing one move.
// Every Fixed field is rounded to cents for presentation; decisions such as
// the minimum floor were taken on unrounded values before rounding.
type CostBreakdown struct {
	// QuoteID uniquely identifies this pricing run
	QuoteID string `json:"quote_id"`

	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DistanceMiles float64 `json:"distance_miles"`
	WeightPounds  float64 `json:"weight_pounds"`

	// Breakdown holds every intermediate quantity
	Breakdown Breakdown `json:"breakdown"`

	// TotalShouldCost is the final price
	TotalShouldCost Fixed `json:"total_should_cost"`

	// Lineage explains how each stage was computed
	Lineage []StageLineage `json:"lineage,omitempty"`

	// RateTable identifies the rate table that produced this quote
	RateTable RateTableRef `json:"rate_table"`
}

// Breakdown is the itemized body of a CostBreakdown
type Breakdown struct {
	// Material
	MaterialBaseCost         Fixed `json:"material_base_cost"`
	MaterialWeightAdjustment Fixed `json:"material_weight_adjustment"`
	MaterialAdjustedCost     Fixed `json:"material_adjusted_cost"`

	// Transportation (matrix based, never tier adjusted)
	TransportationCost            Fixed  `json:"transportation_cost"`
	TransportationWeightBracket   string `json:"transportation_weight_bracket"`
	TransportationDistanceBracket string `json:"transportation_distance_bracket"`

	// Services
	PackingService    PackingService `json:"packing_service"`
	PackingMultiplier Fixed          `json:"packing_multiplier"`
	PackingCost       Fixed          `json:"packing_cost"`
	StorageOption     StorageOption  `json:"storage_option"`
	StorageMultiplier Fixed          `json:"storage_multiplier"`
	StorageCost       Fixed          `json:"storage_cost"`

	// Regional blend
	OriginRegion           Region `json:"origin_region"`
	DestinationRegion      Region `json:"destination_region"`
	RegionalAdjustment     Fixed  `json:"regional_adjustment"`
	RegionalCostAdjustment Fixed  `json:"regional_cost_adjustment"`

	// Fuel and insurance
	FuelSurchargeRate Fixed `json:"fuel_surcharge_rate"`
	FuelCharge        Fixed `json:"fuel_charge"`
	InsuranceCost     Fixed `json:"insurance_cost"`

	// Discount
	DiscountRate          Fixed `json:"discount_rate"`
	DiscountAmount        Fixed `json:"discount_amount"`
	SubtotalAfterDiscount Fixed `json:"subtotal_after_discount"`

	// Tariffs and taxes
	OriginState          string   `json:"origin_state"`
	DestinationState     string   `json:"destination_state"`
	MoveType             MoveType `json:"move_type"`
	MoveDescription      string   `json:"move_description"`
	TariffType           MoveType `json:"tariff_type"`
	TariffDescription    string   `json:"tariff_description"`
	InterstateTariff     Fixed    `json:"interstate_tariff"`
	StateTax             Fixed    `json:"state_tax"`
	TotalTariffsAndTaxes Fixed    `json:"total_tariffs_and_taxes"`

	// Running totals
	BaseCost              Fixed `json:"base_cost"`
	AdjustedBase          Fixed `json:"adjusted_base"`
	ServiceAdjustedCost   Fixed `json:"service_adjusted_cost"`
	RegionalCost          Fixed `json:"regional_cost"`
	SubtotalBeforeTariffs Fixed `json:"subtotal_before_tariffs"`
	Subtotal              Fixed `json:"subtotal"`

	// Minimum floor
	MinimumCharge        Fixed `json:"minimum_charge"`
	AppliedMinimumCharge bool  `json:"applied_minimum_charge"`
}

// StageLineage records one pipeline stage
type StageLineage struct {
	// Stage names the pipeline step
	Stage string `json:"stage"`

	// Formula describes how the amount was calculated
	Formula string `json:"formula"`

	// Amount is the stage result
	Amount Fixed `json:"amount"`
}

// RateTableRef names a loaded rate table
type RateTableRef struct {
	// Hash is the SHA-256 of the table's source bytes
	Hash string `json:"hash"`

	// Source is the file path or "builtin"
	Source string `json:"source"`

	// LoadedAt is when the table was parsed
	LoadedAt time.Time `json:"loaded_at"`
}

// CostPerPound returns total / weight, zero for a zero weight
func (c *CostBreakdown) CostPerPound() Fixed {
	if c.WeightPounds <= 0 {
		return Fixed{}
	}
	return FixedFromFloat(c.TotalShouldCost.Float64() / c.WeightPounds)
}

// AdditionalCosts sums packing, storage, fuel and insurance
func (b Breakdown) AdditionalCosts() Fixed {
	sum := b.PackingCost.Add(b.StorageCost.Decimal).Add(b.FuelCharge.Decimal).Add(b.InsuranceCost.Decimal)
	return Round2(sum)
}
