// Package pricing turns a move request and a rate table into an itemized
// cost breakdown. Stages run in a fixed order; they do not commute.
// The pipeline is synchronous, performs no I/O and never mutates the table.
package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"move-cost/core/location"
	"move-cost/core/ratetable"
	"move-cost/core/types"
	cerrors "move-cost/internal/errors"
)

var (
	one      = decimal.NewFromInt(1)
	two      = decimal.NewFromInt(2)
	thousand = decimal.NewFromInt(1000)
)

// quote carries the unrounded intermediate values of one pricing run
type quote struct {
	table *ratetable.Table
	req   types.MoveRequest
	rates types.Overrides

	weight   decimal.Decimal
	distance decimal.Decimal

	transport      decimal.Decimal
	weightLabel    string
	distanceLabel  string
	materialBase   decimal.Decimal
	weightAdj      decimal.Decimal
	materialAdj    decimal.Decimal
	baseCost       decimal.Decimal
	adjustedCost   decimal.Decimal
	packingMult    decimal.Decimal
	storageMult    decimal.Decimal
	serviceCost    decimal.Decimal
	originRegion   types.Region
	destRegion     types.Region
	regionalAdj    decimal.Decimal
	regionalCost   decimal.Decimal
	insurance      decimal.Decimal
	subtotalBase   decimal.Decimal
	fuelRate       decimal.Decimal
	fuel           decimal.Decimal
	discountRate   decimal.Decimal
	discount       decimal.Decimal
	afterDiscount  decimal.Decimal
	subtotal       decimal.Decimal
	originState    string
	destState      string
	moveType       types.MoveType
	tariff         decimal.Decimal
	stateTax       decimal.Decimal
	tariffsTaxes   decimal.Decimal
	total          decimal.Decimal
	minimumCharge  decimal.Decimal
	appliedMinimum bool

	lineage []types.StageLineage
}

// stages run in this exact order
var stages = []func(*quote){
	(*quote).transportation,
	(*quote).material,
	(*quote).base,
	(*quote).services,
	(*quote).regional,
	(*quote).insuranceCost,
	(*quote).subtotalBeforeFuel,
	(*quote).fuelSurcharge,
	(*quote).applyDiscount,
	(*quote).subtotalWithFuel,
	(*quote).states,
	(*quote).tariffs,
	(*quote).stateSalesTax,
	(*quote).totalCost,
	(*quote).minimumFloor,
}

// Price runs every pricing stage for req against table
func Price(table *ratetable.Table, req types.MoveRequest) (*types.CostBreakdown, error) {
	if table == nil {
		return nil, cerrors.Internal("rate table is not loaded", nil)
	}

	req = req.WithDefaults()
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	q := &quote{
		table:    table,
		req:      req,
		rates:    req.CustomRates,
		weight:   decimal.NewFromFloat(req.WeightPounds),
		distance: decimal.NewFromFloat(req.DistanceMiles),
		lineage:  make([]types.StageLineage, 0, len(stages)),
	}
	for _, stage := range stages {
		stage(q)
	}
	return q.breakdown(), nil
}

func (q *quote) record(stage string, amount decimal.Decimal, format string, args ...interface{}) {
	q.lineage = append(q.lineage, types.StageLineage{
		Stage:   stage,
		Formula: fmt.Sprintf(format, args...),
		Amount:  types.Round2(amount),
	})
}

// rate returns the override when set, otherwise the fallback
func rate(override decimal.NullDecimal, fallback decimal.Decimal) decimal.Decimal {
	if override.Valid {
		return override.Decimal
	}
	return fallback
}

func (q *quote) serviceMultiplier(key string) decimal.Decimal {
	if o := q.rates.Service(key); o.Valid {
		return o.Decimal
	}
	if m, ok := q.table.Multiplier(key); ok {
		return m
	}
	return one
}

func (q *quote) transportation() {
	q.transport, q.weightLabel, q.distanceLabel = q.table.Transportation(q.weight, q.distance)
	q.record("transportation", q.transport, "matrix[%s][%s]", q.weightLabel, q.distanceLabel)
}

func (q *quote) material() {
	q.materialBase = q.weight.Mul(q.table.BaseRatePerPound())
	q.weightAdj = q.table.WeightAdjustment(q.weight)
	q.materialAdj = q.materialBase.Mul(q.weightAdj)
	q.record("material", q.materialAdj, "%s lbs x %s/lb x %s tier", q.weight, q.table.BaseRatePerPound(), q.weightAdj)
}

func (q *quote) base() {
	q.adjustedCost = q.transport.Add(q.materialAdj)
	q.baseCost = q.transport.Add(q.materialBase)
	q.record("adjusted_base", q.adjustedCost, "transportation + adjusted material")
}

func (q *quote) services() {
	q.packingMult = q.serviceMultiplier(string(q.req.PackingService))
	q.storageMult = q.serviceMultiplier(string(q.req.StorageOption))
	q.serviceCost = q.adjustedCost.Mul(q.packingMult).Mul(q.storageMult)
	q.record("services", q.serviceCost, "adjusted base x %s (%s) x %s (%s)",
		q.packingMult, q.req.PackingService, q.storageMult, q.req.StorageOption)
}

func (q *quote) regional() {
	q.originRegion = location.ClassifyRegion(q.req.Origin)
	q.destRegion = location.ClassifyRegion(q.req.Destination)
	q.regionalAdj = q.table.RegionalMultiplier(q.originRegion).
		Add(q.table.RegionalMultiplier(q.destRegion)).
		Div(two)
	q.regionalCost = q.serviceCost.Mul(q.regionalAdj)
	q.record("regional", q.regionalCost, "service cost x avg(%s, %s) = %s", q.originRegion, q.destRegion, q.regionalAdj)
}

func (q *quote) insuranceCost() {
	q.insurance = decimal.Zero
	if q.req.IncludeInsurance {
		perThousand := rate(q.rates.InsurancePer1000, q.table.InsuranceRatePer1000())
		q.insurance = q.weight.Div(thousand).Mul(perThousand)
		q.record("insurance", q.insurance, "%s lbs / 1000 x %s", q.weight, perThousand)
		return
	}
	q.record("insurance", q.insurance, "declined")
}

func (q *quote) subtotalBeforeFuel() {
	q.subtotalBase = q.regionalCost.Add(q.insurance)
	q.record("subtotal_base", q.subtotalBase, "regional cost + insurance")
}

func (q *quote) fuelSurcharge() {
	q.fuelRate = rate(q.rates.FuelSurcharge, q.table.FuelSurcharge())
	q.fuel = q.subtotalBase.Mul(q.fuelRate)
	q.record("fuel", q.fuel, "subtotal base x %s", q.fuelRate)
}

func (q *quote) applyDiscount() {
	q.discountRate = rate(q.rates.Discount, decimal.Zero)
	q.discount = q.subtotalBase.Mul(q.discountRate)
	q.afterDiscount = q.subtotalBase.Sub(q.discount)
	q.record("discount", q.discount, "subtotal base x %s", q.discountRate)
}

func (q *quote) subtotalWithFuel() {
	q.subtotal = q.afterDiscount.Add(q.fuel)
	q.record("subtotal", q.subtotal, "discounted subtotal + fuel")
}

func (q *quote) states() {
	q.originState = location.ExtractStateCode(q.req.Origin)
	q.destState = location.ExtractStateCode(q.req.Destination)

	switch {
	case q.originState == "" || q.destState == "":
		q.moveType = types.MoveUnknown
	case q.originState != q.destState:
		q.moveType = types.MoveInterstate
	default:
		q.moveType = types.MoveIntrastate
	}
}

func (q *quote) tariffs() {
	q.tariff = decimal.Zero
	if !q.table.TariffsEnabled() {
		q.record("tariff", q.tariff, "%s move, tariffs disabled", q.moveType)
		return
	}

	var tariffRate decimal.Decimal
	switch q.moveType {
	case types.MoveInterstate:
		tariffRate = rate(q.rates.InterstateTariffRate, q.table.TariffRate(q.moveType))
	case types.MoveIntrastate:
		tariffRate = rate(q.rates.IntrastateTariffRate, q.table.TariffRate(q.moveType))
	default:
		q.record("tariff", q.tariff, "states unresolved")
		return
	}
	q.tariff = q.subtotal.Mul(tariffRate)
	q.record("tariff", q.tariff, "%s subtotal x %s", q.moveType, tariffRate)
}

func (q *quote) stateSalesTax() {
	q.stateTax = decimal.Zero
	tableRate, ok := q.table.StateTaxRate(q.destState)
	if q.destState == "" || !ok {
		q.record("state_tax", q.stateTax, "no tax for destination %q", q.destState)
		return
	}
	taxRate := rate(q.rates.StateTaxRate(q.destState), tableRate)
	q.stateTax = q.subtotal.Mul(taxRate)
	q.record("state_tax", q.stateTax, "subtotal x %s (%s)", taxRate, q.destState)
}

func (q *quote) totalCost() {
	q.tariffsTaxes = q.tariff.Add(q.stateTax)
	// insurance is already inside subtotal and is added again here
	q.total = q.subtotal.Add(q.insurance).Add(q.tariffsTaxes)
	q.record("total", q.total, "subtotal + insurance + tariffs and taxes")
}

func (q *quote) minimumFloor() {
	q.minimumCharge = rate(q.rates.MinimumCharge, q.table.MinimumCharge())
	if q.total.LessThan(q.minimumCharge) {
		q.total = q.minimumCharge
		q.appliedMinimum = true
		q.record("minimum", q.total, "raised to minimum charge %s", q.minimumCharge)
	}
}

func (q *quote) description() string {
	switch q.moveType {
	case types.MoveInterstate:
		return fmt.Sprintf("Interstate (%s → %s)", q.originState, q.destState)
	case types.MoveIntrastate:
		return fmt.Sprintf("Intrastate (%s)", q.destState)
	}
	return "None"
}

// breakdown rounds every value for presentation
func (q *quote) breakdown() *types.CostBreakdown {
	r := types.Round2
	desc := q.description()

	return &types.CostBreakdown{
		QuoteID:       uuid.NewString(),
		Origin:        q.req.Origin,
		Destination:   q.req.Destination,
		DistanceMiles: q.req.DistanceMiles,
		WeightPounds:  q.req.WeightPounds,
		Breakdown: types.Breakdown{
			MaterialBaseCost:         r(q.materialBase),
			MaterialWeightAdjustment: r(q.weightAdj),
			MaterialAdjustedCost:     r(q.materialAdj),

			TransportationCost:            r(q.transport),
			TransportationWeightBracket:   q.weightLabel,
			TransportationDistanceBracket: q.distanceLabel,

			PackingService:    q.req.PackingService,
			PackingMultiplier: r(q.packingMult),
			PackingCost:       r(q.adjustedCost.Mul(q.packingMult.Sub(one))),
			StorageOption:     q.req.StorageOption,
			StorageMultiplier: r(q.storageMult),
			StorageCost:       r(q.adjustedCost.Mul(q.packingMult).Mul(q.storageMult.Sub(one))),

			OriginRegion:           q.originRegion,
			DestinationRegion:      q.destRegion,
			RegionalAdjustment:     r(q.regionalAdj),
			RegionalCostAdjustment: r(q.serviceCost.Mul(q.regionalAdj.Sub(one))),

			FuelSurchargeRate: r(q.fuelRate),
			FuelCharge:        r(q.fuel),
			InsuranceCost:     r(q.insurance),

			DiscountRate:          r(q.discountRate),
			DiscountAmount:        r(q.discount),
			SubtotalAfterDiscount: r(q.afterDiscount),

			OriginState:          q.originState,
			DestinationState:     q.destState,
			MoveType:             q.moveType,
			MoveDescription:      desc,
			TariffType:           q.moveType,
			TariffDescription:    desc,
			InterstateTariff:     r(q.tariff),
			StateTax:             r(q.stateTax),
			TotalTariffsAndTaxes: r(q.tariffsTaxes),

			BaseCost:              r(q.baseCost),
			AdjustedBase:          r(q.adjustedCost),
			ServiceAdjustedCost:   r(q.serviceCost),
			RegionalCost:          r(q.regionalCost),
			SubtotalBeforeTariffs: r(q.subtotal),
			Subtotal:              r(q.subtotal.Add(q.tariffsTaxes)),

			MinimumCharge:        r(q.minimumCharge),
			AppliedMinimumCharge: q.appliedMinimum,
		},
		TotalShouldCost: r(q.total),
		Lineage:         q.lineage,
		RateTable:       q.table.Ref(),
	}
}
