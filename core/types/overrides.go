package types

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"move-cost/core/determinism"
)

// Override keys accepted on the wire in custom_rates
const (
	KeyInsurancePer1000     = "insurance_per_1000"
	KeyFuelSurcharge        = "fuel_surcharge"
	KeyDiscount             = "discount"
	KeyInterstateTariffRate = "interstate_tariff_rate"
	KeyIntrastateTariffRate = "intrastate_tariff_rate"
	KeyMinimumCharge        = "minimum_charge"
	KeyStateTaxPrefix       = "state_tax_"
)

// Overrides are per-call replacements for rate table values.
// An invalid NullDecimal means "use the table".
type Overrides struct {
	SelfPack      decimal.NullDecimal
	PartialPack   decimal.NullDecimal
	FullPack      decimal.NullDecimal
	NoStorage     decimal.NullDecimal
	Storage30Days decimal.NullDecimal
	Storage60Days decimal.NullDecimal

	InsurancePer1000     decimal.NullDecimal
	FuelSurcharge        decimal.NullDecimal
	Discount             decimal.NullDecimal
	InterstateTariffRate decimal.NullDecimal
	IntrastateTariffRate decimal.NullDecimal
	MinimumCharge        decimal.NullDecimal

	// StateTax is keyed by upper-case two-letter state code
	StateTax map[string]decimal.Decimal
}

// Set returns a valid NullDecimal holding v
func Set(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// ParseOverrides maps the wire form of custom_rates onto Overrides.
// Unrecognised keys and non-finite values are ignored.
func ParseOverrides(raw map[string]float64) Overrides {
	var o Overrides
	for key, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		value := Set(v)
		switch key {
		case string(PackingSelf):
			o.SelfPack = value
		case string(PackingPartial):
			o.PartialPack = value
		case string(PackingFull):
			o.FullPack = value
		case string(StorageNone):
			o.NoStorage = value
		case string(Storage30Days):
			o.Storage30Days = value
		case string(Storage60Days):
			o.Storage60Days = value
		case KeyInsurancePer1000:
			o.InsurancePer1000 = value
		case KeyFuelSurcharge:
			o.FuelSurcharge = value
		case KeyDiscount:
			o.Discount = value
		case KeyInterstateTariffRate:
			o.InterstateTariffRate = value
		case KeyIntrastateTariffRate:
			o.IntrastateTariffRate = value
		case KeyMinimumCharge:
			o.MinimumCharge = value
		default:
			code, ok := strings.CutPrefix(key, KeyStateTaxPrefix)
			if !ok || len(code) != 2 {
				continue
			}
			if o.StateTax == nil {
				o.StateTax = make(map[string]decimal.Decimal)
			}
			o.StateTax[strings.ToUpper(code)] = value.Decimal
		}
	}
	return o
}

// Service returns the override for a packing or storage key
func (o Overrides) Service(key string) decimal.NullDecimal {
	switch key {
	case string(PackingSelf):
		return o.SelfPack
	case string(PackingPartial):
		return o.PartialPack
	case string(PackingFull):
		return o.FullPack
	case string(StorageNone):
		return o.NoStorage
	case string(Storage30Days):
		return o.Storage30Days
	case string(Storage60Days):
		return o.Storage60Days
	}
	return decimal.NullDecimal{}
}

// StateTaxRate returns the override for a destination state
func (o Overrides) StateTaxRate(code string) decimal.NullDecimal {
	if rate, ok := o.StateTax[code]; ok {
		return decimal.NewNullDecimal(rate)
	}
	return decimal.NullDecimal{}
}

// Map returns the wire form of every set override
func (o Overrides) Map() map[string]float64 {
	out := make(map[string]float64)
	put := func(key string, v decimal.NullDecimal) {
		if v.Valid {
			out[key] = v.Decimal.InexactFloat64()
		}
	}
	put(string(PackingSelf), o.SelfPack)
	put(string(PackingPartial), o.PartialPack)
	put(string(PackingFull), o.FullPack)
	put(string(StorageNone), o.NoStorage)
	put(string(Storage30Days), o.Storage30Days)
	put(string(Storage60Days), o.Storage60Days)
	put(KeyInsurancePer1000, o.InsurancePer1000)
	put(KeyFuelSurcharge, o.FuelSurcharge)
	put(KeyDiscount, o.Discount)
	put(KeyInterstateTariffRate, o.InterstateTariffRate)
	put(KeyIntrastateTariffRate, o.IntrastateTariffRate)
	put(KeyMinimumCharge, o.MinimumCharge)
	for code, rate := range o.StateTax {
		out[KeyStateTaxPrefix+code] = rate.InexactFloat64()
	}
	return out
}

// Keys returns the set override keys in sorted order
func (o Overrides) Keys() []string {
	return determinism.SortedKeys(o.Map())
}

// IsEmpty reports whether no override is set
func (o Overrides) IsEmpty() bool {
	return len(o.Map()) == 0
}
