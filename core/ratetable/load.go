package ratetable

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"move-cost/core/determinism"
	"move-cost/core/pricing/primitives"
	cerrors "move-cost/internal/errors"
)

//go:embed defaults/household_goods_matrix.json
var builtinTable []byte

// Format is a rate table source format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatFromPath selects a format by file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", cerrors.Newf(cerrors.TypeConfig, "unsupported rate table extension %q (want .json, .yaml, .yml or .hcl)", filepath.Ext(path))
}

// Load reads and validates the rate table at path
func Load(path string) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Config(fmt.Sprintf("failed to read rate table %s", path), err)
	}
	return Parse(data, format, path)
}

// Default returns the embedded household goods table
func Default() (*Table, error) {
	return Parse(builtinTable, FormatJSON, SourceBuiltin)
}

// MustDefault is Default for callers that cannot proceed without a table
func MustDefault() *Table {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// LoadOrDefault loads path, or the embedded table when path is empty
func LoadOrDefault(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return Load(path)
}

// Parse decodes and validates a rate table. On failure no Table is returned.
func Parse(data []byte, format Format, source string) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, cerrors.New(cerrors.TypeConfig, "rate table is empty").WithContext("source", source)
	}

	doc, err := decode(data, format)
	if err != nil {
		return nil, err.WithContext("source", source)
	}

	t, err := build(doc)
	if err != nil {
		return nil, err.WithContext("source", source)
	}

	t.hash = determinism.ComputeHash(data)
	t.source = source
	t.loadedAt = time.Now().UTC()
	return t, nil
}

func decode(data []byte, format Format) (*Document, *cerrors.Error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, cerrors.Config("invalid JSON rate table", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, cerrors.Config("invalid YAML rate table", err)
		}
	case FormatHCL:
		var h hclDocument
		if err := hclsimple.Decode("rate_table.hcl", data, nil, &h); err != nil {
			return nil, cerrors.Config("invalid HCL rate table", err)
		}
		return h.document(), nil
	default:
		return nil, cerrors.Newf(cerrors.TypeConfig, "unknown rate table format %q", format)
	}
	return &doc, nil
}

func missing(key string) *cerrors.Error {
	return cerrors.Newf(cerrors.TypeConfig, "rate table is missing required key %q", key).WithContext("key", key)
}

func invalid(key, format string, args ...interface{}) *cerrors.Error {
	return cerrors.Newf(cerrors.TypeConfig, "rate table key %q: "+format, append([]interface{}{key}, args...)...).WithContext("key", key)
}

// build validates doc and converts it into a Table
func build(doc *Document) (*Table, *cerrors.Error) {
	switch {
	case doc.BaseRatePerPound == nil:
		return nil, missing("base_rate_per_pound")
	case doc.TransportationMatrix == nil:
		return nil, missing("transportation_matrix")
	case doc.WeightTiers == nil:
		return nil, missing("weight_tiers")
	case doc.ServiceMultipliers == nil:
		return nil, missing("service_multipliers")
	case doc.RegionalAdjustments == nil:
		return nil, missing("regional_adjustments")
	case doc.InsuranceRatePer1000 == nil:
		return nil, missing("insurance_rate_per_1000")
	case doc.FuelSurcharge == nil:
		return nil, missing("fuel_surcharge")
	case doc.MinimumCharge == nil:
		return nil, missing("minimum_charge")
	}
	if err := checkFinite(doc); err != nil {
		return nil, err
	}

	t := &Table{
		baseRatePerPound:     decimal.NewFromFloat(*doc.BaseRatePerPound),
		insuranceRatePer1000: decimal.NewFromFloat(*doc.InsuranceRatePer1000),
		fuelSurcharge:        decimal.NewFromFloat(*doc.FuelSurcharge),
		minimumCharge:        decimal.NewFromFloat(*doc.MinimumCharge),
		serviceMultipliers:   toDecimals(doc.ServiceMultipliers, false),
		regionalAdjustments:  toDecimals(doc.RegionalAdjustments, false),
		interstateTariffRate: DefaultInterstateTariffRate,
		intrastateTariffRate: DefaultIntrastateTariffRate,
		stateTaxes:           map[string]decimal.Decimal{},
		doc:                  *doc,
	}

	tiers, err := buildTiers(doc.WeightTiers)
	if err != nil {
		return nil, err
	}
	t.weightTiers = tiers

	matrix, err := buildMatrix(doc.TransportationMatrix)
	if err != nil {
		return nil, err
	}
	t.matrix = matrix

	if tariffs := doc.Tariffs; tariffs != nil {
		t.tariffsEnabled = tariffs.EnableInterstateTariffs
		if tariffs.InterstateTariffRate != nil {
			t.interstateTariffRate = decimal.NewFromFloat(*tariffs.InterstateTariffRate)
		}
		if tariffs.IntrastateTariffRate != nil {
			t.intrastateTariffRate = decimal.NewFromFloat(*tariffs.IntrastateTariffRate)
		}
		for code := range tariffs.StateSpecificTaxes {
			if len(strings.TrimSpace(code)) != 2 {
				return nil, invalid("tariffs.state_specific_taxes", "state code %q is not two letters", code)
			}
		}
		t.stateTaxes = toDecimals(tariffs.StateSpecificTaxes, true)
	}

	return t, nil
}

func finite(key string, v float64) *cerrors.Error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(key, "must be finite, got %v", v)
	}
	return nil
}

func finiteMap(key string, m map[string]float64) *cerrors.Error {
	for _, k := range determinism.SortedKeys(m) {
		if err := finite(key+"."+k, m[k]); err != nil {
			return err
		}
	}
	return nil
}

type namedValue struct {
	key string
	v   *float64
}

// checkFinite rejects NaN and infinities anywhere in doc. YAML decodes
// .inf and .nan as ordinary floats and decimal cannot represent them.
func checkFinite(doc *Document) *cerrors.Error {
	scalars := []namedValue{
		{"base_rate_per_pound", doc.BaseRatePerPound},
		{"insurance_rate_per_1000", doc.InsuranceRatePer1000},
		{"fuel_surcharge", doc.FuelSurcharge},
		{"minimum_charge", doc.MinimumCharge},
	}
	if tariffs := doc.Tariffs; tariffs != nil {
		scalars = append(scalars,
			namedValue{"tariffs.interstate_tariff_rate", tariffs.InterstateTariffRate},
			namedValue{"tariffs.intrastate_tariff_rate", tariffs.IntrastateTariffRate})
		if err := finiteMap("tariffs.state_specific_taxes", tariffs.StateSpecificTaxes); err != nil {
			return err
		}
	}
	for _, s := range scalars {
		if s.v == nil {
			continue
		}
		if err := finite(s.key, *s.v); err != nil {
			return err
		}
	}

	for i, tier := range doc.WeightTiers {
		for _, v := range []*float64{tier.MaxPounds, tier.MaxMiles, tier.RateAdjustment} {
			if v == nil {
				continue
			}
			if err := finite(fmt.Sprintf("weight_tiers[%d]", i), *v); err != nil {
				return err
			}
		}
	}

	if err := finiteMap("service_multipliers", doc.ServiceMultipliers); err != nil {
		return err
	}
	if err := finiteMap("regional_adjustments", doc.RegionalAdjustments); err != nil {
		return err
	}

	m := doc.TransportationMatrix
	for _, set := range []struct {
		name     string
		brackets []BracketDoc
	}{
		{"transportation_matrix.weight_brackets", m.WeightBrackets},
		{"transportation_matrix.distance_brackets", m.DistanceBrackets},
	} {
		for i, b := range set.brackets {
			key := fmt.Sprintf("%s[%d]", set.name, i)
			if err := finite(key, b.Min); err != nil {
				return err
			}
			if err := finite(key, b.Max); err != nil {
				return err
			}
		}
	}
	for i, row := range m.Rates {
		for j, v := range row {
			if err := finite(fmt.Sprintf("transportation_matrix.rates[%d][%d]", i, j), v); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildTiers(docs []TierDoc) ([]primitives.Tier, *cerrors.Error) {
	if len(docs) == 0 {
		return nil, invalid("weight_tiers", "at least one tier is required")
	}
	tiers := make([]primitives.Tier, 0, len(docs))
	for i, d := range docs {
		var tier primitives.Tier
		switch {
		case d.MaxPounds != nil:
			tier.Threshold, tier.Unit = decimal.NewFromFloat(*d.MaxPounds), "max_pounds"
		case d.MaxMiles != nil:
			tier.Threshold, tier.Unit = decimal.NewFromFloat(*d.MaxMiles), "max_miles"
		default:
			return nil, invalid("weight_tiers", "tier %d has neither max_pounds nor max_miles", i)
		}
		if d.RateAdjustment == nil {
			return nil, invalid("weight_tiers", "tier %d is missing rate_adjustment", i)
		}
		tier.RateAdjustment = decimal.NewFromFloat(*d.RateAdjustment)
		if i > 0 && !tier.Threshold.GreaterThan(tiers[i-1].Threshold) {
			return nil, invalid("weight_tiers", "tier %d threshold %s is not above %s", i, tier.Threshold, tiers[i-1].Threshold)
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func buildBrackets(key string, docs []BracketDoc) ([]primitives.Bracket, *cerrors.Error) {
	if len(docs) == 0 {
		return nil, invalid(key, "at least one bracket is required")
	}
	brackets := make([]primitives.Bracket, 0, len(docs))
	for i, d := range docs {
		b := primitives.Bracket{
			Min:   decimal.NewFromFloat(d.Min),
			Max:   decimal.NewFromFloat(d.Max),
			Label: d.Label,
		}
		if b.Min.GreaterThan(b.Max) {
			return nil, invalid(key, "bracket %d has min %s above max %s", i, b.Min, b.Max)
		}
		if i > 0 && !b.Min.GreaterThan(brackets[i-1].Max) {
			return nil, invalid(key, "bracket %d overlaps or precedes bracket %d", i, i-1)
		}
		brackets = append(brackets, b)
	}
	return brackets, nil
}

func buildMatrix(doc *MatrixDoc) (primitives.Matrix, *cerrors.Error) {
	var m primitives.Matrix

	weights, err := buildBrackets("transportation_matrix.weight_brackets", doc.WeightBrackets)
	if err != nil {
		return m, err
	}
	distances, err := buildBrackets("transportation_matrix.distance_brackets", doc.DistanceBrackets)
	if err != nil {
		return m, err
	}

	if len(doc.Rates) != len(weights) {
		return m, invalid("transportation_matrix.rates", "has %d rows, want one per weight bracket (%d)", len(doc.Rates), len(weights))
	}
	rates := make([][]decimal.Decimal, len(doc.Rates))
	for i, row := range doc.Rates {
		if len(row) != len(distances) {
			return m, invalid("transportation_matrix.rates", "row %d has %d columns, want one per distance bracket (%d)", i, len(row), len(distances))
		}
		rates[i] = make([]decimal.Decimal, len(row))
		for j, v := range row {
			rates[i][j] = decimal.NewFromFloat(v)
		}
	}

	m.WeightBrackets = weights
	m.DistanceBrackets = distances
	m.Rates = rates
	return m, nil
}

func toDecimals(in map[string]float64, upperKeys bool) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		if upperKeys {
			k = strings.ToUpper(strings.TrimSpace(k))
		}
		out[k] = decimal.NewFromFloat(v)
	}
	return out
}
