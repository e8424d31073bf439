package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"move-cost/core/pricing"
	"move-cost/core/ratetable"
	"move-cost/core/types"
	cerrors "move-cost/internal/errors"
)

func sampleResult(t *testing.T) *types.CostBreakdown {
	t.Helper()
	result, err := pricing.Price(ratetable.MustDefault(), types.NewMoveRequest("Dallas, TX", "Houston, TX", 240, 5000))
	require.NoError(t, err)
	return result
}

func render(t *testing.T, format Format, opts Options) string {
	t.Helper()
	f, err := New(format, opts)
	require.NoError(t, err)
	assert.Equal(t, format, f.Format())

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, sampleResult(t)))
	return buf.String()
}

func TestMoneyGroupsThousands(t *testing.T) {
	p := printer()
	result := sampleResult(t)
	assert.Equal(t, "$2,540.79", Money(p, result.TotalShouldCost.Decimal))
	assert.Equal(t, "-$108.50", Money(p, result.Breakdown.RegionalCostAdjustment.Decimal))
}

func TestJSONFormatter(t *testing.T) {
	out := render(t, FormatJSON, Options{})

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 2540.79, decoded["total_should_cost"])
	assert.NotContains(t, decoded, "lineage")

	breakdown := decoded["breakdown"].(map[string]interface{})
	assert.Equal(t, 147.11, breakdown["state_tax"])
	assert.Equal(t, "intrastate", breakdown["tariff_type"])

	withLineage := render(t, FormatJSON, Options{Lineage: true})
	assert.Contains(t, withLineage, `"lineage"`)
}

func TestCLIFormatter(t *testing.T) {
	out := render(t, FormatCLI, Options{Details: true})

	assert.Contains(t, out, "SHOULD COST ESTIMATE")
	assert.Contains(t, out, "Dallas, TX → Houston, TX")
	assert.Contains(t, out, "$2,540.79")
	assert.Contains(t, out, "Intrastate (TX)")
	assert.Contains(t, out, "Fuel surcharge (12%)")
	assert.NotContains(t, out, "Minimum charge applied")

	summary := render(t, FormatCLI, Options{})
	assert.NotContains(t, summary, "Fuel surcharge")
}

func TestMarkdownFormatter(t *testing.T) {
	out := render(t, FormatMarkdown, Options{Details: true, Lineage: true})

	assert.Contains(t, out, "## Should cost: Dallas, TX → Houston, TX")
	assert.Contains(t, out, "| Item | Amount |")
	assert.Contains(t, out, "**Total should cost: $2,540.79**")
	assert.Contains(t, out, "| transportation |")
}

func TestUnknownFormat(t *testing.T) {
	_, err := New("html", Options{})
	assert.True(t, cerrors.IsType(err, cerrors.TypeInput))
}
