package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"move-cost/internal/config"
	cerrors "move-cost/internal/errors"
)

func quote(miles float64) quoteOptions {
	return quoteOptions{
		origin:      "Dallas, TX",
		destination: "Houston, TX",
		weight:      5000,
		miles:       miles,
		packing:     "self_pack",
		storage:     "no_storage",
		format:      "json",
		details:     true,
	}
}

func TestRunQuoteJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runQuote(context.Background(), config.Default(), quote(240), &out))

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 2540.79, result["total_should_cost"])
	assert.NotContains(t, result, "lineage")
}

func TestRunQuoteCLIWithRates(t *testing.T) {
	opts := quote(240)
	opts.format = "cli"
	opts.rates = []string{"minimum_charge=3000"}

	var out bytes.Buffer
	require.NoError(t, runQuote(context.Background(), config.Default(), opts, &out))
	assert.Contains(t, out.String(), "SHOULD COST ESTIMATE")
	assert.Contains(t, out.String(), "$3,000.00")
}

func TestRunQuoteErrors(t *testing.T) {
	opts := quote(240)
	opts.format = "html"
	err := runQuote(context.Background(), config.Default(), opts, &bytes.Buffer{})
	assert.True(t, cerrors.IsType(err, cerrors.TypeInput))

	opts = quote(240)
	opts.weight = -1
	err = runQuote(context.Background(), config.Default(), opts, &bytes.Buffer{})
	assert.True(t, cerrors.IsType(err, cerrors.TypeInput))

	for name, edit := range map[string]func(*quoteOptions){
		"infinite weight": func(o *quoteOptions) { o.weight = math.Inf(1) },
		"infinite miles":  func(o *quoteOptions) { o.miles = math.Inf(1) },
		"nan rate":        func(o *quoteOptions) { o.rates = []string{"discount=nan"} },
	} {
		opts = quote(240)
		edit(&opts)
		require.NotPanics(t, func() {
			err = runQuote(context.Background(), config.Default(), opts, &bytes.Buffer{})
		}, name)
		assert.True(t, cerrors.IsType(err, cerrors.TypeInput), name)
	}

	cfg := config.Default()
	cfg.RateTablePath = filepath.Join(t.TempDir(), "missing.yaml")
	err = runQuote(context.Background(), cfg, quote(240), &bytes.Buffer{})
	assert.True(t, cerrors.IsType(err, cerrors.TypeConfig))
}

func TestParseRates(t *testing.T) {
	rates, err := parseRates([]string{"discount=0.1", " fuel_surcharge = 0.2 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"discount": 0.1, "fuel_surcharge": 0.2}, rates)

	_, err = parseRates([]string{"discount"})
	assert.Error(t, err)
	_, err = parseRates([]string{"discount=lots"})
	assert.Error(t, err)

	for _, pair := range []string{"discount=nan", "fuel_surcharge=inf", "minimum_charge=-Infinity"} {
		_, err = parseRates([]string{pair})
		require.Error(t, err, pair)
		assert.True(t, cerrors.IsType(err, cerrors.TypeInput), pair)
		assert.Contains(t, err.Error(), "is not a number")
	}
}

func TestRunBulkWritesResults(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "moves.csv")
	require.NoError(t, os.WriteFile(in, []byte("origin,destination,weight,distance_miles\n"+
		"\"Dallas, TX\",\"Houston, TX\",5000,240\n"+
		"\"Dallas, TX\",\"Houston, TX\",5000,-5\n"), 0o644))
	out := filepath.Join(dir, "results.csv")

	var buf bytes.Buffer
	require.NoError(t, runBulk(context.Background(), config.Default(), in, bulkOptions{out: out, workers: 2}, &buf))

	assert.Contains(t, buf.String(), "$2540.79")
	assert.Contains(t, buf.String(), "Row 3: distance_miles must be greater than 0")
	assert.Contains(t, buf.String(), "2 rows: 1 successful, 1 failed (50.0%)")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(strings.TrimSpace(string(data)), "\n")+1)
}

func TestRunBulkRejectsInvalidUpload(t *testing.T) {
	in := filepath.Join(t.TempDir(), "moves.csv")
	require.NoError(t, os.WriteFile(in, []byte("origin,weight\nDallas,5000\n"), 0o644))

	var buf bytes.Buffer
	err := runBulk(context.Background(), config.Default(), in, bulkOptions{}, &buf)
	assert.True(t, cerrors.IsType(err, cerrors.TypeInput))
	assert.Contains(t, buf.String(), "Error: Missing required columns: destination")
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.csv")
	require.NoError(t, writeTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "origin,destination,weight"))
	assert.Contains(t, string(data), "INSTRUCTIONS:")

	assert.Error(t, writeTemplate(filepath.Join(t.TempDir(), "template.pdf")))
}

func TestRateTableCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runRateTableValidate("", &buf))
	assert.Contains(t, buf.String(), "builtin is valid")
	assert.Contains(t, buf.String(), "0.15/lb")
	assert.Contains(t, buf.String(), "7 weight x 8 distance brackets")

	buf.Reset()
	require.NoError(t, runRateTableShow("", "json", &buf))
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 500.0, doc["minimum_charge"])

	buf.Reset()
	require.NoError(t, runRateTableShow("", "yaml", &buf))
	assert.Contains(t, buf.String(), "base_rate_per_pound: 0.15")

	assert.Error(t, runRateTableShow("", "toml", &bytes.Buffer{}))

	path := filepath.Join(t.TempDir(), "rates.yaml")
	body := strings.Replace(buf.String(), "base_rate_per_pound: 0.15", "base_rate_per_pound: .inf", 1)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	var err error
	require.NotPanics(t, func() { err = runRateTableValidate(path, &bytes.Buffer{}) })
	assert.True(t, cerrors.IsType(err, cerrors.TypeConfig))
}
