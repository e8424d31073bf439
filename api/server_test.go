package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"move-cost/adapters/distance"
	"move-cost/core/pricing"
	"move-cost/core/ratetable"
	"move-cost/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	miles float64
	calls int32
}

func (s *stubResolver) Name() string { return "stub" }

func (s *stubResolver) Resolve(context.Context, string, string) (distance.Result, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.miles <= 0 {
		return distance.Result{}, distance.ErrUnresolved
	}
	return distance.Result{Miles: s.miles, Source: distance.SourceGeodesic}, nil
}

type fixture struct {
	server   *Server
	resolver *stubResolver
	metrics  *metrics.Metrics
	store    *ratetable.Store
}

func newFixture(t *testing.T, store *ratetable.Store, miles float64, maxUpload int64) *fixture {
	t.Helper()
	if store == nil {
		store = ratetable.NewStaticStore(ratetable.MustDefault())
	}
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	resolver := &stubResolver{miles: miles}

	server := NewServer(Config{
		Version:        "test",
		Pipeline:       pricing.NewPipeline(store, pricing.WithObserver(m.ObserveQuote)),
		Store:          store,
		Resolver:       resolver,
		Metrics:        m,
		Gatherer:       registry,
		MaxUploadBytes: maxUpload,
	})
	return &fixture{server: server, resolver: resolver, metrics: m, store: store}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.server.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return f.do(req)
}

func (f *fixture) upload(t *testing.T, path, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return f.do(req)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func result(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	r, ok := body["result"].(map[string]interface{})
	require.True(t, ok, "missing result in %v", body)
	return r
}

func dallasHouston() map[string]interface{} {
	return map[string]interface{}{
		"origin":      "Dallas, TX",
		"destination": "Houston, TX",
		"weight":      5000,
	}
}

func TestCalculateWithManualDistance(t *testing.T) {
	f := newFixture(t, nil, 0, 0)
	body := dallasHouston()
	body["distance_miles"] = 240

	rr := f.postJSON(t, "/api/v1/calculate", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode(t, rr)
	assert.Equal(t, true, resp["success"])
	r := result(t, resp)
	assert.Equal(t, 2540.79, r["total_should_cost"])
	assert.NotContains(t, r, "lineage")

	meta := resp["metadata"].(map[string]interface{})
	assert.Equal(t, "manual", meta["distance_source"])
	assert.Equal(t, "test", meta["engine_version"])
	assert.Len(t, meta["rate_table_hash"], 64)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.resolver.calls))
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.QuotesTotal.WithLabelValues(metrics.ResultOK, "intrastate")))
}

func TestCalculateResolvesDistance(t *testing.T) {
	f := newFixture(t, nil, 240, 0)

	rr := f.postJSON(t, "/api/v1/calculate", dallasHouston())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode(t, rr)
	assert.Equal(t, 2540.79, result(t, resp)["total_should_cost"])
	assert.Equal(t, 240.0, result(t, resp)["distance_miles"])
	assert.Equal(t, "geodesic", resp["metadata"].(map[string]interface{})["distance_source"])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DistanceLookups.WithLabelValues("geodesic", metrics.ResultOK)))
}

func TestCalculateUnresolvedDistance(t *testing.T) {
	f := newFixture(t, nil, 0, 0)

	rr := f.postJSON(t, "/api/v1/calculate", dallasHouston())
	require.Equal(t, http.StatusBadRequest, rr.Code)

	resp := decode(t, rr)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, DistanceUnresolvedMessage, resp["error"])
}

func TestCalculateRejectsInvalidInputBeforeLookup(t *testing.T) {
	f := newFixture(t, nil, 240, 0)
	body := dallasHouston()
	body["weight"] = 0

	rr := f.postJSON(t, "/api/v1/calculate", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode(t, rr)["error"], "weight_pounds must be greater than 0")
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.resolver.calls))
}

func TestCalculateMalformedBody(t *testing.T) {
	f := newFixture(t, nil, 240, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")

	rr := f.do(req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.True(t, strings.HasPrefix(decode(t, rr)["error"].(string), "Invalid input"))
}

func TestCalculateCustomRatesAndLineage(t *testing.T) {
	f := newFixture(t, nil, 0, 0)
	body := dallasHouston()
	body["distance_miles"] = 240
	body["custom_rates"] = map[string]float64{"minimum_charge": 3000}
	body["include_lineage"] = true

	rr := f.postJSON(t, "/api/v1/calculate", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	r := result(t, decode(t, rr))
	assert.Equal(t, 3000.0, r["total_should_cost"])
	assert.NotEmpty(t, r["lineage"])
}

const batchCSV = "origin,destination,weight,distance_miles\n" +
	"\"Dallas, TX\",\"Houston, TX\",5000,240\n" +
	"\"Dallas, TX\",\"Houston, TX\",-5,240\n"

func TestBulkValidate(t *testing.T) {
	f := newFixture(t, nil, 0, 0)

	rr := f.upload(t, "/api/v1/bulk/validate", "moves.csv", batchCSV, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	r := result(t, decode(t, rr))
	assert.Equal(t, false, r["valid"])
	assert.Equal(t, 2.0, r["row_count"])

	rr = f.upload(t, "/api/v1/bulk/validate", "", "", map[string]string{"x": "y"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No file uploaded", decode(t, rr)["error"])
}

func TestBulkProcess(t *testing.T) {
	f := newFixture(t, nil, 0, 0)

	rr := f.upload(t, "/api/v1/bulk/process", "moves.csv", batchCSV, map[string]string{
		"custom_rates": `{"discount": 0}`,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode(t, rr)
	assert.Equal(t, true, resp["success"])
	summary := resp["summary"].(map[string]interface{})
	assert.Equal(t, 1.0, summary["successful"])
	assert.Equal(t, 1.0, summary["failed"])
	assert.Equal(t, "50.0%", summary["success_rate"])

	results := resp["results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	assert.Equal(t, 2540.79, first["total_should_cost"])
	assert.Equal(t, "success", first["status"])
	assert.Equal(t, "Dallas, TX", first["origin"])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BulkRowsTotal.WithLabelValues("failed")))
}

func TestBulkProcessUnreadableFile(t *testing.T) {
	f := newFixture(t, nil, 0, 0)

	rr := f.upload(t, "/api/v1/bulk/process", "moves.xlsx", "not a workbook", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, false, resp["success"])
	assert.True(t, strings.HasPrefix(resp["errors"].([]interface{})[0].(string), "Error processing file"))
}

func TestBulkProcessBadCustomRates(t *testing.T) {
	f := newFixture(t, nil, 0, 0)
	rr := f.upload(t, "/api/v1/bulk/process", "moves.csv", batchCSV, map[string]string{"custom_rates": "nope"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBulkExportRoundTrip(t *testing.T) {
	f := newFixture(t, nil, 0, 0)

	processed := f.upload(t, "/api/v1/bulk/process", "moves.csv", batchCSV, nil)
	require.Equal(t, http.StatusOK, processed.Code)
	var report struct {
		Results json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(processed.Body.Bytes(), &report))

	body := []byte(`{"format":"csv","results":` + string(report.Results) + `}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/export", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := f.do(req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "household_goods_calculations.csv")
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "SUCCESS")
	assert.Contains(t, lines[1], "2540.79")
	assert.Contains(t, lines[2], "FAILED")
}

func TestBulkExportValidation(t *testing.T) {
	f := newFixture(t, nil, 0, 0)

	rr := f.postJSON(t, "/api/v1/bulk/export", map[string]interface{}{"format": "pdf", "results": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.postJSON(t, "/api/v1/bulk/export", map[string]interface{}{"format": "xlsx"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No results to download", decode(t, rr)["error"])
}

func TestBulkTemplate(t *testing.T) {
	f := newFixture(t, nil, 0, 0)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/bulk/template", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, contentTypeXLSX, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "household_goods_template.xlsx")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))

	rr = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/bulk/template?format=csv", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "origin,destination,weight,distance_miles"))
}

func TestRateTable(t *testing.T) {
	f := newFixture(t, nil, 0, 0)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/rate-table", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	r := result(t, decode(t, rr))
	assert.Equal(t, ratetable.SourceBuiltin, r["source"])
	assert.Len(t, r["hash"], 64)
	assert.Equal(t, 0.15, r["table"].(map[string]interface{})["base_rate_per_pound"])
}

func TestRateTableReload(t *testing.T) {
	doc, err := json.Marshal(ratetable.MustDefault().Document())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "rates.json")
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	store, err := ratetable.NewStore(path, nil)
	require.NoError(t, err)
	f := newFixture(t, store, 0, 0)
	before := store.Current().Hash()

	rr := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/rate-table/reload", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	require.NoError(t, os.WriteFile(path, []byte(`{"base_rate_per_pound": 0.2}`), 0o644))
	rr = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/rate-table/reload", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "missing required key")
	assert.Equal(t, before.Hex(), result(t, resp)["hash"])
	assert.Equal(t, before, store.Current().Hash())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RateTableReload.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RateTableReload.WithLabelValues(metrics.ResultError)))
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, nil, 0, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := f.do(req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
	assert.Equal(t, "healthy", decode(t, rr)["status"])

	rr = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `movecost_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestUploadLimit(t *testing.T) {
	f := newFixture(t, nil, 0, 64)
	body := dallasHouston()
	body["origin"] = strings.Repeat("x", 200)

	rr := f.postJSON(t, "/api/v1/calculate", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
