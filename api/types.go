// Package api - HTTP surface for single quotes, bulk uploads and the rate table.
// Handlers resolve distance and decode uploads; all pricing is delegated.
package api

import (
	"time"

	"move-cost/adapters/bulk"
	"move-cost/core/ratetable"
	"move-cost/core/types"
)

// CalculateRequest is the input to POST /api/v1/calculate
type CalculateRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	// Weight is in pounds; weight_pounds is accepted as an alias
	Weight       float64 `json:"weight"`
	WeightPounds float64 `json:"weight_pounds,omitempty"`

	// DistanceMiles is optional; when absent or zero it is resolved
	DistanceMiles *float64 `json:"distance_miles,omitempty"`

	PackingService string `json:"packing_service,omitempty"`
	StorageOption  string `json:"storage_option,omitempty"`

	// IncludeInsurance defaults to true
	IncludeInsurance *bool `json:"include_insurance,omitempty"`

	// CustomRates are per-call overrides keyed like the rate table
	CustomRates map[string]float64 `json:"custom_rates,omitempty"`

	// IncludeLineage returns the per-stage formulas
	IncludeLineage bool `json:"include_lineage,omitempty"`
}

// MoveRequest converts the wire request into a pricing request
func (r CalculateRequest) MoveRequest() types.MoveRequest {
	weight := r.Weight
	if weight == 0 {
		weight = r.WeightPounds
	}
	req := types.NewMoveRequest(r.Origin, r.Destination, 0, weight)
	if r.DistanceMiles != nil {
		req.DistanceMiles = *r.DistanceMiles
	}
	if r.PackingService != "" {
		req.PackingService = types.PackingService(r.PackingService)
	}
	if r.StorageOption != "" {
		req.StorageOption = types.StorageOption(r.StorageOption)
	}
	if r.IncludeInsurance != nil {
		req.IncludeInsurance = *r.IncludeInsurance
	}
	req.CustomRates = types.ParseOverrides(r.CustomRates)
	return req
}

// Response is the envelope for every JSON endpoint
type Response struct {
	Success  bool              `json:"success"`
	Result   interface{}       `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
	Metadata *ResponseMetadata `json:"metadata,omitempty"`
}

// ResponseMetadata contains audit and reproducibility metadata
type ResponseMetadata struct {
	RequestID      string `json:"request_id"`
	EngineVersion  string `json:"engine_version"`
	RateTableHash  string `json:"rate_table_hash,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
	DistanceSource string `json:"distance_source,omitempty"`
	DistanceCached bool   `json:"distance_cached,omitempty"`
}

// ExportRequest is the input to POST /api/v1/bulk/export
type ExportRequest struct {
	Format  string            `json:"format"`
	Results []*bulk.RowResult `json:"results"`
}

// RateTableResponse describes the table in effect
type RateTableResponse struct {
	Hash     string              `json:"hash"`
	Source   string              `json:"source"`
	LoadedAt time.Time           `json:"loaded_at"`
	Table    *ratetable.Document `json:"table,omitempty"`
}

func rateTableResponse(t *ratetable.Table, withTable bool) RateTableResponse {
	resp := RateTableResponse{Hash: t.Hash().Hex(), Source: t.Source(), LoadedAt: t.LoadedAt()}
	if withTable {
		doc := t.Document()
		resp.Table = &doc
	}
	return resp
}
