package types

import "strings"

// MoveRequest is a single pricing request. It is owned by one call.
type MoveRequest struct {
	// Origin is free text (city, state or ZIP)
	Origin string `json:"origin" validate:"notblank"`

	// Destination is free text (city, state or ZIP)
	Destination string `json:"destination" validate:"notblank"`

	// DistanceMiles must be resolved before pricing
	DistanceMiles float64 `json:"distance_miles" validate:"finite,gt=0"`

	// WeightPounds is the shipment weight
	WeightPounds float64 `json:"weight_pounds" validate:"finite,gt=0"`

	// PackingService defaults to self_pack
	PackingService PackingService `json:"packing_service"`

	// StorageOption defaults to no_storage
	StorageOption StorageOption `json:"storage_option"`

	// IncludeInsurance adds valuation coverage
	IncludeInsurance bool `json:"include_insurance"`

	// CustomRates are per-call overrides of rate table values
	CustomRates Overrides `json:"-"`
}

// NewMoveRequest returns a request with the documented defaults:
// self_pack, no_storage, insurance included.
func NewMoveRequest(origin, destination string, distanceMiles, weightPounds float64) MoveRequest {
	return MoveRequest{
		Origin:           origin,
		Destination:      destination,
		DistanceMiles:    distanceMiles,
		WeightPounds:     weightPounds,
		PackingService:   PackingSelf,
		StorageOption:    StorageNone,
		IncludeInsurance: true,
	}
}

// WithDefaults fills empty service selections
func (r MoveRequest) WithDefaults() MoveRequest {
	if strings.TrimSpace(string(r.PackingService)) == "" {
		r.PackingService = PackingSelf
	}
	if strings.TrimSpace(string(r.StorageOption)) == "" {
		r.StorageOption = StorageNone
	}
	return r
}
