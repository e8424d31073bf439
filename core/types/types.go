// Package types defines the move request, rate overrides and cost breakdown
// exchanged between the pricing pipeline and its adapters.
package types

// PackingService selects the packing service multiplier
type PackingService string

const (
	PackingSelf    PackingService = "self_pack"
	PackingPartial PackingService = "partial_pack"
	PackingFull    PackingService = "full_pack"
)

// PackingServices lists the recognised packing services
var PackingServices = []PackingService{PackingSelf, PackingPartial, PackingFull}

// StorageOption selects the storage multiplier
type StorageOption string

const (
	StorageNone   StorageOption = "no_storage"
	Storage30Days StorageOption = "storage_30days"
	Storage60Days StorageOption = "storage_60days"
)

// StorageOptions lists the recognised storage options
var StorageOptions = []StorageOption{StorageNone, Storage30Days, Storage60Days}

// Region is a coarse geographic region used for regional blending
type Region string

const (
	RegionNortheast Region = "northeast"
	RegionSoutheast Region = "southeast"
	RegionMidwest   Region = "midwest"
	RegionSouthwest Region = "southwest"
	RegionWest      Region = "west"
	RegionDefault   Region = "default"
)

// MoveType classifies a move by resolved origin/destination states
type MoveType string

const (
	MoveInterstate MoveType = "interstate"
	MoveIntrastate MoveType = "intrastate"
	MoveUnknown    MoveType = "none"
)
