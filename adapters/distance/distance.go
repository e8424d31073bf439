// Package distance resolves driving or great-circle mileage between two
// free-text locations. Resolution happens before pricing; the pricing
// pipeline itself never performs I/O.
package distance

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	cerrors "move-cost/internal/errors"
)

// ErrUnresolved means a resolver could not produce a distance
var ErrUnresolved = errors.New("distance could not be resolved")

// Source names how a distance was obtained
type Source string

const (
	SourceGoogleMaps Source = "google_maps"
	SourceGeodesic   Source = "geodesic"
	SourceManual     Source = "manual"
)

// MilesPerMeter converts Distance Matrix meters to statute miles
const MilesPerMeter = 0.000621371

// MilesPerKilometer converts great-circle kilometers to statute miles
const MilesPerKilometer = 0.621371

// Result is a resolved distance
type Result struct {
	Miles  float64 `json:"miles"`
	Source Source  `json:"source"`
	Cached bool    `json:"cached,omitempty"`
}

// Resolver resolves the distance between two locations
type Resolver interface {
	// Name identifies the resolver in logs and metrics
	Name() string

	// Resolve returns the distance or an error wrapping ErrUnresolved
	Resolve(ctx context.Context, origin, destination string) (Result, error)
}

// Chain tries resolvers in order; the first success wins
type Chain struct {
	resolvers []Resolver
	logger    *zap.Logger
}

// NewChain builds a chain of resolvers, skipping nil entries
func NewChain(logger *zap.Logger, resolvers ...Resolver) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Chain{logger: logger}
	for _, r := range resolvers {
		if r != nil {
			c.resolvers = append(c.resolvers, r)
		}
	}
	return c
}

// Name implements Resolver
func (c *Chain) Name() string {
	names := make([]string, len(c.resolvers))
	for i, r := range c.resolvers {
		names[i] = r.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Resolve implements Resolver
func (c *Chain) Resolve(ctx context.Context, origin, destination string) (Result, error) {
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return Result{}, cerrors.Input("origin and destination are required to calculate distance")
	}

	var errs []error
	for i, r := range c.resolvers {
		if err := ctx.Err(); err != nil {
			return Result{}, cerrors.Distance("distance lookup cancelled", err)
		}
		res, err := r.Resolve(ctx, origin, destination)
		if err == nil {
			c.logger.Debug("distance resolved",
				zap.String("resolver", r.Name()),
				zap.String("origin", origin),
				zap.String("destination", destination),
				zap.Float64("miles", res.Miles))
			return res, nil
		}
		errs = append(errs, err)
		if i < len(c.resolvers)-1 {
			c.logger.Info("distance resolver failed, falling back",
				zap.String("resolver", r.Name()),
				zap.String("next", c.resolvers[i+1].Name()),
				zap.Error(err))
		}
	}

	errs = append(errs, ErrUnresolved)
	return Result{}, cerrors.Distance("unable to calculate distance, provide distance manually", errors.Join(errs...)).
		WithContext("origin", origin).
		WithContext("destination", destination)
}

// Static always returns the same distance
type Static struct {
	Miles float64
}

// Name implements Resolver
func (s Static) Name() string { return "static" }

// Resolve implements Resolver
func (s Static) Resolve(context.Context, string, string) (Result, error) {
	if s.Miles <= 0 {
		return Result{}, ErrUnresolved
	}
	return Result{Miles: s.Miles, Source: SourceManual}, nil
}

// round2 rounds miles to two decimals
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
