// Package app wires the configured collaborators shared by the server and CLI.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"move-cost/adapters/bulk"
	"move-cost/adapters/distance"
	"move-cost/core/pricing"
	"move-cost/core/ratetable"
	"move-cost/internal/config"
	"move-cost/internal/metrics"
)

// Dependencies enumerates the wired services
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    *ratetable.Store
	Pipeline *pricing.Pipeline
	Resolver distance.Resolver
	Bulk     *bulk.Processor
	Redis    *redis.Client

	Metrics         *metrics.Metrics
	MetricsRegistry *prometheus.Registry
}

// Build loads the rate table and wires every collaborator from cfg.
// A rate table that fails to load is a CONFIG_ERROR.
func Build(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := ratetable.NewStore(cfg.RateTablePath, logger.Named("ratetable"))
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	deps := &Dependencies{
		Config:          cfg,
		Logger:          logger,
		Store:           store,
		Metrics:         m,
		MetricsRegistry: registry,
	}

	deps.Pipeline = pricing.NewPipeline(store,
		pricing.WithLogger(logger.Named("pricing")),
		pricing.WithObserver(m.ObserveQuote))

	deps.Resolver, deps.Redis = NewResolver(cfg.Distance, logger.Named("distance"))

	deps.Bulk = bulk.NewProcessor(deps.Pipeline,
		bulk.WithResolver(deps.Resolver),
		bulk.WithWorkers(cfg.Bulk.Workers),
		bulk.WithLogger(logger.Named("bulk")),
		bulk.WithRowObserver(func(s bulk.Status) { m.ObserveBulkRow(string(s)) }))

	return deps, nil
}

// NewResolver builds the distance chain: the mapping service when an API key
// is configured, then great-circle distance, cached in Redis when an address
// is configured. The returned client is nil without a cache.
func NewResolver(cfg config.DistanceConfig, logger *zap.Logger) (distance.Resolver, *redis.Client) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{}

	var resolvers []distance.Resolver
	if cfg.GoogleAPIKey != "" {
		resolvers = append(resolvers, distance.NewGoogleResolver(distance.GoogleConfig{
			APIKey:  cfg.GoogleAPIKey,
			BaseURL: cfg.GoogleBaseURL,
			Timeout: cfg.Timeout(),
		}, client, logger))
	} else {
		logger.Info("no mapping service API key configured, using great-circle distance only")
	}
	resolvers = append(resolvers, distance.NewGeodesicResolver(distance.GeodesicConfig{
		NominatimURL: cfg.NominatimURL,
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout(),
	}, client, logger))

	var resolver distance.Resolver = distance.NewChain(logger, resolvers...)
	if cfg.RedisAddr == "" {
		return resolver, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("distance cache unreachable, lookups will bypass it",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return distance.NewCachedResolver(resolver, rdb, cfg.CacheTTL(), logger), rdb
}

// Close releases external connections
func (d *Dependencies) Close() error {
	if d.Redis != nil {
		return d.Redis.Close()
	}
	return nil
}
