package distance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"move-cost/core/determinism"
)

// CacheKeyPrefix namespaces cached distances in Redis
const CacheKeyPrefix = "movecost:distance:"

// CachedResolver memoizes another resolver in Redis.
// Cache failures are logged and bypassed; they never fail a lookup.
type CachedResolver struct {
	next   Resolver
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedResolver wraps next with a Redis cache
func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{next: next, client: client, ttl: ttl, logger: logger}
}

// Name implements Resolver
func (c *CachedResolver) Name() string { return "cached(" + c.next.Name() + ")" }

// Key returns the cache key for an origin/destination pair
func Key(origin, destination string) string {
	return CacheKeyPrefix + determinism.StableKey(origin, destination)
}

// Resolve implements Resolver
func (c *CachedResolver) Resolve(ctx context.Context, origin, destination string) (Result, error) {
	key := Key(origin, destination)

	if res, ok := c.get(ctx, key); ok {
		res.Cached = true
		return res, nil
	}

	res, err := c.next.Resolve(ctx, origin, destination)
	if err != nil {
		return Result{}, err
	}
	c.set(ctx, key, res)
	return res, nil
}

func (c *CachedResolver) get(ctx context.Context, key string) (Result, bool) {
	if c.client == nil {
		return Result{}, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("distance cache read failed", zap.String("key", key), zap.Error(err))
		}
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("distance cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return Result{}, false
	}
	return res, true
}

func (c *CachedResolver) set(ctx context.Context, key string, res Result) {
	if c.client == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("distance cache write failed", zap.String("key", key), zap.Error(err))
	}
}
