package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"construction_forecast/pkg/core/forecast"
)

// ResultCache keeps serialized forecast responses in Redis, keyed by a
// hash of the assumptions. A forecast is a pure function of its
// assumptions, so a hit can be served without recomputation.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache connects to the Redis instance at addr.
func NewResultCache(addr string, ttl time.Duration) *ResultCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &ResultCache{client: rdb, ttl: ttl}
}

// Key derives a deterministic cache key from the assumptions.
func (c *ResultCache) Key(asm forecast.Assumptions) string {
	data, _ := json.Marshal(asm)
	sum := sha256.Sum256(data)
	return "forecast:" + hex.EncodeToString(sum[:])
}

// Get returns the cached payload and whether it was present.
func (c *ResultCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a payload under key for the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, value string) error {
	return c.client.Set(ctx, key, value, c.ttl).Err()
}
