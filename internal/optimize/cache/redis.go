package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/domain"
)

const (
	defaultPrefix = "route:opt:"
	defaultTTL    = 10 * time.Minute
)

// RedisPlanCache keeps optimized plans in Redis so identical requests skip ORS.
// A nil client turns every lookup into a miss.
type RedisPlanCache struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

func NewRedisPlanCache(client redis.Cmdable, prefix string, ttl time.Duration) *RedisPlanCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisPlanCache{client: client, keyPrefix: prefix, ttl: ttl}
}

// Key derives the cache key from the exact request points.
func (c *RedisPlanCache) Key(points [][2]float64) string {
	raw, _ := json.Marshal(points)
	sum := sha256.Sum256(raw)
	return c.keyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisPlanCache) Get(ctx context.Context, points [][2]float64) (domain.Plan, bool, error) {
	if c == nil || c.client == nil {
		return domain.Plan{}, false, nil
	}
	raw, err := c.client.Get(ctx, c.Key(points)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Plan{}, false, nil
	}
	if err != nil {
		return domain.Plan{}, false, fmt.Errorf("redis get: %w", err)
	}
	var plan domain.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return domain.Plan{}, false, fmt.Errorf("decode cached plan: %w", err)
	}
	return plan, true, nil
}

func (c *RedisPlanCache) Set(ctx context.Context, points [][2]float64, plan domain.Plan) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(points), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
