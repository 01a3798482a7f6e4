package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farstore/checkout-core/internal/domain"
)

const patternCacheKey = "checkout:store_patterns"

// RedisPatternCache shares the categorizer's pattern table across instances.
// The TTL bounds staleness between explicit refreshes; a cache miss after
// expiry is surfaced as ErrNotFound so the caller can re-initialize.
type RedisPatternCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPatternCache(client *redis.Client, ttl time.Duration) *RedisPatternCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisPatternCache{client: client, ttl: ttl}
}

func (c *RedisPatternCache) Initialize(ctx context.Context, patterns []domain.StorePattern) error {
	raw, err := json.Marshal(patterns)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, patternCacheKey, raw, c.ttl).Err()
}

func (c *RedisPatternCache) Get(ctx context.Context) ([]domain.StorePattern, error) {
	raw, err := c.client.Get(ctx, patternCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var patterns []domain.StorePattern
	if err := json.Unmarshal(raw, &patterns); err != nil {
		return nil, err
	}
	return patterns, nil
}

func (c *RedisPatternCache) Refresh(ctx context.Context, patterns []domain.StorePattern) error {
	return c.Initialize(ctx, patterns)
}
