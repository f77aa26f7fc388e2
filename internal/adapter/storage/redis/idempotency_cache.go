package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const purchaseCachePrefix = "purchase:ref:"

// IdempotencyCache implements ports.IdempotencyCache. It fronts the postgres
// idempotency log so a retried purchase confirmation is answered from Redis
// without touching the ledger.
type IdempotencyCache struct {
	client *goredis.Client
}

func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{client: client}
}

// Get returns the cached result for a payment reference, or nil, nil on a
// miss.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, purchaseCachePrefix+key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis purchase cache get: %w", err)
	}
	return val, nil
}

// Set caches a credited purchase for the TTL window.
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, purchaseCachePrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis purchase cache set: %w", err)
	}
	return nil
}
