package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NonceStore implements ports.NonceStore. Every signed wager request carries
// a client nonce; burning it with SET NX makes a replayed request fail even
// when its signature is valid.
type NonceStore struct {
	client *goredis.Client
	prefix string
}

func NewNonceStore(client *goredis.Client) *NonceStore {
	return &NonceStore{
		client: client,
		prefix: "nonce:",
	}
}

// CheckAndSet burns the nonce atomically. True means the nonce was fresh;
// false means it was already spent. The TTL only needs to outlive the
// timestamp freshness window.
func (s *NonceStore) CheckAndSet(ctx context.Context, accountID string, nonce string, ttl time.Duration) (bool, error) {
	key := s.prefix + accountID + ":" + nonce
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err == goredis.Nil {
		// SET NX lost: the nonce is already spent.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis nonce check: %w", err)
	}
	return result == "OK", nil
}
