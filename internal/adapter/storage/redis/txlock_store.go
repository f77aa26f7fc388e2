package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TxLockStore implements ports.TxLockStore: at most one in-flight
// wager-mutating request per account, enforced with SET NX + TTL.
type TxLockStore struct {
	client *goredis.Client
	prefix string
}

// NewTxLockStore creates a new Redis-backed transaction lock store.
func NewTxLockStore(client *goredis.Client) *TxLockStore {
	return &TxLockStore{
		client: client,
		prefix: "txlock:",
	}
}

// Acquire takes the per-account lock. Returns false when another request
// already holds it. The TTL bounds how long a crashed holder can block.
func (s *TxLockStore) Acquire(ctx context.Context, accountID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+accountID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis tx lock acquire: %w", err)
	}
	return ok, nil
}

// Release frees the lock at request end.
func (s *TxLockStore) Release(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, s.prefix+accountID).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("redis tx lock release: %w", err)
	}
	return nil
}
