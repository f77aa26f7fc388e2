package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// FraudStore implements ports.FraudStore with two Redis sets per
// observation: distinct IPs per account and distinct accounts per IP.
type FraudStore struct {
	client *goredis.Client
	prefix string
}

// NewFraudStore creates a new Redis-backed fraud tracking store.
func NewFraudStore(client *goredis.Client) *FraudStore {
	return &FraudStore{
		client: client,
		prefix: "fraud:",
	}
}

// Track records the (account, ip) pair and returns the current cardinalities.
func (s *FraudStore) Track(ctx context.Context, accountID, ip string, window time.Duration) (int64, int64, error) {
	ipsKey := s.prefix + "ips:" + accountID
	acctsKey := s.prefix + "accounts:" + ip

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, ipsKey, ip)
	pipe.Expire(ctx, ipsKey, window)
	pipe.SAdd(ctx, acctsKey, accountID)
	pipe.Expire(ctx, acctsKey, window)
	ipsCard := pipe.SCard(ctx, ipsKey)
	acctsCard := pipe.SCard(ctx, acctsKey)

	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		return 0, 0, fmt.Errorf("redis fraud track: %w", err)
	}
	return ipsCard.Val(), acctsCard.Val(), nil
}
