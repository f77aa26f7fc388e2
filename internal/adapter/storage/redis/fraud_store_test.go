package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFraudStore_Track(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewFraudStore(client)
	ctx := context.Background()

	ips, accts, err := store.Track(ctx, "acct-1", "1.1.1.1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ips)
	assert.Equal(t, int64(1), accts)

	// Same pair again: cardinalities unchanged.
	ips, accts, err = store.Track(ctx, "acct-1", "1.1.1.1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ips)
	assert.Equal(t, int64(1), accts)

	// New IP for the same account.
	ips, _, err = store.Track(ctx, "acct-1", "2.2.2.2", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ips)

	// New account on a shared IP.
	_, accts, err = store.Track(ctx, "acct-2", "1.1.1.1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), accts)
}

func TestFraudStore_WindowExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewFraudStore(client)
	ctx := context.Background()

	_, _, err := store.Track(ctx, "acct-1", "1.1.1.1", time.Minute)
	require.NoError(t, err)
	_, _, err = store.Track(ctx, "acct-1", "2.2.2.2", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	ips, _, err := store.Track(ctx, "acct-1", "3.3.3.3", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ips, "tracking sets reset after the window")
}
