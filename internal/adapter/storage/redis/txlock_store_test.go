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

func TestTxLockStore_AcquireRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewTxLockStore(client)
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "acct-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second concurrent request is rejected, not queued.
	ok, err = store.Acquire(ctx, "acct-1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Release(ctx, "acct-1"))

	ok, err = store.Acquire(ctx, "acct-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "lock should be available after release")
}

func TestTxLockStore_IndependentAccounts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewTxLockStore(client)
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "acct-1", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Acquire(ctx, "acct-2", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "locks are per account")
}

func TestTxLockStore_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewTxLockStore(client)
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "acct-1", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// Crashed holder: TTL frees the lock.
	mr.FastForward(6 * time.Second)

	ok, err = store.Acquire(ctx, "acct-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
