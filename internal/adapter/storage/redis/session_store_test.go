package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"casino-core/internal/core/domain"
	"casino-core/pkg/apperror"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(gameType domain.GameType) *domain.GameSession {
	s := domain.NewGameSession(uuid.New(), gameType, 100, "seed", "hash")
	_ = s.SetState(map[string]any{"step": 0})
	return s
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession(domain.GameMines)
	require.NoError(t, store.Create(ctx, session, time.Hour))

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.AccountID, got.AccountID)
	assert.Equal(t, domain.GameMines, got.GameType)
	assert.Equal(t, int64(100), got.Stake)
}

func TestSessionStore_Create_DuplicateRejected(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	first := newTestSession(domain.GameMines)
	require.NoError(t, store.Create(ctx, first, time.Hour))

	// Same account, same game type.
	second := domain.NewGameSession(first.AccountID, domain.GameMines, 50, "seed2", "hash2")
	err := store.Create(ctx, second, time.Hour)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SESS_002", appErr.Code)
}

func TestSessionStore_Create_DifferentGameAllowed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	mines := newTestSession(domain.GameMines)
	require.NoError(t, store.Create(ctx, mines, time.Hour))

	blackjack := domain.NewGameSession(mines.AccountID, domain.GameBlackjack, 50, "seed2", "hash2")
	assert.NoError(t, store.Create(ctx, blackjack, time.Hour))
}

func TestSessionStore_Get_Missing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "no-such-session")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SESS_001", appErr.Code)
}

func TestSessionStore_Update(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession(domain.GameBlackjack)
	require.NoError(t, store.Create(ctx, session, time.Hour))

	require.NoError(t, session.SetState(map[string]any{"step": 3}))
	require.NoError(t, store.Update(ctx, session))

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)

	var state map[string]any
	require.NoError(t, got.DecodeState(&state))
	assert.Equal(t, float64(3), state["step"])
}

func TestSessionStore_Update_MissingSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client)

	session := newTestSession(domain.GameBlackjack)
	err := store.Update(context.Background(), session)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SESS_001", appErr.Code)
}

func TestSessionStore_Claim_ExactlyOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession(domain.GameMines)
	require.NoError(t, store.Create(ctx, session, time.Hour))

	claimed, err := store.Claim(ctx, session)
	require.NoError(t, err)
	assert.True(t, claimed, "first claim wins")

	claimed, err = store.Claim(ctx, session)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim must lose")
}

func TestSessionStore_Claim_FreesGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession(domain.GameMines)
	require.NoError(t, store.Create(ctx, session, time.Hour))

	claimed, err := store.Claim(ctx, session)
	require.NoError(t, err)
	require.True(t, claimed)

	// A new game of the same type can start immediately.
	next := domain.NewGameSession(session.AccountID, domain.GameMines, 50, "seed2", "hash2")
	assert.NoError(t, store.Create(ctx, next, time.Hour))
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession(domain.GameMines)
	require.NoError(t, store.Create(ctx, session, time.Minute))

	// Orphaned sessions die with their TTL.
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, session.ID)
	require.Error(t, err)

	// And the guard dies with them.
	next := domain.NewGameSession(session.AccountID, domain.GameMines, 50, "seed2", "hash2")
	assert.NoError(t, store.Create(ctx, next, time.Minute))
}
