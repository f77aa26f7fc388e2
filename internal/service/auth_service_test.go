package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthService(t *testing.T) (*AuthServiceImpl, *fakeAccountRepo) {
	t.Helper()
	accounts := newFakeAccountRepo()
	encSvc, err := NewAESEncryptionService(strings.Repeat("ab", 32))
	require.NoError(t, err)

	svc := NewAuthService(
		accounts,
		NewArgon2HashService(),
		encSvc,
		NewJWTTokenService("test-secret", time.Hour, "casino-core"),
		NewAuditService(nil, zerolog.Nop()),
		1_000,
	)
	return svc, accounts
}

func TestAuth_Register_GrantsStartingCredits(t *testing.T) {
	svc, accounts := setupAuthService(t)

	result, err := svc.Register(context.Background(), "alice", "hunter2!")
	require.NoError(t, err)

	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, int64(1_000), result.Balance)
	assert.NotEmpty(t, result.Token)
	assert.Len(t, result.SigningSecret, 64, "32 random bytes hex-encoded")

	stored, err := accounts.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.Level)
	assert.NotEqual(t, "hunter2!", stored.PasswordHash)
	assert.NotEqual(t, result.SigningSecret, stored.SigningSecretEnc, "secret encrypted at rest")
}

func TestAuth_Register_DuplicateUsername(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2!")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other-password")
	assert.Error(t, err)
}

func TestAuth_Login(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "hunter2!")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "alice", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, registered.AccountID, result.AccountID)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.Error(t, err)

	_, err = svc.Login(ctx, "nobody", "hunter2!")
	assert.Error(t, err)
}
