package service

import (
	"context"
	"testing"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_List_FiltersAndPaginates(t *testing.T) {
	accountID := uuid.New()
	repo := &fakeRoundRepo{}
	ctx := context.Background()
	var tx pgx.Tx

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, tx, &domain.GameRound{
			ID: uuid.New(), AccountID: accountID, GameType: domain.GameSlots, Stake: 10,
		}))
	}
	require.NoError(t, repo.Create(ctx, tx, &domain.GameRound{
		ID: uuid.New(), AccountID: accountID, GameType: domain.GameDice, Stake: 10,
	}))
	require.NoError(t, repo.Create(ctx, tx, &domain.GameRound{
		ID: uuid.New(), AccountID: uuid.New(), GameType: domain.GameSlots, Stake: 10,
	}))

	svc := NewHistoryService(repo)

	rounds, total, err := svc.List(ctx, ports.HistoryListParams{AccountID: accountID, Page: 1, PageSize: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total, "other accounts excluded")
	assert.Len(t, rounds, 4)

	rounds, total, err = svc.List(ctx, ports.HistoryListParams{AccountID: accountID, Page: 2, PageSize: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, rounds, 2)

	slots := domain.GameSlots
	rounds, total, err = svc.List(ctx, ports.HistoryListParams{AccountID: accountID, GameType: &slots, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, rounds, 5)
}

func TestHistory_List_NormalizesPagination(t *testing.T) {
	accountID := uuid.New()
	repo := &fakeRoundRepo{}
	require.NoError(t, repo.Create(context.Background(), nil, &domain.GameRound{
		ID: uuid.New(), AccountID: accountID, GameType: domain.GameSlots,
	}))
	svc := NewHistoryService(repo)

	rounds, total, err := svc.List(context.Background(), ports.HistoryListParams{AccountID: accountID, Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rounds, 1)
}
