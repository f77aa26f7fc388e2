package service

import (
	"context"
	"testing"

	"casino-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Deck indices into domain.NewDeck(): hearts 0-12 (A..K), diamonds 13-25,
// clubs 26-38, spades 39-51. The stub permutation prefix fixes the deal
// order: player deck[0],deck[2]; dealer deck[1],deck[3].
func setupBlackjack(t *testing.T, balance int64, perm []int) (*BlackjackServiceImpl, *fakeLedger, *memSessionStore, uuid.UUID) {
	t.Helper()
	accountID := uuid.New()
	ledger := newFakeLedger()
	ledger.balances[accountID] = balance
	sessions := newMemSessionStore()
	fair := &stubFair{seed: "s1", perm: perm}
	svc := NewBlackjackService(ledger, fair, sessions, testRules(), zerolog.Nop())
	return svc, ledger, sessions, accountID
}

func TestBlackjack_Start_DealsAndEscrows(t *testing.T) {
	// Player 10H+9H (19), dealer 2H+QH.
	svc, ledger, sessions, accountID := setupBlackjack(t, 1_000, []int{9, 1, 8, 11})

	view, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	assert.False(t, view.Done)
	assert.Equal(t, 19, view.PlayerValue)
	assert.Len(t, view.PlayerHand, 2)
	assert.Len(t, view.DealerHand, 1, "hole card stays hidden")
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, int64(900), ledger.balance(accountID), "stake escrowed")

	stored, err := sessions.Get(context.Background(), view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.GameBlackjack, stored.GameType)
}

func TestBlackjack_Start_NaturalSettlesImmediately(t *testing.T) {
	// Player AH+KH natural, dealer 2H+3H.
	svc, ledger, sessions, accountID := setupBlackjack(t, 1_000, []int{0, 1, 12, 2})

	view, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	assert.True(t, view.Done)
	require.NotNil(t, view.Outcome)
	assert.Equal(t, domain.RoundResultWin, view.Outcome.Result)
	assert.Equal(t, int64(250), view.Outcome.WinAmount) // 3:2
	assert.Equal(t, int64(1_000-100+250), ledger.balance(accountID))

	// No session was left behind.
	_, err = sessions.FindActive(context.Background(), accountID.String(), domain.GameBlackjack)
	require.NoError(t, err)
	active, _ := sessions.FindActive(context.Background(), accountID.String(), domain.GameBlackjack)
	assert.Nil(t, active)

	require.Len(t, ledger.settles, 1)
	assert.True(t, ledger.settles[0].DebitStake)
}

func TestBlackjack_Start_DoubleNaturalPushes(t *testing.T) {
	// Player AH+KH, dealer AD+KD.
	svc, ledger, _, accountID := setupBlackjack(t, 1_000, []int{0, 13, 12, 25})

	view, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	require.NotNil(t, view.Outcome)
	assert.Equal(t, domain.RoundResultPush, view.Outcome.Result)
	assert.Equal(t, int64(100), view.Outcome.WinAmount)
	assert.Equal(t, int64(1_000), ledger.balance(accountID), "push returns the stake")
}

func TestBlackjack_Start_DebitFailureReleasesSession(t *testing.T) {
	svc, ledger, sessions, accountID := setupBlackjack(t, 10, []int{9, 1, 8, 11})

	_, err := svc.Start(context.Background(), accountID, 100)
	require.Error(t, err)

	active, err := sessions.FindActive(context.Background(), accountID.String(), domain.GameBlackjack)
	require.NoError(t, err)
	assert.Nil(t, active, "guard freed after failed escrow")
	assert.Equal(t, int64(10), ledger.balance(accountID))
}

func TestBlackjack_Hit_BustLosesHand(t *testing.T) {
	// Player 10H+9H, next card 8H busts.
	svc, ledger, sessions, accountID := setupBlackjack(t, 1_000, []int{9, 1, 8, 11, 7})

	start, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	view, err := svc.Hit(context.Background(), accountID, start.SessionID)
	require.NoError(t, err)

	assert.True(t, view.Done)
	assert.Greater(t, view.PlayerValue, 21)
	require.NotNil(t, view.Outcome)
	assert.Equal(t, domain.RoundResultLoss, view.Outcome.Result)
	assert.Equal(t, int64(900), ledger.balance(accountID))

	active, _ := sessions.FindActive(context.Background(), accountID.String(), domain.GameBlackjack)
	assert.Nil(t, active, "session claimed on bust")
}

func TestBlackjack_Stand_DealerStandsOnSeventeen(t *testing.T) {
	// Player 19; dealer 2H+QH draws 5H to 17 and stands.
	svc, ledger, _, accountID := setupBlackjack(t, 1_000, []int{9, 1, 8, 11, 4})

	start, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	view, err := svc.Stand(context.Background(), accountID, start.SessionID)
	require.NoError(t, err)

	assert.True(t, view.Done)
	assert.Equal(t, 19, view.PlayerValue)
	assert.Equal(t, 17, view.DealerValue)
	require.NotNil(t, view.Outcome)
	assert.Equal(t, domain.RoundResultWin, view.Outcome.Result)
	assert.Equal(t, int64(200), view.Outcome.WinAmount)
	assert.Equal(t, int64(1_000-100+200), ledger.balance(accountID))

	require.Len(t, ledger.settles, 1)
	assert.False(t, ledger.settles[0].DebitStake, "stake was escrowed at start")
}

func TestBlackjack_Stand_DealerBust(t *testing.T) {
	// Dealer 2H+QH draws KH to 22.
	svc, _, _, accountID := setupBlackjack(t, 1_000, []int{9, 1, 8, 11, 12})

	start, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	view, err := svc.Stand(context.Background(), accountID, start.SessionID)
	require.NoError(t, err)

	assert.Greater(t, view.DealerValue, 21)
	assert.Equal(t, domain.RoundResultWin, view.Outcome.Result)
}

func TestBlackjack_Stand_EqualValuesPush(t *testing.T) {
	// Player 10H+9H (19), dealer 10D+9D (19).
	svc, ledger, _, accountID := setupBlackjack(t, 1_000, []int{9, 22, 8, 21})

	start, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	view, err := svc.Stand(context.Background(), accountID, start.SessionID)
	require.NoError(t, err)

	assert.Equal(t, domain.RoundResultPush, view.Outcome.Result)
	assert.Equal(t, int64(1_000), ledger.balance(accountID))
}

func TestBlackjack_Hit_TwentyOneAutoStands(t *testing.T) {
	// Player 10H+9H hits 2D for 21; dealer 2H+QH plays out.
	svc, _, sessions, accountID := setupBlackjack(t, 1_000, []int{9, 1, 8, 11, 14})

	start, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	view, err := svc.Hit(context.Background(), accountID, start.SessionID)
	require.NoError(t, err)

	assert.True(t, view.Done)
	assert.Equal(t, 21, view.PlayerValue)
	require.NotNil(t, view.Outcome)
	assert.Equal(t, domain.RoundResultWin, view.Outcome.Result)

	active, _ := sessions.FindActive(context.Background(), accountID.String(), domain.GameBlackjack)
	assert.Nil(t, active)
}

func TestBlackjack_Hit_WrongAccountRejected(t *testing.T) {
	svc, _, _, accountID := setupBlackjack(t, 1_000, []int{9, 1, 8, 11})

	start, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	_, err = svc.Hit(context.Background(), uuid.New(), start.SessionID)
	assert.Error(t, err)
}

func TestBlackjack_SecondHandRejectedWhileActive(t *testing.T) {
	svc, _, _, accountID := setupBlackjack(t, 1_000, []int{9, 1, 8, 11})

	_, err := svc.Start(context.Background(), accountID, 100)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), accountID, 100)
	assert.Error(t, err)
}
