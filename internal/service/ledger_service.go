package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.Ledger. Every settlement is one
// database transaction: stake debit, payout credit, lifetime counters,
// level progression and the history record commit or roll back together,
// so a crash can never leave a stake debited with no resolution recorded.
type LedgerServiceImpl struct {
	accounts   ports.AccountRepository
	rounds     ports.GameRoundRepository
	transactor ports.DBTransactor
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	accounts ports.AccountRepository,
	rounds ports.GameRoundRepository,
	transactor ports.DBTransactor,
	audit ports.AuditService,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accounts:   accounts,
		rounds:     rounds,
		transactor: transactor,
		audit:      audit,
		log:        log,
	}
}

// DebitStake escrows a stake via the conditional update.
func (s *LedgerServiceImpl) DebitStake(ctx context.Context, accountID uuid.UUID, stake int64) (int64, error) {
	if stake <= 0 {
		return 0, apperror.ErrInvalidStake("stake must be positive")
	}
	return s.accounts.Debit(ctx, accountID, stake)
}

// Settle runs the full settlement transaction.
func (s *LedgerServiceImpl) Settle(ctx context.Context, params ports.SettleParams) (*ports.SettleResult, error) {
	if params.Stake <= 0 {
		return nil, apperror.ErrInvalidStake("stake must be positive")
	}

	details, err := json.Marshal(params.Details)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal round details: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin settlement tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock the account row: stats and progression are read-modify-write.
	account, err := s.accounts.GetByIDForUpdate(ctx, dbTx, params.AccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}

	newBalance := account.Balance
	if params.DebitStake {
		newBalance, err = s.accounts.DebitTx(ctx, dbTx, params.AccountID, params.Stake)
		if err != nil {
			return nil, err
		}
	}

	if params.Payout > 0 {
		newBalance, err = s.accounts.CreditTx(ctx, dbTx, params.AccountID, params.Payout)
		if err != nil {
			return nil, err
		}
	}

	delta := ports.StatsDelta{Wagered: params.Stake}
	switch params.Result {
	case domain.RoundResultWin:
		delta.Wins = 1
		delta.WinAmount = params.Payout
	case domain.RoundResultLoss:
		delta.Losses = 1
	}
	if err := s.accounts.ApplyStats(ctx, dbTx, params.AccountID, delta); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	// 1 XP per credit wagered.
	levelsGained := account.ApplyXP(params.Stake)
	if err := s.accounts.UpdateProgression(ctx, dbTx, params.AccountID, account.Level, account.XP); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	round := &domain.GameRound{
		ID:               uuid.New(),
		AccountID:        params.AccountID,
		GameType:         params.GameType,
		Stake:            params.Stake,
		Result:           params.Result,
		WinAmount:        params.Payout,
		VerificationHash: params.VerificationHash,
		Details:          details,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.rounds.Create(ctx, dbTx, round); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrSettlementFailure(fmt.Errorf("commit settlement: %w", err))
	}

	s.log.Info().
		Str("account_id", params.AccountID.String()).
		Str("game", string(params.GameType)).
		Str("result", string(params.Result)).
		Int64("stake", params.Stake).
		Int64("payout", params.Payout).
		Int64("balance", newBalance).
		Msg("wager settled")

	return &ports.SettleResult{
		NewBalance:   newBalance,
		Round:        round,
		LevelsGained: levelsGained,
	}, nil
}

// Refund is the compensating credit for an escrowed stake whose settlement
// failed. Both the attempt and its outcome land in the audit trail; a failed
// refund is never swallowed.
func (s *LedgerServiceImpl) Refund(ctx context.Context, accountID uuid.UUID, amount int64, reason string) (int64, error) {
	balance, err := s.accounts.Credit(ctx, accountID, amount)

	entry := &domain.AuditLog{
		ID:           uuid.New(),
		AccountID:    &accountID,
		Action:       domain.AuditActionRefundAttempt,
		ResourceType: "account",
		ResourceID:   accountID.String(),
		Details:      fmt.Sprintf(`{"amount":%d,"reason":%q,"succeeded":%t}`, amount, reason, err == nil),
		CreatedAt:    time.Now().UTC(),
	}
	s.audit.Log(ctx, entry)

	if err != nil {
		s.log.Error().Err(err).
			Str("account_id", accountID.String()).
			Int64("amount", amount).
			Str("reason", reason).
			Msg("compensating refund failed")
		return 0, apperror.ErrSettlementFailure(fmt.Errorf("refund %d to %s: %w", amount, accountID, err))
	}

	s.log.Warn().
		Str("account_id", accountID.String()).
		Int64("amount", amount).
		Str("reason", reason).
		Msg("stake refunded after settlement failure")
	return balance, nil
}

// Transfer atomically moves credits between two accounts in one transaction;
// there is no window where the source is debited and the destination not yet
// credited.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, from, to uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperror.ErrInvalidStake("transfer amount must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin transfer tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if _, err := s.accounts.DebitTx(ctx, dbTx, from, amount); err != nil {
		return err
	}
	if _, err := s.accounts.CreditTx(ctx, dbTx, to, amount); err != nil {
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrSettlementFailure(fmt.Errorf("commit transfer: %w", err))
	}

	s.log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Int64("amount", amount).
		Msg("transfer completed")
	return nil
}
