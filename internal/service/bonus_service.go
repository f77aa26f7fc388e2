package service

import (
	"context"
	"fmt"
	"time"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BonusServiceImpl implements ports.BonusService. The cooldown check and
// the credit run in one transaction against a locked row, so two concurrent
// claims cannot both pass the gate.
type BonusServiceImpl struct {
	transactor ports.DBTransactor
	accounts   ports.AccountRepository
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewBonusService creates a new BonusServiceImpl.
func NewBonusService(transactor ports.DBTransactor, accounts ports.AccountRepository, audit ports.AuditService, log zerolog.Logger) *BonusServiceImpl {
	return &BonusServiceImpl{transactor: transactor, accounts: accounts, audit: audit, log: log}
}

// Claim grants the level-tiered daily bonus once per 24 hours.
func (s *BonusServiceImpl) Claim(ctx context.Context, accountID uuid.UUID) (*ports.BonusResult, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	account, err := s.accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}

	now := time.Now().UTC()
	if !account.DailyBonusReady(now) {
		return nil, apperror.ErrBonusNotReady()
	}

	amount := account.DailyBonusAmount()
	balance, err := s.accounts.CreditTx(ctx, tx, accountID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateBonusClaim(ctx, tx, accountID); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		AccountID:    &accountID,
		Action:       domain.AuditActionBonus,
		ResourceType: "account",
		ResourceID:   accountID.String(),
		Details:      fmt.Sprintf(`{"amount":%d}`, amount),
		CreatedAt:    now,
	})

	return &ports.BonusResult{Amount: amount, NewBalance: balance}, nil
}
