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

const purchaseCacheTTL = 24 * time.Hour

// PurchaseServiceImpl implements ports.PurchaseService with two-layer
// idempotency: a cache fast path for recent duplicates and a durable log
// committed in the same transaction as the credit.
type PurchaseServiceImpl struct {
	transactor ports.DBTransactor
	accounts   ports.AccountRepository
	idemRepo   ports.IdempotencyRepository
	idemCache  ports.IdempotencyCache
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewPurchaseService creates a new PurchaseServiceImpl.
func NewPurchaseService(
	transactor ports.DBTransactor,
	accounts ports.AccountRepository,
	idemRepo ports.IdempotencyRepository,
	idemCache ports.IdempotencyCache,
	audit ports.AuditService,
	log zerolog.Logger,
) *PurchaseServiceImpl {
	return &PurchaseServiceImpl{
		transactor: transactor,
		accounts:   accounts,
		idemRepo:   idemRepo,
		idemCache:  idemCache,
		audit:      audit,
		log:        log,
	}
}

// ConfirmPurchase credits a confirmed external purchase exactly once per
// (account, payment reference). Replays return the original result.
func (s *PurchaseServiceImpl) ConfirmPurchase(ctx context.Context, accountID uuid.UUID, paymentRef string, coins int64) (*ports.PurchaseResult, error) {
	if paymentRef == "" {
		return nil, apperror.Validation("payment reference is required")
	}
	if coins <= 0 {
		return nil, apperror.Validation("coin amount must be positive")
	}

	key := domain.BuildIdempotencyKey(accountID, paymentRef)

	// Fast path: recent duplicate served from the cache.
	if cached, err := s.idemCache.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency cache read failed")
	} else if cached != nil {
		return replayPurchase(cached)
	}

	// Durable path: the log survives cache eviction.
	if entry, err := s.idemRepo.Get(ctx, key); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	} else if entry != nil {
		return replayPurchase(entry.ResponseJSON)
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	balance, err := s.accounts.CreditTx(ctx, tx, accountID, coins)
	if err != nil {
		return nil, err
	}

	result := &ports.PurchaseResult{
		PaymentRef: paymentRef,
		Coins:      coins,
		NewBalance: balance,
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encode purchase result: %w", err))
	}

	if err := s.idemRepo.Create(ctx, tx, &domain.IdempotencyLog{
		Key:          key,
		AccountID:    accountID,
		ResponseJSON: payload,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		// A unique-key violation means a concurrent duplicate won the race.
		return nil, apperror.ErrDatabaseError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	if err := s.idemCache.Set(ctx, key, payload, purchaseCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency cache write failed")
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		AccountID:    &accountID,
		Action:       domain.AuditActionPurchase,
		ResourceType: "purchase",
		ResourceID:   paymentRef,
		Details:      fmt.Sprintf(`{"coins":%d}`, coins),
		CreatedAt:    time.Now().UTC(),
	})

	return result, nil
}

func replayPurchase(payload []byte) (*ports.PurchaseResult, error) {
	result := &ports.PurchaseResult{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decode cached purchase: %w", err))
	}
	result.Duplicate = true
	return result, nil
}
