package service

import (
	"context"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"
)

const maxHistoryPageSize = 100

// HistoryServiceImpl implements ports.HistoryService.
type HistoryServiceImpl struct {
	rounds ports.GameRoundRepository
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(rounds ports.GameRoundRepository) *HistoryServiceImpl {
	return &HistoryServiceImpl{rounds: rounds}
}

// List returns the account's settled rounds, newest first, with the total
// count for pagination.
func (s *HistoryServiceImpl) List(ctx context.Context, params ports.HistoryListParams) ([]domain.GameRound, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > maxHistoryPageSize {
		params.PageSize = 20
	}

	rounds, total, err := s.rounds.ListByAccount(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	return rounds, total, nil
}
