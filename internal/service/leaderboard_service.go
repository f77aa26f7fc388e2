package service

import (
	"context"

	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"
)

const defaultLeaderboardLimit = 10

// LeaderboardServiceImpl implements ports.LeaderboardService.
type LeaderboardServiceImpl struct {
	accounts ports.AccountRepository
}

// NewLeaderboardService creates a new LeaderboardServiceImpl.
func NewLeaderboardService(accounts ports.AccountRepository) *LeaderboardServiceImpl {
	return &LeaderboardServiceImpl{accounts: accounts}
}

// Top ranks accounts by one of the lifetime counters.
func (s *LeaderboardServiceImpl) Top(ctx context.Context, field ports.LeaderboardField, limit int) ([]ports.LeaderboardEntry, error) {
	switch field {
	case ports.LeaderboardBalance, ports.LeaderboardWagered, ports.LeaderboardBiggestWin, ports.LeaderboardLevel:
	case "":
		field = ports.LeaderboardBalance
	default:
		return nil, apperror.Validation("unknown leaderboard field")
	}
	if limit <= 0 || limit > 100 {
		limit = defaultLeaderboardLimit
	}

	accounts, err := s.accounts.Leaderboard(ctx, field, limit)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	entries := make([]ports.LeaderboardEntry, 0, len(accounts))
	for _, a := range accounts {
		entries = append(entries, ports.LeaderboardEntry{
			Username:   a.Username,
			Balance:    a.Balance,
			Wagered:    a.TotalWagered,
			BiggestWin: a.BiggestWin,
			Level:      a.Level,
		})
	}
	return entries, nil
}
