package ports

import (
	"context"

	"casino-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines persistence operations for player accounts.
// Debit and Credit are atomic conditional updates at the storage layer; the
// tx variants run inside a settlement transaction so stake movement, stats
// and history commit or roll back together.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)

	// GetByIDForUpdate locks the account row for the duration of a
	// settlement transaction (stats and progression read-modify-write).
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)

	// Debit decrements balance only if it covers the amount, returning the
	// post-debit balance. apperror.ErrInsufficientFunds when it does not.
	Debit(ctx context.Context, id uuid.UUID, amount int64) (int64, error)
	DebitTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (int64, error)

	// Credit increments balance and returns the new balance.
	Credit(ctx context.Context, id uuid.UUID, amount int64) (int64, error)
	CreditTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (int64, error)

	// ApplyStats records the lifetime-counter side effects of a settlement.
	ApplyStats(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta StatsDelta) error

	// UpdateProgression persists recomputed level/xp after wager XP was applied.
	UpdateProgression(ctx context.Context, tx pgx.Tx, id uuid.UUID, level int, xp int64) error

	// UpdateBonusClaim stamps the daily-bonus cooldown.
	UpdateBonusClaim(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// Leaderboard returns the top accounts ordered by the given field.
	Leaderboard(ctx context.Context, orderBy LeaderboardField, limit int) ([]domain.Account, error)
}

// StatsDelta captures settlement side effects on an account's counters.
type StatsDelta struct {
	Wins      int64
	Losses    int64
	Wagered   int64
	WinAmount int64 // candidate for biggest_win (GREATEST)
}

// LeaderboardField selects the ranking column.
type LeaderboardField string

const (
	LeaderboardBalance    LeaderboardField = "balance"
	LeaderboardWagered    LeaderboardField = "total_wagered"
	LeaderboardBiggestWin LeaderboardField = "biggest_win"
	LeaderboardLevel      LeaderboardField = "level"
)

// GameRoundRepository persists the immutable wager history.
type GameRoundRepository interface {
	Create(ctx context.Context, tx pgx.Tx, round *domain.GameRound) error
	ListByAccount(ctx context.Context, params HistoryListParams) ([]domain.GameRound, int64, error)
}

// HistoryListParams holds filter + pagination for the history endpoint.
type HistoryListParams struct {
	AccountID uuid.UUID
	GameType  *domain.GameType
	Page      int
	PageSize  int
}

// PeerBetRepository persists two-party wagers.
type PeerBetRepository interface {
	Create(ctx context.Context, tx pgx.Tx, bet *domain.PeerBet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PeerBet, error)
	// GetByIDForUpdate locks the row so accept and cancel cannot race.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PeerBet, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, bet *domain.PeerBet) error
	ListOpen(ctx context.Context, accountID uuid.UUID) ([]domain.PeerBet, error)
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository persists the audit trail.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
