package postgres

import (
	"context"
	"errors"
	"fmt"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

const accountColumns = `id, username, password_hash, signing_secret_enc, balance,
	total_wins, total_losses, total_wagered, biggest_win, level, xp,
	last_daily_bonus, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.SigningSecretEnc, &a.Balance,
		&a.TotalWins, &a.TotalLosses, &a.TotalWagered, &a.BiggestWin,
		&a.Level, &a.XP, &a.LastDailyBonus, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, username, password_hash, signing_secret_enc, balance,
		total_wins, total_losses, total_wagered, biggest_win, level, xp, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Username, a.PasswordHash, a.SigningSecretEnc, a.Balance,
		a.TotalWins, a.TotalLosses, a.TotalWagered, a.BiggestWin,
		a.Level, a.XP, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

// GetByUsername fetches an account by username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`

	a, err := scanAccount(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return a, nil
}

// GetByIDForUpdate fetches an account with pessimistic locking.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	a, err := scanAccount(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account for update: %w", err)
	}
	return a, nil
}

// debit runs the conditional decrement against the given executor. The WHERE
// clause is the double-spend guard: two concurrent debits can never both
// succeed on one stake's worth of balance.
func debit(ctx context.Context, ex executor, id uuid.UUID, amount int64) (int64, error) {
	query := `UPDATE accounts SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2 RETURNING balance`

	var balance int64
	err := ex.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.ErrInsufficientFunds()
		}
		return 0, fmt.Errorf("debit account: %w", err)
	}
	return balance, nil
}

func credit(ctx context.Context, ex executor, id uuid.UUID, amount int64) (int64, error) {
	query := `UPDATE accounts SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 RETURNING balance`

	var balance int64
	err := ex.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.ErrNotFound("account")
		}
		return 0, fmt.Errorf("credit account: %w", err)
	}
	return balance, nil
}

// Debit atomically decrements balance if it covers the amount.
func (r *AccountRepo) Debit(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	return debit(ctx, r.pool, id, amount)
}

// DebitTx is Debit inside an open settlement transaction.
func (r *AccountRepo) DebitTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	return debit(ctx, tx, id, amount)
}

// Credit atomically increments balance.
func (r *AccountRepo) Credit(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	return credit(ctx, r.pool, id, amount)
}

// CreditTx is Credit inside an open settlement transaction.
func (r *AccountRepo) CreditTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	return credit(ctx, tx, id, amount)
}

// ApplyStats records settlement side effects on the lifetime counters.
func (r *AccountRepo) ApplyStats(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta ports.StatsDelta) error {
	query := `UPDATE accounts SET
		total_wins = total_wins + $2,
		total_losses = total_losses + $3,
		total_wagered = total_wagered + $4,
		biggest_win = GREATEST(biggest_win, $5),
		updated_at = NOW()
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, delta.Wins, delta.Losses, delta.Wagered, delta.WinAmount)
	if err != nil {
		return fmt.Errorf("apply account stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// UpdateProgression persists recomputed level/xp.
func (r *AccountRepo) UpdateProgression(ctx context.Context, tx pgx.Tx, id uuid.UUID, level int, xp int64) error {
	query := `UPDATE accounts SET level = $2, xp = $3, updated_at = NOW() WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, level, xp)
	if err != nil {
		return fmt.Errorf("update account progression: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// UpdateBonusClaim stamps the daily-bonus cooldown.
func (r *AccountRepo) UpdateBonusClaim(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `UPDATE accounts SET last_daily_bonus = NOW(), updated_at = NOW() WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("update bonus claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// Leaderboard returns the top accounts ordered by the given field. The column
// comes from a fixed whitelist, never from user input directly.
func (r *AccountRepo) Leaderboard(ctx context.Context, orderBy ports.LeaderboardField, limit int) ([]domain.Account, error) {
	var column string
	switch orderBy {
	case ports.LeaderboardBalance:
		column = "balance"
	case ports.LeaderboardWagered:
		column = "total_wagered"
	case ports.LeaderboardBiggestWin:
		column = "biggest_win"
	case ports.LeaderboardLevel:
		column = "level"
	default:
		return nil, fmt.Errorf("unknown leaderboard field: %s", orderBy)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY ` + column + ` DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}
	return accounts, nil
}
