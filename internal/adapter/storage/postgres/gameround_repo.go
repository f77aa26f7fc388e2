package postgres

import (
	"context"
	"fmt"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// GameRoundRepo implements ports.GameRoundRepository. Rounds are append-only;
// there is deliberately no update path.
type GameRoundRepo struct {
	pool Pool
}

// NewGameRoundRepo creates a new GameRoundRepo.
func NewGameRoundRepo(pool Pool) *GameRoundRepo {
	return &GameRoundRepo{pool: pool}
}

// Create inserts a settled round inside the settlement transaction.
func (r *GameRoundRepo) Create(ctx context.Context, tx pgx.Tx, round *domain.GameRound) error {
	query := `INSERT INTO game_rounds (id, account_id, game_type, stake, result, win_amount, verification_hash, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		round.ID, round.AccountID, string(round.GameType), round.Stake,
		string(round.Result), round.WinAmount, round.VerificationHash,
		round.Details, round.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game round: %w", err)
	}
	return nil
}

// ListByAccount returns a page of an account's settled rounds, newest first,
// plus the total count for pagination.
func (r *GameRoundRepo) ListByAccount(ctx context.Context, params ports.HistoryListParams) ([]domain.GameRound, int64, error) {
	countQuery := `SELECT COUNT(*) FROM game_rounds
		WHERE account_id = $1 AND ($2::text IS NULL OR game_type = $2)`

	var gameType *string
	if params.GameType != nil {
		s := string(*params.GameType)
		gameType = &s
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, params.AccountID, gameType).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count game rounds: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := `SELECT id, account_id, game_type, stake, result, win_amount, verification_hash, details, created_at
		FROM game_rounds
		WHERE account_id = $1 AND ($2::text IS NULL OR game_type = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, params.AccountID, gameType, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query game rounds: %w", err)
	}
	defer rows.Close()

	var rounds []domain.GameRound
	for rows.Next() {
		var round domain.GameRound
		err := rows.Scan(
			&round.ID, &round.AccountID, &round.GameType, &round.Stake,
			&round.Result, &round.WinAmount, &round.VerificationHash,
			&round.Details, &round.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan game round: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate game rounds: %w", err)
	}
	return rounds, total, nil
}
