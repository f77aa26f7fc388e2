package postgres

import (
	"context"
	"errors"
	"fmt"

	"casino-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PeerBetRepo implements ports.PeerBetRepository.
type PeerBetRepo struct {
	pool Pool
}

// NewPeerBetRepo creates a new PeerBetRepo.
func NewPeerBetRepo(pool Pool) *PeerBetRepo {
	return &PeerBetRepo{pool: pool}
}

const peerBetColumns = `id, proposer_id, counterparty_id, amount, status, winner_id,
	seed, verification_hash, created_at, completed_at`

func scanPeerBet(row pgx.Row) (*domain.PeerBet, error) {
	b := &domain.PeerBet{}
	err := row.Scan(
		&b.ID, &b.ProposerID, &b.CounterpartyID, &b.Amount, &b.Status,
		&b.WinnerID, &b.Seed, &b.VerificationHash, &b.CreatedAt, &b.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create inserts a pending bet inside the escrow transaction.
func (r *PeerBetRepo) Create(ctx context.Context, tx pgx.Tx, bet *domain.PeerBet) error {
	query := `INSERT INTO peer_bets (id, proposer_id, counterparty_id, amount, status, seed, verification_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		bet.ID, bet.ProposerID, bet.CounterpartyID, bet.Amount,
		string(bet.Status), bet.Seed, bet.VerificationHash, bet.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert peer bet: %w", err)
	}
	return nil
}

// GetByID fetches a bet without locking.
func (r *PeerBetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PeerBet, error) {
	query := `SELECT ` + peerBetColumns + ` FROM peer_bets WHERE id = $1`

	b, err := scanPeerBet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get peer bet: %w", err)
	}
	return b, nil
}

// GetByIDForUpdate locks the bet row so accept and cancel cannot race.
// This MUST be called within a transaction.
func (r *PeerBetRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PeerBet, error) {
	query := `SELECT ` + peerBetColumns + ` FROM peer_bets WHERE id = $1 FOR UPDATE`

	b, err := scanPeerBet(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get peer bet for update: %w", err)
	}
	return b, nil
}

// UpdateStatus writes a terminal transition (status, winner, seed, completion).
func (r *PeerBetRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, bet *domain.PeerBet) error {
	query := `UPDATE peer_bets SET status = $2, winner_id = $3, seed = $4, completed_at = $5 WHERE id = $1`

	tag, err := tx.Exec(ctx, query, bet.ID, string(bet.Status), bet.WinnerID, bet.Seed, bet.CompletedAt)
	if err != nil {
		return fmt.Errorf("update peer bet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("peer bet not found: %s", bet.ID)
	}
	return nil
}

// ListOpen returns pending bets the account proposed or was named in.
func (r *PeerBetRepo) ListOpen(ctx context.Context, accountID uuid.UUID) ([]domain.PeerBet, error) {
	query := `SELECT ` + peerBetColumns + ` FROM peer_bets
		WHERE status = 'PENDING' AND (proposer_id = $1 OR counterparty_id = $1)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query open peer bets: %w", err)
	}
	defer rows.Close()

	var bets []domain.PeerBet
	for rows.Next() {
		b, err := scanPeerBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan peer bet: %w", err)
		}
		bets = append(bets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate peer bets: %w", err)
	}
	return bets, nil
}
