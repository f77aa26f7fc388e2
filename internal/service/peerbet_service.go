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

// PeerBetServiceImpl implements ports.PeerBetService. Both sides of a flip
// move inside one database transaction, with the bet row locked so accept
// and cancel cannot race.
type PeerBetServiceImpl struct {
	transactor ports.DBTransactor
	accounts   ports.AccountRepository
	bets       ports.PeerBetRepository
	rounds     ports.GameRoundRepository
	fair       ports.FairnessEngine
	rules      GameRules
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewPeerBetService creates a new PeerBetServiceImpl.
func NewPeerBetService(
	transactor ports.DBTransactor,
	accounts ports.AccountRepository,
	bets ports.PeerBetRepository,
	rounds ports.GameRoundRepository,
	fair ports.FairnessEngine,
	rules GameRules,
	audit ports.AuditService,
	log zerolog.Logger,
) *PeerBetServiceImpl {
	return &PeerBetServiceImpl{
		transactor: transactor,
		accounts:   accounts,
		bets:       bets,
		rounds:     rounds,
		fair:       fair,
		rules:      rules,
		audit:      audit,
		log:        log,
	}
}

// Propose escrows the proposer's stake and records the pending bet. The flip
// seed is fixed here so the verification hash binds the outcome before the
// counterparty decides.
func (s *PeerBetServiceImpl) Propose(ctx context.Context, proposerID, counterpartyID uuid.UUID, amount int64) (*domain.PeerBet, error) {
	if err := s.rules.ValidateStake(amount); err != nil {
		return nil, err
	}
	if proposerID == counterpartyID {
		return nil, apperror.Validation("cannot bet against yourself")
	}
	if counterparty, err := s.accounts.GetByID(ctx, counterpartyID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find counterparty: %w", err))
	} else if counterparty == nil {
		return nil, apperror.ErrNotFound("counterparty")
	}

	seed, err := s.fair.NewSeed()
	if err != nil {
		return nil, err
	}

	bet := &domain.PeerBet{
		ID:               uuid.New(),
		ProposerID:       proposerID,
		CounterpartyID:   counterpartyID,
		Amount:           amount,
		Status:           domain.PeerBetStatusPending,
		Seed:             seed,
		VerificationHash: s.fair.VerificationHash(seed),
		CreatedAt:        time.Now().UTC(),
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.accounts.DebitTx(ctx, tx, proposerID, amount); err != nil {
		return nil, err
	}
	if err := s.bets.Create(ctx, tx, bet); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		AccountID:    &proposerID,
		Action:       domain.AuditActionWager,
		ResourceType: "peer_bet",
		ResourceID:   bet.ID.String(),
		CreatedAt:    bet.CreatedAt,
	})

	// The seed stays server-side until completion.
	public := *bet
	public.Seed = ""
	return &public, nil
}

// Accept settles the flip: the acceptor's stake joins the pot, the seed's
// roll picks the winner, and both accounts' history records commit with the
// status change in one transaction.
func (s *PeerBetServiceImpl) Accept(ctx context.Context, acceptorID, betID uuid.UUID) (*ports.PeerBetResult, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	bet, err := s.bets.GetByIDForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if bet == nil {
		return nil, apperror.ErrNotFound("peer bet")
	}
	if !bet.CanAccept(acceptorID) {
		return nil, apperror.ErrBetNotAvailable("bet is not open for this account")
	}

	acceptorBalance, err := s.accounts.DebitTx(ctx, tx, acceptorID, bet.Amount)
	if err != nil {
		return nil, err
	}

	// Proposer wins on the low half.
	winnerID := bet.ProposerID
	loserID := acceptorID
	if s.fair.Roll(bet.Seed) >= 0.5 {
		winnerID = acceptorID
		loserID = bet.ProposerID
	}

	pot := bet.Amount * 2
	winnerBalance, err := s.accounts.CreditTx(ctx, tx, winnerID, pot)
	if err != nil {
		return nil, err
	}
	if winnerID == acceptorID {
		acceptorBalance = winnerBalance
	}

	if err := s.accounts.ApplyStats(ctx, tx, winnerID, ports.StatsDelta{Wins: 1, Wagered: bet.Amount, WinAmount: pot}); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := s.accounts.ApplyStats(ctx, tx, loserID, ports.StatsDelta{Losses: 1, Wagered: bet.Amount}); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	now := time.Now().UTC()
	details, _ := json.Marshal(map[string]interface{}{
		"peer_bet_id":  bet.ID,
		"proposer":     bet.ProposerID,
		"counterparty": bet.CounterpartyID,
		"winner":       winnerID,
		"seed":         bet.Seed,
	})
	for _, side := range []struct {
		account uuid.UUID
		result  domain.RoundResult
		payout  int64
	}{
		{winnerID, domain.RoundResultWin, pot},
		{loserID, domain.RoundResultLoss, 0},
	} {
		round := &domain.GameRound{
			ID:               uuid.New(),
			AccountID:        side.account,
			GameType:         domain.GamePeerBet,
			Stake:            bet.Amount,
			Result:           side.result,
			WinAmount:        side.payout,
			VerificationHash: bet.VerificationHash,
			Details:          details,
			CreatedAt:        now,
		}
		if err := s.rounds.Create(ctx, tx, round); err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
	}

	bet.Status = domain.PeerBetStatusCompleted
	bet.WinnerID = &winnerID
	bet.CompletedAt = &now
	if err := s.bets.UpdateStatus(ctx, tx, bet); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		AccountID:    &acceptorID,
		Action:       domain.AuditActionSettlement,
		ResourceType: "peer_bet",
		ResourceID:   bet.ID.String(),
		CreatedAt:    now,
	})

	return &ports.PeerBetResult{
		Bet:        bet,
		WinnerID:   winnerID,
		Seed:       bet.Seed,
		NewBalance: acceptorBalance,
	}, nil
}

// Cancel returns the escrowed stake to the proposer.
func (s *PeerBetServiceImpl) Cancel(ctx context.Context, accountID, betID uuid.UUID) (*domain.PeerBet, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	bet, err := s.bets.GetByIDForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if bet == nil {
		return nil, apperror.ErrNotFound("peer bet")
	}
	if !bet.CanCancel(accountID) {
		return nil, apperror.ErrBetNotAvailable("bet cannot be cancelled by this account")
	}

	if _, err := s.accounts.CreditTx(ctx, tx, bet.ProposerID, bet.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bet.Status = domain.PeerBetStatusCancelled
	bet.CompletedAt = &now
	if err := s.bets.UpdateStatus(ctx, tx, bet); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	public := *bet
	public.Seed = ""
	return &public, nil
}

// ListOpen returns pending bets the account proposed or may accept.
func (s *PeerBetServiceImpl) ListOpen(ctx context.Context, accountID uuid.UUID) ([]domain.PeerBet, error) {
	bets, err := s.bets.ListOpen(ctx, accountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	for i := range bets {
		bets[i].Seed = ""
	}
	return bets, nil
}
