package service

import (
	"context"
	"fmt"
	"math"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const minesGridSize = 25

// minesState is the session payload carried between Reveal calls.
type minesState struct {
	Mines      []int   `json:"mines"`
	Revealed   []int   `json:"revealed"`
	Multiplier float64 `json:"multiplier"`
}

// MinesServiceImpl implements ports.MinesService.
type MinesServiceImpl struct {
	ledger   ports.Ledger
	fair     ports.FairnessEngine
	sessions ports.SessionStore
	rules    GameRules
	locks    *keyedMutex
	log      zerolog.Logger
}

// NewMinesService creates a new MinesServiceImpl.
func NewMinesService(ledger ports.Ledger, fair ports.FairnessEngine, sessions ports.SessionStore, rules GameRules, log zerolog.Logger) *MinesServiceImpl {
	return &MinesServiceImpl{
		ledger:   ledger,
		fair:     fair,
		sessions: sessions,
		rules:    rules,
		locks:    newKeyedMutex(),
		log:      log,
	}
}

// Start escrows the stake and lays out a 5x5 grid with the mines placed by
// the seed-derived permutation.
func (s *MinesServiceImpl) Start(ctx context.Context, accountID uuid.UUID, stake int64, minesCount int) (*ports.MinesView, error) {
	if err := s.rules.ValidateStake(stake); err != nil {
		return nil, err
	}
	if minesCount < 1 || minesCount > minesGridSize-1 {
		return nil, apperror.Validation("mines count must be in [1,24]")
	}

	seed, err := s.fair.NewSeed()
	if err != nil {
		return nil, err
	}

	state := minesState{
		Mines:      s.fair.Shuffle(seed, minesGridSize)[:minesCount],
		Revealed:   []int{},
		Multiplier: 1,
	}

	session := domain.NewGameSession(accountID, domain.GameMines, stake, seed, s.fair.VerificationHash(seed))
	if err := session.SetState(state); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encode grid: %w", err))
	}
	if err := s.sessions.Create(ctx, session, s.rules.SessionTTL); err != nil {
		return nil, err
	}

	if _, err := s.ledger.DebitStake(ctx, accountID, stake); err != nil {
		if _, cerr := s.sessions.Claim(ctx, session); cerr != nil {
			s.log.Warn().Err(cerr).Str("session_id", session.ID).Msg("failed to release session after debit failure")
		}
		return nil, err
	}

	return &ports.MinesView{
		SessionID:        session.ID,
		Revealed:         state.Revealed,
		Multiplier:       1,
		PotentialPayout:  stake,
		VerificationHash: session.VerificationHash,
	}, nil
}

// Reveal opens one cell. A mine loses the stake and reveals the grid; a safe
// cell grows the multiplier by the remaining-odds ratio less the house edge.
func (s *MinesServiceImpl) Reveal(ctx context.Context, accountID uuid.UUID, sessionID string, cell int) (*ports.MinesView, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if cell < 0 || cell >= minesGridSize {
		return nil, apperror.Validation("cell must be in [0,24]")
	}

	session, state, err := s.loadGrid(ctx, accountID, sessionID)
	if err != nil {
		return nil, err
	}
	if containsInt(state.Revealed, cell) {
		return nil, apperror.Validation("cell already revealed")
	}

	if containsInt(state.Mines, cell) {
		claimed, err := s.sessions.Claim(ctx, session)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, apperror.ErrInvalidSession()
		}

		outcome, err := s.settle(ctx, session, state, 0, domain.RoundResultLoss)
		if err != nil {
			if _, rerr := s.ledger.Refund(ctx, session.AccountID, session.Stake, "mines settlement failed"); rerr != nil {
				s.log.Error().Err(rerr).Str("session_id", session.ID).Msg("refund failed after settlement failure")
			}
			return nil, err
		}

		return &ports.MinesView{
			SessionID:        session.ID,
			Revealed:         state.Revealed,
			Multiplier:       state.Multiplier,
			Done:             true,
			Mines:            state.Mines,
			VerificationHash: outcome.VerificationHash,
			Outcome:          outcome,
		}, nil
	}

	cellsRemaining := minesGridSize - len(state.Revealed)
	safeRemaining := cellsRemaining - len(state.Mines)
	state.Multiplier *= float64(cellsRemaining) / float64(safeRemaining) * (1 - s.rules.HouseEdge)
	state.Revealed = append(state.Revealed, cell)

	// Last safe cell: nothing left to reveal, pay out as a cashout.
	if len(state.Revealed) == minesGridSize-len(state.Mines) {
		return s.cashout(ctx, session, state)
	}

	if err := session.SetState(state); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encode grid: %w", err))
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	return &ports.MinesView{
		SessionID:        session.ID,
		Revealed:         state.Revealed,
		Multiplier:       state.Multiplier,
		PotentialPayout:  s.rules.CapPayout(int64(math.Floor(float64(session.Stake) * state.Multiplier))),
		VerificationHash: session.VerificationHash,
	}, nil
}

// Cashout settles the grid at the current multiplier. Requires at least one
// safe reveal.
func (s *MinesServiceImpl) Cashout(ctx context.Context, accountID uuid.UUID, sessionID string) (*ports.MinesView, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, state, err := s.loadGrid(ctx, accountID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(state.Revealed) == 0 {
		return nil, apperror.Validation("cashout requires at least one revealed cell")
	}
	return s.cashout(ctx, session, state)
}

func (s *MinesServiceImpl) cashout(ctx context.Context, session *domain.GameSession, state minesState) (*ports.MinesView, error) {
	claimed, err := s.sessions.Claim(ctx, session)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperror.ErrInvalidSession()
	}

	payout := s.rules.CapPayout(int64(math.Floor(float64(session.Stake) * state.Multiplier)))
	outcome, err := s.settle(ctx, session, state, payout, domain.RoundResultWin)
	if err != nil {
		if _, rerr := s.ledger.Refund(ctx, session.AccountID, session.Stake, "mines settlement failed"); rerr != nil {
			s.log.Error().Err(rerr).Str("session_id", session.ID).Msg("refund failed after settlement failure")
		}
		return nil, err
	}

	return &ports.MinesView{
		SessionID:        session.ID,
		Revealed:         state.Revealed,
		Multiplier:       state.Multiplier,
		PotentialPayout:  payout,
		Done:             true,
		Mines:            state.Mines,
		VerificationHash: outcome.VerificationHash,
		Outcome:          outcome,
	}, nil
}

func (s *MinesServiceImpl) loadGrid(ctx context.Context, accountID uuid.UUID, sessionID string) (*domain.GameSession, minesState, error) {
	var state minesState

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, state, err
	}
	if !session.OwnedBy(accountID) || session.GameType != domain.GameMines {
		return nil, state, apperror.ErrInvalidSession()
	}
	if err := session.DecodeState(&state); err != nil {
		return nil, state, apperror.InternalError(fmt.Errorf("decode grid: %w", err))
	}
	return session, state, nil
}

func (s *MinesServiceImpl) settle(ctx context.Context, session *domain.GameSession, state minesState, payout int64, result domain.RoundResult) (*ports.WagerOutcome, error) {
	settled, err := s.ledger.Settle(ctx, ports.SettleParams{
		AccountID:        session.AccountID,
		GameType:         domain.GameMines,
		Stake:            session.Stake,
		DebitStake:       false,
		Payout:           payout,
		Result:           result,
		Seed:             session.Seed,
		VerificationHash: s.fair.VerificationHash(session.Seed),
		Details: map[string]interface{}{
			"mines":      state.Mines,
			"revealed":   state.Revealed,
			"multiplier": state.Multiplier,
			"seed":       session.Seed,
		},
	})
	if err != nil {
		return nil, err
	}

	return &ports.WagerOutcome{
		Result:           result,
		WinAmount:        payout,
		NewBalance:       settled.NewBalance,
		Seed:             session.Seed,
		VerificationHash: settled.Round.VerificationHash,
	}, nil
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
