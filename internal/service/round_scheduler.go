package service

import (
	"context"
	"sync"
	"time"

	"casino-core/config"
	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RoundScheduler drives the single shared continuous-roulette round through
// its phases and implements ports.RoundService for bet placement. One
// instance runs per process; all request handlers go through its mutex.
type RoundScheduler struct {
	ledger      ports.Ledger
	fair        ports.FairnessEngine
	broadcaster ports.RoundBroadcaster
	cfg         config.RoundConfig
	rules       GameRules
	log         zerolog.Logger

	mu      sync.Mutex
	current *domain.RouletteRound
	seed    string
	history []domain.RoundSymbol
}

// NewRoundScheduler creates the scheduler. Run must be started for rounds to
// progress.
func NewRoundScheduler(ledger ports.Ledger, fair ports.FairnessEngine, broadcaster ports.RoundBroadcaster, cfg config.RoundConfig, rules GameRules, log zerolog.Logger) *RoundScheduler {
	return &RoundScheduler{
		ledger:      ledger,
		fair:        fair,
		broadcaster: broadcaster,
		cfg:         cfg,
		rules:       rules,
		log:         log,
	}
}

// Run loops rounds until the context is cancelled. Each cycle: open a
// betting window, tick it down, freeze, resolve every pooled bet, broadcast,
// rest.
func (s *RoundScheduler) Run(ctx context.Context) {
	for {
		if err := s.openRound(); err != nil {
			s.log.Error().Err(err).Msg("failed to open round")
			if !sleepCtx(ctx, s.cfg.RestInterval) {
				return
			}
			continue
		}

		remaining := int(s.cfg.BettingWindow / s.cfg.TickInterval)
		for i := remaining; i > 0; i-- {
			s.setSecondsLeft(i)
			s.broadcaster.BroadcastTick(domain.RoundPhaseOpen, i)
			if !sleepCtx(ctx, s.cfg.TickInterval) {
				s.refundOpenBets(context.Background())
				return
			}
		}

		s.setPhase(domain.RoundPhaseClosed)
		s.broadcaster.BroadcastTick(domain.RoundPhaseClosed, 0)

		// Detach from the loop context: a closed round always settles to
		// completion, even when shutdown lands mid-resolution.
		outcome := s.resolve(context.Background())
		s.broadcaster.BroadcastOutcome(outcome)

		if !sleepCtx(ctx, s.cfg.RestInterval) {
			return
		}
	}
}

// PlaceBet escrows a stake into the open round. Rejected once the countdown
// has frozen the round or the account is at its per-round bet limit.
func (s *RoundScheduler) PlaceBet(ctx context.Context, accountID uuid.UUID, stake int64, symbol domain.RoundSymbol) (*domain.RoundBet, error) {
	if err := s.rules.ValidateStake(stake); err != nil {
		return nil, err
	}
	switch symbol {
	case domain.SymbolMoon, domain.SymbolStar, domain.SymbolSun:
	default:
		return nil, apperror.Validation("unknown round symbol")
	}

	s.mu.Lock()
	round := s.current
	if round == nil || !round.AcceptsBets() {
		s.mu.Unlock()
		return nil, apperror.ErrBettingClosed()
	}
	if round.BetsByAccount(accountID) >= s.cfg.MaxBetsPerAccount {
		s.mu.Unlock()
		return nil, apperror.ErrBetLimitReached()
	}
	s.mu.Unlock()

	// Escrow outside the mutex; re-check the phase before pooling so a bet
	// debited during the freeze is refunded rather than dropped.
	if _, err := s.ledger.DebitStake(ctx, accountID, stake); err != nil {
		return nil, err
	}

	bet := domain.RoundBet{
		ID:        uuid.New(),
		AccountID: accountID,
		Stake:     stake,
		Symbol:    symbol,
		PlacedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	round = s.current
	if round == nil || !round.AcceptsBets() {
		s.mu.Unlock()
		if _, err := s.ledger.Refund(ctx, accountID, stake, "round closed during bet placement"); err != nil {
			s.log.Error().Err(err).Str("account_id", accountID.String()).Msg("refund failed for late round bet")
		}
		return nil, apperror.ErrBettingClosed()
	}
	round.Bets = append(round.Bets, bet)
	s.mu.Unlock()

	s.broadcaster.BroadcastBet(bet)
	return &bet, nil
}

// Snapshot returns a copy of the current round for the polling endpoint.
func (s *RoundScheduler) Snapshot() *domain.RouletteRound {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	snapshot := *s.current
	snapshot.Bets = append([]domain.RoundBet(nil), s.current.Bets...)
	return &snapshot
}

// History returns the recent outcome symbols, newest first.
func (s *RoundScheduler) History() []domain.RoundSymbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RoundSymbol(nil), s.history...)
}

func (s *RoundScheduler) openRound() error {
	seed, err := s.fair.NewSeed()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.seed = seed
	s.current = &domain.RouletteRound{
		ID:          uuid.New(),
		Phase:       domain.RoundPhaseOpen,
		SecondsLeft: int(s.cfg.BettingWindow / s.cfg.TickInterval),
		Bets:        []domain.RoundBet{},
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Unlock()
	return nil
}

func (s *RoundScheduler) setSecondsLeft(n int) {
	s.mu.Lock()
	if s.current != nil {
		s.current.SecondsLeft = n
	}
	s.mu.Unlock()
}

func (s *RoundScheduler) setPhase(phase domain.RoundPhase) {
	s.mu.Lock()
	if s.current != nil {
		s.current.Phase = phase
		if phase != domain.RoundPhaseOpen {
			s.current.SecondsLeft = 0
		}
	}
	s.mu.Unlock()
}

// resolve draws the symbol, settles every pooled bet individually and
// returns the broadcastable outcome. A single bet's settlement failure
// refunds that bet and never aborts the round.
func (s *RoundScheduler) resolve(ctx context.Context) *domain.RoundOutcome {
	s.setPhase(domain.RoundPhaseResolving)

	s.mu.Lock()
	round := s.current
	seed := s.seed
	bets := append([]domain.RoundBet(nil), round.Bets...)
	s.mu.Unlock()

	symbol := drawRoundSymbol(s.fair.Roll(seed))

	outcome := &domain.RoundOutcome{
		RoundID:          round.ID,
		Symbol:           symbol,
		Seed:             seed,
		VerificationHash: s.fair.VerificationHash(seed),
		Settlements:      make([]domain.BetSettlement, 0, len(bets)),
		ResolvedAt:       time.Now().UTC(),
	}

	for _, bet := range bets {
		won := bet.Symbol == symbol
		var payout int64
		result := domain.RoundResultLoss
		if won {
			payout = s.rules.CapPayout(bet.Stake * domain.SymbolMultiplier(symbol))
			result = domain.RoundResultWin
		}

		settled, err := s.ledger.Settle(ctx, ports.SettleParams{
			AccountID:        bet.AccountID,
			GameType:         domain.GameRouletteRound,
			Stake:            bet.Stake,
			DebitStake:       false,
			Payout:           payout,
			Result:           result,
			Seed:             seed,
			VerificationHash: outcome.VerificationHash,
			Details: map[string]interface{}{
				"round_id": round.ID,
				"symbol":   symbol,
				"bet":      bet,
				"seed":     seed,
			},
		})
		if err != nil {
			s.log.Error().Err(err).Str("bet_id", bet.ID.String()).Msg("round bet settlement failed")
			if _, rerr := s.ledger.Refund(ctx, bet.AccountID, bet.Stake, "round settlement failed"); rerr != nil {
				s.log.Error().Err(rerr).Str("bet_id", bet.ID.String()).Msg("refund failed after settlement failure")
			}
			continue
		}

		outcome.Settlements = append(outcome.Settlements, domain.BetSettlement{
			BetID:      bet.ID,
			AccountID:  bet.AccountID,
			Stake:      bet.Stake,
			Symbol:     bet.Symbol,
			Won:        won,
			WinAmount:  payout,
			NewBalance: settled.NewBalance,
		})
	}

	s.setPhase(domain.RoundPhaseBroadcasting)

	s.mu.Lock()
	s.history = append([]domain.RoundSymbol{symbol}, s.history...)
	if len(s.history) > s.cfg.HistoryLength {
		s.history = s.history[:s.cfg.HistoryLength]
	}
	s.mu.Unlock()

	return outcome
}

// refundOpenBets returns escrowed stakes when shutdown interrupts an open
// round.
func (s *RoundScheduler) refundOpenBets(ctx context.Context) {
	s.mu.Lock()
	round := s.current
	s.current = nil
	s.mu.Unlock()

	if round == nil {
		return
	}
	for _, bet := range round.Bets {
		if _, err := s.ledger.Refund(ctx, bet.AccountID, bet.Stake, "round aborted at shutdown"); err != nil {
			s.log.Error().Err(err).Str("bet_id", bet.ID.String()).Msg("shutdown refund failed")
		}
	}
}

// drawRoundSymbol maps a uniform roll onto the 45/45/10 symbol weights.
func drawRoundSymbol(roll float64) domain.RoundSymbol {
	switch {
	case roll < 0.45:
		return domain.SymbolMoon
	case roll < 0.90:
		return domain.SymbolStar
	default:
		return domain.SymbolSun
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
