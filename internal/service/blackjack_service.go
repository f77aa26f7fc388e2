package service

import (
	"context"
	"fmt"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// blackjackState is the session payload carried between Hit/Stand calls.
type blackjackState struct {
	Deck   []domain.Card `json:"deck"` // remaining cards, dealt from the front
	Player []domain.Card `json:"player"`
	Dealer []domain.Card `json:"dealer"`
}

// BlackjackServiceImpl implements ports.BlackjackService.
type BlackjackServiceImpl struct {
	ledger   ports.Ledger
	fair     ports.FairnessEngine
	sessions ports.SessionStore
	rules    GameRules
	locks    *keyedMutex
	log      zerolog.Logger
}

// NewBlackjackService creates a new BlackjackServiceImpl.
func NewBlackjackService(ledger ports.Ledger, fair ports.FairnessEngine, sessions ports.SessionStore, rules GameRules, log zerolog.Logger) *BlackjackServiceImpl {
	return &BlackjackServiceImpl{
		ledger:   ledger,
		fair:     fair,
		sessions: sessions,
		rules:    rules,
		locks:    newKeyedMutex(),
		log:      log,
	}
}

// Start deals a new hand from a seed-shuffled deck. A natural settles
// immediately; otherwise the stake is escrowed and the hand lives in the
// session store until Hit/Stand resolves it.
func (s *BlackjackServiceImpl) Start(ctx context.Context, accountID uuid.UUID, stake int64) (*ports.BlackjackView, error) {
	if err := s.rules.ValidateStake(stake); err != nil {
		return nil, err
	}

	seed, err := s.fair.NewSeed()
	if err != nil {
		return nil, err
	}

	deck := shuffledDeck(s.fair, seed)
	state := blackjackState{
		Player: []domain.Card{deck[0], deck[2]},
		Dealer: []domain.Card{deck[1], deck[3]},
		Deck:   deck[4:],
	}

	// A natural two-card 21 resolves without a session: the dealer checks
	// for a matching natural and the hand settles in one transaction.
	if domain.IsNatural(state.Player) {
		payout := stake + stake*3/2 // 3:2
		result := domain.RoundResultWin
		if domain.IsNatural(state.Dealer) {
			payout = stake
			result = domain.RoundResultPush
		}
		outcome, err := s.settle(ctx, accountID, stake, true, payout, result, seed, state)
		if err != nil {
			return nil, err
		}
		return s.terminalView("", state, outcome), nil
	}

	session := domain.NewGameSession(accountID, domain.GameBlackjack, stake, seed, s.fair.VerificationHash(seed))
	if err := session.SetState(state); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encode hand: %w", err))
	}
	if err := s.sessions.Create(ctx, session, s.rules.SessionTTL); err != nil {
		return nil, err
	}

	if _, err := s.ledger.DebitStake(ctx, accountID, stake); err != nil {
		// Free the guard so the account is not stuck with a phantom hand.
		if _, cerr := s.sessions.Claim(ctx, session); cerr != nil {
			s.log.Warn().Err(cerr).Str("session_id", session.ID).Msg("failed to release session after debit failure")
		}
		return nil, err
	}

	return &ports.BlackjackView{
		SessionID:        session.ID,
		PlayerHand:       state.Player,
		DealerHand:       state.Dealer[:1],
		PlayerValue:      domain.HandValue(state.Player),
		VerificationHash: session.VerificationHash,
	}, nil
}

// Hit draws one card. A bust resolves the hand; a 21 stands automatically.
func (s *BlackjackServiceImpl) Hit(ctx context.Context, accountID uuid.UUID, sessionID string) (*ports.BlackjackView, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, state, err := s.loadHand(ctx, accountID, sessionID)
	if err != nil {
		return nil, err
	}

	state.Player = append(state.Player, state.Deck[0])
	state.Deck = state.Deck[1:]

	value := domain.HandValue(state.Player)
	switch {
	case value > 21:
		return s.resolve(ctx, session, state, false)
	case value == 21:
		return s.resolve(ctx, session, state, true)
	}

	if err := session.SetState(state); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encode hand: %w", err))
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	return &ports.BlackjackView{
		SessionID:        session.ID,
		PlayerHand:       state.Player,
		DealerHand:       state.Dealer[:1],
		PlayerValue:      value,
		VerificationHash: session.VerificationHash,
	}, nil
}

// Stand finishes the player's turn and plays out the dealer.
func (s *BlackjackServiceImpl) Stand(ctx context.Context, accountID uuid.UUID, sessionID string) (*ports.BlackjackView, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, state, err := s.loadHand(ctx, accountID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, session, state, true)
}

func (s *BlackjackServiceImpl) loadHand(ctx context.Context, accountID uuid.UUID, sessionID string) (*domain.GameSession, blackjackState, error) {
	var state blackjackState

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, state, err
	}
	if !session.OwnedBy(accountID) || session.GameType != domain.GameBlackjack {
		return nil, state, apperror.ErrInvalidSession()
	}
	if err := session.DecodeState(&state); err != nil {
		return nil, state, apperror.InternalError(fmt.Errorf("decode hand: %w", err))
	}
	return session, state, nil
}

// resolve plays the dealer (when the player has not busted), claims the
// session exactly once and settles. A settlement failure refunds the stake.
func (s *BlackjackServiceImpl) resolve(ctx context.Context, session *domain.GameSession, state blackjackState, dealerPlays bool) (*ports.BlackjackView, error) {
	playerValue := domain.HandValue(state.Player)
	result := domain.RoundResultLoss
	var payout int64

	if dealerPlays {
		// Dealer draws to 17, stands on all 17s.
		for domain.HandValue(state.Dealer) < 17 {
			state.Dealer = append(state.Dealer, state.Deck[0])
			state.Deck = state.Deck[1:]
		}
		dealerValue := domain.HandValue(state.Dealer)
		switch {
		case dealerValue > 21 || playerValue > dealerValue:
			result = domain.RoundResultWin
			payout = session.Stake * 2
		case playerValue == dealerValue:
			result = domain.RoundResultPush
			payout = session.Stake
		}
	}

	claimed, err := s.sessions.Claim(ctx, session)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperror.ErrInvalidSession()
	}

	outcome, err := s.settle(ctx, session.AccountID, session.Stake, false, payout, result, session.Seed, state)
	if err != nil {
		if _, rerr := s.ledger.Refund(ctx, session.AccountID, session.Stake, "blackjack settlement failed"); rerr != nil {
			s.log.Error().Err(rerr).Str("session_id", session.ID).Msg("refund failed after settlement failure")
		}
		return nil, err
	}

	return s.terminalView(session.ID, state, outcome), nil
}

func (s *BlackjackServiceImpl) settle(ctx context.Context, accountID uuid.UUID, stake int64, debitStake bool, payout int64, result domain.RoundResult, seed string, state blackjackState) (*ports.WagerOutcome, error) {
	payout = s.rules.CapPayout(payout)

	settled, err := s.ledger.Settle(ctx, ports.SettleParams{
		AccountID:        accountID,
		GameType:         domain.GameBlackjack,
		Stake:            stake,
		DebitStake:       debitStake,
		Payout:           payout,
		Result:           result,
		Seed:             seed,
		VerificationHash: s.fair.VerificationHash(seed),
		Details: map[string]interface{}{
			"player_hand": state.Player,
			"dealer_hand": state.Dealer,
			"seed":        seed,
		},
	})
	if err != nil {
		return nil, err
	}

	return &ports.WagerOutcome{
		Result:           result,
		WinAmount:        payout,
		NewBalance:       settled.NewBalance,
		Seed:             seed,
		VerificationHash: settled.Round.VerificationHash,
	}, nil
}

func (s *BlackjackServiceImpl) terminalView(sessionID string, state blackjackState, outcome *ports.WagerOutcome) *ports.BlackjackView {
	return &ports.BlackjackView{
		SessionID:        sessionID,
		PlayerHand:       state.Player,
		DealerHand:       state.Dealer,
		PlayerValue:      domain.HandValue(state.Player),
		DealerValue:      domain.HandValue(state.Dealer),
		Done:             true,
		VerificationHash: outcome.VerificationHash,
		Outcome:          outcome,
	}
}

// shuffledDeck orders a fresh deck by the seed-derived permutation.
func shuffledDeck(fair ports.FairnessEngine, seed string) []domain.Card {
	base := domain.NewDeck()
	perm := fair.Shuffle(seed, len(base))
	deck := make([]domain.Card, len(base))
	for i, p := range perm {
		deck[i] = base[p]
	}
	return deck
}
