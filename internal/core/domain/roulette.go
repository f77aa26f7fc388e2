package domain

import (
	"time"

	"github.com/google/uuid"
)

// redNumbers is the standard 18-number red set for single-wager roulette.
var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// IsRed reports whether a roulette pocket is red. Zero is neither color.
func IsRed(n int) bool {
	return redNumbers[n]
}

// RoundPhase is the scheduler state for the shared continuous round.
type RoundPhase string

const (
	RoundPhaseOpen         RoundPhase = "OPEN"
	RoundPhaseClosed       RoundPhase = "CLOSED"
	RoundPhaseResolving    RoundPhase = "RESOLVING"
	RoundPhaseBroadcasting RoundPhase = "BROADCASTING"
)

// RoundSymbol is a continuous-roulette outcome symbol.
type RoundSymbol string

const (
	SymbolMoon RoundSymbol = "moon"
	SymbolStar RoundSymbol = "star"
	SymbolSun  RoundSymbol = "sun"
)

// SymbolMultiplier returns the payout multiplier for a winning round bet.
func SymbolMultiplier(s RoundSymbol) int64 {
	if s == SymbolSun {
		return 14
	}
	return 2
}

// RoundBet is one escrowed bet pooled into the shared round.
type RoundBet struct {
	ID        uuid.UUID   `json:"id"`
	AccountID uuid.UUID   `json:"account_id"`
	Stake     int64       `json:"stake"`
	Symbol    RoundSymbol `json:"symbol"`
	PlacedAt  time.Time   `json:"placed_at"`
}

// RouletteRound is the single system-wide betting window. Created when a
// round opens, frozen at countdown zero, resolved exactly once, then
// discarded after the broadcast.
type RouletteRound struct {
	ID          uuid.UUID  `json:"id"`
	Phase       RoundPhase `json:"phase"`
	SecondsLeft int        `json:"seconds_left"`
	Bets        []RoundBet `json:"bets"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AcceptsBets reports whether the round is still taking bets.
func (r *RouletteRound) AcceptsBets() bool {
	return r.Phase == RoundPhaseOpen
}

// BetsByAccount counts pooled bets for one account in this round.
func (r *RouletteRound) BetsByAccount(accountID uuid.UUID) int {
	n := 0
	for _, b := range r.Bets {
		if b.AccountID == accountID {
			n++
		}
	}
	return n
}

// BetSettlement is one pooled bet's result inside the round broadcast.
type BetSettlement struct {
	BetID      uuid.UUID   `json:"bet_id"`
	AccountID  uuid.UUID   `json:"account_id"`
	Stake      int64       `json:"stake"`
	Symbol     RoundSymbol `json:"symbol"`
	Won        bool        `json:"won"`
	WinAmount  int64       `json:"win_amount"`
	NewBalance int64       `json:"new_balance"`
}

// RoundOutcome is the resolved result broadcast to all participants.
type RoundOutcome struct {
	RoundID          uuid.UUID       `json:"round_id"`
	Symbol           RoundSymbol     `json:"symbol"`
	Seed             string          `json:"seed"`
	VerificationHash string          `json:"verification_hash"`
	Settlements      []BetSettlement `json:"settlements"`
	ResolvedAt       time.Time       `json:"resolved_at"`
}
