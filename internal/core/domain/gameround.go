package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GameType identifies a game engine.
type GameType string

const (
	GameSlots         GameType = "SLOTS"
	GameRoulette      GameType = "ROULETTE"
	GameRouletteRound GameType = "ROULETTE_ROUND" // continuous shared-round mode
	GameBlackjack     GameType = "BLACKJACK"
	GameDice          GameType = "DICE"
	GameCraps         GameType = "CRAPS"
	GameMines         GameType = "MINES"
	GamePeerBet       GameType = "PEER_BET"
)

// RoundResult is the settled outcome of a wager.
type RoundResult string

const (
	RoundResultWin  RoundResult = "WIN"
	RoundResultLoss RoundResult = "LOSS"
	RoundResultPush RoundResult = "PUSH"
)

// GameRound is the immutable history record of a settled wager. Details holds
// the game-specific payload (symbols, cards, dice, revealed seed,
// verification hash). Never mutated after creation.
type GameRound struct {
	ID               uuid.UUID       `json:"id"`
	AccountID        uuid.UUID       `json:"account_id"`
	GameType         GameType        `json:"game_type"`
	Stake            int64           `json:"stake"`
	Result           RoundResult     `json:"result"`
	WinAmount        int64           `json:"win_amount"`
	VerificationHash string          `json:"verification_hash"`
	Details          json.RawMessage `json:"details"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Net returns the balance delta the round produced (payout minus stake).
func (r *GameRound) Net() int64 {
	return r.WinAmount - r.Stake
}
