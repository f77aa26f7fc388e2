package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GameSession holds in-progress multi-step game state (blackjack hand, mines
// grid, craps point phase). It lives in the session store between game start
// and resolution and is deleted exactly once on the terminal transition.
// State carries the engine-specific payload.
type GameSession struct {
	ID               string          `json:"id"`
	AccountID        uuid.UUID       `json:"account_id"`
	GameType         GameType        `json:"game_type"`
	Stake            int64           `json:"stake"`
	Seed             string          `json:"seed"`              // never exposed pre-settlement
	VerificationHash string          `json:"verification_hash"` // published at start
	State            json.RawMessage `json:"state"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewGameSession allocates a session with a fresh id.
func NewGameSession(accountID uuid.UUID, gameType GameType, stake int64, seed, verificationHash string) *GameSession {
	return &GameSession{
		ID:               uuid.New().String(),
		AccountID:        accountID,
		GameType:         gameType,
		Stake:            stake,
		Seed:             seed,
		VerificationHash: verificationHash,
		CreatedAt:        time.Now().UTC(),
	}
}

// OwnedBy reports whether the session belongs to the given account.
func (s *GameSession) OwnedBy(accountID uuid.UUID) bool {
	return s.AccountID == accountID
}

// SetState marshals the engine state into the session.
func (s *GameSession) SetState(state interface{}) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.State = raw
	return nil
}

// DecodeState unmarshals the engine state out of the session.
func (s *GameSession) DecodeState(dst interface{}) error {
	return json.Unmarshal(s.State, dst)
}
