package domain

import (
	"time"

	"github.com/google/uuid"
)

// PeerBetStatus is the lifecycle state of a two-party wager.
type PeerBetStatus string

const (
	PeerBetStatusPending   PeerBetStatus = "PENDING"
	PeerBetStatusCompleted PeerBetStatus = "COMPLETED"
	PeerBetStatusRejected  PeerBetStatus = "REJECTED"
	PeerBetStatusCancelled PeerBetStatus = "CANCELLED"
)

// PeerBet is a head-to-head coin-flip wager. The proposer's stake is escrowed
// at creation; only the named counterparty may accept, only the proposer may
// cancel. COMPLETED, REJECTED and CANCELLED are terminal.
type PeerBet struct {
	ID               uuid.UUID     `json:"id"`
	ProposerID       uuid.UUID     `json:"proposer_id"`
	CounterpartyID   uuid.UUID     `json:"counterparty_id"`
	Amount           int64         `json:"amount"`
	Status           PeerBetStatus `json:"status"`
	WinnerID         *uuid.UUID    `json:"winner_id,omitempty"`
	Seed             string        `json:"seed,omitempty"` // revealed on completion
	VerificationHash string        `json:"verification_hash"`
	CreatedAt        time.Time     `json:"created_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// IsTerminal returns true once the bet can no longer change state.
func (b *PeerBet) IsTerminal() bool {
	return b.Status != PeerBetStatusPending
}

// CanAccept reports whether the given account may accept the bet.
func (b *PeerBet) CanAccept(accountID uuid.UUID) bool {
	return b.Status == PeerBetStatusPending && b.CounterpartyID == accountID
}

// CanCancel reports whether the given account may cancel the bet.
func (b *PeerBet) CanCancel(accountID uuid.UUID) bool {
	return b.Status == PeerBetStatusPending && b.ProposerID == accountID
}
