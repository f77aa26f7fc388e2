package ports

import (
	"context"
	"time"

	"casino-core/internal/core/domain"
)

// SessionStore holds transient multi-step game state in a shared keyed store
// with TTL expiry as a safety net against orphaned sessions.
type SessionStore interface {
	// Create stores a new session and sets the per-(account, game) active
	// guard. apperror.ErrSessionAlreadyActive when a guard already exists.
	Create(ctx context.Context, session *domain.GameSession, ttl time.Duration) error

	// Get loads a session. apperror.ErrInvalidSession when missing.
	Get(ctx context.Context, sessionID string) (*domain.GameSession, error)

	// Update rewrites session state, preserving the remaining TTL.
	Update(ctx context.Context, session *domain.GameSession) error

	// FindActive resolves the account's live session for a game via the
	// active guard. Returns (nil, nil) when there is none.
	FindActive(ctx context.Context, accountID string, gameType domain.GameType) (*domain.GameSession, error)

	// Claim atomically removes the session and its active guard. Returns
	// true only for the caller that performed the removal, so a terminal
	// transition settles exactly once.
	Claim(ctx context.Context, session *domain.GameSession) (bool, error)
}

// NonceStore manages nonce uniqueness for replay attack prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, accountID string, nonce string, ttl time.Duration) (bool, error)
}

// TxLockStore serializes wager-mutating requests per account: at most one
// in flight, a concurrent second request is rejected rather than queued.
type TxLockStore interface {
	Acquire(ctx context.Context, accountID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, accountID string) error
}

// FraudStore tracks distinct IPs per account and accounts per IP for the
// informational risk heuristics.
type FraudStore interface {
	// Track records the (account, ip) observation and returns the current
	// distinct-IP count for the account and distinct-account count for the IP.
	Track(ctx context.Context, accountID, ip string, window time.Duration) (ipsForAccount int64, accountsForIP int64, err error)
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RoundBroadcaster publishes round events to connected clients.
// Delivery is fire-and-forget; the scheduler never blocks on it.
type RoundBroadcaster interface {
	BroadcastTick(phase domain.RoundPhase, secondsLeft int)
	BroadcastBet(bet domain.RoundBet)
	BroadcastOutcome(outcome *domain.RoundOutcome)
}
