package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casino-core/internal/core/domain"
	"casino-core/pkg/apperror"

	goredis "github.com/redis/go-redis/v9"
)

// SessionStore implements ports.SessionStore on Redis. Sessions are JSON
// blobs with a TTL safety net; a separate per-(account, game) guard key
// rejects concurrent duplicate sessions.
type SessionStore struct {
	client *goredis.Client
	prefix string
}

// NewSessionStore creates a new Redis-backed game session store.
func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "gsess:",
	}
}

func (s *SessionStore) sessionKey(id string) string {
	return s.prefix + id
}

func (s *SessionStore) guardKey(accountID, gameType string) string {
	return s.prefix + "active:" + accountID + ":" + gameType
}

// Create stores the session and claims the active guard. The guard SET NX is
// the concurrency gate: a second session for the same account+game fails
// with SessionAlreadyActive regardless of request interleaving.
func (s *SessionStore) Create(ctx context.Context, session *domain.GameSession, ttl time.Duration) error {
	guard := s.guardKey(session.AccountID.String(), string(session.GameType))

	ok, err := s.client.SetNX(ctx, guard, session.ID, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis session guard: %w", err)
	}
	if !ok {
		return apperror.ErrSessionAlreadyActive()
	}

	payload, err := json.Marshal(session)
	if err != nil {
		s.client.Del(ctx, guard)
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.sessionKey(session.ID), payload, ttl).Err(); err != nil {
		s.client.Del(ctx, guard)
		return fmt.Errorf("redis session set: %w", err)
	}
	return nil
}

// Get loads a session by id.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.GameSession, error) {
	val, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, apperror.ErrInvalidSession()
		}
		return nil, fmt.Errorf("redis session get: %w", err)
	}

	session := &domain.GameSession{}
	if err := json.Unmarshal(val, session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

// FindActive follows the guard key to the account's live session for a game.
// Returns (nil, nil) when no session is active. A guard pointing at an
// expired session is treated as no session.
func (s *SessionStore) FindActive(ctx context.Context, accountID string, gameType domain.GameType) (*domain.GameSession, error) {
	id, err := s.client.Get(ctx, s.guardKey(accountID, string(gameType))).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis session guard get: %w", err)
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		if apperror.HasCode(err, "SESS_001") {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// Update rewrites the session, keeping the remaining TTL.
func (s *SessionStore) Update(ctx context.Context, session *domain.GameSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	result, err := s.client.SetArgs(ctx, s.sessionKey(session.ID), payload, goredis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			return apperror.ErrInvalidSession()
		}
		return fmt.Errorf("redis session update: %w", err)
	}
	if result != "OK" {
		return apperror.ErrInvalidSession()
	}
	return nil
}

// Claim atomically removes the session. The DEL count decides the winner:
// exactly one caller observes 1 and proceeds to settle.
func (s *SessionStore) Claim(ctx context.Context, session *domain.GameSession) (bool, error) {
	removed, err := s.client.Del(ctx, s.sessionKey(session.ID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis session claim: %w", err)
	}
	if removed == 0 {
		return false, nil
	}

	guard := s.guardKey(session.AccountID.String(), string(session.GameType))
	if err := s.client.Del(ctx, guard).Err(); err != nil {
		// Guard expires with its TTL anyway; the claim already succeeded.
		return true, nil
	}
	return true, nil
}
