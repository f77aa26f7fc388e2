package service

import (
	"sync"
	"time"

	"casino-core/pkg/apperror"
)

// GameRules carries the wager bounds and payout caps shared by every engine.
type GameRules struct {
	HouseEdge     float64
	MaxMultiplier float64
	MaxWin        int64
	MinStake      int64
	MaxStake      int64
	SessionTTL    time.Duration
}

// ValidateStake checks a stake against the configured bounds. Runs before
// any funds move.
func (r GameRules) ValidateStake(stake int64) error {
	if stake < r.MinStake {
		return apperror.ErrInvalidStake("stake below minimum")
	}
	if r.MaxStake > 0 && stake > r.MaxStake {
		return apperror.ErrInvalidStake("stake above maximum")
	}
	return nil
}

// CapPayout clamps a payout at the configured absolute maximum win.
func (r GameRules) CapPayout(payout int64) int64 {
	if r.MaxWin > 0 && payout > r.MaxWin {
		return r.MaxWin
	}
	return payout
}

// keyedMutex serializes steps against the same game session within one
// process. Cross-process exclusion still comes from the claim-once delete in
// the session store.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
