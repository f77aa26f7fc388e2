package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxLevel caps account progression.
const MaxLevel = 1000

// Account represents a player account. The balance is owned exclusively by
// the ledger: every mutation goes through an atomic conditional update.
type Account struct {
	ID               uuid.UUID  `json:"id"`
	Username         string     `json:"username"`
	PasswordHash     string     `json:"-"` // Never expose
	SigningSecretEnc string     `json:"-"` // AES-256 encrypted HMAC secret
	Balance          int64      `json:"balance"`
	TotalWins        int64      `json:"total_wins"`
	TotalLosses      int64      `json:"total_losses"`
	TotalWagered     int64      `json:"total_wagered"`
	BiggestWin       int64      `json:"biggest_win"`
	Level            int        `json:"level"`
	XP               int64      `json:"xp"`
	LastDailyBonus   *time.Time `json:"last_daily_bonus,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CanAfford reports whether the account balance covers a stake. Only a hint
// for early validation; the authoritative check is the conditional debit.
func (a *Account) CanAfford(stake int64) bool {
	return stake > 0 && a.Balance >= stake
}

// XPForLevel returns the XP required to advance past the given level.
func XPForLevel(level int) int64 {
	return int64(math.Floor(100 * math.Pow(float64(level), 1.5)))
}

// ApplyXP adds wager XP (1 XP per credit wagered) and advances levels while
// the threshold is crossed. Returns how many levels were gained.
func (a *Account) ApplyXP(amount int64) int {
	if a.Level <= 0 {
		a.Level = 1
	}
	a.XP += amount

	gained := 0
	for a.Level < MaxLevel && a.XP >= XPForLevel(a.Level) {
		a.XP -= XPForLevel(a.Level)
		a.Level++
		gained++
	}
	return gained
}

// DailyBonusReady reports whether the 24h bonus cooldown has elapsed.
func (a *Account) DailyBonusReady(now time.Time) bool {
	return a.LastDailyBonus == nil || now.Sub(*a.LastDailyBonus) >= 24*time.Hour
}

// DailyBonusAmount returns the level-tiered daily bonus.
func (a *Account) DailyBonusAmount() int64 {
	switch {
	case a.Level >= 1000:
		return 10000
	case a.Level >= 500:
		return 5000
	case a.Level >= 250:
		return 2500
	case a.Level >= 100:
		return 1000
	case a.Level >= 50:
		return 500
	case a.Level >= 25:
		return 250
	default:
		return 100
	}
}
