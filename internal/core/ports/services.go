package ports

import (
	"context"
	"time"

	"casino-core/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
	BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(accountID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AccountID uuid.UUID
	Username  string
}

// FairnessEngine derives deterministic outcomes from a per-wager seed and
// publishes the hash that lets a third party verify them later.
type FairnessEngine interface {
	// NewSeed returns a cryptographically strong hex seed.
	NewSeed() (string, error)
	// VerificationHash returns the hash published at settlement.
	VerificationHash(seed string) string
	// Roll maps the seed to a uniform sample in [0,1).
	Roll(seed string) float64
	// RollIndex derives the i-th independent sub-draw from the same seed.
	RollIndex(seed string, index int) float64
	// Shuffle returns a deterministic permutation of [0,n).
	Shuffle(seed string, n int) []int
}

// --- Service Ports (Business Logic) ---

// AuthService defines registration and login.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*RegisterResult, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// RegisterResult holds the registration output shown once.
type RegisterResult struct {
	AccountID     uuid.UUID
	Username      string
	Balance       int64
	SigningSecret string // plaintext, shown only at registration
	Token         string
	TokenExpiry   time.Time
}

// LoginResult holds a successful login.
type LoginResult struct {
	AccountID   uuid.UUID
	Username    string
	Balance     int64
	Token       string
	TokenExpiry time.Time
}

// WagerOutcome is the shared settlement result embedded in every game reply.
type WagerOutcome struct {
	Result           domain.RoundResult `json:"result"`
	WinAmount        int64              `json:"win_amount"`
	NewBalance       int64              `json:"new_balance"`
	Seed             string             `json:"seed"`
	VerificationHash string             `json:"verification_hash"`
}

// SlotsService plays one spin.
type SlotsService interface {
	Play(ctx context.Context, accountID uuid.UUID, stake int64) (*SlotsResult, error)
}

type SlotsResult struct {
	WagerOutcome
	Symbols    []string `json:"symbols"`
	Multiplier float64  `json:"multiplier"`
}

// RouletteService plays one single-wager spin.
type RouletteService interface {
	Play(ctx context.Context, accountID uuid.UUID, stake int64, bet RouletteBet) (*RouletteResult, error)
}

// RouletteBet holds the chosen bet. Kind: number, color, parity.
type RouletteBet struct {
	Kind   string // "number", "color", "parity"
	Number int    // for kind=number, 0..36
	Choice string // "red"/"black" or "even"/"odd"
}

type RouletteResult struct {
	WagerOutcome
	Pocket int    `json:"pocket"`
	Color  string `json:"color"` // "red", "black", "green"
}

// DiceService plays one roll-under / roll-over wager.
type DiceService interface {
	Play(ctx context.Context, accountID uuid.UUID, stake int64, target int, mode string) (*DiceResult, error)
}

type DiceResult struct {
	WagerOutcome
	Roll       int     `json:"roll"`
	Target     int     `json:"target"`
	Mode       string  `json:"mode"`
	Multiplier float64 `json:"multiplier"`
}

// BlackjackService runs a multi-step hand against a session.
type BlackjackService interface {
	Start(ctx context.Context, accountID uuid.UUID, stake int64) (*BlackjackView, error)
	Hit(ctx context.Context, accountID uuid.UUID, sessionID string) (*BlackjackView, error)
	Stand(ctx context.Context, accountID uuid.UUID, sessionID string) (*BlackjackView, error)
}

// BlackjackView is the hand state returned after every step. DealerHand only
// shows the up card until the hand is terminal; Outcome and Seed are set only
// at settlement.
type BlackjackView struct {
	SessionID        string        `json:"session_id"`
	PlayerHand       []domain.Card `json:"player_hand"`
	DealerHand       []domain.Card `json:"dealer_hand"`
	PlayerValue      int           `json:"player_value"`
	DealerValue      int           `json:"dealer_value,omitempty"`
	Done             bool          `json:"done"`
	VerificationHash string        `json:"verification_hash"`
	Outcome          *WagerOutcome `json:"outcome,omitempty"`
}

// MinesService runs a mines grid against a session.
type MinesService interface {
	Start(ctx context.Context, accountID uuid.UUID, stake int64, minesCount int) (*MinesView, error)
	Reveal(ctx context.Context, accountID uuid.UUID, sessionID string, cell int) (*MinesView, error)
	Cashout(ctx context.Context, accountID uuid.UUID, sessionID string) (*MinesView, error)
}

// MinesView is the grid state after every step. Mines is populated only once
// the game is terminal.
type MinesView struct {
	SessionID        string        `json:"session_id"`
	Revealed         []int         `json:"revealed"`
	Multiplier       float64       `json:"multiplier"`
	PotentialPayout  int64         `json:"potential_payout"`
	Done             bool          `json:"done"`
	Mines            []int         `json:"mines,omitempty"`
	VerificationHash string        `json:"verification_hash"`
	Outcome          *WagerOutcome `json:"outcome,omitempty"`
}

// CrapsService places bets and rolls against a craps session. A session is
// created lazily on the first bet and persists while point-phase bets are
// pending.
type CrapsService interface {
	PlaceBet(ctx context.Context, accountID uuid.UUID, bet CrapsBetRequest) (*CrapsView, error)
	Roll(ctx context.Context, accountID uuid.UUID) (*CrapsView, error)
}

// CrapsBetRequest is one bet added to the account's craps session.
type CrapsBetRequest struct {
	Kind   string // pass, dont_pass, field, proposition, hard_way, place
	Target int    // total for proposition/hard_way/place bets
	Stake  int64
}

// CrapsBetState is a live bet carried in the craps session.
type CrapsBetState struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Target int    `json:"target"`
	Stake  int64  `json:"stake"`
}

// CrapsResolution is one bet's outcome against a single roll.
type CrapsResolution struct {
	Bet       CrapsBetState `json:"bet"`
	Status    string        `json:"status"` // win, loss, pending
	WinAmount int64         `json:"win_amount"`
}

// CrapsView is the table state after a bet or roll.
type CrapsView struct {
	SessionID        string            `json:"session_id"`
	Dice             []int             `json:"dice,omitempty"`
	Point            int               `json:"point"` // 0 = come-out phase
	Resolutions      []CrapsResolution `json:"resolutions,omitempty"`
	PendingBets      []CrapsBetState   `json:"pending_bets"`
	NewBalance       int64             `json:"new_balance"`
	VerificationHash string            `json:"verification_hash"`
	Seed             string            `json:"seed,omitempty"` // revealed when no bets remain
}

// PeerBetService manages head-to-head coin-flip wagers.
type PeerBetService interface {
	Propose(ctx context.Context, proposerID, counterpartyID uuid.UUID, amount int64) (*domain.PeerBet, error)
	Accept(ctx context.Context, acceptorID, betID uuid.UUID) (*PeerBetResult, error)
	Cancel(ctx context.Context, accountID, betID uuid.UUID) (*domain.PeerBet, error)
	ListOpen(ctx context.Context, accountID uuid.UUID) ([]domain.PeerBet, error)
}

// PeerBetResult is the settled flip.
type PeerBetResult struct {
	Bet        *domain.PeerBet `json:"bet"`
	WinnerID   uuid.UUID       `json:"winner_id"`
	Seed       string          `json:"seed"`
	NewBalance int64           `json:"new_balance"` // acceptor's post-settlement balance
}

// RoundService is the handler-facing face of the continuous-roulette
// scheduler: place a bet into the open round, read the current snapshot.
type RoundService interface {
	PlaceBet(ctx context.Context, accountID uuid.UUID, stake int64, symbol domain.RoundSymbol) (*domain.RoundBet, error)
	Snapshot() *domain.RouletteRound
	History() []domain.RoundSymbol
}

// BonusService grants the cooldown-gated daily bonus.
type BonusService interface {
	Claim(ctx context.Context, accountID uuid.UUID) (*BonusResult, error)
}

type BonusResult struct {
	Amount     int64 `json:"amount"`
	NewBalance int64 `json:"new_balance"`
}

// PurchaseService credits confirmed external purchases exactly once.
type PurchaseService interface {
	ConfirmPurchase(ctx context.Context, accountID uuid.UUID, paymentRef string, coins int64) (*PurchaseResult, error)
}

type PurchaseResult struct {
	PaymentRef string `json:"payment_ref"`
	Coins      int64  `json:"coins"`
	NewBalance int64  `json:"new_balance"`
	Duplicate  bool   `json:"duplicate"` // true when served from the idempotency log
}

// LeaderboardService ranks accounts over lifetime counters.
type LeaderboardService interface {
	Top(ctx context.Context, field LeaderboardField, limit int) ([]LeaderboardEntry, error)
}

type LeaderboardEntry struct {
	Username   string `json:"username"`
	Balance    int64  `json:"balance"`
	Wagered    int64  `json:"total_wagered"`
	BiggestWin int64  `json:"biggest_win"`
	Level      int    `json:"level"`
}

// HistoryService reads an account's settled rounds.
type HistoryService interface {
	List(ctx context.Context, params HistoryListParams) ([]domain.GameRound, int64, error)
}

// AuditService records audit events without blocking the request path.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// Ledger is the single authority for balance movement. Game engines never
// touch the account table directly.
type Ledger interface {
	// DebitStake escrows a stake with the conditional update. Returns the
	// post-debit balance.
	DebitStake(ctx context.Context, accountID uuid.UUID, stake int64) (int64, error)

	// Settle runs the full settlement transaction: optional debit, payout
	// credit, stats, progression, history record. All-or-nothing.
	Settle(ctx context.Context, params SettleParams) (*SettleResult, error)

	// Refund is the compensating credit for a stake that was escrowed but
	// whose settlement failed. Logged for audit either way.
	Refund(ctx context.Context, accountID uuid.UUID, amount int64, reason string) (int64, error)

	// Transfer atomically moves credits between two accounts.
	Transfer(ctx context.Context, from, to uuid.UUID, amount int64) error
}

// SettleParams describes one wager settlement.
type SettleParams struct {
	AccountID        uuid.UUID
	GameType         domain.GameType
	Stake            int64
	DebitStake       bool // false when the stake was escrowed earlier
	Payout           int64
	Result           domain.RoundResult
	Seed             string
	VerificationHash string
	Details          interface{} // marshaled into the history record
}

// SettleResult is the committed settlement.
type SettleResult struct {
	NewBalance   int64
	Round        *domain.GameRound
	LevelsGained int
}
