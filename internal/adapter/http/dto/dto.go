package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32,alphanum"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is returned once at registration. SigningSecret is the
// only time the plaintext request-signing secret leaves the system.
type RegisterResponse struct {
	AccountID     string `json:"account_id"`
	Username      string `json:"username"`
	Balance       int64  `json:"balance"`
	SigningSecret string `json:"signing_secret"`
	Token         string `json:"token"`
	TokenExpiry   int64  `json:"token_expiry"` // Unix timestamp
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	AccountID   string `json:"account_id"`
	Username    string `json:"username"`
	Balance     int64  `json:"balance"`
	Token       string `json:"token"`
	TokenExpiry int64  `json:"token_expiry"` // Unix timestamp
}

// SlotsPlayRequest is one slots spin.
type SlotsPlayRequest struct {
	Stake int64 `json:"stake" binding:"required,gt=0"`
}

// RoulettePlayRequest is one single-wager roulette spin.
type RoulettePlayRequest struct {
	Stake  int64  `json:"stake" binding:"required,gt=0"`
	Kind   string `json:"kind" binding:"required,oneof=number color parity"`
	Number int    `json:"number" binding:"gte=0,lte=36"`
	Choice string `json:"choice,omitempty"`
}

// DicePlayRequest is one roll-under / roll-over wager.
type DicePlayRequest struct {
	Stake  int64  `json:"stake" binding:"required,gt=0"`
	Target int    `json:"target" binding:"required,gte=2,lte=98"`
	Mode   string `json:"mode" binding:"required,oneof=under over"`
}

// BlackjackStartRequest opens a blackjack hand.
type BlackjackStartRequest struct {
	Stake int64 `json:"stake" binding:"required,gt=0"`
}

// MinesStartRequest opens a mines grid.
type MinesStartRequest struct {
	Stake int64 `json:"stake" binding:"required,gt=0"`
	Mines int   `json:"mines" binding:"required,gte=1,lte=24"`
}

// MinesRevealRequest uncovers one cell.
type MinesRevealRequest struct {
	Cell int `json:"cell" binding:"gte=0,lte=24"`
}

// CrapsBetRequest adds one bet to the account's craps table.
type CrapsBetRequest struct {
	Kind   string `json:"kind" binding:"required,oneof=pass dont_pass field proposition hard_way place"`
	Target int    `json:"target,omitempty"`
	Stake  int64  `json:"stake" binding:"required,gt=0"`
}

// PeerBetProposeRequest opens a head-to-head wager against a named opponent.
type PeerBetProposeRequest struct {
	CounterpartyID string `json:"counterparty_id" binding:"required,uuid"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
}

// RoundBetRequest pools a bet into the open shared round.
type RoundBetRequest struct {
	Stake  int64  `json:"stake" binding:"required,gt=0"`
	Symbol string `json:"symbol" binding:"required,oneof=moon star sun"`
}

// PurchaseRequest confirms an externally settled coin purchase.
type PurchaseRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required,max=100,safe_id"`
	Coins      int64  `json:"coins" binding:"required,gt=0"`
}

// HistoryListResponse wraps a paginated wager-history page.
type HistoryListResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}
