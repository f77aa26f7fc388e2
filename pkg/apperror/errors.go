package apperror

import (
	"errors"
	"net/http"
)

// AppError is the error type carried across all layers. Handlers map it onto
// an HTTP response; everything below them only sees Code and Message.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// --- Validation ---

func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// --- Authentication / authorization ---

func ErrUnauthenticated() *AppError {
	return New("AUTH_001", "authentication required", http.StatusUnauthorized)
}

func ErrInvalidCredentials() *AppError {
	return New("AUTH_002", "invalid username or password", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_003", "username already taken", http.StatusConflict)
}

func ErrInvalidToken(err error) *AppError {
	return Wrap(err, "AUTH_004", "invalid or expired token", http.StatusUnauthorized)
}

func ErrUnauthorized() *AppError {
	return New("AUTH_005", "not allowed to act on this resource", http.StatusForbidden)
}

// --- Funds / wagers ---

func ErrInsufficientFunds() *AppError {
	return New("FUND_001", "insufficient credits", http.StatusPaymentRequired)
}

func ErrInvalidStake(message string) *AppError {
	return New("FUND_002", message, http.StatusBadRequest)
}

func ErrBetNotAvailable(message string) *AppError {
	return New("FUND_003", message, http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("FUND_004", entity+" not found", http.StatusNotFound)
}

// --- Game sessions ---

func ErrInvalidSession() *AppError {
	return New("SESS_001", "no such game session for this account", http.StatusNotFound)
}

func ErrSessionAlreadyActive() *AppError {
	return New("SESS_002", "a game of this type is already in progress", http.StatusConflict)
}

func ErrBettingClosed() *AppError {
	return New("SESS_003", "betting is closed for the current round", http.StatusConflict)
}

func ErrBetLimitReached() *AppError {
	return New("SESS_004", "bet limit reached for the current round", http.StatusConflict)
}

// --- Request security ---

func ErrTimestampExpired() *AppError {
	return New("SEC_001", "request timestamp outside freshness window", http.StatusUnauthorized)
}

func ErrReplayDetected() *AppError {
	return New("SEC_002", "request nonce already used", http.StatusForbidden)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_003", "request signature verification failed", http.StatusUnauthorized)
}

// --- Throttling / locking ---

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "rate limit exceeded", http.StatusTooManyRequests)
}

func ErrTransactionInProgress() *AppError {
	return New("LOCK_001", "another wager is in flight for this account", http.StatusConflict)
}

// --- Bonuses ---

func ErrBonusNotReady() *AppError {
	return New("BONUS_001", "daily bonus is still on cooldown", http.StatusConflict)
}

// --- System ---

func InternalError(err error) *AppError {
	return Wrap(err, "SYS_001", "internal server error", http.StatusInternalServerError)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap(err, "SYS_002", "database operation failed", http.StatusInternalServerError)
}

func ErrSettlementFailure(err error) *AppError {
	return Wrap(err, "SYS_003", "settlement could not be completed", http.StatusInternalServerError)
}
