package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog caches a purchase-confirmation result so duplicate payment
// callbacks never credit twice.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "account_id:payment_ref"
	AccountID    uuid.UUID `json:"account_id"`
	ResponseJSON []byte    `json:"response_json"` // Cached response to return
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey constructs the standard key format.
func BuildIdempotencyKey(accountID uuid.UUID, paymentRef string) string {
	return accountID.String() + ":" + paymentRef
}
