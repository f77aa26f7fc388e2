package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionWager             AuditAction = "WAGER"
	AuditActionSettlement        AuditAction = "SETTLEMENT"
	AuditActionSettlementFailure AuditAction = "SETTLEMENT_FAILURE"
	AuditActionRefundAttempt     AuditAction = "REFUND_ATTEMPT"
	AuditActionRegister          AuditAction = "REGISTER"
	AuditActionLogin             AuditAction = "LOGIN"
	AuditActionBonus             AuditAction = "BONUS"
	AuditActionPurchase          AuditAction = "PURCHASE"
	AuditActionFraudFlag         AuditAction = "FRAUD_FLAG"
	AuditActionRequestRejected   AuditAction = "REQUEST_REJECTED"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	AccountID    *uuid.UUID  `json:"account_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
