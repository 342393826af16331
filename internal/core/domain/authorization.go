package domain

import (
	"time"

	"github.com/google/uuid"
)

// Decision is the outcome of an authorization.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionDenied   Decision = "denied"
)

// Machine-readable denial reason codes surfaced to callers.
const (
	ReasonCardInactive      = "card_inactive"
	ReasonLimitInsufficient = "limit_insufficient"
	ReasonFraudSuspicious   = "fraud_suspicious"
	ReasonFraudUnavailable  = "fraud_unavailable"
)

// Authorization is the decision record for a transaction. Created exactly
// once per transaction, immutable after creation.
type Authorization struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	CardID        uuid.UUID `json:"card_id"`
	Amount        int64     `json:"amount"`
	Decision      Decision  `json:"decision"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}
