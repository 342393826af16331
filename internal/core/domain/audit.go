package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit events appended as a transaction crosses pipeline stages.
const (
	AuditEventTransactionInitiated  = "transaction_initiated"
	AuditEventClientValidated       = "client_validated"
	AuditEventAuthorizationApproved = "authorization_approved"
	AuditEventAuthorizationDenied   = "authorization_denied"
	AuditEventFraudAnalyzed         = "fraud_analyzed"
	AuditEventTokenIssued           = "token_issued"
	AuditEventSettlementRecorded    = "settlement_recorded"
	AuditEventDenialRecorded        = "denial_recorded"
	AuditEventPipelineError         = "pipeline_error"
)

// AuditLog is one append-only entry in the audit trail. TransactionID is nil
// for entries not tied to a single transaction (e.g. HTTP mutations).
type AuditLog struct {
	ID            uuid.UUID  `json:"id"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Event         string     `json:"event"`
	Details       string     `json:"details,omitempty"` // JSON string
	CreatedAt     time.Time  `json:"created_at"`
}
