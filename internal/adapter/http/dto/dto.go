package dto

import "time"

// TokenRequest is the request body for service token issuance.
type TokenRequest struct {
	ServiceID string `json:"service_id" binding:"required,min=1,max=64"`
	Secret    string `json:"secret" binding:"required"`
}

// TokenResponse is the response body for service token issuance.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"` // Unix timestamp
}

// TransactionRequest is the orchestrator's inbound transaction intent.
type TransactionRequest struct {
	TransactionID string    `json:"transaction_id" binding:"required,uuid"`
	CardID        string    `json:"card_id" binding:"required,uuid"`
	ClientID      string    `json:"client_id" binding:"required,uuid"`
	Amount        int64     `json:"amount" binding:"required,gt=0"`
	Timestamp     time.Time `json:"timestamp" binding:"required"`
	Location      string    `json:"location" binding:"required,max=200"`
}

// TransactionResponse is the pipeline outcome for a transaction.
type TransactionResponse struct {
	TransactionID   string  `json:"transaction_id"`
	Status          string  `json:"status"`
	Decision        string  `json:"decision"`
	Reason          string  `json:"reason,omitempty"`
	AuthorizationID string  `json:"authorization_id"`
	Token           string  `json:"token,omitempty"`
	TokenExpiresAt  *string `json:"token_expires_at,omitempty"`
	BatchID         *string `json:"batch_id,omitempty"`
	DenialID        *string `json:"denial_id,omitempty"`
}

// TransactionStatusResponse is the mid-flight status projection.
type TransactionStatusResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	LastEvent     string `json:"last_event"`
	UpdatedAt     string `json:"updated_at"`
}

// AuthorizeRequest is the request body for the authorization gate.
type AuthorizeRequest struct {
	TransactionID string    `json:"transaction_id" binding:"required,uuid"`
	CardID        string    `json:"card_id" binding:"required,uuid"`
	ClientID      string    `json:"client_id" binding:"required,uuid"`
	Amount        int64     `json:"amount" binding:"required,gt=0"`
	Timestamp     time.Time `json:"timestamp" binding:"required"`
	Location      string    `json:"location" binding:"max=200"`
}

// AuthorizeResponse carries the committed decision.
type AuthorizeResponse struct {
	Status          string `json:"status"` // approved | denied
	AuthorizationID string `json:"authorization_id"`
	Reason          string `json:"reason,omitempty"`
}

// AnalyzeRequest is the request body for the fraud evaluator.
type AnalyzeRequest struct {
	TransactionID string    `json:"transaction_id" binding:"required,uuid"`
	CardID        string    `json:"card_id" binding:"required,uuid"`
	Amount        int64     `json:"amount" binding:"required,gt=0"`
	Timestamp     time.Time `json:"timestamp" binding:"required"`
}

// AnalyzeResponse carries the fraud verdict and its contributing factors.
type AnalyzeResponse struct {
	Status  string   `json:"status"` // normal | suspicious
	Factors []string `json:"factors"`
}

// AnalysisEntry is one recorded fraud evaluation.
type AnalysisEntry struct {
	Verdict    string   `json:"verdict"`
	Factors    []string `json:"factors"`
	AnalyzedAt string   `json:"analyzed_at"`
}

// AnalysisListResponse is the evaluation history of a transaction.
type AnalysisListResponse struct {
	TransactionID string          `json:"transaction_id"`
	Analyses      []AnalysisEntry `json:"analyses"`
}

// AuditEntry is one event in a transaction's audit trail.
type AuditEntry struct {
	Event     string `json:"event"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"created_at"`
}

// AuditTrailResponse is the ordered audit trail of a transaction.
type AuditTrailResponse struct {
	TransactionID string       `json:"transaction_id"`
	Events        []AuditEntry `json:"events"`
}

// TokenIssueRequest is the request body for the tokenizer.
type TokenIssueRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	CardID        string `json:"card_id" binding:"required,uuid"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
}

// TokenIssueResponse carries the minted token.
type TokenIssueResponse struct {
	TokenID   string `json:"token_id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// SettlementRecordRequest is the request body for the settlement batcher.
type SettlementRecordRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
}

// SettlementRecordResponse identifies the batch the amount accumulated into.
type SettlementRecordResponse struct {
	BatchID   string `json:"batch_id"`
	PeriodKey string `json:"period_key"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Duplicate bool   `json:"duplicate"`
}

// SettlementCloseResponse is the closed batch summary.
type SettlementCloseResponse struct {
	BatchID   string `json:"batch_id"`
	PeriodKey string `json:"period_key"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
}

// DenialRecordRequest is the request body for the denial recorder.
type DenialRecordRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	Reason        string `json:"reason" binding:"required,max=500"`
}

// DenialRecordResponse identifies the persisted denial.
type DenialRecordResponse struct {
	DenialID string `json:"denial_id"`
}
