package ports

import (
	"context"
	"time"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
)

// --- Service Ports (Business Logic) ---

// FraudRequest holds the inputs for one fraud evaluation.
type FraudRequest struct {
	TransactionID uuid.UUID
	CardID        uuid.UUID
	Amount        int64
	OccurredAt    time.Time
}

// FraudService scores a transaction against the card's history.
type FraudService interface {
	Evaluate(ctx context.Context, req FraudRequest) (*domain.FraudAnalysis, error)
	// Analyses lists every evaluation recorded for a transaction, oldest
	// first. Empty when the transaction was never evaluated.
	Analyses(ctx context.Context, transactionID uuid.UUID) ([]domain.FraudAnalysis, error)
}

// AuthorizationRequest holds the inputs for an authorization decision.
type AuthorizationRequest struct {
	TransactionID uuid.UUID
	CardID        uuid.UUID
	ClientID      uuid.UUID
	Amount        int64
	OccurredAt    time.Time
	Location      string
}

// AuthorizationResult is the committed decision plus its reason.
type AuthorizationResult struct {
	AuthorizationID uuid.UUID
	Decision        domain.Decision
	Reason          string
}

// AuthorizationService checks card and limit validity, consults the fraud
// evaluator and commits exactly one decision per transaction.
type AuthorizationService interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (*AuthorizationResult, error)
}

// TokenIssueRequest holds the inputs for minting a token.
type TokenIssueRequest struct {
	TransactionID uuid.UUID
	CardID        uuid.UUID
	Amount        int64
}

// TokenizerService mints short-lived opaque tokens. Each call mints a new
// token; idempotence is not required.
type TokenizerService interface {
	Issue(ctx context.Context, req TokenIssueRequest) (*domain.Token, error)
	Validate(ctx context.Context, tokenID uuid.UUID) (*domain.Token, error)
}

// SettlementResult describes the batch a transaction was accumulated into.
type SettlementResult struct {
	BatchID   uuid.UUID
	PeriodKey string
	Status    domain.BatchStatus
	Total     int64
	Duplicate bool
}

// SettlementService accumulates authorized transactions into per-period
// batches, exactly once per transaction id.
type SettlementService interface {
	Record(ctx context.Context, transactionID uuid.UUID, amount int64) (*SettlementResult, error)
	CloseCurrent(ctx context.Context) (*domain.SettlementBatch, error)
}

// DenialService persists denial reasons, idempotently per transaction.
type DenialService interface {
	Record(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error)
}

// TransactionRequest is the orchestrator's inbound transaction intent.
type TransactionRequest struct {
	TransactionID uuid.UUID
	CardID        uuid.UUID
	ClientID      uuid.UUID
	Amount        int64
	OccurredAt    time.Time
	Location      string
}

// TransactionResult is the final pipeline outcome for a transaction.
type TransactionResult struct {
	TransactionID   uuid.UUID
	Status          domain.TransactionStatus
	Decision        domain.Decision
	Reason          string
	AuthorizationID uuid.UUID
	Token           string
	TokenExpiresAt  *time.Time
	BatchID         *uuid.UUID
	DenialID        *uuid.UUID
}

// TransactionStatusView is the mid-flight status projection.
type TransactionStatusView struct {
	TransactionID uuid.UUID
	Status        domain.TransactionStatus
	LastEvent     string
	UpdatedAt     time.Time
}

// OrchestratorService sequences validation, authorization, tokenization and
// settlement/denial for a transaction.
type OrchestratorService interface {
	Process(ctx context.Context, req TransactionRequest) (*TransactionResult, error)
	Status(ctx context.Context, transactionID uuid.UUID) (*TransactionStatusView, error)
}

// AuditService appends entries to the audit trail. Append failures are
// logged, never propagated: an audit failure must not mask the primary error.
type AuditService interface {
	Record(ctx context.Context, transactionID *uuid.UUID, event string, details any)
	Trail(ctx context.Context, transactionID uuid.UUID) ([]domain.AuditLog, error)
}

// TokenService handles service-to-service JWT operations.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
}

// AuthService validates service credentials and issues bearer tokens.
type AuthService interface {
	IssueToken(ctx context.Context, serviceID, secret string) (string, time.Time, error)
}
