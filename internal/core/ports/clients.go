package ports

import (
	"context"
	"time"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
)

// Outbound call ports. Implementations are either HTTP adapters against a
// sibling deployment or in-process wrappers around the local services; the
// orchestrator cannot tell the difference.

// ClientRegistry is the external bank-regulator registry, read-only.
type ClientRegistry interface {
	// ClientExists reports whether the client is registered. A missing
	// client is (false, nil); only transport failures return an error.
	ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error)
}

// AuthorizationClient invokes the authorization gate.
type AuthorizationClient interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (*AuthorizationResult, error)
}

// FraudResult is the verdict returned by the fraud evaluator.
type FraudResult struct {
	Verdict domain.FraudVerdict
	Factors []string
}

// FraudClient invokes the fraud evaluator.
type FraudClient interface {
	Analyze(ctx context.Context, req FraudRequest) (*FraudResult, error)
}

// TokenResult is the minted token returned by the tokenizer.
type TokenResult struct {
	TokenID   uuid.UUID
	Value     string
	ExpiresAt time.Time
}

// TokenClient invokes the tokenizer.
type TokenClient interface {
	Issue(ctx context.Context, req TokenIssueRequest) (*TokenResult, error)
}

// SettlementClient invokes the settlement batcher.
type SettlementClient interface {
	Record(ctx context.Context, transactionID uuid.UUID, amount int64) (*SettlementResult, error)
}

// DenialClient invokes the denial recorder.
type DenialClient interface {
	Record(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error)
}
