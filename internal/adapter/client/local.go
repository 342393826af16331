package client

import (
	"context"

	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"

	"github.com/google/uuid"
)

// In-process client adapters. Used when a component's upstream URL is empty,
// meaning the component runs inside this binary. The orchestrator sees the
// same port either way.

// LocalAuthorizationClient adapts the local authorization service.
type LocalAuthorizationClient struct {
	svc ports.AuthorizationService
}

func NewLocalAuthorizationClient(svc ports.AuthorizationService) *LocalAuthorizationClient {
	return &LocalAuthorizationClient{svc: svc}
}

func (c *LocalAuthorizationClient) Authorize(ctx context.Context, req ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
	return c.svc.Authorize(ctx, req)
}

// LocalFraudClient adapts the local fraud evaluator.
type LocalFraudClient struct {
	svc ports.FraudService
}

func NewLocalFraudClient(svc ports.FraudService) *LocalFraudClient {
	return &LocalFraudClient{svc: svc}
}

func (c *LocalFraudClient) Analyze(ctx context.Context, req ports.FraudRequest) (*ports.FraudResult, error) {
	analysis, err := c.svc.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ports.FraudResult{
		Verdict: analysis.Verdict,
		Factors: analysis.Factors,
	}, nil
}

// LocalTokenClient adapts the local tokenizer.
type LocalTokenClient struct {
	svc ports.TokenizerService
}

func NewLocalTokenClient(svc ports.TokenizerService) *LocalTokenClient {
	return &LocalTokenClient{svc: svc}
}

func (c *LocalTokenClient) Issue(ctx context.Context, req ports.TokenIssueRequest) (*ports.TokenResult, error) {
	token, err := c.svc.Issue(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ports.TokenResult{
		TokenID:   token.ID,
		Value:     token.Value,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// LocalSettlementClient adapts the local settlement batcher.
type LocalSettlementClient struct {
	svc ports.SettlementService
}

func NewLocalSettlementClient(svc ports.SettlementService) *LocalSettlementClient {
	return &LocalSettlementClient{svc: svc}
}

func (c *LocalSettlementClient) Record(ctx context.Context, transactionID uuid.UUID, amount int64) (*ports.SettlementResult, error) {
	return c.svc.Record(ctx, transactionID, amount)
}

// LocalDenialClient adapts the local denial recorder.
type LocalDenialClient struct {
	svc ports.DenialService
}

func NewLocalDenialClient(svc ports.DenialService) *LocalDenialClient {
	return &LocalDenialClient{svc: svc}
}

func (c *LocalDenialClient) Record(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error) {
	return c.svc.Record(ctx, transactionID, reason)
}

// StaticRegistry is a registry stub that accepts a fixed allow-list. Used
// when no registry URL is configured, for local and test deployments.
type StaticRegistry struct {
	allowAll bool
	known    map[uuid.UUID]struct{}
}

// NewStaticRegistry builds a registry over the given client ids. With no ids
// it accepts every client.
func NewStaticRegistry(clientIDs ...uuid.UUID) *StaticRegistry {
	r := &StaticRegistry{allowAll: len(clientIDs) == 0, known: make(map[uuid.UUID]struct{}, len(clientIDs))}
	for _, id := range clientIDs {
		r.known[id] = struct{}{}
	}
	return r
}

func (r *StaticRegistry) ClientExists(_ context.Context, clientID uuid.UUID) (bool, error) {
	if r.allowAll {
		return true, nil
	}
	_, ok := r.known[clientID]
	return ok, nil
}
