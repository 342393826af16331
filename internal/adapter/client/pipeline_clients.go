package client

import (
	"context"
	"fmt"
	"time"

	"card-payment-pipeline/internal/adapter/http/dto"
	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthorizationHTTPClient implements ports.AuthorizationClient against a
// sibling deployment of the authorization gate.
type AuthorizationHTTPClient struct {
	baseClient
}

func NewAuthorizationHTTPClient(baseURL string, doer HTTPDoer, tokens ports.TokenService, subject string, log zerolog.Logger) *AuthorizationHTTPClient {
	return &AuthorizationHTTPClient{newBaseClient(baseURL, doer, tokens, subject, log)}
}

func (c *AuthorizationHTTPClient) Authorize(ctx context.Context, req ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
	body := dto.AuthorizeRequest{
		TransactionID: req.TransactionID.String(),
		CardID:        req.CardID.String(),
		ClientID:      req.ClientID.String(),
		Amount:        req.Amount,
		Timestamp:     req.OccurredAt,
		Location:      req.Location,
	}
	var out dto.AuthorizeResponse
	if err := c.postJSON(ctx, "/api/v1/transaction/authorize", body, &out); err != nil {
		return nil, err
	}
	authID, err := uuid.Parse(out.AuthorizationID)
	if err != nil {
		return nil, fmt.Errorf("parse authorization id: %w", err)
	}
	return &ports.AuthorizationResult{
		AuthorizationID: authID,
		Decision:        domain.Decision(out.Status),
		Reason:          out.Reason,
	}, nil
}

// FraudHTTPClient implements ports.FraudClient against a sibling deployment
// of the fraud evaluator.
type FraudHTTPClient struct {
	baseClient
}

func NewFraudHTTPClient(baseURL string, doer HTTPDoer, tokens ports.TokenService, subject string, log zerolog.Logger) *FraudHTTPClient {
	return &FraudHTTPClient{newBaseClient(baseURL, doer, tokens, subject, log)}
}

func (c *FraudHTTPClient) Analyze(ctx context.Context, req ports.FraudRequest) (*ports.FraudResult, error) {
	body := dto.AnalyzeRequest{
		TransactionID: req.TransactionID.String(),
		CardID:        req.CardID.String(),
		Amount:        req.Amount,
		Timestamp:     req.OccurredAt,
	}
	var out dto.AnalyzeResponse
	if err := c.postJSON(ctx, "/api/v1/transaction/analyze", body, &out); err != nil {
		return nil, err
	}
	return &ports.FraudResult{
		Verdict: domain.FraudVerdict(out.Status),
		Factors: out.Factors,
	}, nil
}

// TokenHTTPClient implements ports.TokenClient against a sibling deployment
// of the tokenizer.
type TokenHTTPClient struct {
	baseClient
}

func NewTokenHTTPClient(baseURL string, doer HTTPDoer, tokens ports.TokenService, subject string, log zerolog.Logger) *TokenHTTPClient {
	return &TokenHTTPClient{newBaseClient(baseURL, doer, tokens, subject, log)}
}

func (c *TokenHTTPClient) Issue(ctx context.Context, req ports.TokenIssueRequest) (*ports.TokenResult, error) {
	body := dto.TokenIssueRequest{
		TransactionID: req.TransactionID.String(),
		CardID:        req.CardID.String(),
		Amount:        req.Amount,
	}
	var out dto.TokenIssueResponse
	if err := c.postJSON(ctx, "/api/v1/token/issue", body, &out); err != nil {
		return nil, err
	}
	tokenID, err := uuid.Parse(out.TokenID)
	if err != nil {
		return nil, fmt.Errorf("parse token id: %w", err)
	}
	expiresAt, err := time.Parse(time.RFC3339, out.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse token expiry: %w", err)
	}
	return &ports.TokenResult{
		TokenID:   tokenID,
		Value:     out.Token,
		ExpiresAt: expiresAt,
	}, nil
}

// SettlementHTTPClient implements ports.SettlementClient against a sibling
// deployment of the settlement batcher.
type SettlementHTTPClient struct {
	baseClient
}

func NewSettlementHTTPClient(baseURL string, doer HTTPDoer, tokens ports.TokenService, subject string, log zerolog.Logger) *SettlementHTTPClient {
	return &SettlementHTTPClient{newBaseClient(baseURL, doer, tokens, subject, log)}
}

func (c *SettlementHTTPClient) Record(ctx context.Context, transactionID uuid.UUID, amount int64) (*ports.SettlementResult, error) {
	body := dto.SettlementRecordRequest{
		TransactionID: transactionID.String(),
		Amount:        amount,
	}
	var out dto.SettlementRecordResponse
	if err := c.postJSON(ctx, "/api/v1/settlement/record", body, &out); err != nil {
		return nil, err
	}
	batchID, err := uuid.Parse(out.BatchID)
	if err != nil {
		return nil, fmt.Errorf("parse batch id: %w", err)
	}
	return &ports.SettlementResult{
		BatchID:   batchID,
		PeriodKey: out.PeriodKey,
		Status:    domain.BatchStatus(out.Status),
		Total:     out.Total,
		Duplicate: out.Duplicate,
	}, nil
}

// DenialHTTPClient implements ports.DenialClient against a sibling deployment
// of the denial recorder.
type DenialHTTPClient struct {
	baseClient
}

func NewDenialHTTPClient(baseURL string, doer HTTPDoer, tokens ports.TokenService, subject string, log zerolog.Logger) *DenialHTTPClient {
	return &DenialHTTPClient{newBaseClient(baseURL, doer, tokens, subject, log)}
}

func (c *DenialHTTPClient) Record(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error) {
	body := dto.DenialRecordRequest{
		TransactionID: transactionID.String(),
		Reason:        reason,
	}
	var out dto.DenialRecordResponse
	if err := c.postJSON(ctx, "/api/v1/denial/record", body, &out); err != nil {
		return nil, err
	}
	denialID, err := uuid.Parse(out.DenialID)
	if err != nil {
		return nil, fmt.Errorf("parse denial id: %w", err)
	}
	return &domain.Denial{
		ID:            denialID,
		TransactionID: transactionID,
		Reason:        reason,
	}, nil
}
