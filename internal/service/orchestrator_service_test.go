package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orchestratorTestDeps struct {
	svc        *OrchestratorServiceImpl
	registry   *fakeRegistry
	cardRepo   *fakeCardRepo
	txRepo     *fakeTransactionRepo
	authorizer *fakeAuthorizationClient
	tokenizer  *fakeTokenClient
	settler    *fakeSettlementClient
	denier     *fakeDenialClient
	audit      *recordingAudit
}

func setupOrchestrator() *orchestratorTestDeps {
	d := &orchestratorTestDeps{
		txRepo: &fakeTransactionRepo{},
		audit:  &recordingAudit{},
	}
	d.registry = &fakeRegistry{
		exists: func(_ context.Context, _ uuid.UUID) (bool, error) { return true, nil },
	}
	d.cardRepo = &fakeCardRepo{
		getByIDAndClient: func(_ context.Context, cardID, clientID uuid.UUID) (*domain.Card, error) {
			return &domain.Card{ID: cardID, ClientID: clientID, Status: domain.CardStatusActive}, nil
		},
	}
	d.authorizer = &fakeAuthorizationClient{
		authorize: func(_ context.Context, _ ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
			return &ports.AuthorizationResult{AuthorizationID: uuid.New(), Decision: domain.DecisionApproved}, nil
		},
	}
	d.tokenizer = &fakeTokenClient{
		issue: func(_ context.Context, _ ports.TokenIssueRequest) (*ports.TokenResult, error) {
			return &ports.TokenResult{
				TokenID:   uuid.New(),
				Value:     "tok_abc",
				ExpiresAt: time.Now().UTC().Add(15 * time.Minute),
			}, nil
		},
	}
	d.settler = &fakeSettlementClient{
		record: func(_ context.Context, _ uuid.UUID, amount int64) (*ports.SettlementResult, error) {
			return &ports.SettlementResult{
				BatchID:   uuid.New(),
				PeriodKey: domain.PeriodKey(time.Now().UTC()),
				Status:    domain.BatchStatusOpen,
				Total:     amount,
			}, nil
		},
	}
	d.denier = &fakeDenialClient{
		record: func(_ context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error) {
			return &domain.Denial{ID: uuid.New(), TransactionID: transactionID, Reason: reason}, nil
		},
	}
	d.svc = NewOrchestratorService(
		d.registry, d.cardRepo, d.txRepo,
		d.authorizer, d.tokenizer, d.settler, d.denier,
		d.audit, zerolog.Nop(),
	)
	return d
}

func txnReq() ports.TransactionRequest {
	return ports.TransactionRequest{
		TransactionID: uuid.New(),
		CardID:        uuid.New(),
		ClientID:      uuid.New(),
		Amount:        500,
		OccurredAt:    time.Now().UTC(),
		Location:      "Sao Paulo",
	}
}

func TestOrchestrator_Process_Settled(t *testing.T) {
	d := setupOrchestrator()
	req := txnReq()

	result, err := d.svc.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusSettled, result.Status)
	assert.Equal(t, domain.DecisionApproved, result.Decision)
	assert.Equal(t, "tok_abc", result.Token)
	require.NotNil(t, result.BatchID)
	assert.Nil(t, result.DenialID)

	// Every lifecycle step was durably recorded, in order.
	assert.Equal(t, []string{"authorized", "tokenized", "settled"}, d.txRepo.transitions)
	require.Len(t, d.txRepo.created, 1)
	assert.Equal(t, domain.TransactionStatusInitiated, d.txRepo.created[0].Status)

	events := d.audit.recorded()
	assert.Contains(t, events, domain.AuditEventTransactionInitiated)
	assert.Contains(t, events, domain.AuditEventTokenIssued)
	assert.Contains(t, events, domain.AuditEventSettlementRecorded)
}

func TestOrchestrator_Process_Denied(t *testing.T) {
	d := setupOrchestrator()
	d.authorizer.authorize = func(_ context.Context, _ ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
		return &ports.AuthorizationResult{
			AuthorizationID: uuid.New(),
			Decision:        domain.DecisionDenied,
			Reason:          domain.ReasonLimitInsufficient,
		}, nil
	}

	result, err := d.svc.Process(context.Background(), txnReq())
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusDenied, result.Status)
	assert.Equal(t, domain.DecisionDenied, result.Decision)
	assert.Equal(t, domain.ReasonLimitInsufficient, result.Reason)
	require.NotNil(t, result.DenialID)
	assert.Empty(t, result.Token)
	assert.Nil(t, result.BatchID)

	assert.Equal(t, []string{"denied"}, d.txRepo.transitions)
	assert.Contains(t, d.audit.recorded(), domain.AuditEventDenialRecorded)
}

func TestOrchestrator_Process_UnknownClient(t *testing.T) {
	d := setupOrchestrator()
	d.registry.exists = func(_ context.Context, _ uuid.UUID) (bool, error) { return false, nil }

	_, err := d.svc.Process(context.Background(), txnReq())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "REG_001", appErr.Code)
	assert.Empty(t, d.txRepo.created, "no transaction row for an unknown client")
}

func TestOrchestrator_Process_RegistryUnavailable(t *testing.T) {
	d := setupOrchestrator()
	d.registry.exists = func(_ context.Context, _ uuid.UUID) (bool, error) {
		return false, errors.New("connection refused")
	}

	_, err := d.svc.Process(context.Background(), txnReq())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UPS_001", appErr.Code)
}

func TestOrchestrator_Process_InactiveCard(t *testing.T) {
	d := setupOrchestrator()
	d.cardRepo.getByIDAndClient = func(_ context.Context, cardID, clientID uuid.UUID) (*domain.Card, error) {
		return &domain.Card{ID: cardID, ClientID: clientID, Status: domain.CardStatusInactive}, nil
	}

	_, err := d.svc.Process(context.Background(), txnReq())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CARD_001", appErr.Code)
}

func TestOrchestrator_Process_ReplayedTransactionID(t *testing.T) {
	d := setupOrchestrator()
	req := txnReq()

	_, err := d.svc.Process(context.Background(), req)
	require.NoError(t, err)

	_, err = d.svc.Process(context.Background(), req)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TXN_002", appErr.Code)
	assert.Len(t, d.txRepo.created, 1, "replay must not insert a second row")
}

func TestOrchestrator_Process_DenialRecorderFailureKeepsDeniedStatus(t *testing.T) {
	d := setupOrchestrator()
	d.authorizer.authorize = func(_ context.Context, _ ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
		return &ports.AuthorizationResult{
			AuthorizationID: uuid.New(),
			Decision:        domain.DecisionDenied,
			Reason:          domain.ReasonLimitInsufficient,
		}, nil
	}
	d.denier.record = func(_ context.Context, _ uuid.UUID, _ string) (*domain.Denial, error) {
		return nil, errors.New("denial recorder down")
	}

	_, err := d.svc.Process(context.Background(), txnReq())
	require.Error(t, err)

	// Denied is terminal; the recorder failure must not overwrite it.
	assert.Equal(t, []string{"denied"}, d.txRepo.transitions)
	assert.Contains(t, d.audit.recorded(), domain.AuditEventPipelineError)
}

func TestOrchestrator_Process_TokenizerFailureMarksError(t *testing.T) {
	d := setupOrchestrator()
	d.tokenizer.issue = func(_ context.Context, _ ports.TokenIssueRequest) (*ports.TokenResult, error) {
		return nil, errors.New("tokenizer down")
	}

	_, err := d.svc.Process(context.Background(), txnReq())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UPS_001", appErr.Code)

	// The transaction went authorized then error; settlement never ran.
	assert.Equal(t, []string{"authorized", "error"}, d.txRepo.transitions)
	assert.Contains(t, d.audit.recorded(), domain.AuditEventPipelineError)
}

func TestOrchestrator_Process_UpstreamAppErrorSurfaces(t *testing.T) {
	d := setupOrchestrator()
	d.authorizer.authorize = func(_ context.Context, _ ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
		return nil, apperror.ErrCardNotFound()
	}

	_, err := d.svc.Process(context.Background(), txnReq())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CARD_001", appErr.Code)
	assert.Equal(t, []string{"error"}, d.txRepo.transitions)
}

func TestOrchestrator_Process_InvalidAmount(t *testing.T) {
	d := setupOrchestrator()
	req := txnReq()
	req.Amount = -1

	_, err := d.svc.Process(context.Background(), req)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VAL_001", appErr.Code)
}

func TestOrchestrator_Status(t *testing.T) {
	d := setupOrchestrator()
	txID := uuid.New()
	updated := time.Now().UTC()
	d.txRepo.getByID = func(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
		return &domain.Transaction{
			ID:        id,
			Status:    domain.TransactionStatusTokenized,
			LastEvent: domain.AuditEventTokenIssued,
			UpdatedAt: updated,
		}, nil
	}

	view, err := d.svc.Status(context.Background(), txID)
	require.NoError(t, err)
	assert.Equal(t, txID, view.TransactionID)
	assert.Equal(t, domain.TransactionStatusTokenized, view.Status)
	assert.Equal(t, domain.AuditEventTokenIssued, view.LastEvent)
}

func TestOrchestrator_Status_NotFound(t *testing.T) {
	d := setupOrchestrator()
	d.txRepo.getByID = func(_ context.Context, _ uuid.UUID) (*domain.Transaction, error) {
		return nil, nil
	}

	_, err := d.svc.Status(context.Background(), uuid.New())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TXN_001", appErr.Code)
}
