package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"card-payment-pipeline/internal/adapter/http/dto"
	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Service fakes ---

type fakeAuthService struct {
	issueToken func(ctx context.Context, serviceID, secret string) (string, time.Time, error)
}

func (f *fakeAuthService) IssueToken(ctx context.Context, serviceID, secret string) (string, time.Time, error) {
	return f.issueToken(ctx, serviceID, secret)
}

type fakeOrchestratorService struct {
	process func(ctx context.Context, req ports.TransactionRequest) (*ports.TransactionResult, error)
	status  func(ctx context.Context, id uuid.UUID) (*ports.TransactionStatusView, error)
}

func (f *fakeOrchestratorService) Process(ctx context.Context, req ports.TransactionRequest) (*ports.TransactionResult, error) {
	return f.process(ctx, req)
}

func (f *fakeOrchestratorService) Status(ctx context.Context, id uuid.UUID) (*ports.TransactionStatusView, error) {
	return f.status(ctx, id)
}

type fakeAuthorizationService struct {
	authorize func(ctx context.Context, req ports.AuthorizationRequest) (*ports.AuthorizationResult, error)
}

func (f *fakeAuthorizationService) Authorize(ctx context.Context, req ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
	return f.authorize(ctx, req)
}

type fakeFraudService struct {
	evaluate func(ctx context.Context, req ports.FraudRequest) (*domain.FraudAnalysis, error)
	analyses func(ctx context.Context, transactionID uuid.UUID) ([]domain.FraudAnalysis, error)
}

func (f *fakeFraudService) Evaluate(ctx context.Context, req ports.FraudRequest) (*domain.FraudAnalysis, error) {
	return f.evaluate(ctx, req)
}

func (f *fakeFraudService) Analyses(ctx context.Context, transactionID uuid.UUID) ([]domain.FraudAnalysis, error) {
	return f.analyses(ctx, transactionID)
}

type fakeAuditService struct {
	trail func(ctx context.Context, transactionID uuid.UUID) ([]domain.AuditLog, error)
}

func (f *fakeAuditService) Record(_ context.Context, _ *uuid.UUID, _ string, _ any) {}

func (f *fakeAuditService) Trail(ctx context.Context, transactionID uuid.UUID) ([]domain.AuditLog, error) {
	return f.trail(ctx, transactionID)
}

type fakeTokenizerService struct {
	issue    func(ctx context.Context, req ports.TokenIssueRequest) (*domain.Token, error)
	validate func(ctx context.Context, tokenID uuid.UUID) (*domain.Token, error)
}

func (f *fakeTokenizerService) Issue(ctx context.Context, req ports.TokenIssueRequest) (*domain.Token, error) {
	return f.issue(ctx, req)
}

func (f *fakeTokenizerService) Validate(ctx context.Context, tokenID uuid.UUID) (*domain.Token, error) {
	return f.validate(ctx, tokenID)
}

type fakeSettlementService struct {
	record       func(ctx context.Context, transactionID uuid.UUID, amount int64) (*ports.SettlementResult, error)
	closeCurrent func(ctx context.Context) (*domain.SettlementBatch, error)
}

func (f *fakeSettlementService) Record(ctx context.Context, transactionID uuid.UUID, amount int64) (*ports.SettlementResult, error) {
	return f.record(ctx, transactionID, amount)
}

func (f *fakeSettlementService) CloseCurrent(ctx context.Context) (*domain.SettlementBatch, error) {
	return f.closeCurrent(ctx)
}

type fakeDenialService struct {
	record func(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error)
}

func (f *fakeDenialService) Record(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error) {
	return f.record(ctx, transactionID, reason)
}

type fakeHealthChecker struct {
	name string
	err  error
}

func (f *fakeHealthChecker) Ping(ctx context.Context) error { return f.err }
func (f *fakeHealthChecker) Name() string                   { return f.name }

func postJSON(t *testing.T, body any) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

// --- Auth Handler Tests ---

func TestToken_Success(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	h := NewAuthHandler(&fakeAuthService{
		issueToken: func(_ context.Context, serviceID, secret string) (string, time.Time, error) {
			assert.Equal(t, "orchestrator", serviceID)
			assert.Equal(t, "s3cret", secret)
			return "jwt-token-123", expiry, nil
		},
	})

	w, c := postJSON(t, dto.TokenRequest{ServiceID: "orchestrator", Secret: "s3cret"})
	h.Token(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "jwt-token-123", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expires_at"])
}

func TestToken_BadCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{
		issueToken: func(context.Context, string, string) (string, time.Time, error) {
			return "", time.Time{}, apperror.ErrInvalidCredentials()
		},
	})

	w, c := postJSON(t, dto.TokenRequest{ServiceID: "orchestrator", Secret: "wrong"})
	h.Token(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToken_ValidationError(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{
		issueToken: func(context.Context, string, string) (string, time.Time, error) {
			t.Fatal("IssueToken should not be called on binding failure")
			return "", time.Time{}, nil
		},
	})

	w, c := postJSON(t, map[string]string{})
	h.Token(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Transaction Handler Tests ---

func validTransactionRequest() dto.TransactionRequest {
	return dto.TransactionRequest{
		TransactionID: uuid.NewString(),
		CardID:        uuid.NewString(),
		ClientID:      uuid.NewString(),
		Amount:        2500,
		Timestamp:     time.Now().UTC(),
		Location:      "Lisbon, PT",
	}
}

func TestProcessTransaction_Settled(t *testing.T) {
	req := validTransactionRequest()
	batchID := uuid.New()
	tokenExpiry := time.Now().Add(15 * time.Minute)

	h := NewTransactionHandler(&fakeOrchestratorService{
		process: func(_ context.Context, got ports.TransactionRequest) (*ports.TransactionResult, error) {
			assert.Equal(t, req.TransactionID, got.TransactionID.String())
			assert.Equal(t, int64(2500), got.Amount)
			return &ports.TransactionResult{
				TransactionID:   got.TransactionID,
				Status:          domain.TransactionStatusSettled,
				Decision:        domain.DecisionApproved,
				AuthorizationID: uuid.New(),
				Token:           "tok-value",
				TokenExpiresAt:  &tokenExpiry,
				BatchID:         &batchID,
			}, nil
		},
	})

	w, c := postJSON(t, req)
	h.Process(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "settled", data["status"])
	assert.Equal(t, "approved", data["decision"])
	assert.Equal(t, batchID.String(), data["batch_id"])
	assert.Equal(t, "tok-value", data["token"])
}

func TestProcessTransaction_Denied(t *testing.T) {
	req := validTransactionRequest()
	denialID := uuid.New()

	h := NewTransactionHandler(&fakeOrchestratorService{
		process: func(_ context.Context, got ports.TransactionRequest) (*ports.TransactionResult, error) {
			return &ports.TransactionResult{
				TransactionID:   got.TransactionID,
				Status:          domain.TransactionStatusDenied,
				Decision:        domain.DecisionDenied,
				Reason:          domain.ReasonLimitInsufficient,
				AuthorizationID: uuid.New(),
				DenialID:        &denialID,
			}, nil
		},
	})

	w, c := postJSON(t, req)
	h.Process(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "denied", data["status"])
	assert.Equal(t, "limit_insufficient", data["reason"])
	assert.Equal(t, denialID.String(), data["denial_id"])
	_, hasBatch := data["batch_id"]
	assert.False(t, hasBatch)
}

func TestProcessTransaction_ValidationError(t *testing.T) {
	h := NewTransactionHandler(&fakeOrchestratorService{
		process: func(context.Context, ports.TransactionRequest) (*ports.TransactionResult, error) {
			t.Fatal("Process should not be called on binding failure")
			return nil, nil
		},
	})

	req := validTransactionRequest()
	req.TransactionID = "not-a-uuid"
	w, c := postJSON(t, req)
	h.Process(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessTransaction_UnknownClient(t *testing.T) {
	h := NewTransactionHandler(&fakeOrchestratorService{
		process: func(context.Context, ports.TransactionRequest) (*ports.TransactionResult, error) {
			return nil, apperror.ErrClientNotFound()
		},
	})

	w, c := postJSON(t, validTransactionRequest())
	h.Process(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactionStatus_Success(t *testing.T) {
	txID := uuid.New()
	now := time.Now().UTC()

	h := NewTransactionHandler(&fakeOrchestratorService{
		status: func(_ context.Context, id uuid.UUID) (*ports.TransactionStatusView, error) {
			assert.Equal(t, txID, id)
			return &ports.TransactionStatusView{
				TransactionID: txID,
				Status:        domain.TransactionStatusAuthorized,
				LastEvent:     "authorization_approved",
				UpdatedAt:     now,
			}, nil
		},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: txID.String()}}

	h.Status(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "authorized", data["status"])
	assert.Equal(t, "authorization_approved", data["last_event"])
}

func TestTransactionStatus_BadID(t *testing.T) {
	h := NewTransactionHandler(&fakeOrchestratorService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "garbage"}}

	h.Status(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionStatus_NotFound(t *testing.T) {
	h := NewTransactionHandler(&fakeOrchestratorService{
		status: func(context.Context, uuid.UUID) (*ports.TransactionStatusView, error) {
			return nil, apperror.ErrTransactionNotFound()
		},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}

	h.Status(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Authorization Handler Tests ---

func TestAuthorize_Approved(t *testing.T) {
	authzID := uuid.New()
	h := NewAuthorizationHandler(&fakeAuthorizationService{
		authorize: func(_ context.Context, req ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
			return &ports.AuthorizationResult{
				AuthorizationID: authzID,
				Decision:        domain.DecisionApproved,
			}, nil
		},
	})

	w, c := postJSON(t, dto.AuthorizeRequest{
		TransactionID: uuid.NewString(),
		CardID:        uuid.NewString(),
		ClientID:      uuid.NewString(),
		Amount:        500,
		Timestamp:     time.Now().UTC(),
	})
	h.Authorize(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "approved", data["status"])
	assert.Equal(t, authzID.String(), data["authorization_id"])
}

func TestAuthorize_Denied(t *testing.T) {
	h := NewAuthorizationHandler(&fakeAuthorizationService{
		authorize: func(context.Context, ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
			return &ports.AuthorizationResult{
				AuthorizationID: uuid.New(),
				Decision:        domain.DecisionDenied,
				Reason:          domain.ReasonFraudSuspicious,
			}, nil
		},
	})

	w, c := postJSON(t, dto.AuthorizeRequest{
		TransactionID: uuid.NewString(),
		CardID:        uuid.NewString(),
		ClientID:      uuid.NewString(),
		Amount:        20000,
		Timestamp:     time.Now().UTC(),
	})
	h.Authorize(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "denied", data["status"])
	assert.Equal(t, "fraud_suspicious", data["reason"])
}

// --- Fraud Handler Tests ---

func TestAnalyze_Suspicious(t *testing.T) {
	h := NewFraudHandler(&fakeFraudService{
		evaluate: func(_ context.Context, req ports.FraudRequest) (*domain.FraudAnalysis, error) {
			return &domain.FraudAnalysis{
				ID:            uuid.New(),
				TransactionID: req.TransactionID,
				Verdict:       domain.FraudVerdictSuspicious,
				Factors:       []string{domain.FactorHighValue, domain.FactorRapidRepeat},
			}, nil
		},
	})

	w, c := postJSON(t, dto.AnalyzeRequest{
		TransactionID: uuid.NewString(),
		CardID:        uuid.NewString(),
		Amount:        50000,
		Timestamp:     time.Now().UTC(),
	})
	h.Analyze(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "suspicious", data["status"])
	factors := data["factors"].([]interface{})
	assert.Len(t, factors, 2)
}

func TestAnalyze_NormalHasEmptyFactors(t *testing.T) {
	h := NewFraudHandler(&fakeFraudService{
		evaluate: func(_ context.Context, req ports.FraudRequest) (*domain.FraudAnalysis, error) {
			return &domain.FraudAnalysis{
				ID:            uuid.New(),
				TransactionID: req.TransactionID,
				Verdict:       domain.FraudVerdictNormal,
			}, nil
		},
	})

	w, c := postJSON(t, dto.AnalyzeRequest{
		TransactionID: uuid.NewString(),
		CardID:        uuid.NewString(),
		Amount:        100,
		Timestamp:     time.Now().UTC(),
	})
	h.Analyze(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"factors":[]`)
}

func TestAnalysesList_Success(t *testing.T) {
	txID := uuid.New()
	analyzedAt := time.Now().UTC()

	h := NewFraudHandler(&fakeFraudService{
		analyses: func(_ context.Context, id uuid.UUID) ([]domain.FraudAnalysis, error) {
			assert.Equal(t, txID, id)
			return []domain.FraudAnalysis{
				{
					ID:            uuid.New(),
					TransactionID: txID,
					Verdict:       domain.FraudVerdictSuspicious,
					Factors:       []string{domain.FactorHighValue},
					AnalyzedAt:    analyzedAt,
				},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: txID.String()}}

	h.Analyses(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, txID.String(), data["transaction_id"])
	entries := data["analyses"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "suspicious", entry["verdict"])
}

func TestAnalysesList_Empty(t *testing.T) {
	h := NewFraudHandler(&fakeFraudService{
		analyses: func(_ context.Context, _ uuid.UUID) ([]domain.FraudAnalysis, error) {
			return nil, nil
		},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}

	h.Analyses(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"analyses":[]`)
}

func TestAnalysesList_BadID(t *testing.T) {
	h := NewFraudHandler(&fakeFraudService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.Analyses(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Audit Handler Tests ---

func TestAuditTrail_Success(t *testing.T) {
	txID := uuid.New()
	now := time.Now().UTC()

	h := NewAuditHandler(&fakeAuditService{
		trail: func(_ context.Context, id uuid.UUID) ([]domain.AuditLog, error) {
			assert.Equal(t, txID, id)
			return []domain.AuditLog{
				{ID: uuid.New(), TransactionID: &txID, Event: domain.AuditEventTransactionInitiated, CreatedAt: now},
				{ID: uuid.New(), TransactionID: &txID, Event: domain.AuditEventAuthorizationApproved, CreatedAt: now},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: txID.String()}}

	h.Trail(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	events := data["events"].([]interface{})
	require.Len(t, events, 2)
	first := events[0].(map[string]interface{})
	assert.Equal(t, domain.AuditEventTransactionInitiated, first["event"])
}

func TestAuditTrail_BadID(t *testing.T) {
	h := NewAuditHandler(&fakeAuditService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	h.Trail(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Token Handler Tests ---

func TestTokenIssue_Success(t *testing.T) {
	tokenID := uuid.New()
	expiry := time.Now().Add(15 * time.Minute)

	h := NewTokenHandler(&fakeTokenizerService{
		issue: func(_ context.Context, req ports.TokenIssueRequest) (*domain.Token, error) {
			return &domain.Token{
				ID:        tokenID,
				CardID:    req.CardID,
				Value:     "deadbeef",
				ExpiresAt: expiry,
				Status:    domain.TokenStatusActive,
			}, nil
		},
	})

	w, c := postJSON(t, dto.TokenIssueRequest{
		TransactionID: uuid.NewString(),
		CardID:        uuid.NewString(),
		Amount:        900,
	})
	h.Issue(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, tokenID.String(), data["token_id"])
	assert.Equal(t, "deadbeef", data["token"])
}

func TestTokenIssue_CardNotFound(t *testing.T) {
	h := NewTokenHandler(&fakeTokenizerService{
		issue: func(context.Context, ports.TokenIssueRequest) (*domain.Token, error) {
			return nil, apperror.ErrCardNotFound()
		},
	})

	w, c := postJSON(t, dto.TokenIssueRequest{
		TransactionID: uuid.NewString(),
		CardID:        uuid.NewString(),
		Amount:        900,
	})
	h.Issue(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Settlement Handler Tests ---

func TestSettlementRecord_Created(t *testing.T) {
	batchID := uuid.New()
	h := NewSettlementHandler(&fakeSettlementService{
		record: func(_ context.Context, transactionID uuid.UUID, amount int64) (*ports.SettlementResult, error) {
			assert.Equal(t, int64(700), amount)
			return &ports.SettlementResult{
				BatchID:   batchID,
				PeriodKey: "2026-09-01",
				Status:    domain.BatchStatusOpen,
				Total:     700,
			}, nil
		},
	})

	w, c := postJSON(t, dto.SettlementRecordRequest{
		TransactionID: uuid.NewString(),
		Amount:        700,
	})
	h.Record(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, batchID.String(), data["batch_id"])
	assert.Equal(t, false, data["duplicate"])
}

func TestSettlementRecord_DuplicateReturnsOK(t *testing.T) {
	h := NewSettlementHandler(&fakeSettlementService{
		record: func(context.Context, uuid.UUID, int64) (*ports.SettlementResult, error) {
			return &ports.SettlementResult{
				BatchID:   uuid.New(),
				PeriodKey: "2026-09-01",
				Status:    domain.BatchStatusOpen,
				Total:     700,
				Duplicate: true,
			}, nil
		},
	})

	w, c := postJSON(t, dto.SettlementRecordRequest{
		TransactionID: uuid.NewString(),
		Amount:        700,
	})
	h.Record(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["duplicate"])
}

func TestSettlementClose_Success(t *testing.T) {
	batchID := uuid.New()
	h := NewSettlementHandler(&fakeSettlementService{
		closeCurrent: func(context.Context) (*domain.SettlementBatch, error) {
			return &domain.SettlementBatch{
				ID:        batchID,
				PeriodKey: "2026-09-01",
				Status:    domain.BatchStatusClosed,
				Total:     123400,
			}, nil
		},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	h.Close(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "closed", data["status"])
	assert.Equal(t, float64(123400), data["total"])
}

func TestSettlementClose_NoOpenBatch(t *testing.T) {
	h := NewSettlementHandler(&fakeSettlementService{
		closeCurrent: func(context.Context) (*domain.SettlementBatch, error) {
			return nil, apperror.ErrBatchNotFound()
		},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	h.Close(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Denial Handler Tests ---

func TestDenialRecord_Success(t *testing.T) {
	denialID := uuid.New()
	h := NewDenialHandler(&fakeDenialService{
		record: func(_ context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error) {
			assert.Equal(t, domain.ReasonCardInactive, reason)
			return &domain.Denial{
				ID:            denialID,
				TransactionID: transactionID,
				Reason:        reason,
			}, nil
		},
	})

	w, c := postJSON(t, dto.DenialRecordRequest{
		TransactionID: uuid.NewString(),
		Reason:        domain.ReasonCardInactive,
	})
	h.Record(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, denialID.String(), data["denial_id"])
}

func TestDenialRecord_MissingReason(t *testing.T) {
	h := NewDenialHandler(&fakeDenialService{
		record: func(context.Context, uuid.UUID, string) (*domain.Denial, error) {
			t.Fatal("Record should not be called on binding failure")
			return nil, nil
		},
	})

	w, c := postJSON(t, map[string]string{"transaction_id": uuid.NewString()})
	h.Record(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health Check Tests ---

func TestHealthCheck_AllHealthy(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(
		&fakeHealthChecker{name: "postgresql"},
		&fakeHealthChecker{name: "redis"},
	)(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	assert.Len(t, deps, 2)
}

func TestHealthCheck_DependencyDown(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(
		&fakeHealthChecker{name: "postgresql"},
		&fakeHealthChecker{name: "redis", err: errors.New("connection refused")},
	)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	redisDep := deps["redis"].(map[string]interface{})
	assert.Equal(t, "unhealthy", redisDep["status"])
}
