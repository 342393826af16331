package service

import (
	"context"
	"sync"
	"time"

	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Hand-written fakes shared by the service tests. Behavior is injected
// through function fields; unset fields mean the call is unexpected and
// will panic, surfacing the missing expectation.

type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit(_ context.Context) error   { t.commits++; return nil }
func (t *fakeTx) Rollback(_ context.Context) error { t.rollbacks++; return nil }

type fakeTransactor struct {
	tx  *fakeTx
	err error
}

func (f *fakeTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.tx == nil {
		f.tx = &fakeTx{}
	}
	return f.tx, nil
}

type fakeCardRepo struct {
	getByID          func(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	getByIDAndClient func(ctx context.Context, cardID, clientID uuid.UUID) (*domain.Card, error)
}

func (f *fakeCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return f.getByID(ctx, id)
}

func (f *fakeCardRepo) GetByIDAndClient(ctx context.Context, cardID, clientID uuid.UUID) (*domain.Card, error) {
	return f.getByIDAndClient(ctx, cardID, clientID)
}

type fakeLimitRepo struct {
	getByCardID          func(ctx context.Context, cardID uuid.UUID) (*domain.Limit, error)
	getByCardIDForUpdate func(ctx context.Context, tx pgx.Tx, cardID uuid.UUID) (*domain.Limit, error)
	debit                func(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, amount int64) (bool, error)
}

func (f *fakeLimitRepo) GetByCardID(ctx context.Context, cardID uuid.UUID) (*domain.Limit, error) {
	return f.getByCardID(ctx, cardID)
}

func (f *fakeLimitRepo) GetByCardIDForUpdate(ctx context.Context, tx pgx.Tx, cardID uuid.UUID) (*domain.Limit, error) {
	return f.getByCardIDForUpdate(ctx, tx, cardID)
}

func (f *fakeLimitRepo) Debit(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, amount int64) (bool, error) {
	return f.debit(ctx, tx, cardID, amount)
}

type fakeTransactionRepo struct {
	mu          sync.Mutex
	created     []*domain.Transaction
	transitions []string

	getByID     func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	cardHistory func(ctx context.Context, cardID, excludeTxID uuid.UUID, asOf time.Time) (*domain.CardHistory, error)
	createErr   error
	updateErr   error
}

func (f *fakeTransactionRepo) Create(_ context.Context, t *domain.Transaction) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.created {
		if existing.ID == t.ID {
			return false, nil
		}
	}
	f.created = append(f.created, t)
	return true, nil
}

func (f *fakeTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if f.getByID != nil {
		return f.getByID(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.created {
		if t.ID == id {
			cp := *t
			if n := len(f.transitions); n > 0 {
				cp.Status = domain.TransactionStatus(f.transitions[n-1])
			}
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTransactionRepo) UpdateStatus(_ context.Context, _ uuid.UUID, status domain.TransactionStatus, _ string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, string(status))
	return nil
}

func (f *fakeTransactionRepo) CardHistory(ctx context.Context, cardID, excludeTxID uuid.UUID, asOf time.Time) (*domain.CardHistory, error) {
	return f.cardHistory(ctx, cardID, excludeTxID, asOf)
}

type fakeFraudAnalysisRepo struct {
	mu        sync.Mutex
	created   []*domain.FraudAnalysis
	createErr error
}

func (f *fakeFraudAnalysisRepo) Create(_ context.Context, a *domain.FraudAnalysis) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, a)
	return nil
}

func (f *fakeFraudAnalysisRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]domain.FraudAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.FraudAnalysis
	for _, a := range f.created {
		if a.TransactionID == transactionID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeAuthorizationRepo struct {
	mu        sync.Mutex
	created   []*domain.Authorization
	createErr error
}

func (f *fakeAuthorizationRepo) Create(_ context.Context, _ pgx.Tx, a *domain.Authorization) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, a)
	return nil
}

func (f *fakeAuthorizationRepo) GetByTransactionID(_ context.Context, transactionID uuid.UUID) (*domain.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.created {
		if a.TransactionID == transactionID {
			return a, nil
		}
	}
	return nil, nil
}

type fakeTokenRepo struct {
	mu          sync.Mutex
	tokens      map[uuid.UUID]*domain.Token
	maintenance []*domain.TokenMaintenance

	createErr      error
	maintenanceErr error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[uuid.UUID]*domain.Token)}
}

func (f *fakeTokenRepo) Create(_ context.Context, t *domain.Token) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tokens[t.ID] = &cp
	return nil
}

func (f *fakeTokenRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokenRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TokenStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[id]; ok {
		t.Status = status
	}
	return nil
}

func (f *fakeTokenRepo) RecordMaintenance(_ context.Context, m *domain.TokenMaintenance) error {
	if f.maintenanceErr != nil {
		return f.maintenanceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maintenance = append(f.maintenance, m)
	return nil
}

type fakeSettlementRepo struct {
	getOpenBatchForUpdate    func(ctx context.Context, tx pgx.Tx, periodKey string) (*domain.SettlementBatch, error)
	createBatch              func(ctx context.Context, tx pgx.Tx, b *domain.SettlementBatch) error
	insertRecord             func(ctx context.Context, tx pgx.Tx, r *domain.SettlementRecord) (bool, error)
	addToTotal               func(ctx context.Context, tx pgx.Tx, batchID uuid.UUID, amount int64) error
	getRecordByTransactionID func(ctx context.Context, transactionID uuid.UUID) (*domain.SettlementRecord, error)
	getBatchByID             func(ctx context.Context, id uuid.UUID) (*domain.SettlementBatch, error)
	closeBatch               func(ctx context.Context, periodKey string) (*domain.SettlementBatch, error)
}

func (f *fakeSettlementRepo) GetOpenBatchForUpdate(ctx context.Context, tx pgx.Tx, periodKey string) (*domain.SettlementBatch, error) {
	return f.getOpenBatchForUpdate(ctx, tx, periodKey)
}

func (f *fakeSettlementRepo) CreateBatch(ctx context.Context, tx pgx.Tx, b *domain.SettlementBatch) error {
	return f.createBatch(ctx, tx, b)
}

func (f *fakeSettlementRepo) InsertRecord(ctx context.Context, tx pgx.Tx, r *domain.SettlementRecord) (bool, error) {
	return f.insertRecord(ctx, tx, r)
}

func (f *fakeSettlementRepo) AddToTotal(ctx context.Context, tx pgx.Tx, batchID uuid.UUID, amount int64) error {
	return f.addToTotal(ctx, tx, batchID, amount)
}

func (f *fakeSettlementRepo) GetRecordByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.SettlementRecord, error) {
	return f.getRecordByTransactionID(ctx, transactionID)
}

func (f *fakeSettlementRepo) GetBatchByID(ctx context.Context, id uuid.UUID) (*domain.SettlementBatch, error) {
	return f.getBatchByID(ctx, id)
}

func (f *fakeSettlementRepo) CloseBatch(ctx context.Context, periodKey string) (*domain.SettlementBatch, error) {
	return f.closeBatch(ctx, periodKey)
}

type fakeDenialRepo struct {
	mu        sync.Mutex
	denials   map[uuid.UUID]*domain.Denial
	insertErr error
}

func newFakeDenialRepo() *fakeDenialRepo {
	return &fakeDenialRepo{denials: make(map[uuid.UUID]*domain.Denial)}
}

func (f *fakeDenialRepo) Insert(_ context.Context, d *domain.Denial) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.denials[d.TransactionID]; exists {
		return false, nil
	}
	cp := *d
	f.denials[d.TransactionID] = &cp
	return true, nil
}

func (f *fakeDenialRepo) GetByTransactionID(_ context.Context, transactionID uuid.UUID) (*domain.Denial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.denials[transactionID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

type fakeAuditRepo struct {
	mu        sync.Mutex
	entries   []*domain.AuditLog
	createErr error
}

func (f *fakeAuditRepo) Create(_ context.Context, l *domain.AuditLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, l)
	return nil
}

func (f *fakeAuditRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditLog
	for _, l := range f.entries {
		if l.TransactionID != nil && *l.TransactionID == transactionID {
			out = append(out, *l)
		}
	}
	return out, nil
}

// recordingAudit implements ports.AuditService and remembers every event.
type recordingAudit struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingAudit) Record(_ context.Context, _ *uuid.UUID, event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAudit) Trail(_ context.Context, _ uuid.UUID) ([]domain.AuditLog, error) {
	return nil, nil
}

func (r *recordingAudit) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

type fakeRegistry struct {
	exists func(ctx context.Context, clientID uuid.UUID) (bool, error)
}

func (f *fakeRegistry) ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	return f.exists(ctx, clientID)
}

type fakeAuthorizationClient struct {
	authorize func(ctx context.Context, req ports.AuthorizationRequest) (*ports.AuthorizationResult, error)
}

func (f *fakeAuthorizationClient) Authorize(ctx context.Context, req ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
	return f.authorize(ctx, req)
}

type fakeFraudClient struct {
	analyze func(ctx context.Context, req ports.FraudRequest) (*ports.FraudResult, error)
}

func (f *fakeFraudClient) Analyze(ctx context.Context, req ports.FraudRequest) (*ports.FraudResult, error) {
	return f.analyze(ctx, req)
}

type fakeTokenClient struct {
	issue func(ctx context.Context, req ports.TokenIssueRequest) (*ports.TokenResult, error)
}

func (f *fakeTokenClient) Issue(ctx context.Context, req ports.TokenIssueRequest) (*ports.TokenResult, error) {
	return f.issue(ctx, req)
}

type fakeSettlementClient struct {
	record func(ctx context.Context, transactionID uuid.UUID, amount int64) (*ports.SettlementResult, error)
}

func (f *fakeSettlementClient) Record(ctx context.Context, transactionID uuid.UUID, amount int64) (*ports.SettlementResult, error) {
	return f.record(ctx, transactionID, amount)
}

type fakeDenialClient struct {
	record func(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error)
}

func (f *fakeDenialClient) Record(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error) {
	return f.record(ctx, transactionID, reason)
}
