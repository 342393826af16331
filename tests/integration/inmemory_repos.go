package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Card Repo ---

type inMemoryCardRepo struct {
	mu    sync.RWMutex
	cards map[uuid.UUID]*domain.Card
}

func newInMemoryCardRepo() *inMemoryCardRepo {
	return &inMemoryCardRepo{cards: make(map[uuid.UUID]*domain.Card)}
}

func (r *inMemoryCardRepo) seed(c *domain.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[c.ID] = c
}

func (r *inMemoryCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cards[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (r *inMemoryCardRepo) GetByIDAndClient(ctx context.Context, cardID, clientID uuid.UUID) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cards[cardID]
	if !ok || c.ClientID != clientID {
		return nil, nil
	}
	return c, nil
}

// --- In-Memory Limit Repo ---

// inMemoryLimitRepo guards the available amount with a mutex so the debit
// guard behaves like the SQL conditional UPDATE: under concurrency exactly
// the debits that fit are applied.
type inMemoryLimitRepo struct {
	mu     sync.Mutex
	limits map[uuid.UUID]*domain.Limit
}

func newInMemoryLimitRepo() *inMemoryLimitRepo {
	return &inMemoryLimitRepo{limits: make(map[uuid.UUID]*domain.Limit)}
}

func (r *inMemoryLimitRepo) seed(l *domain.Limit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits[l.CardID] = l
}

func (r *inMemoryLimitRepo) available(cardID uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limits[cardID]
	if !ok {
		return 0
	}
	return l.Available
}

func (r *inMemoryLimitRepo) GetByCardID(ctx context.Context, cardID uuid.UUID) (*domain.Limit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limits[cardID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *inMemoryLimitRepo) GetByCardIDForUpdate(ctx context.Context, tx pgx.Tx, cardID uuid.UUID) (*domain.Limit, error) {
	return r.GetByCardID(ctx, cardID)
}

func (r *inMemoryLimitRepo) Debit(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, amount int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limits[cardID]
	if !ok || l.Available < amount {
		return false, nil
	}
	l.Available -= amount
	l.UpdatedAt = time.Now().UTC()
	return true, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, t *domain.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[t.ID]; ok {
		return false, nil
	}
	cp := *t
	r.transactions[t.ID] = &cp
	return true, nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, lastEvent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("transaction not found: %s", id)
	}
	t.Status = status
	t.LastEvent = lastEvent
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryTransactionRepo) CardHistory(ctx context.Context, cardID, excludeTxID uuid.UUID, asOf time.Time) (*domain.CardHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h := &domain.CardHistory{}
	var sum30d int64
	var count30d int64
	for _, t := range r.transactions {
		if t.CardID != cardID || t.ID == excludeTxID || t.OccurredAt.After(asOf) {
			continue
		}
		if asOf.Sub(t.OccurredAt) <= time.Hour {
			h.CountLastHour++
			h.SumLastHour += t.Amount
		}
		if asOf.Sub(t.OccurredAt) <= 30*24*time.Hour {
			sum30d += t.Amount
			count30d++
		}
		if h.LastTransactionAt == nil || t.OccurredAt.After(*h.LastTransactionAt) {
			occurred := t.OccurredAt
			h.LastTransactionAt = &occurred
		}
	}
	if count30d > 0 {
		h.AvgAmount30d = float64(sum30d) / float64(count30d)
	}
	return h, nil
}

// --- In-Memory Fraud Analysis Repo ---

type inMemoryFraudRepo struct {
	mu       sync.RWMutex
	analyses []domain.FraudAnalysis
}

func newInMemoryFraudRepo() *inMemoryFraudRepo {
	return &inMemoryFraudRepo{}
}

func (r *inMemoryFraudRepo) Create(ctx context.Context, a *domain.FraudAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses = append(r.analyses, *a)
	return nil
}

func (r *inMemoryFraudRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.FraudAnalysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.FraudAnalysis
	for _, a := range r.analyses {
		if a.TransactionID == transactionID {
			result = append(result, a)
		}
	}
	return result, nil
}

// --- In-Memory Authorization Repo ---

type inMemoryAuthorizationRepo struct {
	mu             sync.RWMutex
	authorizations map[uuid.UUID]*domain.Authorization // by transaction id
}

func newInMemoryAuthorizationRepo() *inMemoryAuthorizationRepo {
	return &inMemoryAuthorizationRepo{authorizations: make(map[uuid.UUID]*domain.Authorization)}
}

func (r *inMemoryAuthorizationRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Authorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.authorizations[a.TransactionID] = &cp
	return nil
}

func (r *inMemoryAuthorizationRepo) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.Authorization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.authorizations[transactionID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// --- In-Memory Token Repo ---

type inMemoryTokenRepo struct {
	mu          sync.RWMutex
	tokens      map[uuid.UUID]*domain.Token
	maintenance []domain.TokenMaintenance
}

func newInMemoryTokenRepo() *inMemoryTokenRepo {
	return &inMemoryTokenRepo{tokens: make(map[uuid.UUID]*domain.Token)}
}

func (r *inMemoryTokenRepo) Create(ctx context.Context, t *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tokens[t.ID] = &cp
	return nil
}

func (r *inMemoryTokenRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTokenRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TokenStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return fmt.Errorf("token not found: %s", id)
	}
	t.Status = status
	return nil
}

func (r *inMemoryTokenRepo) RecordMaintenance(ctx context.Context, m *domain.TokenMaintenance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maintenance = append(r.maintenance, *m)
	return nil
}

// --- In-Memory Settlement Repo ---

type inMemorySettlementRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*domain.SettlementBatch
	records map[uuid.UUID]*domain.SettlementRecord // by transaction id
}

func newInMemorySettlementRepo() *inMemorySettlementRepo {
	return &inMemorySettlementRepo{
		batches: make(map[uuid.UUID]*domain.SettlementBatch),
		records: make(map[uuid.UUID]*domain.SettlementRecord),
	}
}

func (r *inMemorySettlementRepo) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *inMemorySettlementRepo) GetOpenBatchForUpdate(ctx context.Context, tx pgx.Tx, periodKey string) (*domain.SettlementBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.PeriodKey == periodKey && b.Status == domain.BatchStatusOpen {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

// CreateBatch mirrors the SQL insert's conflict handling: losing the
// creation race for a period is a no-op, not an error.
func (r *inMemorySettlementRepo) CreateBatch(ctx context.Context, tx pgx.Tx, b *domain.SettlementBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.batches {
		if existing.PeriodKey == b.PeriodKey && existing.Status == domain.BatchStatusOpen {
			return nil
		}
	}
	cp := *b
	r.batches[b.ID] = &cp
	return nil
}

func (r *inMemorySettlementRepo) InsertRecord(ctx context.Context, tx pgx.Tx, rec *domain.SettlementRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.TransactionID]; ok {
		return false, nil
	}
	cp := *rec
	r.records[rec.TransactionID] = &cp
	return true, nil
}

func (r *inMemorySettlementRepo) AddToTotal(ctx context.Context, tx pgx.Tx, batchID uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok {
		return fmt.Errorf("settlement batch not found: %s", batchID)
	}
	b.Total += amount
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemorySettlementRepo) GetRecordByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.SettlementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[transactionID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *inMemorySettlementRepo) GetBatchByID(ctx context.Context, id uuid.UUID) (*domain.SettlementBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *inMemorySettlementRepo) CloseBatch(ctx context.Context, periodKey string) (*domain.SettlementBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.PeriodKey == periodKey && b.Status == domain.BatchStatusOpen {
			b.Status = domain.BatchStatusClosed
			b.UpdatedAt = time.Now().UTC()
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Denial Repo ---

type inMemoryDenialRepo struct {
	mu      sync.Mutex
	denials map[uuid.UUID]*domain.Denial // by transaction id
}

func newInMemoryDenialRepo() *inMemoryDenialRepo {
	return &inMemoryDenialRepo{denials: make(map[uuid.UUID]*domain.Denial)}
}

func (r *inMemoryDenialRepo) Insert(ctx context.Context, d *domain.Denial) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.denials[d.TransactionID]; ok {
		return false, nil
	}
	cp := *d
	r.denials[d.TransactionID] = &cp
	return true, nil
}

func (r *inMemoryDenialRepo) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.Denial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.denials[transactionID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu   sync.RWMutex
	logs []domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, l *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *l)
	return nil
}

func (r *inMemoryAuditRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.AuditLog
	for _, l := range r.logs {
		if l.TransactionID != nil && *l.TransactionID == transactionID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *inMemoryAuditRepo) eventsFor(transactionID uuid.UUID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var events []string
	for _, l := range r.logs {
		if l.TransactionID != nil && *l.TransactionID == transactionID {
			events = append(events, l.Event)
		}
	}
	return events
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
