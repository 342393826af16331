package ports

import (
	"context"
	"time"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CardRepository defines read access to externally provisioned cards.
type CardRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetByIDAndClient(ctx context.Context, cardID, clientID uuid.UUID) (*domain.Card, error)
}

// LimitRepository defines persistence for card limits.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type LimitRepository interface {
	GetByCardID(ctx context.Context, cardID uuid.UUID) (*domain.Limit, error)
	GetByCardIDForUpdate(ctx context.Context, tx pgx.Tx, cardID uuid.UUID) (*domain.Limit, error)
	// Debit subtracts amount from the available limit. The UPDATE carries a
	// server-side available >= amount guard; returns false when the guard
	// rejects the debit.
	Debit(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, amount int64) (bool, error)
}

// TransactionRepository defines persistence for pipeline transactions.
type TransactionRepository interface {
	// Create inserts a transaction. Returns false without error when the
	// transaction id is already taken.
	Create(ctx context.Context, t *domain.Transaction) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// UpdateStatus durably records a lifecycle transition together with the
	// event that caused it.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, lastEvent string) error
	// CardHistory aggregates a card's prior transactions for fraud rules,
	// excluding the transaction under evaluation.
	CardHistory(ctx context.Context, cardID, excludeTxID uuid.UUID, asOf time.Time) (*domain.CardHistory, error)
}

// FraudAnalysisRepository defines persistence for fraud analyses.
type FraudAnalysisRepository interface {
	Create(ctx context.Context, a *domain.FraudAnalysis) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.FraudAnalysis, error)
}

// AuthorizationRepository defines persistence for authorization decisions.
type AuthorizationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, a *domain.Authorization) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.Authorization, error)
}

// TokenRepository defines persistence for issued tokens and their
// maintenance trail.
type TokenRepository interface {
	Create(ctx context.Context, t *domain.Token) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Token, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TokenStatus) error
	RecordMaintenance(ctx context.Context, m *domain.TokenMaintenance) error
}

// SettlementRepository defines persistence for settlement batches and records.
type SettlementRepository interface {
	// GetOpenBatchForUpdate locks the period's open batch row. Returns nil
	// when no open batch exists for the period yet.
	GetOpenBatchForUpdate(ctx context.Context, tx pgx.Tx, periodKey string) (*domain.SettlementBatch, error)
	CreateBatch(ctx context.Context, tx pgx.Tx, b *domain.SettlementBatch) error
	// InsertRecord appends a settlement record. Returns false without error
	// when a record for the transaction already exists.
	InsertRecord(ctx context.Context, tx pgx.Tx, r *domain.SettlementRecord) (bool, error)
	AddToTotal(ctx context.Context, tx pgx.Tx, batchID uuid.UUID, amount int64) error
	GetRecordByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.SettlementRecord, error)
	GetBatchByID(ctx context.Context, id uuid.UUID) (*domain.SettlementBatch, error)
	CloseBatch(ctx context.Context, periodKey string) (*domain.SettlementBatch, error)
}

// DenialRepository defines persistence for denial records.
type DenialRepository interface {
	// Insert appends a denial. Returns false without error when the
	// transaction already has one.
	Insert(ctx context.Context, d *domain.Denial) (bool, error)
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.Denial, error)
}

// AuditRepository defines persistence for the append-only audit trail.
type AuditRepository interface {
	Create(ctx context.Context, l *domain.AuditLog) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.AuditLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
