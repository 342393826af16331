package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SettlementRepo implements ports.SettlementRepository.
type SettlementRepo struct {
	pool Pool
}

// NewSettlementRepo creates a new SettlementRepo.
func NewSettlementRepo(pool Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

// GetOpenBatchForUpdate locks the period's open batch row. Returns nil when
// the period has no open batch yet. This MUST be called within a transaction.
func (r *SettlementRepo) GetOpenBatchForUpdate(ctx context.Context, tx pgx.Tx, periodKey string) (*domain.SettlementBatch, error) {
	query := `SELECT id, period_key, status, total, created_at, updated_at
		FROM settlement_batches WHERE period_key = $1 AND status = $2 FOR UPDATE`

	b := &domain.SettlementBatch{}
	err := tx.QueryRow(ctx, query, periodKey, domain.BatchStatusOpen).Scan(
		&b.ID, &b.PeriodKey, &b.Status, &b.Total, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open batch for update: %w", err)
	}
	return b, nil
}

// CreateBatch inserts a new batch within a transaction. The partial unique
// index on (period_key) WHERE status = 'open' guarantees at most one open
// batch per period; losing a concurrent creation race is not an error, the
// caller re-locks the period and finds the surviving row.
func (r *SettlementRepo) CreateBatch(ctx context.Context, tx pgx.Tx, b *domain.SettlementBatch) error {
	query := `INSERT INTO settlement_batches (id, period_key, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (period_key) WHERE status = 'open' DO NOTHING`

	_, err := tx.Exec(ctx, query, b.ID, b.PeriodKey, b.Status, b.Total, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert settlement batch: %w", err)
	}
	return nil
}

// InsertRecord appends a settlement record within a transaction. The unique
// constraint on transaction_id makes retries harmless: a conflicting insert
// affects zero rows and returns false without error.
func (r *SettlementRepo) InsertRecord(ctx context.Context, tx pgx.Tx, rec *domain.SettlementRecord) (bool, error) {
	query := `INSERT INTO settlement_records (id, batch_id, transaction_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transaction_id) DO NOTHING`

	tag, err := tx.Exec(ctx, query, rec.ID, rec.BatchID, rec.TransactionID, rec.Amount, rec.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert settlement record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AddToTotal accumulates an amount into the batch total within a transaction.
func (r *SettlementRepo) AddToTotal(ctx context.Context, tx pgx.Tx, batchID uuid.UUID, amount int64) error {
	query := `UPDATE settlement_batches SET total = total + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, batchID)
	if err != nil {
		return fmt.Errorf("add to batch total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settlement batch not found: %s", batchID)
	}
	return nil
}

// GetRecordByTransactionID fetches the settlement record for a transaction.
func (r *SettlementRepo) GetRecordByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.SettlementRecord, error) {
	query := `SELECT id, batch_id, transaction_id, amount, created_at
		FROM settlement_records WHERE transaction_id = $1`

	rec := &domain.SettlementRecord{}
	err := r.pool.QueryRow(ctx, query, transactionID).Scan(
		&rec.ID, &rec.BatchID, &rec.TransactionID, &rec.Amount, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settlement record by transaction: %w", err)
	}
	return rec, nil
}

// GetBatchByID fetches a batch by its UUID.
func (r *SettlementRepo) GetBatchByID(ctx context.Context, id uuid.UUID) (*domain.SettlementBatch, error) {
	query := `SELECT id, period_key, status, total, created_at, updated_at
		FROM settlement_batches WHERE id = $1`

	b := &domain.SettlementBatch{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.PeriodKey, &b.Status, &b.Total, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settlement batch by id: %w", err)
	}
	return b, nil
}

// CloseBatch marks the period's open batch as closed and returns it.
// Returns nil when the period has no open batch.
func (r *SettlementRepo) CloseBatch(ctx context.Context, periodKey string) (*domain.SettlementBatch, error) {
	query := `UPDATE settlement_batches SET status = $1, updated_at = NOW()
		WHERE period_key = $2 AND status = $3
		RETURNING id, period_key, status, total, created_at, updated_at`

	b := &domain.SettlementBatch{}
	err := r.pool.QueryRow(ctx, query, domain.BatchStatusClosed, periodKey, domain.BatchStatusOpen).Scan(
		&b.ID, &b.PeriodKey, &b.Status, &b.Total, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("close settlement batch: %w", err)
	}
	return b, nil
}
