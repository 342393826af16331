package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DenialRepo implements ports.DenialRepository.
type DenialRepo struct {
	pool Pool
}

// NewDenialRepo creates a new DenialRepo.
func NewDenialRepo(pool Pool) *DenialRepo {
	return &DenialRepo{pool: pool}
}

// Insert appends a denial. The unique constraint on transaction_id keeps the
// record idempotent: a conflicting insert affects zero rows and returns
// false without error.
func (r *DenialRepo) Insert(ctx context.Context, d *domain.Denial) (bool, error) {
	query := `INSERT INTO denials (id, transaction_id, reason, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (transaction_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, d.ID, d.TransactionID, d.Reason, d.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert denial: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByTransactionID fetches the denial for a transaction.
func (r *DenialRepo) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.Denial, error) {
	query := `SELECT id, transaction_id, reason, created_at FROM denials WHERE transaction_id = $1`

	d := &domain.Denial{}
	err := r.pool.QueryRow(ctx, query, transactionID).Scan(&d.ID, &d.TransactionID, &d.Reason, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get denial by transaction: %w", err)
	}
	return d, nil
}
