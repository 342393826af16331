package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction. A replayed transaction id conflicts on
// the primary key, affects zero rows and returns false without error.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) (bool, error) {
	query := `INSERT INTO transactions (id, card_id, client_id, amount, location, occurred_at, status, last_event, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		t.ID, t.CardID, t.ClientID, t.Amount, t.Location,
		t.OccurredAt, t.Status, t.LastEvent, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert transaction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID fetches a transaction by its UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT id, card_id, client_id, amount, location, occurred_at, status, last_event, created_at, updated_at
		FROM transactions WHERE id = $1`

	t := &domain.Transaction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.CardID, &t.ClientID, &t.Amount, &t.Location,
		&t.OccurredAt, &t.Status, &t.LastEvent, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// UpdateStatus records a lifecycle transition along with the event that
// caused it.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, lastEvent string) error {
	query := `UPDATE transactions SET status = $1, last_event = $2, updated_at = NOW() WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, lastEvent, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// CardHistory aggregates the card's prior transactions for the fraud rules.
// The transaction under evaluation is excluded so that a transaction never
// scores against itself.
func (r *TransactionRepo) CardHistory(ctx context.Context, cardID, excludeTxID uuid.UUID, asOf time.Time) (*domain.CardHistory, error) {
	query := `SELECT
		COUNT(*) FILTER (WHERE occurred_at >= $3 - INTERVAL '1 hour'),
		COALESCE(SUM(amount) FILTER (WHERE occurred_at >= $3 - INTERVAL '1 hour'), 0),
		COALESCE(AVG(amount) FILTER (WHERE occurred_at >= $3 - INTERVAL '30 days'), 0),
		MAX(occurred_at)
	FROM transactions
	WHERE card_id = $1 AND id <> $2 AND occurred_at <= $3`

	h := &domain.CardHistory{}
	err := r.pool.QueryRow(ctx, query, cardID, excludeTxID, asOf).Scan(
		&h.CountLastHour, &h.SumLastHour, &h.AvgAmount30d, &h.LastTransactionAt,
	)
	if err != nil {
		return nil, fmt.Errorf("card history: %w", err)
	}
	return h, nil
}
