package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LimitRepo implements ports.LimitRepository.
type LimitRepo struct {
	pool Pool
}

// NewLimitRepo creates a new LimitRepo.
func NewLimitRepo(pool Pool) *LimitRepo {
	return &LimitRepo{pool: pool}
}

// GetByCardID fetches the card's limit (non-locking read).
func (r *LimitRepo) GetByCardID(ctx context.Context, cardID uuid.UUID) (*domain.Limit, error) {
	query := `SELECT card_id, available, updated_at FROM limits WHERE card_id = $1`

	l := &domain.Limit{}
	err := r.pool.QueryRow(ctx, query, cardID).Scan(&l.CardID, &l.Available, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get limit by card id: %w", err)
	}
	return l, nil
}

// GetByCardIDForUpdate fetches the card's limit with pessimistic locking.
// This MUST be called within a transaction.
func (r *LimitRepo) GetByCardIDForUpdate(ctx context.Context, tx pgx.Tx, cardID uuid.UUID) (*domain.Limit, error) {
	query := `SELECT card_id, available, updated_at FROM limits WHERE card_id = $1 FOR UPDATE`

	l := &domain.Limit{}
	err := tx.QueryRow(ctx, query, cardID).Scan(&l.CardID, &l.Available, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get limit for update: %w", err)
	}
	return l, nil
}

// Debit subtracts amount from the available limit within a transaction. The
// WHERE clause guards against overdraft on the server side; a zero row count
// means the guard rejected the debit.
func (r *LimitRepo) Debit(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, amount int64) (bool, error) {
	query := `UPDATE limits SET available = available - $1, updated_at = NOW()
		WHERE card_id = $2 AND available >= $1`

	tag, err := tx.Exec(ctx, query, amount, cardID)
	if err != nil {
		return false, fmt.Errorf("debit limit: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
