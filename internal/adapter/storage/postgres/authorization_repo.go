package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AuthorizationRepo implements ports.AuthorizationRepository.
type AuthorizationRepo struct {
	pool Pool
}

// NewAuthorizationRepo creates a new AuthorizationRepo.
func NewAuthorizationRepo(pool Pool) *AuthorizationRepo {
	return &AuthorizationRepo{pool: pool}
}

// Create inserts the decision record within a transaction. The unique
// constraint on transaction_id enforces at most one decision per transaction.
func (r *AuthorizationRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Authorization) error {
	query := `INSERT INTO authorizations (id, transaction_id, card_id, amount, decision, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query, a.ID, a.TransactionID, a.CardID, a.Amount, a.Decision, a.Reason, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert authorization: %w", err)
	}
	return nil
}

// GetByTransactionID fetches the decision for a transaction.
func (r *AuthorizationRepo) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.Authorization, error) {
	query := `SELECT id, transaction_id, card_id, amount, decision, reason, created_at
		FROM authorizations WHERE transaction_id = $1`

	a := &domain.Authorization{}
	err := r.pool.QueryRow(ctx, query, transactionID).Scan(
		&a.ID, &a.TransactionID, &a.CardID, &a.Amount, &a.Decision, &a.Reason, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get authorization by transaction: %w", err)
	}
	return a, nil
}
