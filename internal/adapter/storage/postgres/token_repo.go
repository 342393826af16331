package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TokenRepo implements ports.TokenRepository.
type TokenRepo struct {
	pool Pool
}

// NewTokenRepo creates a new TokenRepo.
func NewTokenRepo(pool Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

// Create inserts a new token.
func (r *TokenRepo) Create(ctx context.Context, t *domain.Token) error {
	query := `INSERT INTO tokens (id, card_id, value, created_at, expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, t.ID, t.CardID, t.Value, t.CreatedAt, t.ExpiresAt, t.Status)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByID fetches a token by its UUID.
func (r *TokenRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Token, error) {
	query := `SELECT id, card_id, value, created_at, expires_at, status FROM tokens WHERE id = $1`

	t := &domain.Token{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.CardID, &t.Value, &t.CreatedAt, &t.ExpiresAt, &t.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get token by id: %w", err)
	}
	return t, nil
}

// UpdateStatus moves a token to a new lifecycle state.
func (r *TokenRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TokenStatus) error {
	query := `UPDATE tokens SET status = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update token status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("token not found: %s", id)
	}
	return nil
}

// RecordMaintenance appends a maintenance trail entry.
func (r *TokenRepo) RecordMaintenance(ctx context.Context, m *domain.TokenMaintenance) error {
	query := `INSERT INTO token_maintenance (id, token_id, action, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, m.ID, m.TokenID, m.Action, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert token maintenance: %w", err)
	}
	return nil
}
