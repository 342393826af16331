package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CardRepo implements ports.CardRepository. Cards are provisioned externally,
// so the repository is read-only.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

// GetByID fetches a card by its UUID.
func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT id, client_id, status, created_at FROM cards WHERE id = $1`

	c := &domain.Card{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.ClientID, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card by id: %w", err)
	}
	return c, nil
}

// GetByIDAndClient fetches a card only if it belongs to the given client.
func (r *CardRepo) GetByIDAndClient(ctx context.Context, cardID, clientID uuid.UUID) (*domain.Card, error) {
	query := `SELECT id, client_id, status, created_at FROM cards WHERE id = $1 AND client_id = $2`

	c := &domain.Card{}
	err := r.pool.QueryRow(ctx, query, cardID, clientID).Scan(&c.ID, &c.ClientID, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card by id and client: %w", err)
	}
	return c, nil
}
