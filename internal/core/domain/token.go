package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenStatus represents the lifecycle state of an issued token.
type TokenStatus string

const (
	TokenStatusActive  TokenStatus = "active"
	TokenStatusExpired TokenStatus = "expired"
	TokenStatusUsed    TokenStatus = "used"
)

// Token is a short-lived opaque value bound to a card+transaction pair.
// The value is derived from unpredictable material and cannot be reversed
// to recover the card id.
type Token struct {
	ID        uuid.UUID   `json:"id"`
	CardID    uuid.UUID   `json:"card_id"`
	Value     string      `json:"value"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	Status    TokenStatus `json:"status"`
}

// IsExpired compares the expiry against now. Expiry is enforced on read;
// no background sweep is required for correctness.
func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenMaintenance is one entry in a token's maintenance trail.
type TokenMaintenance struct {
	ID        uuid.UUID `json:"id"`
	TokenID   uuid.UUID `json:"token_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// Maintenance trail actions.
const (
	TokenActionCreate = "create"
	TokenActionExpire = "expire"
)
