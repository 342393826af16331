package domain

import (
	"time"

	"github.com/google/uuid"
)

// CardStatus represents the provisioning state of a card.
type CardStatus string

const (
	CardStatusActive   CardStatus = "active"
	CardStatusInactive CardStatus = "inactive"
)

// Card is an externally provisioned card. Read-only from the pipeline's
// perspective.
type Card struct {
	ID        uuid.UUID  `json:"id"`
	ClientID  uuid.UUID  `json:"client_id"`
	Status    CardStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsActive returns true if the card may be authorized against.
func (c *Card) IsActive() bool {
	return c.Status == CardStatusActive
}

// Limit is the available spending limit for a card. One row per card,
// debited on approval, never below zero.
type Limit struct {
	CardID    uuid.UUID `json:"card_id"`
	Available int64     `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}
