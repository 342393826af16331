package domain

import (
	"time"

	"github.com/google/uuid"
)

// Denial records why a transaction was denied. At most one per transaction;
// denial is terminal.
type Denial struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}
