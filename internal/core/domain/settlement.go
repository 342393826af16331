package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the state of a settlement batch.
type BatchStatus string

const (
	BatchStatusOpen   BatchStatus = "open"
	BatchStatusClosed BatchStatus = "closed"
)

// SettlementBatch accumulates approved transactions for one period. At most
// one open batch exists per period key; it is created lazily on the first
// settlement request of the period.
type SettlementBatch struct {
	ID        uuid.UUID   `json:"id"`
	PeriodKey string      `json:"period_key"`
	Status    BatchStatus `json:"status"`
	Total     int64       `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SettlementRecord ties a settled transaction to its batch. Unique per
// transaction id so a retried settlement never double-counts.
type SettlementRecord struct {
	ID            uuid.UUID `json:"id"`
	BatchID       uuid.UUID `json:"batch_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// PeriodKey returns the settlement period key for a point in time
// (calendar day, UTC).
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
