package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionStatus represents the lifecycle state of a transaction as it
// moves through the pipeline. Each status is set exactly once; settled,
// denied and error are terminal.
type TransactionStatus string

const (
	TransactionStatusInitiated  TransactionStatus = "initiated"
	TransactionStatusAuthorized TransactionStatus = "authorized"
	TransactionStatusDenied     TransactionStatus = "denied"
	TransactionStatusTokenized  TransactionStatus = "tokenized"
	TransactionStatusSettled    TransactionStatus = "settled"
	TransactionStatusError      TransactionStatus = "error"
)

// Transaction is a card transaction moving through the pipeline. Amounts are
// integral units (no fractional cents).
type Transaction struct {
	ID         uuid.UUID         `json:"id"`
	CardID     uuid.UUID         `json:"card_id"`
	ClientID   uuid.UUID         `json:"client_id"`
	Amount     int64             `json:"amount"`
	Location   string            `json:"location"`
	OccurredAt time.Time         `json:"occurred_at"`
	Status     TransactionStatus `json:"status"`
	LastEvent  string            `json:"last_event"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// IsTerminal returns true if the transaction reached a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSettled ||
		t.Status == TransactionStatusDenied ||
		t.Status == TransactionStatusError
}
