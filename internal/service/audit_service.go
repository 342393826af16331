package service

import (
	"context"
	"encoding/json"
	"time"

	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuditServiceImpl implements ports.AuditService over the append-only
// audit repository.
type AuditServiceImpl struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new AuditServiceImpl.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) *AuditServiceImpl {
	return &AuditServiceImpl{repo: repo, log: log}
}

// Record appends one audit entry. Failures are logged and swallowed: an
// audit write must never mask the error of the operation it describes.
func (s *AuditServiceImpl) Record(ctx context.Context, transactionID *uuid.UUID, event string, details any) {
	var detailsJSON string
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}

	entry := &domain.AuditLog{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Event:         event,
		Details:       detailsJSON,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logEvent := s.log.Warn().Err(err).Str("event", event)
		if transactionID != nil {
			logEvent = logEvent.Str("transaction_id", transactionID.String())
		}
		logEvent.Msg("failed to append audit entry")
	}
}

// Trail returns the audit entries for one transaction, oldest first.
func (s *AuditServiceImpl) Trail(ctx context.Context, transactionID uuid.UUID) ([]domain.AuditLog, error) {
	return s.repo.ListByTransaction(ctx, transactionID)
}
