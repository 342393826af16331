package service

import (
	"context"
	"fmt"
	"time"

	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DenialServiceImpl implements ports.DenialService.
type DenialServiceImpl struct {
	repo  ports.DenialRepository
	audit ports.AuditService
	log   zerolog.Logger
}

// NewDenialService creates a new DenialServiceImpl.
func NewDenialService(repo ports.DenialRepository, audit ports.AuditService, log zerolog.Logger) *DenialServiceImpl {
	return &DenialServiceImpl{repo: repo, audit: audit, log: log}
}

// Record persists a denial reason. Denial is terminal per transaction: a
// second call returns the existing record instead of inserting a duplicate.
func (s *DenialServiceImpl) Record(ctx context.Context, transactionID uuid.UUID, reason string) (*domain.Denial, error) {
	if reason == "" {
		return nil, apperror.Validation("reason must not be empty")
	}

	denial := &domain.Denial{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}

	inserted, err := s.repo.Insert(ctx, denial)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("insert denial: %w", err))
	}
	if !inserted {
		existing, err := s.repo.GetByTransactionID(ctx, transactionID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("fetch existing denial: %w", err))
		}
		if existing == nil {
			return nil, apperror.InternalError(fmt.Errorf("denial vanished for transaction %s", transactionID))
		}
		return existing, nil
	}

	s.audit.Record(ctx, &transactionID, domain.AuditEventDenialRecorded, map[string]any{
		"denial_id": denial.ID.String(),
		"reason":    reason,
	})

	s.log.Info().
		Str("transaction_id", transactionID.String()).
		Str("denial_id", denial.ID.String()).
		Str("reason", reason).
		Msg("denial recorded")

	return denial, nil
}
