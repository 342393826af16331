package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const settlementCacheTTL = 24 * time.Hour

// IdempotencyCache is the Redis fast path for settlement idempotency. The
// database unique constraint on transaction id remains authoritative.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SettlementServiceImpl implements ports.SettlementService.
type SettlementServiceImpl struct {
	repo       ports.SettlementRepository
	cache      IdempotencyCache
	transactor ports.DBTransactor
	audit      ports.AuditService
	now        func() time.Time
	log        zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	repo ports.SettlementRepository,
	cache IdempotencyCache,
	transactor ports.DBTransactor,
	audit ports.AuditService,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		repo:       repo,
		cache:      cache,
		transactor: transactor,
		audit:      audit,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// cachedResult is the serialized form stored in the idempotency cache.
type cachedResult struct {
	BatchID   uuid.UUID          `json:"batch_id"`
	PeriodKey string             `json:"period_key"`
	Status    domain.BatchStatus `json:"status"`
	Total     int64              `json:"total"`
}

// Record accumulates one transaction into the current period's open batch,
// exactly once per transaction id. Concurrent settlements serialize on the
// batch row lock; a retried call returns the original batch without
// touching the total.
func (s *SettlementServiceImpl) Record(ctx context.Context, transactionID uuid.UUID, amount int64) (*ports.SettlementResult, error) {
	if amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	cacheKey := "settlement:" + transactionID.String()

	// Fast path: a completed settlement for this transaction.
	if cached, err := s.cache.Get(ctx, cacheKey); err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("settlement cache check failed, falling through to DB")
	} else if cached != nil {
		var cr cachedResult
		if err := json.Unmarshal(cached, &cr); err == nil {
			return &ports.SettlementResult{
				BatchID:   cr.BatchID,
				PeriodKey: cr.PeriodKey,
				Status:    cr.Status,
				Total:     cr.Total,
				Duplicate: true,
			}, nil
		}
	}

	periodKey := domain.PeriodKey(s.now())

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	batch, err := s.repo.GetOpenBatchForUpdate(ctx, dbTx, periodKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock batch: %w", err))
	}
	if batch == nil {
		batch = &domain.SettlementBatch{
			ID:        uuid.New(),
			PeriodKey: periodKey,
			Status:    domain.BatchStatusOpen,
			Total:     0,
			CreatedAt: s.now(),
			UpdatedAt: s.now(),
		}
		if err := s.repo.CreateBatch(ctx, dbTx, batch); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create batch: %w", err))
		}
		// A concurrent creator may have won; take the surviving row's lock.
		batch, err = s.repo.GetOpenBatchForUpdate(ctx, dbTx, periodKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("relock batch: %w", err))
		}
		if batch == nil {
			return nil, apperror.InternalError(fmt.Errorf("open batch missing after create, period %s", periodKey))
		}
	}

	record := &domain.SettlementRecord{
		ID:            uuid.New(),
		BatchID:       batch.ID,
		TransactionID: transactionID,
		Amount:        amount,
		CreatedAt:     s.now(),
	}
	inserted, err := s.repo.InsertRecord(ctx, dbTx, record)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("insert settlement record: %w", err))
	}
	if !inserted {
		// Retried call: the transaction is already settled. Return the
		// original batch and leave the total alone.
		if err := dbTx.Rollback(ctx); err != nil {
			s.log.Warn().Err(err).Msg("rollback after duplicate settlement")
		}
		return s.existingResult(ctx, transactionID)
	}

	if err := s.repo.AddToTotal(ctx, dbTx, batch.ID, amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("increment batch total: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	result := &ports.SettlementResult{
		BatchID:   batch.ID,
		PeriodKey: periodKey,
		Status:    batch.Status,
		Total:     batch.Total + amount,
	}

	// Best-effort cache of the completed settlement.
	if payload, err := json.Marshal(cachedResult{
		BatchID:   result.BatchID,
		PeriodKey: result.PeriodKey,
		Status:    result.Status,
		Total:     result.Total,
	}); err == nil {
		if err := s.cache.Set(ctx, cacheKey, payload, settlementCacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache settlement result")
		}
	}

	s.audit.Record(ctx, &transactionID, domain.AuditEventSettlementRecorded, map[string]any{
		"batch_id":   batch.ID.String(),
		"period_key": periodKey,
		"amount":     amount,
	})

	s.log.Info().
		Str("transaction_id", transactionID.String()).
		Str("batch_id", batch.ID.String()).
		Str("period_key", periodKey).
		Int64("amount", amount).
		Msg("settlement recorded")

	return result, nil
}

// existingResult resolves a duplicate settlement call from the committed
// record and its batch.
func (s *SettlementServiceImpl) existingResult(ctx context.Context, transactionID uuid.UUID) (*ports.SettlementResult, error) {
	record, err := s.repo.GetRecordByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch settlement record: %w", err))
	}
	if record == nil {
		return nil, apperror.InternalError(fmt.Errorf("settlement record vanished for transaction %s", transactionID))
	}
	batch, err := s.repo.GetBatchByID(ctx, record.BatchID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch batch: %w", err))
	}
	if batch == nil {
		return nil, apperror.InternalError(fmt.Errorf("batch vanished: %s", record.BatchID))
	}
	return &ports.SettlementResult{
		BatchID:   batch.ID,
		PeriodKey: batch.PeriodKey,
		Status:    batch.Status,
		Total:     batch.Total,
		Duplicate: true,
	}, nil
}

// CloseCurrent closes the current period's open batch.
func (s *SettlementServiceImpl) CloseCurrent(ctx context.Context) (*domain.SettlementBatch, error) {
	periodKey := domain.PeriodKey(s.now())
	batch, err := s.repo.CloseBatch(ctx, periodKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("close batch: %w", err))
	}
	if batch == nil {
		return nil, apperror.ErrBatchNotFound()
	}

	s.log.Info().
		Str("batch_id", batch.ID.String()).
		Str("period_key", periodKey).
		Int64("total", batch.Total).
		Msg("settlement batch closed")

	return batch, nil
}
