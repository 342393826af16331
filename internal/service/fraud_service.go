package service

import (
	"context"
	"fmt"
	"time"

	"card-payment-pipeline/config"
	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fraudRule is one independent suspicion predicate over the current
// transaction and the card's historical aggregate. Rules never short-circuit
// and must not depend on each other's outcome.
type fraudRule struct {
	tag   string
	fires func(req ports.FraudRequest, hist *domain.CardHistory) bool
}

// FraudServiceImpl implements ports.FraudService with a deterministic,
// pluggable rule set.
type FraudServiceImpl struct {
	txRepo    ports.TransactionRepository
	fraudRepo ports.FraudAnalysisRepository
	rules     []fraudRule
	log       zerolog.Logger
}

// NewFraudService creates a FraudServiceImpl with the threshold-configured
// rule set.
func NewFraudService(
	txRepo ports.TransactionRepository,
	fraudRepo ports.FraudAnalysisRepository,
	cfg config.FraudConfig,
	log zerolog.Logger,
) *FraudServiceImpl {
	return &FraudServiceImpl{
		txRepo:    txRepo,
		fraudRepo: fraudRepo,
		rules:     buildRules(cfg),
		log:       log,
	}
}

func buildRules(cfg config.FraudConfig) []fraudRule {
	return []fraudRule{
		{
			tag: domain.FactorHighValue,
			fires: func(req ports.FraudRequest, _ *domain.CardHistory) bool {
				return req.Amount >= cfg.HighValueThreshold
			},
		},
		{
			tag: domain.FactorHighFrequency,
			fires: func(_ ports.FraudRequest, hist *domain.CardHistory) bool {
				return hist.CountLastHour >= cfg.FrequencyThreshold
			},
		},
		{
			tag: domain.FactorHighPeriodVolume,
			fires: func(req ports.FraudRequest, hist *domain.CardHistory) bool {
				return hist.SumLastHour+req.Amount >= cfg.PeriodVolumeCeiling
			},
		},
		{
			tag: domain.FactorAnomalousMagnitude,
			fires: func(req ports.FraudRequest, hist *domain.CardHistory) bool {
				if hist.AvgAmount30d <= 0 {
					return false
				}
				return float64(req.Amount) >= hist.AvgAmount30d*cfg.MagnitudeMultiplier
			},
		},
		{
			tag: domain.FactorRapidRepeat,
			fires: func(req ports.FraudRequest, hist *domain.CardHistory) bool {
				if hist.LastTransactionAt == nil {
					return false
				}
				return req.OccurredAt.Sub(*hist.LastTransactionAt) < cfg.RapidRepeatWindow
			},
		},
	}
}

// Evaluate scores one transaction. All rules run against the same history
// snapshot; the verdict is derived only after every tag is collected. A
// history failure yields an error verdict and a failure return, never a
// false verdict.
func (s *FraudServiceImpl) Evaluate(ctx context.Context, req ports.FraudRequest) (*domain.FraudAnalysis, error) {
	hist, err := s.txRepo.CardHistory(ctx, req.CardID, req.TransactionID, req.OccurredAt)
	if err != nil {
		s.recordErrorAnalysis(ctx, req)
		return nil, apperror.InternalError(fmt.Errorf("card history: %w", err))
	}

	factors := make([]string, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.fires(req, hist) {
			factors = append(factors, rule.tag)
		}
	}

	verdict := domain.FraudVerdictNormal
	if len(factors) > 0 {
		verdict = domain.FraudVerdictSuspicious
	}

	analysis := &domain.FraudAnalysis{
		ID:            uuid.New(),
		TransactionID: req.TransactionID,
		Verdict:       verdict,
		Factors:       factors,
		AnalyzedAt:    time.Now().UTC(),
	}
	if err := s.fraudRepo.Create(ctx, analysis); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persist fraud analysis: %w", err))
	}

	s.log.Info().
		Str("transaction_id", req.TransactionID.String()).
		Str("verdict", string(verdict)).
		Strs("factors", factors).
		Msg("fraud evaluation completed")

	return analysis, nil
}

// recordErrorAnalysis appends an error-verdict row so the failed evaluation
// Analyses lists every evaluation recorded for a transaction.
func (s *FraudServiceImpl) Analyses(ctx context.Context, transactionID uuid.UUID) ([]domain.FraudAnalysis, error) {
	analyses, err := s.fraudRepo.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list analyses: %w", err))
	}
	return analyses, nil
}

// is visible in the trail. Best effort: the original failure wins.
func (s *FraudServiceImpl) recordErrorAnalysis(ctx context.Context, req ports.FraudRequest) {
	analysis := &domain.FraudAnalysis{
		ID:            uuid.New(),
		TransactionID: req.TransactionID,
		Verdict:       domain.FraudVerdictError,
		Factors:       []string{},
		AnalyzedAt:    time.Now().UTC(),
	}
	if err := s.fraudRepo.Create(ctx, analysis); err != nil {
		s.log.Warn().Err(err).
			Str("transaction_id", req.TransactionID.String()).
			Msg("failed to record error-verdict analysis")
	}
}
