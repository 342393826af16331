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

// AuthorizationServiceImpl implements ports.AuthorizationService.
//
// The fraud evaluator is consulted before the database transaction opens:
// no row lock is ever held across a network call. The transaction exists
// only to persist the already-computed decision and, on approval, debit the
// limit in the same unit of work.
type AuthorizationServiceImpl struct {
	cardRepo   ports.CardRepository
	limitRepo  ports.LimitRepository
	authzRepo  ports.AuthorizationRepository
	fraud      ports.FraudClient
	transactor ports.DBTransactor
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewAuthorizationService creates a new AuthorizationServiceImpl.
func NewAuthorizationService(
	cardRepo ports.CardRepository,
	limitRepo ports.LimitRepository,
	authzRepo ports.AuthorizationRepository,
	fraud ports.FraudClient,
	transactor ports.DBTransactor,
	audit ports.AuditService,
	log zerolog.Logger,
) *AuthorizationServiceImpl {
	return &AuthorizationServiceImpl{
		cardRepo:   cardRepo,
		limitRepo:  limitRepo,
		authzRepo:  authzRepo,
		fraud:      fraud,
		transactor: transactor,
		audit:      audit,
		log:        log,
	}
}

// Authorize decides one transaction. Denial is an expected outcome carried
// in the result, not an error; only lookup and infrastructure failures
// return errors.
func (s *AuthorizationServiceImpl) Authorize(ctx context.Context, req ports.AuthorizationRequest) (*ports.AuthorizationResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	card, err := s.cardRepo.GetByIDAndClient(ctx, req.CardID, req.ClientID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("card lookup: %w", err))
	}
	if card == nil {
		return nil, apperror.ErrCardNotFound()
	}
	if !card.IsActive() {
		return s.commitDecision(ctx, req, domain.DecisionDenied, domain.ReasonCardInactive)
	}

	// Pre-check against a non-locking read. The authoritative check happens
	// again under the row lock; this only avoids a pointless fraud call.
	limit, err := s.limitRepo.GetByCardID(ctx, req.CardID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("limit lookup: %w", err))
	}
	if limit == nil {
		return nil, apperror.ErrCardNotFound()
	}
	if limit.Available < req.Amount {
		return s.commitDecision(ctx, req, domain.DecisionDenied, domain.ReasonLimitInsufficient)
	}

	// Fraud check, outside any database transaction. Fail closed: a verdict
	// we could not obtain is treated as a denial, never an approval.
	verdict, err := s.fraud.Analyze(ctx, ports.FraudRequest{
		TransactionID: req.TransactionID,
		CardID:        req.CardID,
		Amount:        req.Amount,
		OccurredAt:    req.OccurredAt,
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("transaction_id", req.TransactionID.String()).
			Msg("fraud evaluator unavailable, denying")
		return s.commitDecision(ctx, req, domain.DecisionDenied, domain.ReasonFraudUnavailable)
	}
	if verdict.Verdict != domain.FraudVerdictNormal {
		return s.commitDecision(ctx, req, domain.DecisionDenied, domain.ReasonFraudSuspicious)
	}

	return s.commitDecision(ctx, req, domain.DecisionApproved, "")
}

// commitDecision persists the authorization row and, for approvals, the
// limit debit in one unit of work. A concurrent approval that drained the
// limit converts the decision to a limit_insufficient denial under the lock.
func (s *AuthorizationServiceImpl) commitDecision(ctx context.Context, req ports.AuthorizationRequest, decision domain.Decision, reason string) (*ports.AuthorizationResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if decision == domain.DecisionApproved {
		limit, err := s.limitRepo.GetByCardIDForUpdate(ctx, dbTx, req.CardID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock limit: %w", err))
		}
		if limit == nil {
			return nil, apperror.ErrCardNotFound()
		}

		debited, err := s.limitRepo.Debit(ctx, dbTx, req.CardID, req.Amount)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("debit limit: %w", err))
		}
		if !debited {
			decision = domain.DecisionDenied
			reason = domain.ReasonLimitInsufficient
		}
	}

	authz := &domain.Authorization{
		ID:            uuid.New(),
		TransactionID: req.TransactionID,
		CardID:        req.CardID,
		Amount:        req.Amount,
		Decision:      decision,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.authzRepo.Create(ctx, dbTx, authz); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create authorization: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	event := domain.AuditEventAuthorizationApproved
	if decision == domain.DecisionDenied {
		event = domain.AuditEventAuthorizationDenied
	}
	s.audit.Record(ctx, &req.TransactionID, event, map[string]any{
		"authorization_id": authz.ID.String(),
		"card_id":          req.CardID.String(),
		"amount":           req.Amount,
		"reason":           reason,
	})

	s.log.Info().
		Str("transaction_id", req.TransactionID.String()).
		Str("authorization_id", authz.ID.String()).
		Str("decision", string(decision)).
		Str("reason", reason).
		Msg("authorization committed")

	return &ports.AuthorizationResult{
		AuthorizationID: authz.ID,
		Decision:        decision,
		Reason:          reason,
	}, nil
}
