package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrchestratorServiceImpl implements ports.OrchestratorService. It drives a
// transaction through initiated -> authorized|denied -> tokenized ->
// settled|denied, persisting every transition before attempting the next
// one, and marks the transaction error when an upstream call fails.
type OrchestratorServiceImpl struct {
	registry   ports.ClientRegistry
	cardRepo   ports.CardRepository
	txRepo     ports.TransactionRepository
	authorizer ports.AuthorizationClient
	tokenizer  ports.TokenClient
	settler    ports.SettlementClient
	denier     ports.DenialClient
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewOrchestratorService creates a new OrchestratorServiceImpl.
func NewOrchestratorService(
	registry ports.ClientRegistry,
	cardRepo ports.CardRepository,
	txRepo ports.TransactionRepository,
	authorizer ports.AuthorizationClient,
	tokenizer ports.TokenClient,
	settler ports.SettlementClient,
	denier ports.DenialClient,
	audit ports.AuditService,
	log zerolog.Logger,
) *OrchestratorServiceImpl {
	return &OrchestratorServiceImpl{
		registry:   registry,
		cardRepo:   cardRepo,
		txRepo:     txRepo,
		authorizer: authorizer,
		tokenizer:  tokenizer,
		settler:    settler,
		denier:     denier,
		audit:      audit,
		log:        log,
	}
}

// Process runs the pipeline for one transaction intent.
//
// The pipeline keeps running if the caller disconnects: side effects of a
// financial transaction are never silently dropped, so all downstream work
// uses a context detached from the request's cancellation.
func (s *OrchestratorServiceImpl) Process(ctx context.Context, req ports.TransactionRequest) (*ports.TransactionResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}
	ctx = context.WithoutCancel(ctx)

	// External client validation against the regulator registry.
	exists, err := s.registry.ClientExists(ctx, req.ClientID)
	if err != nil {
		return nil, apperror.ErrUpstreamUnavailable("registry", err)
	}
	if !exists {
		return nil, apperror.ErrClientNotFound()
	}

	// Local validation: the card must exist, belong to the client and be active.
	card, err := s.cardRepo.GetByIDAndClient(ctx, req.CardID, req.ClientID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("card lookup: %w", err))
	}
	if card == nil || !card.IsActive() {
		return nil, apperror.ErrCardNotFound()
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:         req.TransactionID,
		CardID:     req.CardID,
		ClientID:   req.ClientID,
		Amount:     req.Amount,
		Location:   req.Location,
		OccurredAt: req.OccurredAt,
		Status:     domain.TransactionStatusInitiated,
		LastEvent:  domain.AuditEventTransactionInitiated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := s.txRepo.Create(ctx, txn)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}
	if !created {
		return nil, apperror.ErrDuplicateTransaction()
	}
	s.audit.Record(ctx, &txn.ID, domain.AuditEventTransactionInitiated, map[string]any{
		"card_id":   req.CardID.String(),
		"client_id": req.ClientID.String(),
		"amount":    req.Amount,
		"location":  req.Location,
	})

	// Authorization gate.
	authz, err := s.authorizer.Authorize(ctx, ports.AuthorizationRequest{
		TransactionID: req.TransactionID,
		CardID:        req.CardID,
		ClientID:      req.ClientID,
		Amount:        req.Amount,
		OccurredAt:    req.OccurredAt,
		Location:      req.Location,
	})
	if err != nil {
		return nil, s.failPipeline(ctx, txn.ID, "authorization", err)
	}

	if authz.Decision == domain.DecisionDenied {
		return s.recordDenial(ctx, txn.ID, authz)
	}

	if err := s.transition(ctx, txn.ID, domain.TransactionStatusAuthorized, domain.AuditEventAuthorizationApproved); err != nil {
		return nil, err
	}

	// Tokenization.
	token, err := s.tokenizer.Issue(ctx, ports.TokenIssueRequest{
		TransactionID: req.TransactionID,
		CardID:        req.CardID,
		Amount:        req.Amount,
	})
	if err != nil {
		return nil, s.failPipeline(ctx, txn.ID, "tokenizer", err)
	}
	if err := s.transition(ctx, txn.ID, domain.TransactionStatusTokenized, domain.AuditEventTokenIssued); err != nil {
		return nil, err
	}

	// Settlement.
	settlement, err := s.settler.Record(ctx, req.TransactionID, req.Amount)
	if err != nil {
		return nil, s.failPipeline(ctx, txn.ID, "settlement", err)
	}
	if err := s.transition(ctx, txn.ID, domain.TransactionStatusSettled, domain.AuditEventSettlementRecorded); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("transaction_id", txn.ID.String()).
		Str("batch_id", settlement.BatchID.String()).
		Msg("transaction settled")

	expiresAt := token.ExpiresAt
	return &ports.TransactionResult{
		TransactionID:   txn.ID,
		Status:          domain.TransactionStatusSettled,
		Decision:        domain.DecisionApproved,
		AuthorizationID: authz.AuthorizationID,
		Token:           token.Value,
		TokenExpiresAt:  &expiresAt,
		BatchID:         &settlement.BatchID,
	}, nil
}

// recordDenial finishes the pipeline for a denied transaction.
func (s *OrchestratorServiceImpl) recordDenial(ctx context.Context, txID uuid.UUID, authz *ports.AuthorizationResult) (*ports.TransactionResult, error) {
	if err := s.transition(ctx, txID, domain.TransactionStatusDenied, domain.AuditEventAuthorizationDenied); err != nil {
		return nil, err
	}

	denial, err := s.denier.Record(ctx, txID, authz.Reason)
	if err != nil {
		return nil, s.failPipeline(ctx, txID, "denial recorder", err)
	}
	s.audit.Record(ctx, &txID, domain.AuditEventDenialRecorded, map[string]any{
		"denial_id": denial.ID.String(),
		"reason":    authz.Reason,
	})

	return &ports.TransactionResult{
		TransactionID:   txID,
		Status:          domain.TransactionStatusDenied,
		Decision:        domain.DecisionDenied,
		Reason:          authz.Reason,
		AuthorizationID: authz.AuthorizationID,
		DenialID:        &denial.ID,
	}, nil
}

// Status returns the last durably completed step for a transaction.
func (s *OrchestratorServiceImpl) Status(ctx context.Context, transactionID uuid.UUID) (*ports.TransactionStatusView, error) {
	txn, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("transaction lookup: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	return &ports.TransactionStatusView{
		TransactionID: txn.ID,
		Status:        txn.Status,
		LastEvent:     txn.LastEvent,
		UpdatedAt:     txn.UpdatedAt,
	}, nil
}

// transition durably records one lifecycle step before the next is attempted.
func (s *OrchestratorServiceImpl) transition(ctx context.Context, txID uuid.UUID, status domain.TransactionStatus, event string) error {
	if err := s.txRepo.UpdateStatus(ctx, txID, status, event); err != nil {
		return apperror.InternalError(fmt.Errorf("transition to %s: %w", status, err))
	}
	s.audit.Record(ctx, &txID, event, map[string]any{"status": string(status)})
	return nil
}

// failPipeline halts the pipeline: the transaction is marked error, the
// failure is audited and the upstream error is surfaced to the caller.
// A transaction that already reached a terminal state keeps it; terminal
// states are immutable.
func (s *OrchestratorServiceImpl) failPipeline(ctx context.Context, txID uuid.UUID, stage string, cause error) error {
	txn, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		s.log.Error().Err(err).
			Str("transaction_id", txID.String()).
			Msg("failed to load transaction before marking error")
	}
	if txn == nil || !txn.IsTerminal() {
		if err := s.txRepo.UpdateStatus(ctx, txID, domain.TransactionStatusError, domain.AuditEventPipelineError); err != nil {
			s.log.Error().Err(err).
				Str("transaction_id", txID.String()).
				Msg("failed to mark transaction error")
		}
	}
	s.audit.Record(ctx, &txID, domain.AuditEventPipelineError, map[string]any{
		"stage": stage,
		"error": cause.Error(),
	})

	s.log.Error().Err(cause).
		Str("transaction_id", txID.String()).
		Str("stage", stage).
		Msg("pipeline halted")

	var appErr *apperror.AppError
	if errors.As(cause, &appErr) {
		return appErr
	}
	return apperror.ErrUpstreamUnavailable(stage, cause)
}
