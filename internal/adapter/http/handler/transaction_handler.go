package handler

import (
	"time"

	"card-payment-pipeline/internal/adapter/http/dto"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"
	"card-payment-pipeline/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles the orchestrator endpoints.
type TransactionHandler struct {
	orchestrator ports.OrchestratorService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(orchestrator ports.OrchestratorService) *TransactionHandler {
	return &TransactionHandler{orchestrator: orchestrator}
}

// Process handles POST /api/v1/transaction.
func (h *TransactionHandler) Process(c *gin.Context) {
	var req dto.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.orchestrator.Process(c.Request.Context(), ports.TransactionRequest{
		TransactionID: uuid.MustParse(req.TransactionID),
		CardID:        uuid.MustParse(req.CardID),
		ClientID:      uuid.MustParse(req.ClientID),
		Amount:        req.Amount,
		OccurredAt:    req.Timestamp,
		Location:      req.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(result))
}

// Status handles GET /api/v1/transaction/:id/status.
func (h *TransactionHandler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	view, err := h.orchestrator.Status(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TransactionStatusResponse{
		TransactionID: view.TransactionID.String(),
		Status:        string(view.Status),
		LastEvent:     view.LastEvent,
		UpdatedAt:     view.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// toTransactionResponse converts the pipeline result to its DTO.
func toTransactionResponse(r *ports.TransactionResult) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		TransactionID:   r.TransactionID.String(),
		Status:          string(r.Status),
		Decision:        string(r.Decision),
		Reason:          r.Reason,
		AuthorizationID: r.AuthorizationID.String(),
		Token:           r.Token,
	}
	if r.TokenExpiresAt != nil {
		s := r.TokenExpiresAt.UTC().Format(time.RFC3339)
		resp.TokenExpiresAt = &s
	}
	if r.BatchID != nil {
		s := r.BatchID.String()
		resp.BatchID = &s
	}
	if r.DenialID != nil {
		s := r.DenialID.String()
		resp.DenialID = &s
	}
	return resp
}
