package handler

import (
	"card-payment-pipeline/internal/adapter/http/dto"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"
	"card-payment-pipeline/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlementHandler handles the settlement batcher endpoints.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// Record handles POST /api/v1/settlement/record.
func (h *SettlementHandler) Record(c *gin.Context) {
	var req dto.SettlementRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.Record(c.Request.Context(), uuid.MustParse(req.TransactionID), req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.SettlementRecordResponse{
		BatchID:   result.BatchID.String(),
		PeriodKey: result.PeriodKey,
		Status:    string(result.Status),
		Total:     result.Total,
		Duplicate: result.Duplicate,
	}
	if result.Duplicate {
		response.OK(c, resp)
		return
	}
	response.Created(c, resp)
}

// Close handles POST /api/v1/settlement/close.
func (h *SettlementHandler) Close(c *gin.Context) {
	batch, err := h.settlementSvc.CloseCurrent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SettlementCloseResponse{
		BatchID:   batch.ID.String(),
		PeriodKey: batch.PeriodKey,
		Status:    string(batch.Status),
		Total:     batch.Total,
	})
}
