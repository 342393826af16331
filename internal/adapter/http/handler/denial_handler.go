package handler

import (
	"card-payment-pipeline/internal/adapter/http/dto"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"
	"card-payment-pipeline/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DenialHandler handles the denial recorder endpoint.
type DenialHandler struct {
	denialSvc ports.DenialService
}

// NewDenialHandler creates a new DenialHandler.
func NewDenialHandler(denialSvc ports.DenialService) *DenialHandler {
	return &DenialHandler{denialSvc: denialSvc}
}

// Record handles POST /api/v1/denial/record.
func (h *DenialHandler) Record(c *gin.Context) {
	var req dto.DenialRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	denial, err := h.denialSvc.Record(c.Request.Context(), uuid.MustParse(req.TransactionID), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.DenialRecordResponse{
		DenialID: denial.ID.String(),
	})
}
