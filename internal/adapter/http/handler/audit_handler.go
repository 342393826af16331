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

// AuditHandler serves the read side of the audit trail.
type AuditHandler struct {
	auditSvc ports.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditSvc ports.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// Trail handles GET /api/v1/transaction/:id/audit.
func (h *AuditHandler) Trail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	logs, err := h.auditSvc.Trail(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.AuditTrailResponse{
		TransactionID: id.String(),
		Events:        make([]dto.AuditEntry, 0, len(logs)),
	}
	for _, l := range logs {
		resp.Events = append(resp.Events, dto.AuditEntry{
			Event:     l.Event,
			Details:   l.Details,
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	response.OK(c, resp)
}
