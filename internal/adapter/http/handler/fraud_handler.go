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

// FraudHandler handles the fraud evaluator endpoints.
type FraudHandler struct {
	fraudSvc ports.FraudService
}

// NewFraudHandler creates a new FraudHandler.
func NewFraudHandler(fraudSvc ports.FraudService) *FraudHandler {
	return &FraudHandler{fraudSvc: fraudSvc}
}

// Analyze handles POST /api/v1/transaction/analyze.
func (h *FraudHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	analysis, err := h.fraudSvc.Evaluate(c.Request.Context(), ports.FraudRequest{
		TransactionID: uuid.MustParse(req.TransactionID),
		CardID:        uuid.MustParse(req.CardID),
		Amount:        req.Amount,
		OccurredAt:    req.Timestamp,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	factors := analysis.Factors
	if factors == nil {
		factors = []string{}
	}
	response.OK(c, dto.AnalyzeResponse{
		Status:  string(analysis.Verdict),
		Factors: factors,
	})
}

// Analyses handles GET /api/v1/transaction/:id/analysis.
func (h *FraudHandler) Analyses(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	analyses, err := h.fraudSvc.Analyses(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.AnalysisListResponse{
		TransactionID: id.String(),
		Analyses:      make([]dto.AnalysisEntry, 0, len(analyses)),
	}
	for _, a := range analyses {
		factors := a.Factors
		if factors == nil {
			factors = []string{}
		}
		resp.Analyses = append(resp.Analyses, dto.AnalysisEntry{
			Verdict:    string(a.Verdict),
			Factors:    factors,
			AnalyzedAt: a.AnalyzedAt.UTC().Format(time.RFC3339),
		})
	}
	response.OK(c, resp)
}
