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

// TokenHandler handles the tokenizer endpoint.
type TokenHandler struct {
	tokenizerSvc ports.TokenizerService
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokenizerSvc ports.TokenizerService) *TokenHandler {
	return &TokenHandler{tokenizerSvc: tokenizerSvc}
}

// Issue handles POST /api/v1/token/issue.
func (h *TokenHandler) Issue(c *gin.Context) {
	var req dto.TokenIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	token, err := h.tokenizerSvc.Issue(c.Request.Context(), ports.TokenIssueRequest{
		TransactionID: uuid.MustParse(req.TransactionID),
		CardID:        uuid.MustParse(req.CardID),
		Amount:        req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.TokenIssueResponse{
		TokenID:   token.ID.String(),
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
