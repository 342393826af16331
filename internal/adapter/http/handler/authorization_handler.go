package handler

import (
	"card-payment-pipeline/internal/adapter/http/dto"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"
	"card-payment-pipeline/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthorizationHandler handles the authorization gate endpoint.
type AuthorizationHandler struct {
	authzSvc ports.AuthorizationService
}

// NewAuthorizationHandler creates a new AuthorizationHandler.
func NewAuthorizationHandler(authzSvc ports.AuthorizationService) *AuthorizationHandler {
	return &AuthorizationHandler{authzSvc: authzSvc}
}

// Authorize handles POST /api/v1/transaction/authorize.
func (h *AuthorizationHandler) Authorize(c *gin.Context) {
	var req dto.AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.authzSvc.Authorize(c.Request.Context(), ports.AuthorizationRequest{
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

	response.OK(c, dto.AuthorizeResponse{
		Status:          string(result.Decision),
		AuthorizationID: result.AuthorizationID.String(),
		Reason:          result.Reason,
	})
}
