package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid service credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Validation & Lookups (VAL / REG / CARD / TXN) ----

func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrClientNotFound() *AppError {
	return New("REG_001", "Client not registered", http.StatusNotFound)
}

func ErrCardNotFound() *AppError {
	return New("CARD_001", "Card not found for client", http.StatusNotFound)
}

func ErrTransactionNotFound() *AppError {
	return New("TXN_001", "Transaction not found", http.StatusNotFound)
}

func ErrDuplicateTransaction() *AppError {
	return New("TXN_002", "Transaction already exists", http.StatusConflict)
}

func ErrTokenNotFound() *AppError {
	return New("TOK_001", "Token not found", http.StatusNotFound)
}

func ErrBatchNotFound() *AppError {
	return New("SET_001", "No open settlement batch for period", http.StatusNotFound)
}

// ---- Upstream services (UPS) ----

// ErrUpstreamUnavailable marks a sibling-service call that timed out or
// failed to connect. The pipeline halts and the transaction is marked error.
func ErrUpstreamUnavailable(service string, err error) *AppError {
	return Wrap("UPS_001", fmt.Sprintf("Upstream service %s unavailable", service), http.StatusBadGateway, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
