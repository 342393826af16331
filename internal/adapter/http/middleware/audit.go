package middleware

import (
	"card-payment-pipeline/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// AuditLog creates an audit middleware that records successful write
// operations at the HTTP boundary. Pipeline stage events are appended by the
// services themselves; this layer captures who called which surface, with no
// transaction binding.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		event := mapPathToEvent(c.Request.URL.Path, c.Request.Method)
		if event == "" {
			return
		}

		serviceID := ""
		if sid, exists := c.Get(CtxServiceID); exists {
			serviceID, _ = sid.(string)
		}

		auditSvc.Record(c.Request.Context(), nil, event, map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"client_ip":  c.ClientIP(),
			"service_id": serviceID,
		})
	}
}

func mapPathToEvent(path, method string) string {
	if method != "POST" {
		return ""
	}
	switch path {
	case "/api/v1/transaction":
		return "http_transaction_submitted"
	case "/api/v1/transaction/authorize":
		return "http_authorization_requested"
	case "/api/v1/transaction/analyze":
		return "http_analysis_requested"
	case "/api/v1/token/issue":
		return "http_token_requested"
	case "/api/v1/settlement/record":
		return "http_settlement_requested"
	case "/api/v1/settlement/close":
		return "http_settlement_closed"
	case "/api/v1/denial/record":
		return "http_denial_requested"
	}
	return ""
}
