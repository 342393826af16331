package handler

import (
	"card-payment-pipeline/internal/adapter/http/middleware"
	redisStore "card-payment-pipeline/internal/adapter/storage/redis"
	"card-payment-pipeline/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc         ports.AuthService
	OrchestratorSvc ports.OrchestratorService
	AuthzSvc        ports.AuthorizationService
	FraudSvc        ports.FraudService
	TokenizerSvc    ports.TokenizerService
	SettlementSvc   ports.SettlementService
	DenialSvc       ports.DenialService
	TokenSvc        ports.TokenService
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	AuditSvc        ports.AuditService // nil = HTTP audit logging disabled
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check, wired with whatever dependency checkers are configured
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/token", rl("auth_token"), authHandler.Token)
	}

	// --- JWT-authenticated routes (service-to-service) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	transactionHandler := NewTransactionHandler(deps.OrchestratorSvc)
	authzHandler := NewAuthorizationHandler(deps.AuthzSvc)
	fraudHandler := NewFraudHandler(deps.FraudSvc)

	transaction := v1.Group("/transaction", jwtAuth)
	{
		transaction.POST("", rl("transaction"), transactionHandler.Process)
		transaction.GET("/:id/status", rl("status"), transactionHandler.Status)
		transaction.POST("/authorize", rl("authorize"), authzHandler.Authorize)
		transaction.POST("/analyze", rl("analyze"), fraudHandler.Analyze)
		transaction.GET("/:id/analysis", rl("status"), fraudHandler.Analyses)
		if deps.AuditSvc != nil {
			auditHandler := NewAuditHandler(deps.AuditSvc)
			transaction.GET("/:id/audit", rl("status"), auditHandler.Trail)
		}
	}

	tokenHandler := NewTokenHandler(deps.TokenizerSvc)
	token := v1.Group("/token", jwtAuth)
	{
		token.POST("/issue", rl("token"), tokenHandler.Issue)
	}

	settlementHandler := NewSettlementHandler(deps.SettlementSvc)
	settlement := v1.Group("/settlement", jwtAuth)
	{
		settlement.POST("/record", rl("settlement"), settlementHandler.Record)
		settlement.POST("/close", rl("settlement"), settlementHandler.Close)
	}

	denialHandler := NewDenialHandler(deps.DenialSvc)
	denial := v1.Group("/denial", jwtAuth)
	{
		denial.POST("/record", rl("denial"), denialHandler.Record)
	}

	return r
}
