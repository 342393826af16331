package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"card-payment-pipeline/config"
	"card-payment-pipeline/internal/adapter/client"
	httpHandler "card-payment-pipeline/internal/adapter/http/handler"
	pgStorage "card-payment-pipeline/internal/adapter/storage/postgres"
	redisStorage "card-payment-pipeline/internal/adapter/storage/redis"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/internal/service"
	"card-payment-pipeline/pkg/logger"
)

// serviceSubject identifies this deployment in service-to-service calls.
const serviceSubject = "card-payment-pipeline"

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Card Payment Pipeline")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	cardRepo := pgStorage.NewCardRepo(pool)
	limitRepo := pgStorage.NewLimitRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	fraudRepo := pgStorage.NewFraudAnalysisRepo(pool)
	authzRepo := pgStorage.NewAuthorizationRepo(pool)
	tokenRepo := pgStorage.NewTokenRepo(pool)
	settlementRepo := pgStorage.NewSettlementRepo(pool)
	denialRepo := pgStorage.NewDenialRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	authSvc := service.NewAuthService(cfg.Auth.ServiceCredentials, tokenSvc)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Initialize pipeline component services
	fraudSvc := service.NewFraudService(txRepo, fraudRepo, cfg.Fraud, log)
	tokenizerSvc := service.NewTokenizerService(cardRepo, tokenRepo, cfg.Tokenizer.TTL, log)
	settlementSvc := service.NewSettlementService(settlementRepo, idempotencyCache, transactor, auditSvc, log)
	denialSvc := service.NewDenialService(denialRepo, auditSvc, log)

	// Wire outbound clients. An empty upstream URL means the component runs
	// in-process; a configured URL points at a sibling deployment.
	httpClient := client.NewHTTPClient(cfg.Upstream.Timeout)

	var registry ports.ClientRegistry
	if cfg.Upstream.RegistryURL != "" {
		registry = client.NewRegistryHTTPClient(cfg.Upstream.RegistryURL, httpClient, cfg.Upstream.RetryMax, cfg.Upstream.RetryBackoff, log)
	} else {
		registry = client.NewStaticRegistry()
		log.Warn().Msg("No registry URL configured, accepting all clients")
	}

	var fraudClient ports.FraudClient
	if cfg.Upstream.FraudURL != "" {
		fraudClient = client.NewFraudHTTPClient(cfg.Upstream.FraudURL, httpClient, tokenSvc, serviceSubject, log)
	} else {
		fraudClient = client.NewLocalFraudClient(fraudSvc)
	}

	authzSvc := service.NewAuthorizationService(cardRepo, limitRepo, authzRepo, fraudClient, transactor, auditSvc, log)

	var authzClient ports.AuthorizationClient
	if cfg.Upstream.AuthorizationURL != "" {
		authzClient = client.NewAuthorizationHTTPClient(cfg.Upstream.AuthorizationURL, httpClient, tokenSvc, serviceSubject, log)
	} else {
		authzClient = client.NewLocalAuthorizationClient(authzSvc)
	}

	var tokenClient ports.TokenClient
	if cfg.Upstream.TokenizerURL != "" {
		tokenClient = client.NewTokenHTTPClient(cfg.Upstream.TokenizerURL, httpClient, tokenSvc, serviceSubject, log)
	} else {
		tokenClient = client.NewLocalTokenClient(tokenizerSvc)
	}

	var settlementClient ports.SettlementClient
	if cfg.Upstream.SettlementURL != "" {
		settlementClient = client.NewSettlementHTTPClient(cfg.Upstream.SettlementURL, httpClient, tokenSvc, serviceSubject, log)
	} else {
		settlementClient = client.NewLocalSettlementClient(settlementSvc)
	}

	var denialClient ports.DenialClient
	if cfg.Upstream.DenialURL != "" {
		denialClient = client.NewDenialHTTPClient(cfg.Upstream.DenialURL, httpClient, tokenSvc, serviceSubject, log)
	} else {
		denialClient = client.NewLocalDenialClient(denialSvc)
	}

	orchestratorSvc := service.NewOrchestratorService(
		registry,
		cardRepo,
		txRepo,
		authzClient,
		tokenClient,
		settlementClient,
		denialClient,
		auditSvc,
		log,
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		OrchestratorSvc: orchestratorSvc,
		AuthzSvc:        authzSvc,
		FraudSvc:        fraudSvc,
		TokenizerSvc:    tokenizerSvc,
		SettlementSvc:   settlementSvc,
		DenialSvc:       denialSvc,
		TokenSvc:        tokenSvc,
		RateLimitStore:  rateLimitStore,
		HealthCheckers:  []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:        auditSvc,
		Logger:          log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
