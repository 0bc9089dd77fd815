package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/kyilmaz/dealerpool/internal/adapter/http"
	"github.com/kyilmaz/dealerpool/internal/adapter/http/handler"
	postgresRepo "github.com/kyilmaz/dealerpool/internal/adapter/repository/postgres"
	redisRepo "github.com/kyilmaz/dealerpool/internal/adapter/repository/redis"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/config"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/logger"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/metrics"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/notifier"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/postgres"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/redis"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	dealerRepo := postgresRepo.NewDealerRepository(pool)
	txRepo := postgresRepo.NewTransactionRepository(pool)
	bankRepo := postgresRepo.NewBankAccountRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	tokenGen := postgresRepo.NewUUIDTokenGenerator()
	retrier := postgresRepo.NewRetrier()
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use cases
	withdrawalUC := usecase.NewWithdrawalUseCase(txManager, dealerRepo, txRepo, outboxRepo, auditRepo, idGen, retrier, cache, m)
	depositUC := usecase.NewDepositUseCase(txManager, dealerRepo, txRepo, bankRepo, outboxRepo, auditRepo, idGen, tokenGen, m)
	poolUC := usecase.NewPoolUseCase(txManager, dealerRepo, txRepo, outboxRepo, auditRepo, idGen, cache, m)
	adjustmentUC := usecase.NewAdjustmentUseCase(txManager, dealerRepo, txRepo, outboxRepo, auditRepo, idGen, cache, m)
	dealerUC := usecase.NewDealerUseCase(txManager, dealerRepo, txRepo, bankRepo, auditRepo, idGen, cache, m)

	// Start the outbox notifier
	var publisher notifier.Publisher
	if cfg.WebhookURL != "" {
		publisher = notifier.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookTimeout)
	} else {
		publisher = notifier.NewLogPublisher(nil)
	}

	notifierCtx, stopNotifier := context.WithCancel(ctx)
	defer stopNotifier()

	worker := notifier.New(notifier.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})

	go func() {
		if err := worker.Start(notifierCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("notifier stopped")
		}
	}()

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		DepositHandler:    handler.NewDepositHandler(depositUC),
		WithdrawalHandler: handler.NewWithdrawalHandler(withdrawalUC),
		PoolHandler:       handler.NewPoolHandler(poolUC),
		AdjustmentHandler: handler.NewAdjustmentHandler(adjustmentUC),
		DealerHandler:     handler.NewDealerHandler(dealerUC),
		HealthHandler:     handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:  idempotencyStore,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopNotifier()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
