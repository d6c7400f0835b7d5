package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/akib4796/omnishop-manager-sub000/internal/adapter/http"
	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/handler"
	postgresRepo "github.com/akib4796/omnishop-manager-sub000/internal/adapter/repository/postgres"
	redisRepo "github.com/akib4796/omnishop-manager-sub000/internal/adapter/repository/redis"
	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/config"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/eventpublisher"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/logger"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/metrics"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/postgres"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/redis"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logr := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = logr

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logr zerolog.Logger) error {
	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	logr.Info().Msg("connected to postgres")

	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, logr); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	logr.Info().Msg("connected to redis")

	tolerance, err := cfg.AmountTolerance()
	if err != nil {
		return err
	}

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool).WithLockTimeout(cfg.DatabaseLockTimeout)
	entryRepo := postgresRepo.NewLedgerEntryRepository(pool)
	obligationRepo := postgresRepo.NewObligationRepository(pool)
	shiftRepo := postgresRepo.NewShiftRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retrier := postgresRepo.NewRetrier(logr)
	idGen := postgresRepo.NewULIDGenerator()

	cache := redisRepo.NewCache(redisClient)
	locker := redisRepo.NewEntityLocker(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	m := metrics.New()
	matcher := domain.NewMatcher(domain.MatcherConfig{
		AmountTolerance: tolerance,
		TimeWindow:      cfg.MatchTimeWindow,
	})

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, entryRepo, outboxRepo, idGen, cache, m, logr)
	obligationUC := usecase.NewObligationUseCase(txManager, obligationRepo, entryRepo, outboxRepo, idGen, cache, m, logr)
	balanceUC := usecase.NewBalanceUseCase(entryRepo, obligationRepo, matcher, cache, logr).
		WithCacheTTL(cfg.BalanceCacheTTL)
	paymentUC := usecase.NewPaymentUseCase(usecase.PaymentUseCaseDeps{
		TxManager:      txManager,
		ObligationRepo: obligationRepo,
		EntryRepo:      entryRepo,
		OutboxRepo:     outboxRepo,
		IDGen:          idGen,
		Matcher:        matcher,
		Locker:         locker,
		LockTTL:        cfg.LockTTL,
		Retrier:        retrier,
		Cache:          cache,
		Metrics:        m,
		Logger:         logr,
	})
	shiftUC := usecase.NewShiftUseCase(txManager, shiftRepo, entryRepo, outboxRepo, idGen, retrier, m, logr)

	// Outbox relay
	publisher, closePublisher := newPublisher(cfg, logr)
	defer closePublisher()
	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Metrics:    m,
		Logger:     logr,
		BatchSize:  cfg.OutboxBatch,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Error().Err(err).Msg("outbox relay stopped")
		}
	}()

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EntryHandler:      handler.NewEntryHandler(ledgerUC),
		ObligationHandler: handler.NewObligationHandler(obligationUC),
		EntityHandler:     handler.NewEntityHandler(balanceUC, paymentUC),
		ShiftHandler:      handler.NewShiftHandler(shiftUC),
		HealthHandler: handler.NewHealthHandler(
			handler.PingFunc(pool.Ping),
			handler.PingFunc(redis.Ping(redisClient)),
		),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Metrics:            m,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logr,
	})

	server := newServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		logr.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logr.Info().Msg("server stopped")
	return nil
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// newPublisher picks Kafka when brokers are configured and falls back to
// logging events.
func newPublisher(cfg *config.Config, logr zerolog.Logger) (eventpublisher.Publisher, func()) {
	if !cfg.KafkaEnabled() {
		return eventpublisher.NewLogPublisher(logr), func() {}
	}

	kp := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	return kp, func() {
		if err := kp.Close(); err != nil {
			logr.Warn().Err(err).Msg("failed to close kafka writer")
		}
	}
}
