package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fincontrol/internal/advisor"
	"fincontrol/internal/auth"
	"fincontrol/internal/cache"
	"fincontrol/internal/command"
	"fincontrol/internal/config"
	"fincontrol/internal/gateway"
	"fincontrol/internal/httpserver"
	"fincontrol/internal/logging"
	"fincontrol/internal/metrics"
	"fincontrol/internal/repo"
	"fincontrol/internal/retry"
	"fincontrol/internal/webhook"
	"fincontrol/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting fincontrol", "env", cfg.AppEnv, "backend", cfg.DatabaseBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	repository, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repository.Close()

	if err := repository.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrated")

	redisClient := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		UseTLS:   cfg.RedisTLS,
	}, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed closing redis", "error", err)
		}
	}()
	if err := redisClient.Ping(ctx); err != nil {
		logger.Warn("redis ping failed", "error", err)
	}

	gatewayClient := gateway.New(gateway.Config{
		BaseURL:   cfg.GatewayBaseURL,
		SecretKey: cfg.GatewaySecretKey,
		Timeout:   cfg.GatewayTimeout,
		QRTimeout: cfg.GatewayQRTimeout,
	}, logger, metricRegistry, redisClient)

	var adviceProvider command.AdviceProvider
	if cfg.AdvisorBaseURL != "" {
		adviceProvider = advisor.New(advisor.Config{
			BaseURL: cfg.AdvisorBaseURL,
			APIKey:  cfg.AdvisorAPIKey,
			Timeout: cfg.AdvisorTimeout,
		}, logger, metricRegistry)
	}

	dispatcher := command.New(repository, adviceProvider, logger, metricRegistry, nil)
	webhookHandler := webhook.NewHandler(logger, metricRegistry, repository, dispatcher)
	authManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, metricRegistry, httpserver.Handlers{
		WhatsAppWebhook: webhookHandler,
	}, httpserver.Dependencies{
		Repository: repository,
		Gateway:    gatewayClient,
		Auth:       authManager,
	}, cfg.PublicBasePath)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}

// openRepository dials the configured store backend, retrying the
// initial connection with the configured policy.
func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repo.Repository, error) {
	policy := retry.Policy{Attempts: cfg.DBConnectAttempts, Backoff: cfg.DBConnectBackoff}

	var repository repo.Repository
	err := policy.Do(ctx, logger, "connect database", func(ctx context.Context) error {
		var err error
		switch cfg.DatabaseBackend {
		case "sqlite":
			repository, err = repo.NewSQLite(ctx, cfg.SQLitePath, logger)
		default:
			repository, err = repo.NewPostgres(ctx, cfg.DatabaseURL, cfg.DatabaseSchema, logger)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return repository, nil
}
