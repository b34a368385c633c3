package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cashflow/internal/auth"
	"cashflow/internal/backend"
	"cashflow/internal/config"
	"cashflow/internal/events"
	apphttp "cashflow/internal/http"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateStore(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", "error", err)
			}
		}()
	}

	provider, err := newAuthProvider(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize auth provider", "error", err, "provider", cfg.AuthProvider)
		os.Exit(1)
	}

	// Ledger events are optional; the service runs fine without a broker.
	var publisher ledger.Publisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := ledger.NewService(result.Store, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, svc, provider)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting cashflow server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

func newAuthProvider(cfg *config.Config, logger *applog.Logger) (auth.Provider, error) {
	switch cfg.AuthProvider {
	case "firebase":
		return auth.NewFirebase(context.Background(), cfg.FirebaseProjectID, cfg.FirebaseCredentials)
	default:
		logger.Warn("Using static auth provider; not for production",
			"user_id", cfg.StaticAuthUserID)
		return auth.NewStatic(map[string]auth.Identity{
			cfg.StaticAuthToken: {ID: cfg.StaticAuthUserID, Email: cfg.StaticAuthUserID + "@localhost", DisplayName: cfg.StaticAuthUserID},
		}), nil
	}
}
