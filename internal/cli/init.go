// Package cli holds the startup steps shared by cmd/scadenze,
// cmd/scadenze-worker and cmd/scadenzectl.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"scadenze/internal/backend"
	"scadenze/internal/config"
	applog "scadenze/internal/log"
)

// SetupLogger builds the process logger from LOG_LEVEL and sets it as the
// slog default.
func SetupLogger(level, component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Component = component
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitRuntime wires cache, source and loader, exiting on failure.
func InitRuntime(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.Runtime {
	rt, err := backend.NewRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize runtime", applog.FieldError, err,
			"cache", cfg.CacheBackend, "source", cfg.DataSource)
		os.Exit(1)
	}
	logger.Info("Runtime initialized",
		"cache", cfg.CacheBackend,
		"source", cfg.DataSource,
		"locations", len(rt.Locations))
	return rt
}

// StartSweeper runs the startup sweep and the periodic one when configured.
func StartSweeper(logger *applog.Logger, cfg *config.Config, rt *backend.Runtime) {
	if cfg.CacheSweepOnStart {
		removed := rt.Sweeper.SweepNow()
		logger.Info("Startup cache sweep completed", "entries_removed", removed)
	}
	if cfg.CacheSweepInterval > 0 {
		rt.Sweeper.StartCleanup(cfg.CacheSweepInterval)
		logger.Info("Periodic cache sweep enabled", "interval", cfg.CacheSweepInterval.String())
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
