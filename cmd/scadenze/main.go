package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"scadenze/internal/amqp"
	"scadenze/internal/cli"
	apphttp "scadenze/internal/http"
	applog "scadenze/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	rt := cli.InitRuntime(context.Background(), logger, cfg)
	cli.StartSweeper(logger, cfg, rt)

	opts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithRefreshRate(cfg.RefreshRatePerMinute),
	}

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		opts = append(opts, apphttp.WithPublisher(amqpClient))
		logger.Info("Refresh requests go through AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - refresh requests load in process")
	}

	srv := apphttp.NewServer(":"+cfg.Port, rt.Board, opts...)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := rt.Close(); err != nil {
			logger.Warn("Runtime close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting scadenze server", "port", cfg.Port, "source", cfg.DataSource, "cache", cfg.CacheBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
