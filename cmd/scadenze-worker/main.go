package main

import (
	"context"
	"errors"
	"os"
	"time"

	"scadenze/internal/amqp"
	"scadenze/internal/cli"
	applog "scadenze/internal/log"
	"scadenze/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting scadenze-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() && cfg.WarmInterval <= 0 {
		logger.Error("Nothing to do: set AMQP_URL or WARM_INTERVAL")
		os.Exit(1)
	}

	rt := cli.InitRuntime(context.Background(), logger, cfg)
	cli.StartSweeper(logger, cfg, rt)

	refresher := worker.NewRefreshWorker(rt.Loader, rt.DataSets(), logger)

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := rt.Close(); err != nil {
			logger.Warn("Runtime close error", applog.FieldError, err)
		}
	})

	if cfg.WarmInterval > 0 {
		n, err := refresher.WarmAll(ctx)
		if err != nil {
			logger.Warn("Startup warm finished with errors", "refreshed", n, applog.FieldError, err)
		} else {
			logger.Info("Startup warm completed", "refreshed", n)
		}
		go func() {
			if err := refresher.PeriodicWarm(ctx, cfg.WarmInterval); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Periodic warm stopped", applog.FieldError, err)
			}
		}()
		logger.Info("Periodic warm enabled", "interval", cfg.WarmInterval.String())
	}

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeRefresh(ctx, refresher.HandleRefreshMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
		}()
		logger.Info("Consuming refresh requests", "queue", cfg.AMQPQueue)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
