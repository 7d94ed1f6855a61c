package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"scadenze/internal/backend"
	"scadenze/internal/cli"
	"scadenze/internal/config"
	applog "scadenze/internal/log"
)

func main() {
	cli.LoadEnvFile()

	// Keep command output clean: only warnings and up go to stderr.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	lcfg := applog.DefaultConfig()
	lcfg.Level = applog.ParseLevel(level)
	lcfg.Component = applog.ComponentCLI
	lcfg.Output = os.Stderr
	logger := applog.New(lcfg)
	applog.SetDefault(logger)

	open := func(ctx context.Context) (*backend.Runtime, error) {
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return backend.NewRuntime(ctx, cfg, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(open).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
