package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"scadenze/internal/config"
	applog "scadenze/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", applog.ComponentCLI)
	if logger.Component() != applog.ComponentCLI {
		t.Errorf("component = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}

func TestInitRuntimeAndSweeper(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DataSource:         config.SourceFile,
		DataDir:            dir,
		CacheBackend:       config.CacheSQLite,
		SQLiteDBPath:       filepath.Join(dir, "cache.db"),
		CacheSweepOnStart:  true,
		CacheSweepInterval: time.Hour,
	}
	logger := applog.Discard()

	rt := InitRuntime(context.Background(), logger, cfg)
	StartSweeper(logger, cfg, rt)
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(rt.Locations) != 2 {
		t.Errorf("locations = %d, want the two defaults", len(rt.Locations))
	}
}
