package backend

import (
	"context"
	"fmt"

	"scadenze/internal/cache"
	"scadenze/internal/config"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/services"
)

// Runtime is the wired load path shared by the server, the worker and the CLI.
type Runtime struct {
	Store     *cache.Store
	Loader    *services.Loader
	Board     *services.Board
	Locations []core.Location
	Sweeper   *cache.Manager

	cleanup CleanupFunc
}

// NewRuntime builds the cache store, data source, loader and board from
// the application config. Close must be called to release the backend.
func NewRuntime(ctx context.Context, appConfig *config.Config, logger *applog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = applog.Discard()
	}

	locations, err := config.LoadLocations(appConfig.LocationsFile)
	if err != nil {
		return nil, err
	}

	backendConfig, err := FromAppConfig(appConfig)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	result, err := NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		return nil, err
	}

	return Assemble(result, locations, logger), nil
}

// Assemble wires a loader and board over an already created backend.
func Assemble(result *BackendResult, locations []core.Location, logger *applog.Logger) *Runtime {
	if logger == nil {
		logger = applog.Discard()
	}
	store := cache.NewStore(result.KV, cache.WithLogger(logger))
	loader := services.NewLoader(store, result.Fetcher, logger)

	sweeper := cache.NewManager()
	sweeper.Register(store)

	return &Runtime{
		Store:     store,
		Loader:    loader,
		Board:     services.NewBoard(loader, locations, store.Now, logger),
		Locations: locations,
		Sweeper:   sweeper,
		cleanup:   result.Cleanup,
	}
}

// DataSets lists the distinct data sets behind the configured locations.
func (r *Runtime) DataSets() []core.DataSetName {
	seen := make(map[core.DataSetName]bool, len(r.Locations))
	names := make([]core.DataSetName, 0, len(r.Locations))
	for _, l := range r.Locations {
		if !seen[l.DataSet] {
			seen[l.DataSet] = true
			names = append(names, l.DataSet)
		}
	}
	return names
}

// Close stops the sweeper, waits for background refreshes and releases the backend.
func (r *Runtime) Close() error {
	r.Sweeper.Stop()
	r.Loader.Close()
	if r.cleanup != nil {
		return r.cleanup()
	}
	return nil
}

