package backend

import (
	"context"
	"fmt"

	"scadenze/internal/cache"
	applog "scadenze/internal/log"
	"scadenze/internal/source"
	"scadenze/internal/source/file"
	"scadenze/internal/source/google"
	"scadenze/internal/source/web"
	"scadenze/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentStorage),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	fetcher, err := f.createSource(ctx, config)
	if err != nil {
		return nil, err
	}

	switch config.Cache {
	case SQLiteCache:
		return f.createSQLiteCache(config, fetcher)
	case MemoryCache:
		return f.createMemoryCache(fetcher), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Cache)
	}
}

func (f *DefaultFactory) createSQLiteCache(config Config, fetcher source.Fetcher) (*BackendResult, error) {
	kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite cache: %w", err)
	}

	f.logger.Info("Initialized SQLite cache", "db_path", config.SQLiteDBPath, "schema_version", kv.SchemaVersion())

	return &BackendResult{
		KV:      kv,
		Fetcher: fetcher,
		Cleanup: kv.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryCache(fetcher source.Fetcher) *BackendResult {
	f.logger.Info("Initialized memory cache")

	return &BackendResult{
		KV:      cache.NewMemoryKV(),
		Fetcher: fetcher,
		Cleanup: nil, // No cleanup needed for memory cache
	}
}

func (f *DefaultFactory) createSource(ctx context.Context, config Config) (source.Fetcher, error) {
	switch config.Source {
	case FileSource:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data" // Default directory
		}
		f.logger.Info("Using file source", "data_directory", dataDir)
		return file.New(dataDir), nil

	case WebSource:
		src, err := web.New(config.BaseURL, config.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize web source: %w", err)
		}
		f.logger.Info("Using web source", "base_url", config.BaseURL, "timeout", config.FetchTimeout)
		return src, nil

	case SheetsSource:
		cli, err := google.New(ctx, config.GoogleSpreadsheetID, google.Credentials{
			JSON: config.GoogleServiceAccountJSON,
			File: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets source: %w", err)
		}
		f.logger.Info("Using Google Sheets source")
		return cli, nil

	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Source)
	}
}
