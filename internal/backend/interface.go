package backend

import (
	"context"
	"time"

	"scadenze/internal/cache"
	"scadenze/internal/source"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the cache backend, the data source and an optional cleanup function
type BackendResult struct {
	KV      cache.KV
	Fetcher source.Fetcher
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the cache store backend and data source for the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Cache  CacheType
	Source SourceType

	// SQLite specific
	SQLiteDBPath string

	// File source specific
	DataDirectory string

	// Web source specific
	BaseURL      string
	FetchTimeout time.Duration

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// CacheType selects where cache entries are persisted
type CacheType string

const (
	SQLiteCache CacheType = "sqlite"
	MemoryCache CacheType = "memory"
)

// String implements fmt.Stringer
func (ct CacheType) String() string {
	return string(ct)
}

// IsValid returns true if the cache type is valid
func (ct CacheType) IsValid() bool {
	switch ct {
	case SQLiteCache, MemoryCache:
		return true
	default:
		return false
	}
}

// SourceType selects where data sets are fetched from
type SourceType string

const (
	FileSource   SourceType = "file"
	WebSource    SourceType = "web"
	SheetsSource SourceType = "sheets"
)

func (st SourceType) String() string {
	return string(st)
}

func (st SourceType) IsValid() bool {
	switch st {
	case FileSource, WebSource, SheetsSource:
		return true
	default:
		return false
	}
}
