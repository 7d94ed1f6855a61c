package backend

import (
	"fmt"

	"scadenze/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Cache:  CacheType(appConfig.CacheBackend),
		Source: SourceType(appConfig.DataSource),

		SQLiteDBPath: appConfig.SQLiteDBPath,

		DataDirectory: appConfig.DataDir,

		BaseURL:      appConfig.DataBaseURL,
		FetchTimeout: appConfig.FetchTimeout,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Cache.IsValid() {
		return fmt.Errorf("invalid cache type: %s", c.Cache)
	}
	if !c.Source.IsValid() {
		return fmt.Errorf("invalid source type: %s", c.Source)
	}

	if c.Cache == SQLiteCache && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite cache")
	}

	switch c.Source {
	case WebSource:
		if c.BaseURL == "" {
			return fmt.Errorf("base URL is required for web source")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets source")
		}
	case FileSource:
		// DataDirectory will default to "data" if empty
	}

	return nil
}

// GetCacheTypes returns all valid cache types
func GetCacheTypes() []CacheType {
	return []CacheType{SQLiteCache, MemoryCache}
}

// GetSourceTypes returns all valid source types
func GetSourceTypes() []SourceType {
	return []SourceType{FileSource, WebSource, SheetsSource}
}
