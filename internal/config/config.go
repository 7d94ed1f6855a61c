package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	SourceFile   = "file"
	SourceWeb    = "web"
	SourceSheets = "sheets"

	CacheMemory = "memory"
	CacheSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Data source
	DataSource   string
	DataDir      string
	DataBaseURL  string
	FetchTimeout time.Duration

	// Cache
	CacheBackend       string
	SQLiteDBPath       string
	CacheSweepOnStart  bool
	CacheSweepInterval time.Duration

	// Locations
	LocationsFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	WarmInterval time.Duration

	// Refresh endpoint
	RefreshRatePerMinute int

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataSource:   getEnv("DATA_SOURCE", SourceFile),
		DataDir:      getEnv("DATA_DIR", "./data"),
		DataBaseURL:  getEnv("DATA_BASE_URL", ""),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 0),

		CacheBackend:       getEnv("CACHE_BACKEND", CacheSQLite),
		SQLiteDBPath:       getEnv("SQLITE_DB_PATH", "./data/scadenze.db"),
		CacheSweepOnStart:  getEnvBool("CACHE_SWEEP_ON_START", false),
		CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", 0),

		LocationsFile: getEnv("LOCATIONS_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "scadenze"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_datasets"),

		WarmInterval: getEnvDuration("WARM_INTERVAL", 0),

		RefreshRatePerMinute: getEnvInt("REFRESH_RATE_PER_MINUTE", 6),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}

	return cfg
}

// AMQPEnabled reports whether refresh requests go through the broker.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data source
	validSources := []string{SourceFile, SourceWeb, SourceSheets}
	if !slices.Contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	switch c.DataSource {
	case SourceFile:
		if c.DataDir == "" {
			errors = append(errors, "DATA_DIR cannot be empty when using file source")
		}
	case SourceWeb:
		if c.DataBaseURL == "" {
			errors = append(errors, "DATA_BASE_URL is required when using web source")
		} else if u, err := url.Parse(c.DataBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid data base URL '%s': %v", c.DataBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid data base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets source")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets source")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.FetchTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must not be negative", c.FetchTimeout))
	}

	// Validate cache backend
	validBackends := []string{CacheMemory, CacheSQLite}
	if !slices.Contains(validBackends, c.CacheBackend) {
		errors = append(errors, fmt.Sprintf("invalid cache backend '%s': must be one of %v", c.CacheBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.CacheBackend == CacheSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite cache")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.CacheSweepInterval != 0 && c.CacheSweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache sweep interval %v: must be 0 or at least 1 second", c.CacheSweepInterval))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.WarmInterval != 0 && c.WarmInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid warm interval %v: must be 0 or at least 1 minute", c.WarmInterval))
	} else if c.WarmInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid warm interval %v: must be at most 24 hours", c.WarmInterval))
	}

	if c.RefreshRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid refresh rate %d: must be at least 1 per minute", c.RefreshRatePerMinute))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
