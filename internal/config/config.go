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

// Backend names accepted by DATA_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port               string
	ShutdownTimeout    time.Duration
	RateLimitPerMinute int // mutating requests per client, 0 disables

	// Storage
	DataBackend          string
	DataDir              string
	SQLiteDBPath         string
	StorageKey           string
	EncryptionPassphrase string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Replica worker
	ReplicaDBPath string

	// View cache
	CacheEnabled bool
	CacheSize    int
	CacheTTL     time.Duration

	// Presentation
	DateLabelLayout string
	CurrencySymbol  string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:          getEnv("DATA_BACKEND", BackendFile),
		DataDir:              getEnv("DATA_DIR", "./data"),
		SQLiteDBPath:         getEnv("SQLITE_DB_PATH", "./data/spendsmart.db"),
		StorageKey:           getEnv("STORAGE_KEY", "ss-expenses"),
		EncryptionPassphrase: os.Getenv("ENCRYPTION_PASSPHRASE"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendsmart"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		ReplicaDBPath: getEnv("REPLICA_DB_PATH", "./data/replica.db"),

		CacheEnabled: getEnvBool("CACHE_ENABLED", true),
		CacheSize:    getEnvInt("CACHE_SIZE", 128),
		CacheTTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),

		DateLabelLayout: getEnv("DATE_LABEL_LAYOUT", "1/2/2006"),
		CurrencySymbol:  getEnv("CURRENCY_SYMBOL", "₹"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Backends lists the valid DATA_BACKEND values.
func Backends() []string {
	return []string{BackendFile, BackendSQLite, BackendMemory}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	if !slices.Contains(Backends(), c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends()))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(filepath.Dir(c.SQLiteDBPath)); msg != "" {
			errors = append(errors, msg)
		}
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		} else if msg := ensureDir(c.DataDir); msg != "" {
			errors = append(errors, msg)
		}
	}

	if c.EncryptionPassphrase != "" && c.DataBackend != BackendFile {
		errors = append(errors, "ENCRYPTION_PASSPHRASE is only supported by the file backend")
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

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

	if c.CacheEnabled {
		if c.CacheSize < 1 || c.CacheSize > 100000 {
			errors = append(errors, fmt.Sprintf("invalid cache size %d: must be between 1 and 100000", c.CacheSize))
		}
		if c.CacheTTL < 0 {
			errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
		}
	}

	if c.DateLabelLayout == "" {
		errors = append(errors, "date label layout cannot be empty")
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker runs Validate plus the checks the replica worker needs.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required by the replica worker")
	}
	if c.ReplicaDBPath == "" {
		errors = append(errors, "replica database path cannot be empty")
	} else if msg := ensureDir(filepath.Dir(c.ReplicaDBPath)); msg != "" {
		errors = append(errors, msg)
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ensureDir creates dir if missing and returns a validation message on failure.
func ensureDir(dir string) string {
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Sprintf("cannot create directory '%s': %v", dir, err)
		}
	}
	return ""
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
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
