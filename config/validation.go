package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errors []string
	add := func(field, msg string) {
		errors = append(errors, ValidationError{Field: field, Message: msg}.Error())
	}

	if cfg.ServerPort == "" {
		add("SERVER_PORT", "is required")
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DBHost == "" {
			add("DB_HOST", "is required for postgres")
		}
		if cfg.DBName == "" {
			add("DB_NAME", "is required for postgres")
		}
		// Local development may run against a trust-auth database.
		if cfg.DBPassword == "" && (env == Production || env == CI) {
			add("DB_PASSWORD", fmt.Sprintf("is required in %s environment", env))
		}
	case DriverSQLite:
		if env == Production {
			add("DB_DRIVER", "sqlite is not supported in production")
		}
		if cfg.DBPath == "" {
			add("DB_PATH", "is required for sqlite")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	if cfg.PageSize <= 0 {
		add("PAGE_SIZE", "must be positive")
	}
	if cfg.RateLimit < 0 {
		add("RATE_LIMIT", "must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateLimitWindow <= 0 {
		add("RATE_LIMIT_WINDOW", "must be positive when rate limiting is enabled")
	}
	if cfg.CacheTTL < 0 {
		add("CACHE_TTL", "must not be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
