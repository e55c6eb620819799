package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBDriver    string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBPath      string
	AutoMigrate bool

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Search configuration
	PageSize int
	CacheTTL time.Duration

	// HTTP policy
	CORSOrigins     []string
	RateLimit       int
	RateLimitWindow time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Importer object storage
	S3Bucket  string
	AWSRegion string
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// LoadConfig creates a new Config instance with values from environment
// variables, an optional .env file and, in production, Docker secrets.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	if env != Production {
		// A missing .env file is the normal case outside local development.
		_ = godotenv.Load()
	}

	v := newViper()
	cfg := fromViper(v)

	switch env {
	case Production:
		applySecrets(cfg)
	case Development, Test, CI:
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "recipes")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_PATH", "recipes.db")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PAGE_SIZE", 50)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT", 120)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("S3_BUCKET_NAME", "recipebox-imports")
	v.SetDefault("AWS_REGION", "eu-central-1")

	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		ServerPort:      v.GetString("SERVER_PORT"),
		ServerHost:      v.GetString("SERVER_HOST"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:          v.GetString("DB_HOST"),
		DBPort:          v.GetString("DB_PORT"),
		DBUser:          v.GetString("DB_USER"),
		DBPassword:      v.GetString("DB_PASSWORD"),
		DBName:          v.GetString("DB_NAME"),
		DBSSLMode:       v.GetString("DB_SSL_MODE"),
		DBPath:          v.GetString("DB_PATH"),
		AutoMigrate:     v.GetBool("AUTO_MIGRATE"),
		RedisURL:        v.GetString("REDIS_URL"),
		RedisHost:       v.GetString("REDIS_HOST"),
		RedisPort:       v.GetString("REDIS_PORT"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		PageSize:        v.GetInt("PAGE_SIZE"),
		CacheTTL:        v.GetDuration("CACHE_TTL"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		RateLimit:       v.GetInt("RATE_LIMIT"),
		RateLimitWindow: v.GetDuration("RATE_LIMIT_WINDOW"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		S3Bucket:        v.GetString("S3_BUCKET_NAME"),
		AWSRegion:       v.GetString("AWS_REGION"),
	}
}

// applySecrets overrides credentials with Docker secrets when present.
func applySecrets(cfg *Config) {
	if s := readSecret("db_user"); s != "" {
		cfg.DBUser = s
	}
	if s := readSecret("db_password"); s != "" {
		cfg.DBPassword = s
	}
	if s := readSecret("redis_password"); s != "" {
		cfg.RedisPassword = s
	}
	if s := readSecret("redis_url"); s != "" {
		cfg.RedisURL = s
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// RedisEnabled reports whether a Redis endpoint was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}
