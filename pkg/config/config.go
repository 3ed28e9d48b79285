package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	Upload        UploadConfig
	Notifications NotificationsConfig
	Observability ObservabilityConfig
	Cron          CronConfig
	Ledger        LedgerConfig
	Log           LogConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	AllowedOrigins     []string
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type StorageConfig struct {
	UploadPath      string
	StatePath       string
	SearchIndexPath string
}

type UploadConfig struct {
	MaxFiles     int
	MaxFileBytes int64
	OCRLanguages []string
}

type NotificationsConfig struct {
	ResendAPIKey string
	From         string
	To           []string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type CronConfig struct {
	Enabled        bool
	DigestSchedule string
}

// LedgerConfig pins the reference date used by projections. Zero means "today".
type LedgerConfig struct {
	AsOf time.Time
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 40),
			AllowedOrigins:     getEnvAsSlice("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "finance-dashboard"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			UploadPath:      getEnv("STORAGE_UPLOAD_PATH", "./data/uploads"),
			StatePath:       getEnv("STORAGE_STATE_PATH", "./data/state.db"),
			SearchIndexPath: getEnv("STORAGE_SEARCH_INDEX_PATH", ""),
		},
		Upload: UploadConfig{
			MaxFiles:     getEnvAsInt("UPLOAD_MAX_FILES", 10),
			MaxFileBytes: int64(getEnvAsInt("UPLOAD_MAX_FILE_MB", 20)) << 20,
			OCRLanguages: getEnvAsSlice("OCR_LANGUAGES", []string{"spa", "eng"}),
		},
		Notifications: NotificationsConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("NOTIFY_FROM", "Finance Dashboard <alerts@localhost>"),
			To:           getEnvAsSlice("NOTIFY_TO", nil),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Cron: CronConfig{
			Enabled:        getEnvAsBool("CRON_ENABLED", true),
			DigestSchedule: getEnv("CRON_DIGEST_SCHEDULE", "0 8 * * *"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if raw := getEnv("LEDGER_AS_OF", ""); raw != "" {
		asOf, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LEDGER_AS_OF %q: %w", raw, err)
		}
		cfg.Ledger.AsOf = asOf
	}

	if cfg.Upload.MaxFiles <= 0 {
		return nil, errors.New("UPLOAD_MAX_FILES must be positive")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns host:port for the HTTP listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
