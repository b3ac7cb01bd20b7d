package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration (export archive and credential seeds)
	Database DatabaseConfig

	// Session and credential configuration
	Auth AuthConfig

	// Model adapter configuration
	Model ModelConfig

	// Import/Export configuration
	Import ImportConfig
	Export ExportConfig

	// Logging configuration
	Log LogConfig

	// Telemetry configuration
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Enabled        bool
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// AuthConfig holds session cookie and password hashing settings
type AuthConfig struct {
	CookieName   string
	CookieSecure bool
	BcryptCost   int
	IdleTimeout  time.Duration // 0 keeps idle sessions until logout
}

// ModelConfig holds the paths of the prediction artifacts
type ModelConfig struct {
	ModelPath       string
	TransformerPath string
	PredictTimeout  time.Duration
}

// ImportConfig holds upload settings
type ImportConfig struct {
	MaxUploadSize int64 // in bytes
	PreviewRows   int
}

// ExportConfig holds per-collection export format overrides
type ExportConfig struct {
	Formats map[string]string // collection -> "xlsx" | "csv"
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// TelemetryConfig holds OpenTelemetry settings
type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Enabled:        getBoolEnv("DB_ENABLED", false),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "tally_dashboard"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Auth: AuthConfig{
			CookieName:   getEnv("SESSION_COOKIE_NAME", "dashboard_session"),
			CookieSecure: getBoolEnv("SESSION_COOKIE_SECURE", false),
			BcryptCost:   getIntEnv("BCRYPT_COST", 10),
			IdleTimeout:  getDurationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},
		Model: ModelConfig{
			ModelPath:       getEnv("MODEL_PATH", "./artifacts/water_usage_model.json"),
			TransformerPath: getEnv("TRANSFORMER_PATH", "./artifacts/scaler.json"),
			PredictTimeout:  getDurationEnv("MODEL_PREDICT_TIMEOUT", 5*time.Second),
		},
		Import: ImportConfig{
			MaxUploadSize: getInt64Env("MAX_UPLOAD_SIZE", 20*1024*1024), // 20MB
			PreviewRows:   getIntEnv("IMPORT_PREVIEW_ROWS", 5),
		},
		Export: ExportConfig{
			Formats: getMapEnv("EXPORT_FORMATS"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "tally-dashboard"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     getBoolEnv("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required when DB_ENABLED=true")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required when DB_ENABLED=true")
		}
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.Auth.IdleTimeout < 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must not be negative")
	}
	if c.Import.PreviewRows <= 0 {
		return fmt.Errorf("IMPORT_PREVIEW_ROWS must be positive")
	}
	for collection, format := range c.Export.Formats {
		if format != "xlsx" && format != "csv" {
			return fmt.Errorf("EXPORT_FORMATS: %s has unsupported format %q", collection, format)
		}
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getMapEnv parses "a=x,b=y" into a map. Malformed pairs are skipped.
func getMapEnv(key string) map[string]string {
	out := make(map[string]string)
	value := os.Getenv(key)
	if value == "" {
		return out
	}
	for _, pair := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = strings.ToLower(v)
	}
	return out
}
