// internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"referral-tracker/pkg/db" // Import db package for its Config structs
)

// Supported values for DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	DBDriver   string `env:"DB_DRIVER" envDefault:"sqlite"`

	SQLite db.SQLiteConfig
	DB     db.Config

	Log       LogConfig
	Telemetry TelemetryConfig
}

// LogConfig controls the global slog logger.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// TelemetryConfig controls OTLP trace export. Export is disabled while Endpoint is empty.
type TelemetryConfig struct {
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"referral-tracker"`
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch cfg.DBDriver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLite.Path) == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when DB_DRIVER=%s", DriverSQLite)
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return &cfg, nil
}
