// Package config loads platform configuration from the environment.
// A .env file is honored for local development; real deployments set the
// variables directly.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"ride-analytics/internal/analysis"
)

// Config holds all platform configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Ingestion IngestionConfig
	Cleaning  CleaningConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"rides"`
	Password        string        `envconfig:"DB_PASSWORD" default:"rides"`
	Database        string        `envconfig:"DB_NAME" default:"ride_analytics"`
	SSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"5m"`
}

// IngestionConfig holds activity export ingestion settings.
type IngestionConfig struct {
	BatchSize int `envconfig:"INGEST_BATCH_SIZE" default:"500"`
}

// CleaningConfig exposes the row-selection thresholds as configuration.
// The defaults come from inspection of one specific export, which is
// exactly why they must not be literals in the pipeline.
type CleaningConfig struct {
	ActivityType      string  `envconfig:"CLEAN_ACTIVITY_TYPE" default:"cycling"`
	MinDurationMin    float64 `envconfig:"CLEAN_MIN_DURATION_MIN" default:"10"`
	MinAvgSpeedKmh    float64 `envconfig:"CLEAN_MIN_AVG_SPEED_KMH" default:"5"`
	MaxSpeedCapKmh    float64 `envconfig:"CLEAN_MAX_SPEED_CAP_KMH" default:"120"`
	MaxElevationGainM float64 `envconfig:"CLEAN_MAX_ELEVATION_GAIN_M" default:"3000"`
	SpeedAsPowerProxy bool    `envconfig:"AGG_SPEED_AS_POWER_PROXY" default:"false"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from the environment, honoring a local
// .env file when present.
func LoadConfig() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host must not be empty")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("db max open conns must be positive, got %d", c.Database.MaxOpenConns)
	}
	if c.Ingestion.BatchSize <= 0 {
		return fmt.Errorf("ingestion batch size must be positive, got %d", c.Ingestion.BatchSize)
	}
	if c.Cleaning.ActivityType == "" {
		return fmt.Errorf("cleaning activity type must not be empty")
	}
	if c.Cleaning.MaxSpeedCapKmh <= c.Cleaning.MinAvgSpeedKmh {
		return fmt.Errorf("max speed cap %.1f must exceed min avg speed %.1f",
			c.Cleaning.MaxSpeedCapKmh, c.Cleaning.MinAvgSpeedKmh)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	return nil
}

// Rules converts the cleaning section into pipeline cleaning rules.
func (c *CleaningConfig) Rules() analysis.CleaningRules {
	return analysis.CleaningRules{
		ActivityType:     c.ActivityType,
		MinDurationMin:   c.MinDurationMin,
		MinAvgSpeedKmh:   c.MinAvgSpeedKmh,
		MaxSpeedCapKmh:   c.MaxSpeedCapKmh,
		MaxElevationGain: c.MaxElevationGainM,
	}
}
