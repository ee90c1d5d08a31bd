package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Work Configuration:
// - WORK_TOTAL_DURATION: total simulated work per run (default: 10m)
// - WORK_CHUNK_SIZE: duration of one chunk (default: 1m)
// - WORK_SUB_INTERVAL: cancellation check granularity within a chunk (default: 1s)
//
// Schedule Configuration:
// - WORK_CRON_EXPR: standard 5-field cron expression for scheduled runs (default: 0 * * * *)
// - RUN_ON_START: run once immediately on startup (default: true)
//
// Storage Configuration:
// - DATA_DIR: directory for the run history database (default: /app/data)
//
// Log Configuration:
// - LOG_LEVEL: debug|info|warn|error|fatal (default: info)
// - LOG_FILE: log file path, empty for stdout (default: empty)

type Config struct {
	// Work Configuration
	Work WorkConfig `json:"work"`

	// Schedule Configuration
	Schedule ScheduleConfig `json:"schedule"`

	// Storage Configuration
	Storage StorageConfig `json:"storage"`

	// Log Configuration
	Log LogConfig `json:"log"`
}

// WorkConfig shapes the chunked work each run executes
type WorkConfig struct {
	TotalDuration time.Duration `json:"total_duration"`
	ChunkSize     time.Duration `json:"chunk_size"`
	SubInterval   time.Duration `json:"sub_interval"`
}

// ScheduleConfig controls when runs are triggered
type ScheduleConfig struct {
	CronExpr   string `json:"cron_expr"`
	RunOnStart bool   `json:"run_on_start"`
}

// StorageConfig holds the run history storage location
type StorageConfig struct {
	DataDir string `json:"data_dir"`
}

func (c StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "runs.db")
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// New loads .env (when present) and builds the configuration from the
// environment.
func New(opts ...Option) (*Config, error) {
	_ = godotenv.Load()
	return NewFromEnv(opts...)
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Work: WorkConfig{
			TotalDuration: getEnvDuration("WORK_TOTAL_DURATION", 10*time.Minute),
			ChunkSize:     getEnvDuration("WORK_CHUNK_SIZE", time.Minute),
			SubInterval:   getEnvDuration("WORK_SUB_INTERVAL", time.Second),
		},
		Schedule: ScheduleConfig{
			CronExpr:   getEnvString("WORK_CRON_EXPR", "0 * * * *"),
			RunOnStart: getEnvBool("RUN_ON_START", true),
		},
		Storage: StorageConfig{
			DataDir: getEnvString("DATA_DIR", "/app/data"),
		},
		Log: LogConfig{
			Level: getEnvString("LOG_LEVEL", "info"),
			File:  getEnvString("LOG_FILE", ""),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Work.TotalDuration <= 0 {
		return fmt.Errorf("WORK_TOTAL_DURATION must be positive")
	}
	if c.Work.ChunkSize <= 0 {
		return fmt.Errorf("WORK_CHUNK_SIZE must be positive")
	}
	if c.Work.SubInterval < 0 {
		return fmt.Errorf("WORK_SUB_INTERVAL must not be negative")
	}
	if strings.TrimSpace(c.Schedule.CronExpr) == "" {
		return fmt.Errorf("WORK_CRON_EXPR is required")
	}
	if _, err := cron.ParseStandard(c.Schedule.CronExpr); err != nil {
		return fmt.Errorf("invalid WORK_CRON_EXPR: %w", err)
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration value from environment variables with default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if durValue, err := time.ParseDuration(value); err == nil {
			return durValue
		}
	}
	return defaultValue
}
