package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-extract/internal/common"
)

// Config holds all application configuration
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// BackendConfig holds extraction-service configuration
type BackendConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Path         string        `yaml:"path"`
	Timeout      time.Duration `yaml:"timeout"`
	Lenient      bool          `yaml:"lenient"`
	DiscardStale bool          `yaml:"discard_stale"`
}

// HistoryConfig holds submission-history configuration. An empty DSN disables history.
type HistoryConfig struct {
	DSN          string        `yaml:"dsn"`
	Workers      int           `yaml:"workers"`
	QueueSize    int           `yaml:"queue_size"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MetricsConfig holds metrics configuration. An empty Textfile disables the dump.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:5000",
			Path:    "/api/v1/data",
			Timeout: 2 * time.Minute,
			Lenient: true,
		},
		History: HistoryConfig{
			Workers:      1,
			QueueSize:    64,
			WriteTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if any),
// then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "read config file", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("parse %s", path), err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Backend.BaseURL = getEnv("BACKEND_URL", c.Backend.BaseURL)
	c.Backend.Path = getEnv("BACKEND_PATH", c.Backend.Path)
	c.Backend.Timeout = getEnvAsDuration("BACKEND_TIMEOUT", c.Backend.Timeout)
	c.Backend.Lenient = getEnvAsBool("LENIENT_RESPONSE", c.Backend.Lenient)
	c.Backend.DiscardStale = getEnvAsBool("DISCARD_STALE", c.Backend.DiscardStale)

	c.History.DSN = getEnv("HISTORY_DSN", c.History.DSN)
	c.History.Workers = getEnvAsInt("HISTORY_WORKERS", c.History.Workers)
	c.History.QueueSize = getEnvAsInt("HISTORY_QUEUE_SIZE", c.History.QueueSize)
	c.History.WriteTimeout = getEnvAsDuration("HISTORY_WRITE_TIMEOUT", c.History.WriteTimeout)

	c.Metrics.Textfile = getEnv("METRICS_TEXTFILE", c.Metrics.Textfile)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := common.NewValidator().
		Field("backend.base_url", c.Backend.BaseURL, common.Required, common.HTTPURL).
		Field("backend.path", c.Backend.Path, common.Path).
		Field("backend.timeout", c.Backend.Timeout, common.PositiveDuration).
		Field("log.level", c.Log.Level, common.OneOf("debug", "info", "warn", "error")).
		Field("log.format", c.Log.Format, common.OneOf("text", "json"))
	if c.History.DSN != "" {
		v.Field("history.workers", c.History.Workers, common.MinInt(1)).
			Field("history.queue_size", c.History.QueueSize, common.MinInt(1)).
			Field("history.write_timeout", c.History.WriteTimeout, common.PositiveDuration)
	}
	return common.ValidateAndReturnError(v)
}
