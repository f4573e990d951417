package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIBaseURL is used when neither the config file nor the environment
// names a backend.
const DefaultAPIBaseURL = "http://localhost:8572"

// Config defines client configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	State   StateConfig   `yaml:"state"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type StateConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// MetricsConfig controls the optional Prometheus endpoint of the MCP server.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used before any file or environment
// override is applied.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:        DefaultAPIBaseURL,
			RequestTimeout: 30 * time.Second,
		},
		State: StateConfig{
			Path: defaultStatePath(),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("MOTHERAI_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if baseURL := os.Getenv("MOTHERAI_API_BASE_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if timeoutStr := os.Getenv("MOTHERAI_REQUEST_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MOTHERAI_REQUEST_TIMEOUT: %w", err)
		}
		cfg.API.RequestTimeout = timeout
	}
	if statePath := os.Getenv("MOTHERAI_STATE_PATH"); statePath != "" {
		cfg.State.Path = statePath
	}
	if level := os.Getenv("MOTHERAI_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("MOTHERAI_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if addr := os.Getenv("MOTHERAI_METRICS_ADDR"); addr != "" {
		cfg.Metrics.Addr = addr
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be positive, got %s", c.API.RequestTimeout)
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path must not be empty")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "motherai.db"
	}
	return filepath.Join(dir, "motherai", "state.db")
}
