// Package config loads the service configuration from config.yaml with
// INSIGHTS_-prefixed environment variable overrides. Nested keys map through
// double underscores: INSIGHTS_STORE__BASE_URL sets store.base_url.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	Store  StoreConfig  `koanf:"store"`
	Report ReportConfig `koanf:"report"`
	Log    LogConfig    `koanf:"log"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// RequestTimeout is a duration string like "60s".
	RequestTimeout string `koanf:"request_timeout"`
}

type StoreConfig struct {
	BaseURL string `koanf:"base_url"`
	// APIKey supports ${VAR} substitution so keys stay out of config files.
	APIKey string `koanf:"api_key"`
}

type ReportConfig struct {
	PageSize    int `koanf:"page_size"`
	Concurrency int `koanf:"concurrency"`
	// BatchPause is the delay between page groups, e.g. "150ms".
	BatchPause string `koanf:"batch_pause"`
	// Timeout caps one computation, e.g. "45s".
	Timeout        string   `koanf:"timeout"`
	ExcludedAgents []string `koanf:"excluded_agents"`
}

type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
}

// RequestTimeoutDuration parses the request timeout, falling back to 60s.
func (c ServerConfig) RequestTimeoutDuration() time.Duration {
	return parseDurationOr(c.RequestTimeout, 60*time.Second)
}

// BatchPauseDuration parses the inter-group pause, falling back to 150ms.
func (c ReportConfig) BatchPauseDuration() time.Duration {
	return parseDurationOr(c.BatchPause, 150*time.Millisecond)
}

// TimeoutDuration parses the computation timeout, falling back to 45s.
func (c ReportConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 45*time.Second)
}

// SlogLevel maps the configured level onto slog, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Store.BaseURL == "" {
		return fmt.Errorf("store.base_url is required")
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml from the working directory plus the environment.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile reads the named YAML file plus the environment. A missing file is
// fine; environment variables alone can configure the service.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Environment variables override file config
	if err := k.Load(env.Provider("INSIGHTS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "INSIGHTS_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8085)
	}
	if !k.Exists("report.page_size") {
		k.Set("report.page_size", 1000)
	}
	if !k.Exists("report.concurrency") {
		k.Set("report.concurrency", 3)
	}
	if !k.Exists("report.excluded_agents") {
		k.Set("report.excluded_agents", []string{"system"})
	}
	if !k.Exists("log.level") {
		k.Set("log.level", "info")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in store credentials
	cfg.Store.BaseURL = substituteEnvVars(cfg.Store.BaseURL)
	cfg.Store.APIKey = substituteEnvVars(cfg.Store.APIKey)

	return &cfg, nil
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
