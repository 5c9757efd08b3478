package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 8085 {
		t.Errorf("Expected default port 8085, got %d", cfg.Server.Port)
	}
	if cfg.Report.PageSize != 1000 {
		t.Errorf("Expected default page size 1000, got %d", cfg.Report.PageSize)
	}
	if cfg.Report.Concurrency != 3 {
		t.Errorf("Expected default concurrency 3, got %d", cfg.Report.Concurrency)
	}
	if len(cfg.Report.ExcludedAgents) != 1 || cfg.Report.ExcludedAgents[0] != "system" {
		t.Errorf("Expected default excluded agents [system], got %v", cfg.Report.ExcludedAgents)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %q", cfg.Log.Level)
	}
}

func TestLoadFile_FromYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  request_timeout: 90s
store:
  base_url: https://store.internal
  api_key: plain-key
report:
  page_size: 500
  concurrency: 5
  batch_pause: 250ms
  timeout: 30s
  excluded_agents:
    - system
    - migration-bot
log:
  level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Store.BaseURL != "https://store.internal" {
		t.Errorf("Unexpected base URL %q", cfg.Store.BaseURL)
	}
	if cfg.Report.PageSize != 500 || cfg.Report.Concurrency != 5 {
		t.Errorf("Unexpected report bounds: %+v", cfg.Report)
	}
	if len(cfg.Report.ExcludedAgents) != 2 {
		t.Errorf("Expected 2 excluded agents, got %v", cfg.Report.ExcludedAgents)
	}
	if got := cfg.Report.BatchPauseDuration(); got != 250*time.Millisecond {
		t.Errorf("Expected pause 250ms, got %v", got)
	}
	if got := cfg.Report.TimeoutDuration(); got != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %v", got)
	}
	if got := cfg.Server.RequestTimeoutDuration(); got != 90*time.Second {
		t.Errorf("Expected request timeout 90s, got %v", got)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
store:
  base_url: https://store.internal
`)

	t.Setenv("INSIGHTS_SERVER__PORT", "7070")
	t.Setenv("INSIGHTS_STORE__API_KEY", "env-key")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Expected env override port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Store.APIKey != "env-key" {
		t.Errorf("Expected env override api key, got %q", cfg.Store.APIKey)
	}
}

func TestLoadFile_SubstitutesCredentials(t *testing.T) {
	path := writeConfig(t, `
store:
  base_url: https://store.internal
  api_key: ${INSIGHTS_TEST_SECRET}
`)

	t.Setenv("INSIGHTS_TEST_SECRET", "swapped-in")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Store.APIKey != "swapped-in" {
		t.Errorf("Expected substituted api key, got %q", cfg.Store.APIKey)
	}
}

func TestDurationFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty", value: "", want: 45 * time.Second},
		{name: "garbage", value: "soon", want: 45 * time.Second},
		{name: "negative", value: "-5s", want: 45 * time.Second},
		{name: "valid", value: "2m", want: 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := ReportConfig{Timeout: tt.value}
			if got := rc.TimeoutDuration(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for missing store base URL")
	}

	cfg.Store.BaseURL = "https://store.internal"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{level: "debug", want: "DEBUG"},
		{level: "info", want: "INFO"},
		{level: "warn", want: "WARN"},
		{level: "error", want: "ERROR"},
		{level: "", want: "INFO"},
		{level: "loud", want: "INFO"},
	}

	for _, tt := range tests {
		lc := LogConfig{Level: tt.level}
		if got := lc.SlogLevel().String(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %s, want %s", tt.level, got, tt.want)
		}
	}
}
