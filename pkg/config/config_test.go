package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testYAML = `
environment: test
server:
  port: 8080
runservice:
  base_url: http://localhost:9000
providers:
  - provider: openai
    model: gpt-4o
  - provider: anthropic
    model: claude-3
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RunService.PollInterval != 2*time.Second {
		t.Fatalf("expected default poll interval, got %v", cfg.RunService.PollInterval)
	}
	if cfg.RunService.MaxAttempts != 30 {
		t.Fatalf("expected default max attempts, got %d", cfg.RunService.MaxAttempts)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level, got %q", cfg.Logging.Level)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("unexpected providers %v", cfg.Providers)
	}
}

func TestLoadMissingBaseURL(t *testing.T) {
	bad := `
environment: test
providers:
  - provider: openai
    model: gpt-4o
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected validation error for missing base_url")
	}
}

func TestLoadEmptyProviders(t *testing.T) {
	bad := `
environment: test
runservice:
  base_url: http://localhost:9000
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected validation error for empty providers")
	}
}

func TestLoadKafkaEnabledNeedsBrokers(t *testing.T) {
	bad := testYAML + `
kafka:
  enabled: true
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected validation error for kafka without brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("RUNSERVICE_URL", "http://runservice.internal:9100")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	cfg, err := LoadWithEnv(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RunService.BaseURL != "http://runservice.internal:9100" {
		t.Fatalf("env override ignored: %q", cfg.RunService.BaseURL)
	}
	if cfg.Redis.Host != "redis.internal" || cfg.Redis.Port != 6380 {
		t.Fatalf("redis addr not split: %q %d", cfg.Redis.Host, cfg.Redis.Port)
	}
}
