package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikimatch.yaml")
	yaml := `
api:
  user_agent: "wikimatch-test/1.0 (ops@example.com)"
  rate_limit: 500ms
  max_retries: 5
download:
  tiers:
    B: B-Tier_Tournaments
  log_every: 10
extract:
  templates: [Match, LegacyMatch]
  aliases:
    team1: [left, team1]
storage:
  formats: [parquet, sqlite]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.UserAgent != "wikimatch-test/1.0 (ops@example.com)" {
		t.Errorf("user agent not loaded: %q", cfg.API.UserAgent)
	}
	if cfg.API.RateLimit != 500*time.Millisecond {
		t.Errorf("expected 500ms rate limit, got %v", cfg.API.RateLimit)
	}
	if cfg.API.MaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.API.MaxRetries)
	}
	if cfg.API.RetryDelay != time.Second {
		t.Errorf("unset values should keep defaults, got retry delay %v", cfg.API.RetryDelay)
	}
	if cfg.Download.LogEvery != 10 {
		t.Errorf("expected log_every 10, got %d", cfg.Download.LogEvery)
	}
	if cat, ok := cfg.Download.Category("B"); !ok || cat != "B-Tier_Tournaments" {
		t.Errorf("expected B tier category, got %q %v", cat, ok)
	}
	if len(cfg.Extract.Templates) != 2 || cfg.Extract.Templates[1] != "LegacyMatch" {
		t.Errorf("templates not loaded: %v", cfg.Extract.Templates)
	}
	if got := cfg.Extract.Aliases["team1"]; len(got) != 2 || got[0] != "left" {
		t.Errorf("aliases not loaded: %v", cfg.Extract.Aliases)
	}
	if len(cfg.Storage.Formats) != 2 || cfg.Storage.Formats[1] != "sqlite" {
		t.Errorf("formats not loaded: %v", cfg.Storage.Formats)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv(EnvUserAgent, "env-agent/2.0")
	t.Setenv(EnvRateLimitSeconds, "0.25")
	t.Setenv("WIKIMATCH_LOGGING_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "wikimatch.yaml")
	if err := os.WriteFile(path, []byte("report:\n  path: out.json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.UserAgent != "env-agent/2.0" {
		t.Errorf("expected user agent from %s, got %q", EnvUserAgent, cfg.API.UserAgent)
	}
	if cfg.API.RateLimit != 250*time.Millisecond {
		t.Errorf("expected 250ms from seconds env, got %v", cfg.API.RateLimit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected prefixed env override, got %q", cfg.Logging.Level)
	}
	if cfg.Report.Path != "out.json" {
		t.Errorf("expected report path from file, got %q", cfg.Report.Path)
	}
}

func TestLoadBadRateLimitEnv(t *testing.T) {
	t.Setenv(EnvRateLimitSeconds, "fast")
	path := filepath.Join(t.TempDir(), "wikimatch.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), EnvRateLimitSeconds) {
		t.Errorf("expected rate limit parse error, got %v", err)
	}
}

func TestCategoryIgnoresCase(t *testing.T) {
	d := DownloadConfig{Tiers: map[string]string{"s": "S-Tier_Tournaments"}}
	if cat, ok := d.Category("S"); !ok || cat != "S-Tier_Tournaments" {
		t.Errorf("expected case-insensitive lookup, got %q %v", cat, ok)
	}
	if _, ok := d.Category("C"); ok {
		t.Error("unknown tier should not resolve")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad base url", func(c *Config) { c.API.BaseURL = "ftp://wiki" }, "api.base_url"},
		{"negative retries", func(c *Config) { c.API.MaxRetries = -1 }, "api.max_retries"},
		{"zero timeout", func(c *Config) { c.API.RequestTimeout = 0 }, "api.request_timeout"},
		{"cache without dir", func(c *Config) { c.API.CacheDir = " " }, "api.cache_dir"},
		{"bad rotation", func(c *Config) {
			c.API.Proxies = []string{"http://proxy:8080"}
			c.API.ProxyRotation = "sticky"
		}, "api.proxy_rotation"},
		{"no tiers", func(c *Config) { c.Download.Tiers = nil }, "download.tiers"},
		{"category limit", func(c *Config) { c.Download.CategoryLimit = 0 }, "download.category_limit"},
		{"log every", func(c *Config) { c.Download.LogEvery = 0 }, "download.log_every"},
		{"no formats", func(c *Config) { c.Storage.Formats = nil }, "storage.formats"},
		{"bad format", func(c *Config) { c.Storage.Formats = []string{"xlsx"} }, "xlsx"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format name", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad metrics port", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = 0
		}, "metrics.port"},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		err := Validate(cfg)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.errMsg) {
			t.Errorf("%s: expected error mentioning %q, got %v", tt.name, tt.errMsg, err)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{"https://liquipedia.net/counterstrike/api.php", "http://localhost:8080/api.php"}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v", u, err)
		}
	}
	invalid := []string{"", "liquipedia.net", "https://", "mailto:a@b.c"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) should fail", u)
		}
	}
}
