package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variables shared with other Liquipedia tooling.
const (
	EnvUserAgent        = "LIQUIPEDIA_USER_AGENT"
	EnvRateLimitSeconds = "LIQUIPEDIA_RATE_LIMIT_SECONDS"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("WIKIMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.user_agent", "WIKIMATCH_API_USER_AGENT", EnvUserAgent); err != nil {
		return nil, fmt.Errorf("bind user agent env: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("wikimatch")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".wikimatch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Plain seconds, not a Go duration string.
	if raw := os.Getenv(EnvRateLimitSeconds); raw != "" {
		secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvRateLimitSeconds, raw, err)
		}
		cfg.API.RateLimit = time.Duration(secs * float64(time.Second))
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.rate_limit", cfg.API.RateLimit)
	v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	v.SetDefault("api.retry_delay", cfg.API.RetryDelay)
	v.SetDefault("api.request_timeout", cfg.API.RequestTimeout)
	v.SetDefault("api.max_body_size", cfg.API.MaxBodySize)
	v.SetDefault("api.cache_enabled", cfg.API.CacheEnabled)
	v.SetDefault("api.cache_dir", cfg.API.CacheDir)
	v.SetDefault("api.proxy_rotation", cfg.API.ProxyRotation)

	v.SetDefault("download.tiers", cfg.Download.Tiers)
	v.SetDefault("download.category_limit", cfg.Download.CategoryLimit)
	v.SetDefault("download.tournaments_path", cfg.Download.TournamentsPath)
	v.SetDefault("download.pages_dir", cfg.Download.PagesDir)
	v.SetDefault("download.debug_dir", cfg.Download.DebugDir)
	v.SetDefault("download.log_every", cfg.Download.LogEvery)

	v.SetDefault("extract.templates", cfg.Extract.Templates)

	v.SetDefault("storage.formats", cfg.Storage.Formats)
	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.batch_size", cfg.Storage.BatchSize)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("report.path", cfg.Report.Path)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
