package config

import (
	"fmt"
	"net/url"
	"strings"
)

// StorageFormats lists the dataset sinks accepted in storage.formats.
var StorageFormats = []string{"parquet", "json", "jsonl", "csv", "sqlite", "mongodb"}

// Validate checks the configuration for invalid values. A missing user agent
// is not an error here; the API client reports it when a request is about to
// go out, so offline runs work without one.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must be >= 0")
	}
	if cfg.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0, got %d", cfg.API.MaxRetries)
	}
	if cfg.API.RetryDelay < 0 {
		return fmt.Errorf("api.retry_delay must be >= 0")
	}
	if cfg.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be > 0")
	}
	if cfg.API.MaxBodySize <= 0 {
		return fmt.Errorf("api.max_body_size must be > 0")
	}
	if cfg.API.CacheEnabled && strings.TrimSpace(cfg.API.CacheDir) == "" {
		return fmt.Errorf("api.cache_dir is required when the cache is enabled")
	}
	if len(cfg.API.Proxies) > 0 {
		if cfg.API.ProxyRotation != "round_robin" && cfg.API.ProxyRotation != "random" {
			return fmt.Errorf("api.proxy_rotation must be 'round_robin' or 'random', got %q", cfg.API.ProxyRotation)
		}
		for _, proxyURL := range cfg.API.Proxies {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if len(cfg.Download.Tiers) == 0 {
		return fmt.Errorf("download.tiers must map at least one tier to a category")
	}
	if cfg.Download.CategoryLimit < 1 || cfg.Download.CategoryLimit > 500 {
		return fmt.Errorf("download.category_limit must be 1-500, got %d", cfg.Download.CategoryLimit)
	}
	if cfg.Download.LogEvery < 1 {
		return fmt.Errorf("download.log_every must be >= 1, got %d", cfg.Download.LogEvery)
	}
	if cfg.Download.PagesDir == "" {
		return fmt.Errorf("download.pages_dir is required")
	}

	if len(cfg.Storage.Formats) == 0 {
		return fmt.Errorf("storage.formats must name at least one sink")
	}
	for _, format := range cfg.Storage.Formats {
		if !validFormat(format) {
			return fmt.Errorf("storage format %q is not supported (valid: %s)", format, strings.Join(StorageFormats, ", "))
		}
	}
	if cfg.Storage.BatchSize < 1 {
		return fmt.Errorf("storage.batch_size must be >= 1, got %d", cfg.Storage.BatchSize)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is a usable API endpoint.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

func validFormat(format string) bool {
	for _, f := range StorageFormats {
		if f == format {
			return true
		}
	}
	return false
}
