package config

import (
	"strings"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for wikimatch.
type Config struct {
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Extract  ExtractConfig  `mapstructure:"extract"  yaml:"extract"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Report   ReportConfig   `mapstructure:"report"   yaml:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// APIConfig controls the MediaWiki API client.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"        yaml:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
	RateLimit      time.Duration `mapstructure:"rate_limit"      yaml:"rate_limit"`
	MaxRetries     int           `mapstructure:"max_retries"     yaml:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"     yaml:"retry_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxBodySize    int64         `mapstructure:"max_body_size"   yaml:"max_body_size"`
	CacheEnabled   bool          `mapstructure:"cache_enabled"   yaml:"cache_enabled"`
	CacheDir       string        `mapstructure:"cache_dir"       yaml:"cache_dir"`
	Proxies        []string      `mapstructure:"proxies"         yaml:"proxies"`
	ProxyRotation  string        `mapstructure:"proxy_rotation"  yaml:"proxy_rotation"`
}

// DownloadConfig controls tournament discovery and page downloads.
type DownloadConfig struct {
	// Tiers maps a tier label to the wiki category listing its tournaments.
	Tiers           map[string]string `mapstructure:"tiers"            yaml:"tiers"`
	CategoryLimit   int               `mapstructure:"category_limit"   yaml:"category_limit"`
	TournamentsPath string            `mapstructure:"tournaments_path" yaml:"tournaments_path"`
	PagesDir        string            `mapstructure:"pages_dir"        yaml:"pages_dir"`
	DebugDir        string            `mapstructure:"debug_dir"        yaml:"debug_dir"`
	LogEvery        int               `mapstructure:"log_every"        yaml:"log_every"`
}

// Category returns the category for a tier label. Lookup ignores case since
// viper lowercases map keys.
func (d DownloadConfig) Category(tier string) (string, bool) {
	for label, category := range d.Tiers {
		if strings.EqualFold(label, tier) {
			return category, true
		}
	}
	return "", false
}

// ExtractConfig controls match extraction.
type ExtractConfig struct {
	Templates []string `mapstructure:"templates" yaml:"templates"`
	// Aliases overrides candidate parameter names per record field.
	Aliases map[string][]string `mapstructure:"aliases" yaml:"aliases"`
	// RequiredFields drops records missing any of these columns.
	RequiredFields []string `mapstructure:"required_fields" yaml:"required_fields"`
}

// StorageConfig controls dataset output.
type StorageConfig struct {
	Formats         []string `mapstructure:"formats"          yaml:"formats"`
	OutputDir       string   `mapstructure:"output_dir"       yaml:"output_dir"`
	BatchSize       int      `mapstructure:"batch_size"       yaml:"batch_size"`
	SQLitePath      string   `mapstructure:"sqlite_path"      yaml:"sqlite_path"`
	MongoURI        string   `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string   `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string   `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// ReportConfig controls the data quality report.
type ReportConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://liquipedia.net/counterstrike/api.php",
			RateLimit:      2 * time.Second,
			MaxRetries:     3,
			RetryDelay:     1 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    50 * 1024 * 1024, // 50MB
			CacheEnabled:   true,
			CacheDir:       "data/raw/liquipedia/cache",
			ProxyRotation:  "round_robin",
		},
		Download: DownloadConfig{
			Tiers: map[string]string{
				"S": "S-Tier_Tournaments",
				"A": "A-Tier_Tournaments",
			},
			CategoryLimit:   50,
			TournamentsPath: "data/raw/liquipedia/tournaments.jsonl",
			PagesDir:        "data/raw/liquipedia/pages",
			DebugDir:        "data/raw/liquipedia/_debug",
			LogEvery:        5,
		},
		Extract: ExtractConfig{
			Templates: []string{"Match", "Match2", "MatchMaps"},
		},
		Storage: StorageConfig{
			Formats:         []string{"parquet"},
			OutputDir:       "data/processed",
			BatchSize:       500,
			SQLitePath:      "data/processed/matches.db",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "wikimatch",
			MongoCollection: "matches",
		},
		Report: ReportConfig{
			Path: "reports/data_quality.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
