// Package wikimatch provides a public SDK for embedding the match dataset
// builder as a library.
//
// Example usage:
//
//	client, err := wikimatch.New(
//	    wikimatch.WithUserAgent("my-research-bot/1.0 (me@example.com)"),
//	    wikimatch.WithDataDir("./data"),
//	    wikimatch.WithOutput("./data/processed", "parquet", "csv"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	report, err := client.Run(ctx, "S", "A")
package wikimatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/IshaanNene/wikimatch/internal/config"
	"github.com/IshaanNene/wikimatch/internal/engine"
	"github.com/IshaanNene/wikimatch/internal/extract"
	"github.com/IshaanNene/wikimatch/internal/fetcher"
	"github.com/IshaanNene/wikimatch/internal/mediawiki"
	"github.com/IshaanNene/wikimatch/internal/observability"
	"github.com/IshaanNene/wikimatch/internal/types"
)

// Re-exported result types.
type (
	MatchRecord   = types.MatchRecord
	Report        = engine.Report
	DownloadStats = engine.DownloadStats
)

// Client is the high-level API for running the pipeline as a library.
type Client struct {
	cfg     *config.Config
	api     *fetcher.APIClient
	engine  *engine.Engine
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*settings)

type settings struct {
	cfg    *config.Config
	logger *slog.Logger
}

// WithConfig starts from an already loaded configuration instead of the
// defaults. Options after it still apply.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		copied := *cfg
		s.cfg = &copied
	}
}

// WithUserAgent sets the User-Agent sent to the API.
func WithUserAgent(ua string) Option {
	return func(s *settings) { s.cfg.API.UserAgent = ua }
}

// WithBaseURL points the client at another MediaWiki api.php.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.cfg.API.BaseURL = u }
}

// WithRateLimit sets the minimum interval between API requests.
func WithRateLimit(d time.Duration) Option {
	return func(s *settings) { s.cfg.API.RateLimit = d }
}

// WithRetries sets the retry count and the initial backoff.
func WithRetries(n int, delay time.Duration) Option {
	return func(s *settings) {
		s.cfg.API.MaxRetries = n
		s.cfg.API.RetryDelay = delay
	}
}

// WithCache enables or disables the response cache.
func WithCache(enabled bool) Option {
	return func(s *settings) { s.cfg.API.CacheEnabled = enabled }
}

// WithDataDir roots every raw and processed path under dir.
func WithDataDir(dir string) Option {
	return func(s *settings) {
		raw := filepath.Join(dir, "raw", "liquipedia")
		s.cfg.API.CacheDir = filepath.Join(raw, "cache")
		s.cfg.Download.TournamentsPath = filepath.Join(raw, "tournaments.jsonl")
		s.cfg.Download.PagesDir = filepath.Join(raw, "pages")
		s.cfg.Download.DebugDir = filepath.Join(raw, "_debug")
		s.cfg.Storage.OutputDir = filepath.Join(dir, "processed")
		s.cfg.Storage.SQLitePath = filepath.Join(dir, "processed", "matches.db")
		s.cfg.Report.Path = filepath.Join(dir, "reports", "data_quality.json")
	}
}

// WithOutput sets the dataset directory and sink formats.
func WithOutput(dir string, formats ...string) Option {
	return func(s *settings) {
		s.cfg.Storage.OutputDir = dir
		if len(formats) > 0 {
			s.cfg.Storage.Formats = formats
		}
	}
}

// WithTemplates sets the match template allow-list.
func WithTemplates(names ...string) Option {
	return func(s *settings) { s.cfg.Extract.Templates = names }
}

// WithRequiredFields drops rows missing any of the named columns.
func WithRequiredFields(fields ...string) Option {
	return func(s *settings) { s.cfg.Extract.RequiredFields = fields }
}

// WithLogger replaces the default stderr logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(s *settings) { s.cfg.Logging.Level = "debug" }
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	s := &settings{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	if err := config.Validate(s.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := s.logger
	if logger == nil {
		level := slog.LevelInfo
		if s.cfg.Logging.Level == "debug" {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	metrics := observability.NewMetrics(logger)
	api, err := fetcher.NewAPIClient(s.cfg.API, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	eng, err := engine.New(s.cfg, mediawiki.New(api, logger), metrics, logger)
	if err != nil {
		api.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	return &Client{
		cfg:     s.cfg,
		api:     api,
		engine:  eng,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Tournaments lists the tournaments of the given tiers and writes the
// tournament list. It returns the number listed.
func (c *Client) Tournaments(ctx context.Context, tiers ...string) (int, error) {
	return c.engine.FetchTournaments(ctx, engine.TournamentOptions{Tiers: tiers})
}

// Pages downloads the wikitext of every listed tournament not yet stored.
func (c *Client) Pages(ctx context.Context) (DownloadStats, error) {
	return c.engine.DownloadPages(ctx, engine.DownloadOptions{})
}

// Build extracts the dataset from stored pages, fetching missing ones.
func (c *Client) Build(ctx context.Context) (*Report, error) {
	return c.engine.BuildDataset(ctx, engine.BuildOptions{})
}

// Run executes all three stages for the given tiers.
func (c *Client) Run(ctx context.Context, tiers ...string) (*Report, error) {
	if _, err := c.Tournaments(ctx, tiers...); err != nil {
		return nil, err
	}
	if _, err := c.Pages(ctx); err != nil {
		return nil, err
	}
	return c.Build(ctx)
}

// Extract parses wikitext already in memory and returns its match rows,
// without identities or deduplication.
func (c *Client) Extract(text, tournamentTitle, tier string) ([]MatchRecord, error) {
	aliases, err := extract.DefaultAliases().WithOverrides(c.cfg.Extract.Aliases)
	if err != nil {
		return nil, err
	}
	return extract.New(c.cfg.Extract.Templates, aliases).Extract(text, tournamentTitle, tier)
}

// Stats returns the run counters.
func (c *Client) Stats() map[string]int64 {
	return c.metrics.Snapshot()
}

// Close releases the API client.
func (c *Client) Close() error {
	return c.api.Close()
}
