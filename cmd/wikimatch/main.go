package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/wikimatch/internal/config"
	"github.com/IshaanNene/wikimatch/internal/engine"
	"github.com/IshaanNene/wikimatch/internal/fetcher"
	"github.com/IshaanNene/wikimatch/internal/mediawiki"
	"github.com/IshaanNene/wikimatch/internal/observability"
)

var (
	cfgFile string
	envFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wikimatch",
		Short: "Esports match dataset builder for Liquipedia",
		Long: `wikimatch lists tournaments by tier, downloads their wikitext through the
MediaWiki API, and extracts one normalized row per match template.

Stages:
  tournaments  list tournament pages of the requested tiers
  pages        download and store the wikitext of listed tournaments
  build        extract, deduplicate and write the match dataset`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(tournamentsCmd())
	rootCmd.AddCommand(pagesCmd())
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime holds what every stage command needs.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	client  *fetcher.APIClient
	engine  *engine.Engine
}

// loadConfig reads the dotenv file, then config file and environment.
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup wires config, logging, metrics, the API client and the engine.
// offline skips the API client.
func setup(offline bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.Logging)

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	rt := &runtime{cfg: cfg, logger: logger, metrics: metrics}

	var wiki engine.Wiki
	if !offline {
		client, err := fetcher.NewAPIClient(cfg.API, metrics, logger)
		if err != nil {
			return nil, fmt.Errorf("create api client: %w", err)
		}
		rt.client = client
		wiki = mediawiki.New(client, logger)
	}

	eng, err := engine.New(cfg, wiki, metrics, logger)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	rt.engine = eng
	return rt, nil
}

func (rt *runtime) close() {
	if rt.client != nil {
		rt.client.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.metrics.Shutdown(ctx); err != nil {
		rt.logger.Warn("metrics server shutdown", "error", err)
	}
}

// printSummary writes the run counters to stdout.
func (rt *runtime) printSummary(stage string, elapsed time.Duration) {
	snap := rt.metrics.Snapshot()
	fmt.Printf("\n%s complete in %s\n", stage, elapsed.Round(time.Millisecond))
	fmt.Printf("   API:       %d requests, %d retries, %d failures, %d cache hits\n",
		snap["api_requests"], snap["api_retries"], snap["api_failures"], snap["cache_hits"])
	fmt.Printf("   Pages:     %d downloaded, %d skipped, %d processed\n",
		snap["pages_downloaded"], snap["pages_skipped"], snap["pages_processed"])
	if snap["matches_extracted"] > 0 || stage == "build" {
		fmt.Printf("   Matches:   %d extracted, %d duplicates, %d stored\n",
			snap["matches_extracted"], snap["duplicates_dropped"], snap["records_stored"])
	}
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
