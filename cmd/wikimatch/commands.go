package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/wikimatch/internal/config"
	"github.com/IshaanNene/wikimatch/internal/engine"
	"github.com/IshaanNene/wikimatch/internal/extract"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// tournamentsCmd creates the "tournaments" subcommand.
func tournamentsCmd() *cobra.Command {
	var (
		tiers  string
		limit  int
		output string
		debug  bool
	)

	cmd := &cobra.Command{
		Use:   "tournaments",
		Short: "List tournament pages for the given tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(false)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signalContext()
			defer stop()

			start := time.Now()
			n, err := rt.engine.FetchTournaments(ctx, engine.TournamentOptions{
				Tiers:  splitList(tiers),
				Limit:  limit,
				Output: output,
				Debug:  debug,
			})
			if err != nil {
				return err
			}

			rt.printSummary("tournaments", time.Since(start))
			fmt.Printf("   Written:   %d tournaments\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&tiers, "tiers", "S,A", "comma-separated tier labels")
	cmd.Flags().IntVar(&limit, "limit", 0, "entries per API call (0 = config default)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "tournament list path (default from config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "save raw category responses")
	return cmd
}

// pagesCmd creates the "pages" subcommand.
func pagesCmd() *cobra.Command {
	var opts engine.DownloadOptions

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Download wikitext for listed tournaments",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(false)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signalContext()
			defer stop()

			start := time.Now()
			stats, err := rt.engine.DownloadPages(ctx, opts)
			if err != nil {
				return err
			}

			rt.printSummary("pages", time.Since(start))
			fmt.Printf("   Visited:   %d (%d downloaded, %d already stored)\n", stats.Visited, stats.Downloaded, stats.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "tournament list path (default from config)")
	cmd.Flags().IntVar(&opts.MaxPages, "max_pages", 0, "maximum pages to visit (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "re-download pages already on disk")
	cmd.Flags().IntVar(&opts.LogEvery, "log_every", 0, "progress log interval (0 = config default)")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "write per-page metadata")
	return cmd
}

// buildCmd creates the "build" subcommand.
func buildCmd() *cobra.Command {
	var opts engine.BuildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Extract matches and write the dataset and quality report",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(opts.Offline)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signalContext()
			defer stop()

			start := time.Now()
			report, err := rt.engine.BuildDataset(ctx, opts)
			if err != nil {
				return err
			}

			rt.printSummary("build", time.Since(start))
			fmt.Printf("   Rows:      %d from %d tournaments\n", report.MatchesExtracted, report.TournamentsProcessed)
			fmt.Printf("   Coverage:  teams %.1f%%, scores %.1f%%, start time %.1f%%\n",
				report.PctWithTeams*100, report.PctWithScores*100, report.PctWithStartTime*100)
			fmt.Printf("   Output:    %s (%s)\n", rt.cfg.Storage.OutputDir, strings.Join(rt.cfg.Storage.Formats, ", "))
			fmt.Printf("   Report:    %s\n", rt.cfg.Report.Path)

			if report.MatchesExtracted == 0 {
				fmt.Println("\nNo matches were extracted. Check that pages were downloaded and that")
				fmt.Println("extract.templates names the match templates used on those pages:")
				fmt.Println("     wikimatch templates <page.wiki>")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "tournament list path (default from config)")
	cmd.Flags().IntVar(&opts.MaxPages, "max_pages", 0, "maximum pages to process (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "use stored pages only")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "write per-page extraction traces")
	return cmd
}

// templatesCmd creates the "templates" subcommand, which lists the most
// common templates of a stored page.
func templatesCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "templates [file]",
		Short: "Show the most common templates on a wikitext file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			for _, tc := range extract.CountTemplates(string(data), top) {
				fmt.Printf("%6d  %s\n", tc.Count, tc.Name)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 20, "number of templates to show (0 = all)")
	return cmd
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wikimatch %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			userAgent := "(not set)"
			if cfg.API.UserAgent != "" {
				userAgent = cfg.API.UserAgent
			}
			fmt.Printf("API:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.API.BaseURL)
			fmt.Printf("  User Agent:        %s\n", userAgent)
			fmt.Printf("  Rate Limit:        %s\n", cfg.API.RateLimit)
			fmt.Printf("  Max Retries:       %d\n", cfg.API.MaxRetries)
			fmt.Printf("  Cache:             %v (%s)\n", cfg.API.CacheEnabled, cfg.API.CacheDir)
			fmt.Printf("  Proxies:           %d (%s)\n", len(cfg.API.Proxies), cfg.API.ProxyRotation)
			fmt.Printf("\nDownload:\n")
			for label, category := range cfg.Download.Tiers {
				fmt.Printf("  Tier %-14s %s\n", label+":", category)
			}
			fmt.Printf("  Tournaments:       %s\n", cfg.Download.TournamentsPath)
			fmt.Printf("  Pages:             %s\n", cfg.Download.PagesDir)
			fmt.Printf("\nExtract:\n")
			fmt.Printf("  Templates:         %s\n", strings.Join(cfg.Extract.Templates, ", "))
			fmt.Printf("  Required Fields:   %s\n", strings.Join(cfg.Extract.RequiredFields, ", "))
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Formats:           %s\n", strings.Join(cfg.Storage.Formats, ", "))
			fmt.Printf("  Output Dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  Report:            %s\n", cfg.Report.Path)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// splitList splits a comma-separated flag, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
