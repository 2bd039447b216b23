package engine

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/wikimatch/internal/storage"
)

// DownloadOptions controls DownloadPages.
type DownloadOptions struct {
	Input    string // "" uses download.tournaments_path
	MaxPages int    // 0 means no limit
	Force    bool   // re-download pages already on disk
	LogEvery int    // 0 uses download.log_every
	Debug    bool   // write per-page metadata
}

// DownloadStats summarizes a DownloadPages run.
type DownloadStats struct {
	Visited    int `json:"visited"`
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
}

// DownloadPages stores the wikitext of every listed tournament. Pages already
// on disk are skipped unless Force is set; skipped pages still count toward
// MaxPages. A fetch failure stops the run, keeping pages already written.
func (e *Engine) DownloadPages(ctx context.Context, opts DownloadOptions) (DownloadStats, error) {
	var stats DownloadStats

	input := opts.Input
	if input == "" {
		input = e.cfg.Download.TournamentsPath
	}
	logEvery := opts.LogEvery
	if logEvery <= 0 {
		logEvery = e.cfg.Download.LogEvery
	}
	debugDir := filepath.Join(e.cfg.Download.DebugDir, "pages")

	tournaments, err := storage.ReadTournaments(input)
	if err != nil {
		return stats, err
	}

	for _, t := range tournaments {
		if opts.MaxPages > 0 && stats.Visited >= opts.MaxPages {
			break
		}
		if strings.TrimSpace(t.Title) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if e.pages.Exists(t.Title) && !opts.Force {
			stats.Visited++
			stats.Skipped++
			e.metrics.PagesSkipped.Inc()
			continue
		}

		if err := e.requireWiki(); err != nil {
			return stats, err
		}
		text, err := e.wiki.Wikitext(ctx, t.Title)
		if err != nil {
			return stats, err
		}
		if err := e.pages.Write(t.Title, text); err != nil {
			return stats, err
		}

		if opts.Debug {
			meta := map[string]any{
				"title":  t.Title,
				"path":   e.pages.Path(t.Title),
				"length": len([]rune(text)),
			}
			if err := storage.WriteDebug(debugDir, t.Title, meta); err != nil {
				return stats, err
			}
		}

		stats.Visited++
		stats.Downloaded++
		e.metrics.PagesDownloaded.Inc()
		if stats.Visited%logEvery == 0 {
			e.logger.Info("download progress", "pages", stats.Visited, "downloaded", stats.Downloaded)
		}
	}

	e.logger.Info("download finished",
		"pages", stats.Visited,
		"downloaded", stats.Downloaded,
		"skipped", stats.Skipped,
	)
	return stats, nil
}
