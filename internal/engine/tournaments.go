package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/IshaanNene/wikimatch/internal/mediawiki"
	"github.com/IshaanNene/wikimatch/internal/storage"
	"github.com/IshaanNene/wikimatch/internal/types"
)

// TournamentOptions controls FetchTournaments.
type TournamentOptions struct {
	Tiers  []string
	Limit  int    // entries per API call; 0 uses download.category_limit
	Output string // "" uses download.tournaments_path
	Debug  bool   // save raw category responses
}

// FetchTournaments lists the category of every requested tier and writes
// the tournaments to a JSONL file, in tier order then API order. All tiers
// are checked before any request goes out. It returns the number written.
func (e *Engine) FetchTournaments(ctx context.Context, opts TournamentOptions) (int, error) {
	if err := e.requireWiki(); err != nil {
		return 0, err
	}

	categories := make([]string, len(opts.Tiers))
	for i, tier := range opts.Tiers {
		category, ok := e.cfg.Download.Category(tier)
		if !ok {
			return 0, fmt.Errorf("%w: %s", types.ErrUnsupportedTier, tier)
		}
		categories[i] = category
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = e.cfg.Download.CategoryLimit
	}
	output := opts.Output
	if output == "" {
		output = e.cfg.Download.TournamentsPath
	}
	var debugDir string
	if opts.Debug {
		debugDir = e.cfg.Download.DebugDir
	}

	w, err := storage.NewTournamentWriter(output)
	if err != nil {
		return 0, err
	}

	for i, tier := range opts.Tiers {
		before := w.Count()
		err := e.wiki.CategoryMembers(ctx, categories[i], limit, debugDir, func(m mediawiki.Member) error {
			return w.Write(types.Tournament{Title: m.Title, PageID: m.PageID, Tier: tier})
		})
		if err != nil {
			w.Close()
			return w.Count(), fmt.Errorf("tier %s: %w", tier, err)
		}
		e.logger.Info("tier listed", "tier", tier, "category", categories[i], "tournaments", w.Count()-before)
	}

	if err := w.Close(); err != nil {
		return w.Count(), err
	}
	e.logger.Info("tournament list written", "path", filepath.Clean(output), "tournaments", w.Count())
	return w.Count(), nil
}
