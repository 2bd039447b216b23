package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/wikimatch/internal/pipeline"
	"github.com/IshaanNene/wikimatch/internal/storage"
	"github.com/IshaanNene/wikimatch/internal/types"
)

// BuildOptions controls BuildDataset.
type BuildOptions struct {
	Input    string // "" uses download.tournaments_path
	MaxPages int    // 0 means no limit
	Offline  bool   // skip pages that are not on disk instead of fetching them
	Debug    bool   // write per-page extraction traces
}

// BuildDataset extracts matches from every listed tournament page, assigns
// identities, drops duplicates, writes the rows to the configured sinks and
// writes the quality report. Pages missing from disk are fetched unless
// Offline is set. A fetch failure aborts the build; pages already stored
// stay on disk.
func (e *Engine) BuildDataset(ctx context.Context, opts BuildOptions) (report *Report, err error) {
	input := opts.Input
	if input == "" {
		input = e.cfg.Download.TournamentsPath
	}
	debugDir := filepath.Join(e.cfg.Download.DebugDir, "extraction")

	tournaments, err := storage.ReadTournaments(input)
	if err != nil {
		return nil, err
	}

	pipe, dedup, err := pipeline.Default(e.cfg.Extract.RequiredFields, e.logger)
	if err != nil {
		return nil, err
	}

	sink, err := e.newSink()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			report, err = nil, &types.StorageError{Backend: sink.Name(), Err: cerr}
		}
	}()

	var (
		processed int
		extracted int
		quality   qualityTally
	)
	for _, t := range tournaments {
		if opts.MaxPages > 0 && processed >= opts.MaxPages {
			break
		}
		if strings.TrimSpace(t.Title) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, ok, err := e.loadPage(ctx, t.Title, opts.Offline)
		if err != nil {
			return nil, err
		}
		if !ok {
			e.logger.Debug("page not on disk, skipping", "title", t.Title)
			continue
		}

		records, err := e.extractor.Extract(text, t.Title, t.Tier)
		if err != nil {
			return nil, fmt.Errorf("extract %q: %w", t.Title, err)
		}
		extracted += len(records)
		e.metrics.MatchesExtracted.Add(float64(len(records)))

		kept := make([]*types.MatchRecord, 0, len(records))
		for i := range records {
			out, err := pipe.Process(&records[i])
			if err != nil {
				return nil, err
			}
			if out == nil {
				continue
			}
			kept = append(kept, out)
			quality.add(out)
		}
		if len(kept) > 0 {
			if err := e.store(sink, kept); err != nil {
				return nil, err
			}
		}

		if opts.Debug {
			trace := map[string]any{
				"title":             t.Title,
				"tier":              t.Tier,
				"matches_extracted": len(records),
			}
			if err := storage.WriteDebug(debugDir, t.Title, trace); err != nil {
				return nil, err
			}
		}

		processed++
		e.metrics.PagesProcessed.Inc()
		if processed%e.cfg.Download.LogEvery == 0 {
			e.logger.Info("build progress", "pages", processed, "rows", quality.rows)
		}
	}

	if quality.rows == 0 {
		e.logger.Warn("no matches extracted")
	}

	duplicates := dedup.Dropped()
	e.metrics.DuplicatesDropped.Add(float64(duplicates))
	filtered := extracted - duplicates - quality.rows

	report = newReport(processed, duplicates, filtered, quality)
	if err := WriteReport(e.cfg.Report.Path, report); err != nil {
		return nil, err
	}

	e.logger.Info("dataset built",
		"run_id", report.RunID,
		"tournaments", processed,
		"rows", quality.rows,
		"duplicates", duplicates,
		"sink", sink.Name(),
		"report", e.cfg.Report.Path,
	)
	return report, nil
}

// loadPage returns the stored wikitext, fetching and storing it first when
// allowed. ok is false when the page is absent and offline.
func (e *Engine) loadPage(ctx context.Context, title string, offline bool) (string, bool, error) {
	if e.pages.Exists(title) {
		text, err := e.pages.Read(title)
		return text, err == nil, err
	}
	if offline {
		return "", false, nil
	}
	if err := e.requireWiki(); err != nil {
		return "", false, err
	}

	text, err := e.wiki.Wikitext(ctx, title)
	if err != nil {
		return "", false, err
	}
	if err := e.pages.Write(title, text); err != nil {
		return "", false, err
	}
	e.metrics.PagesDownloaded.Inc()
	return text, true, nil
}

// store writes rows in batches of storage.batch_size.
func (e *Engine) store(sink storage.Storage, rows []*types.MatchRecord) error {
	size := e.cfg.Storage.BatchSize
	if size <= 0 {
		size = len(rows)
	}
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		if err := sink.Store(rows[start:end]); err != nil {
			return &types.StorageError{Backend: sink.Name(), Err: err}
		}
		e.metrics.RecordsStored.Add(float64(end - start))
	}
	return nil
}
