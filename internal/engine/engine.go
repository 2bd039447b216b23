// Package engine orchestrates the three pipeline stages: tournament
// discovery, page download, and dataset build.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/wikimatch/internal/config"
	"github.com/IshaanNene/wikimatch/internal/extract"
	"github.com/IshaanNene/wikimatch/internal/mediawiki"
	"github.com/IshaanNene/wikimatch/internal/observability"
	"github.com/IshaanNene/wikimatch/internal/storage"
)

// Wiki is the subset of the MediaWiki API the engine uses.
type Wiki interface {
	CategoryMembers(ctx context.Context, category string, limit int, debugDir string, fn func(mediawiki.Member) error) error
	Wikitext(ctx context.Context, title string) (string, error)
}

// SinkFactory opens the dataset sink for one build.
type SinkFactory func() (storage.Storage, error)

// Engine runs pipeline stages against one configuration. Stages run
// sequentially; an Engine is not meant for concurrent use.
type Engine struct {
	cfg       *config.Config
	wiki      Wiki
	pages     *storage.PageStore
	extractor *extract.Extractor
	newSink   SinkFactory
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates an Engine. wiki may be nil for offline builds; any stage that
// needs the network then fails.
func New(cfg *config.Config, wiki Wiki, metrics *observability.Metrics, logger *slog.Logger) (*Engine, error) {
	pages, err := storage.NewPageStore(cfg.Download.PagesDir)
	if err != nil {
		return nil, err
	}

	aliases, err := extract.DefaultAliases().WithOverrides(cfg.Extract.Aliases)
	if err != nil {
		return nil, fmt.Errorf("extract.aliases: %w", err)
	}

	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}

	e := &Engine{
		cfg:       cfg,
		wiki:      wiki,
		pages:     pages,
		extractor: extract.New(cfg.Extract.Templates, aliases),
		metrics:   metrics,
		logger:    logger.With("component", "engine"),
	}
	e.newSink = func() (storage.Storage, error) {
		return storage.NewStorage(cfg.Storage, logger)
	}
	return e, nil
}

// SetSinkFactory replaces how BuildDataset opens its sink.
func (e *Engine) SetSinkFactory(f SinkFactory) {
	e.newSink = f
}

// Pages returns the page store.
func (e *Engine) Pages() *storage.PageStore {
	return e.pages
}

// Metrics returns the run's metrics.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

func (e *Engine) requireWiki() error {
	if e.wiki == nil {
		return fmt.Errorf("no wiki client configured")
	}
	return nil
}
