package pipeline

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/IshaanNene/wikimatch/internal/types"
)

// Middleware processes a record and returns the (possibly replaced) record.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop the record.
	Process(rec *types.MatchRecord) (*types.MatchRecord, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default builds the dataset pipeline: identity, then dedup, then the
// required-fields filter when any fields are named. The dedup stage is
// returned so callers can read its drop count.
func Default(requiredFields []string, logger *slog.Logger) (*Pipeline, *DedupMiddleware, error) {
	p := New(logger)
	p.Use(&IdentityMiddleware{})
	dedup := NewDedupMiddleware()
	p.Use(dedup)
	if len(requiredFields) > 0 {
		req, err := NewRequiredFieldsMiddleware(requiredFields)
		if err != nil {
			return nil, nil, err
		}
		p.Use(req)
	}
	return p, dedup, nil
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(rec *types.MatchRecord) (*types.MatchRecord, error) {
	current := rec

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:  mw.Name(),
				Record: current,
				Err:    err,
			}
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "tournament", rec.TournamentPage)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// RequiredFieldsMiddleware drops records where any listed column is null.
type RequiredFieldsMiddleware struct {
	Fields []string
}

// NewRequiredFieldsMiddleware validates the column names up front.
func NewRequiredFieldsMiddleware(fields []string) (*RequiredFieldsMiddleware, error) {
	known := make(map[string]bool, len(types.Columns))
	for _, col := range types.Columns {
		known[col] = true
	}
	for _, f := range fields {
		if !known[f] {
			return nil, fmt.Errorf("required field %q is not a dataset column", f)
		}
	}
	return &RequiredFieldsMiddleware{Fields: fields}, nil
}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(rec *types.MatchRecord) (*types.MatchRecord, error) {
	for _, field := range m.Fields {
		if _, ok := rec.Field(field); !ok {
			return nil, nil // Drop record
		}
	}
	return rec, nil
}

// DedupMiddleware drops records whose match_id was already seen. The first
// occurrence wins.
type DedupMiddleware struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	dropped int
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(rec *types.MatchRecord) (*types.MatchRecord, error) {
	if rec.MatchID == "" {
		return nil, fmt.Errorf("record has no match_id; identity must run first")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[rec.MatchID]; exists {
		m.dropped++
		return nil, nil // Drop duplicate
	}
	m.seen[rec.MatchID] = struct{}{}
	return rec, nil
}

// Dropped returns how many duplicates were dropped so far.
func (m *DedupMiddleware) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
