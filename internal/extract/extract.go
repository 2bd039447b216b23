// Package extract turns wikitext match templates into normalized match records.
package extract

import (
	"strings"

	"github.com/IshaanNene/wikimatch/internal/types"
	"github.com/IshaanNene/wikimatch/internal/wikitext"
)

// Extractor selects match templates from a page and builds one record each.
// It holds no per-page state and is safe for concurrent use.
type Extractor struct {
	templates map[string]struct{}
	builder   *Builder
}

// New creates an Extractor for the given template allow-list. An empty list
// uses DefaultTemplates; a nil alias table uses DefaultAliases.
func New(templates []string, aliases Aliases) *Extractor {
	if len(templates) == 0 {
		templates = DefaultTemplates
	}
	allowed := make(map[string]struct{}, len(templates))
	for _, name := range templates {
		if name = strings.TrimSpace(name); name != "" {
			allowed[name] = struct{}{}
		}
	}
	return &Extractor{
		templates: allowed,
		builder:   NewBuilder(aliases),
	}
}

// Extract parses the page once and returns a record for every allowed
// template, nested ones included, in document order. A page without match
// templates yields an empty slice. Only a blank title is an error.
func (e *Extractor) Extract(text, tournamentTitle, tier string) ([]types.MatchRecord, error) {
	if strings.TrimSpace(tournamentTitle) == "" {
		return nil, types.ErrMissingTitle
	}

	records := []types.MatchRecord{}
	for _, tmpl := range wikitext.Parse(text).Templates() {
		if !e.Allowed(tmpl.Name()) {
			continue
		}
		records = append(records, e.builder.Build(tmpl, tournamentTitle, tier))
	}
	return records, nil
}

// Allowed reports whether a template name is on the allow-list.
func (e *Extractor) Allowed(name string) bool {
	_, ok := e.templates[strings.TrimSpace(name)]
	return ok
}
