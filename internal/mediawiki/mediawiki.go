// Package mediawiki wraps the MediaWiki API actions the pipeline needs.
package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/IshaanNene/wikimatch/internal/types"
)

// Client performs a single API call. fetcher.APIClient satisfies it.
type Client interface {
	GetJSON(ctx context.Context, params map[string]string) ([]byte, error)
}

// Member is one entry of a category listing.
type Member struct {
	PageID int64  `json:"pageid"`
	NS     int    `json:"ns"`
	Title  string `json:"title"`
}

// Wiki runs MediaWiki actions through a Client.
type Wiki struct {
	client Client
	logger *slog.Logger
}

// New creates a Wiki.
func New(client Client, logger *slog.Logger) *Wiki {
	return &Wiki{
		client: client,
		logger: logger.With("component", "mediawiki"),
	}
}

type categoryResponse struct {
	Query struct {
		CategoryMembers []Member `json:"categorymembers"`
	} `json:"query"`
	Continue map[string]any `json:"continue"`
}

// CategoryMembers lists every member of Category:<category>, following
// continuation tokens until the listing ends. fn is called for each member
// in API order; a non-nil error from fn stops the walk. When debugDir is set
// each raw response page is saved as category_<category>_<n>.json.
func (w *Wiki) CategoryMembers(ctx context.Context, category string, limit int, debugDir string, fn func(Member) error) error {
	params := map[string]string{
		"action":  "query",
		"format":  "json",
		"list":    "categorymembers",
		"cmtitle": "Category:" + category,
		"cmlimit": strconv.Itoa(limit),
	}

	for page := 1; ; page++ {
		body, err := w.client.GetJSON(ctx, params)
		if err != nil {
			return fmt.Errorf("list category %s: %w", category, err)
		}

		if debugDir != "" {
			name := fmt.Sprintf("category_%s_%d.json", category, page)
			if err := writeDebug(debugDir, name, body); err != nil {
				return err
			}
		}

		var resp categoryResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode category %s page %d: %w", category, page, err)
		}

		for _, m := range resp.Query.CategoryMembers {
			if err := fn(m); err != nil {
				return err
			}
		}

		next, ok := resp.Continue["cmcontinue"].(string)
		if !ok {
			w.logger.Debug("category listing complete", "category", category, "pages", page)
			return nil
		}
		params["cmcontinue"] = next
	}
}

type revisionsResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			Revisions []struct {
				Slots struct {
					Main struct {
						Star    *string `json:"*"`
						Content *string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// Wikitext returns the current wikitext of a page. A response without pages
// is ErrPageNotFound; a page without revisions yields "".
func (w *Wiki) Wikitext(ctx context.Context, title string) (string, error) {
	body, err := w.client.GetJSON(ctx, map[string]string{
		"action":  "query",
		"format":  "json",
		"prop":    "revisions",
		"rvprop":  "content",
		"rvslots": "main",
		"titles":  title,
	})
	if err != nil {
		return "", fmt.Errorf("fetch wikitext for %q: %w", title, err)
	}

	var resp revisionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode wikitext for %q: %w", title, err)
	}
	if len(resp.Query.Pages) == 0 {
		return "", fmt.Errorf("%w: %s", types.ErrPageNotFound, title)
	}

	// The query names one title, so only one page comes back.
	for _, page := range resp.Query.Pages {
		if len(page.Revisions) == 0 {
			return "", nil
		}
		slot := page.Revisions[0].Slots.Main
		if slot.Star != nil && *slot.Star != "" {
			return *slot.Star, nil
		}
		if slot.Content != nil {
			return *slot.Content, nil
		}
		return "", nil
	}
	return "", nil
}

func writeDebug(dir, name string, body []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create debug dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
		return fmt.Errorf("write debug file %s: %w", name, err)
	}
	return nil
}
