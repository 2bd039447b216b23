package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeTitleChars = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// SafeTitle maps a page title to a file name stem: runs of characters outside
// [A-Za-z0-9_-] become one underscore, edge underscores are trimmed, and an
// empty result is "untitled".
func SafeTitle(title string) string {
	safe := unsafeTitleChars.ReplaceAllString(strings.TrimSpace(title), "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "untitled"
	}
	return safe
}

// PageStore keeps downloaded wikitext as <dir>/<SafeTitle>.wikitext.
// Titles that collapse to the same stem share a file.
type PageStore struct {
	dir string
}

// NewPageStore creates the page directory if needed.
func NewPageStore(dir string) (*PageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pages dir: %w", err)
	}
	return &PageStore{dir: dir}, nil
}

// Path returns the file for a title.
func (p *PageStore) Path(title string) string {
	return filepath.Join(p.dir, SafeTitle(title)+".wikitext")
}

// Exists reports whether the page has been stored.
func (p *PageStore) Exists(title string) bool {
	_, err := os.Stat(p.Path(title))
	return err == nil
}

// Read returns the stored wikitext. A missing page wraps fs.ErrNotExist.
func (p *PageStore) Read(title string) (string, error) {
	data, err := os.ReadFile(p.Path(title))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("page %q not downloaded: %w", title, err)
		}
		return "", fmt.Errorf("read page %q: %w", title, err)
	}
	return string(data), nil
}

// Write stores the wikitext for a title, replacing any previous copy.
func (p *PageStore) Write(title, wikitext string) error {
	if err := os.WriteFile(p.Path(title), []byte(wikitext), 0o644); err != nil {
		return fmt.Errorf("write page %q: %w", title, err)
	}
	return nil
}

// WriteDebug writes v as indented JSON to <dir>/<SafeTitle>.json.
func WriteDebug(dir, title string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create debug dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode debug payload: %w", err)
	}
	path := filepath.Join(dir, SafeTitle(title)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write debug file: %w", err)
	}
	return nil
}
