package fetcher

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// CacheKey derives the cache key for a request: the SHA-1 hex digest of
// baseURL + "?" + k=v pairs sorted by key and joined by "&". Values are not
// URL-escaped, so keys stay stable across client implementations.
func CacheKey(baseURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}

	sum := sha1.Sum([]byte(baseURL + "?" + strings.Join(pairs, "&")))
	return hex.EncodeToString(sum[:])
}

// FileCache stores API responses as <dir>/<key>.json. Writes go through a
// temp file and rename so readers never observe a partial entry.
type FileCache struct {
	dir   string
	locks map[string]*sync.Mutex
	mu    sync.RWMutex
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

// Path returns the file backing a key.
func (c *FileCache) Path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Lock serializes work on one key and returns the unlock function. Callers
// hold it across lookup, fetch and store so a key is fetched at most once.
func (c *FileCache) Lock(key string) func() {
	m := c.keyLock(key)
	m.Lock()
	return m.Unlock
}

func (c *FileCache) keyLock(key string) *sync.Mutex {
	c.mu.RLock()
	m, ok := c.locks[key]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if m, ok = c.locks[key]; ok {
		return m
	}
	m = &sync.Mutex{}
	c.locks[key] = m
	return m
}

// Get returns the cached body for a key. A missing entry reports false with
// no error.
func (c *FileCache) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	return data, true, nil
}

// Put atomically writes the body for a key.
func (c *FileCache) Put(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmpName, c.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit cache entry %s: %w", key, err)
	}
	return nil
}
