package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/upb/document-retrieval/models"
)

// entry is a single cached result set. The JSON shape is the persisted cache
// representation: {"results": [...], "timestamp": epoch seconds}.
type entry struct {
	Results   []models.ScoredResult `json:"results"`
	Timestamp int64                 `json:"timestamp"`
}

// ResultCache memoizes blended search results keyed by normalized query
// parameters, with a fixed TTL and on-disk persistence.
//
// The cache is durable: the full contents are loaded once at construction
// and re-persisted wholesale on every write. That keeps the persisted copy
// trivially consistent with memory at O(entries) cost per write, which is
// acceptable at interactive-query cache sizes. Expired entries are evicted
// lazily on lookup.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	path    string
	logger  *zap.Logger
	now     func() time.Time

	hits   uint64
	misses uint64
}

// New creates a ResultCache persisted at path, loading any previously
// persisted contents. A missing file starts an empty cache; a corrupt file
// is an error.
func New(path string, ttl time.Duration, logger *zap.Logger) (*ResultCache, error) {
	c := &ResultCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		path:    path,
		logger:  logger,
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}

	logger.Info("result cache loaded",
		zap.String("path", path),
		zap.Int("entries", len(c.entries)))
	return c, nil
}

// Key derives the cache key from normalized query parameters. Query text is
// lowercased with whitespace collapsed so trivially different spellings of
// the same query share an entry.
func Key(text string, topK int, threshold float64) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	return normalized + "|k=" + strconv.Itoa(topK) + "|t=" + strconv.FormatFloat(threshold, 'g', -1, 64)
}

// Get returns the cached results for key, or false when absent or expired.
// Stored results are returned in their final, already-sorted order; the
// cache never re-sorts. Expired entries are removed. The returned slice is a
// copy, so caller mutations cannot reach the cached entry.
func (c *ResultCache) Get(key string) ([]models.ScoredResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		c.misses++
		if ok {
			delete(c.entries, key)
		}
		return nil, false
	}

	c.hits++
	out := make([]models.ScoredResult, len(e.Results))
	copy(out, e.Results)
	return out, true
}

// Put stores results under key and re-persists the full cache contents.
func (c *ResultCache) Put(key string, results []models.ScoredResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		Results:   results,
		Timestamp: c.now().Unix(),
	}

	if err := c.persist(); err != nil {
		return fmt.Errorf("failed to persist cache: %w", err)
	}
	return nil
}

// Len returns the number of entries, including any not yet lazily evicted.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit/miss counters.
func (c *ResultCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// expired reports whether an entry has outlived the TTL. Must be called with
// the lock held.
func (c *ResultCache) expired(e entry) bool {
	return c.now().Sub(time.Unix(e.Timestamp, 0)) >= c.ttl
}

// persist rewrites the whole cache file. Must be called with the lock held.
// Writes go through a temp file and rename so readers never observe a
// partial file.
func (c *ResultCache) persist() error {
	data, err := json.Marshal(c.entries)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}
