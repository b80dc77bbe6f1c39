package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guimove/queuefit/internal/model"
)

// CachedSource keeps the last rates read from another source on disk and
// serves them until they are older than the TTL.
type CachedSource struct {
	inner  RateSource
	dir    string
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSource wraps inner with a file cache under dir. Entries are keyed
// by key, typically from CacheKey.
func NewCachedSource(inner RateSource, dir, key string, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedSource{inner: inner, dir: dir, key: key, ttl: ttl, logger: logger}
}

// CacheKey derives a file-safe key from an endpoint and its queries.
func CacheKey(endpoint string, q Queries) string {
	h := fnv.New64a()
	for _, s := range []string{endpoint, q.Arrival, q.Service, q.Servers} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("rates-%016x", h.Sum64())
}

// Ping skips the backend check while a fresh entry exists.
func (c *CachedSource) Ping(ctx context.Context) error {
	if _, ok := c.get(); ok {
		return nil
	}
	return c.inner.Ping(ctx)
}

// BackendType reports the wrapped backend.
func (c *CachedSource) BackendType() string {
	return c.inner.BackendType() + " (cached)"
}

// Rates returns the cached rates when fresh, otherwise reads through to the
// wrapped source and stores the answer. A failed write is logged, not returned.
// Lookups pinned to an instant bypass the cache.
func (c *CachedSource) Rates(ctx context.Context, opts RateOptions) (*model.ObservedRates, error) {
	if opts.At.IsZero() {
		if rates, ok := c.get(); ok {
			c.logger.Debug("using cached rates", "key", c.key, "collected_at", rates.CollectedAt)
			return rates, nil
		}
	}

	rates, err := c.inner.Rates(ctx, opts)
	if err != nil {
		return nil, err
	}
	if opts.At.IsZero() {
		if err := c.set(rates); err != nil {
			c.logger.Warn("caching observed rates", "error", err)
		}
	}
	return rates, nil
}

// Clear removes every cached rates entry in the cache directory. Other files
// are left alone.
func (c *CachedSource) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "rates-") || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (c *CachedSource) get() (*model.ObservedRates, bool) {
	path := c.path()
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var rates model.ObservedRates
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, false
	}
	return &rates, true
}

func (c *CachedSource) set(rates *model.ObservedRates) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("marshaling rates: %w", err)
	}
	if err := os.WriteFile(c.path(), data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

func (c *CachedSource) path() string {
	return filepath.Join(c.dir, c.key+".json")
}

var _ RateSource = (*CachedSource)(nil)
