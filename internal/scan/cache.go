package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/big-brother/internal/facts"
)

// DefaultCacheSize bounds the number of fact sheets kept between scans.
const DefaultCacheSize = 10_000

// Cache keeps fact sheets keyed by path and content hash so repeated
// scans (watch mode) only re-parse files that changed.
type Cache struct {
	sheets otter.Cache[string, *facts.FactSheet]
}

// NewCache builds a cache holding at most capacity sheets.
func NewCache(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	c, err := otter.MustBuilder[string, *facts.FactSheet](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build fact cache: %w", err)
	}
	return &Cache{sheets: c}, nil
}

func cacheKey(src facts.SourceFile) string {
	sum := sha256.Sum256(src.Text)
	return src.Path + "\x00" + hex.EncodeToString(sum[:])
}

// Extract returns the cached sheet for src or extracts and stores it.
// Parse failures are not cached.
func (c *Cache) Extract(src facts.SourceFile) (*facts.FactSheet, bool, error) {
	key := cacheKey(src)
	if sheet, ok := c.sheets.Get(key); ok {
		return sheet, true, nil
	}
	sheet, err := facts.Extract(src)
	if err != nil {
		return nil, false, err
	}
	c.sheets.Set(key, sheet)
	return sheet, false, nil
}

// Len returns the number of cached sheets.
func (c *Cache) Len() int {
	return c.sheets.Size()
}

// Hits returns the number of cache hits so far.
func (c *Cache) Hits() int64 {
	return c.sheets.Stats().Hits()
}

// Close releases the cache's background resources.
func (c *Cache) Close() {
	c.sheets.Close()
}
