// Package summary condenses long queries into keyword lines used to sharpen
// retrieval. Summaries are best-effort: every failure path degrades to the
// NoSummary sentinel instead of an error.
package summary

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 4096

// Cache stores summaries keyed by content hash. Implementations must be safe
// for concurrent use; same-key concurrent writes are last-writer-wins, which
// is acceptable since the values are equivalent.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// LRUCache bounds summary memory with least-recently-used eviction.
type LRUCache struct {
	cache *lru.Cache[string, string]
}

// NewLRUCache creates a cache holding up to capacity entries. Non-positive
// capacities fall back to a generous default.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}

	cache, err := lru.New[string, string](capacity)
	if err != nil {
		cache, _ = lru.New[string, string](defaultCacheSize)
	}

	return &LRUCache{cache: cache}
}

func (c *LRUCache) Get(key string) (string, bool) {
	return c.cache.Get(key)
}

func (c *LRUCache) Set(key, value string) {
	c.cache.Add(key, value)
}

func (c *LRUCache) Len() int {
	return c.cache.Len()
}

// NopCache stores nothing. Useful for tests asserting generator call counts.
type NopCache struct{}

func (NopCache) Get(string) (string, bool) { return "", false }

func (NopCache) Set(string, string) {}

// ComputeHash returns the SHA-256 hex digest of the text, used as cache key.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
