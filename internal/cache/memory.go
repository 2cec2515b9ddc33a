package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds embedding vectors in process memory with TTL expiry.
// Vectors are packed to raw bytes on the way in so the cache holds one flat
// allocation per entry instead of a live slice header per dimension.
type MemoryCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryCache creates an embedding cache with the given entry lifetime
func NewMemoryCache(ttl time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// GetVector returns the cached vector for a text, if present and well formed
func (c *MemoryCache) GetVector(text string) ([]float32, bool) {
	val, found := c.cache.Get(EmbeddingKey(text))
	if !found {
		return nil, false
	}
	raw, ok := val.([]byte)
	if !ok || len(raw)%4 != 0 {
		return nil, false
	}
	return decodeVector(raw), true
}

// SetVector stores the vector for a text
func (c *MemoryCache) SetVector(text string, vec []float32) error {
	c.cache.Set(EmbeddingKey(text), encodeVector(vec), c.ttl)
	return nil
}

// Delete removes the vector for a text
func (c *MemoryCache) Delete(text string) error {
	c.cache.Delete(EmbeddingKey(text))
	return nil
}

// Clear removes all cached vectors
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
