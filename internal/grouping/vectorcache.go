// Package grouping implements the ticket grouping and deduplication engine:
// thread linkage, embedding similarity matching and text dedup.
package grouping

import (
	"encoding/json"
	"sync"
)

// VectorCache memoizes the decode of each ticket's representative embedding
// so repeated comparisons against the same ticket don't re-parse JSON.
// A malformed payload is cached as an empty vector and never retried for
// the cache's lifetime; the matcher treats empty as "no embedding".
type VectorCache struct {
	mu      sync.RWMutex
	vectors map[uint][]float64
}

// NewVectorCache creates an empty VectorCache.
func NewVectorCache() *VectorCache {
	return &VectorCache{vectors: make(map[uint][]float64)}
}

// Resolve returns the decoded vector for a ticket, decoding raw on first
// use. Entries are replaced, never mutated in place.
func (c *VectorCache) Resolve(ticketID uint, raw string) []float64 {
	c.mu.RLock()
	vec, ok := c.vectors[ticketID]
	c.mu.RUnlock()
	if ok {
		return vec
	}

	vec = decodeVector(raw)

	c.mu.Lock()
	c.vectors[ticketID] = vec
	c.mu.Unlock()
	return vec
}

// Clear drops all cached vectors.
func (c *VectorCache) Clear() {
	c.mu.Lock()
	c.vectors = make(map[uint][]float64)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *VectorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

// decodeVector parses a JSON float array, returning an empty slice on any
// decode failure.
func decodeVector(raw string) []float64 {
	if raw == "" {
		return []float64{}
	}
	var vec []float64
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return []float64{}
	}
	return vec
}
