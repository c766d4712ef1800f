package grouping

import (
	"context"
	"sync"

	"github.com/agnivade/levenshtein"
)

const (
	// fuzzyMaxLengthDelta bounds the key-length difference considered for
	// a fuzzy cache hit.
	fuzzyMaxLengthDelta = 10
	// fuzzyThreshold is the minimum normalized edit similarity for a
	// fuzzy cache hit.
	fuzzyThreshold = 0.90
)

// Embedder produces an embedding vector for a text. An empty vector and a
// nil error both mean "no embedding available".
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// TextEmbeddingCache maps message text to embedding vectors, with a fuzzy
// edit-distance fallback so near-identical texts reuse a cached vector
// instead of hitting the embedding API again.
//
// The cache is a best-effort optimization: concurrent misses for the same
// text may each call the embedder, and the last write wins.
type TextEmbeddingCache struct {
	embedder Embedder

	mu      sync.RWMutex
	vectors map[string][]float64
}

// NewTextEmbeddingCache creates a cache backed by the given embedder.
func NewTextEmbeddingCache(embedder Embedder) *TextEmbeddingCache {
	return &TextEmbeddingCache{
		embedder: embedder,
		vectors:  make(map[string][]float64),
	}
}

// Resolve returns an embedding for text: exact cache hit, then fuzzy hit,
// then an embedder call. Embedder failures return an empty vector and are
// not cached, so the next occurrence retries.
func (c *TextEmbeddingCache) Resolve(ctx context.Context, text string) []float64 {
	c.mu.RLock()
	vec, ok := c.vectors[text]
	c.mu.RUnlock()
	if ok {
		return vec
	}

	if vec := c.fuzzyLookup(text); vec != nil {
		return vec
	}

	vec, err := c.embedder.Embed(ctx, text)
	if err != nil || len(vec) == 0 {
		return []float64{}
	}

	c.mu.Lock()
	c.vectors[text] = vec
	c.mu.Unlock()
	return vec
}

// fuzzyLookup scans cached keys of similar length for one within the edit
// similarity threshold, copying its vector under the new key on a hit.
func (c *TextEmbeddingCache) fuzzyLookup(text string) []float64 {
	c.mu.RLock()
	var hit []float64
	for key, vec := range c.vectors {
		if abs(len(key)-len(text)) > fuzzyMaxLengthDelta {
			continue
		}
		if StringSimilarity(text, key) >= fuzzyThreshold {
			hit = vec
			break
		}
	}
	c.mu.RUnlock()

	if hit == nil {
		return nil
	}
	c.mu.Lock()
	c.vectors[text] = hit
	c.mu.Unlock()
	return hit
}

// Clear drops all cached vectors.
func (c *TextEmbeddingCache) Clear() {
	c.mu.Lock()
	c.vectors = make(map[string][]float64)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *TextEmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

// StringSimilarity returns normalized edit similarity between two strings:
// 1 - levenshtein/max(len). Identical strings score 1, disjoint strings
// approach 0.
func StringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
