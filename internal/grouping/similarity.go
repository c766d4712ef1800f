package grouping

import (
	"math"
	"strings"

	"github.com/nixo/fdebot/internal/models"
)

// DefaultThresholds holds the per-category similarity acceptance
// thresholds. Categories without an entry use fallbackThreshold.
var DefaultThresholds = map[string]float64{
	models.CategoryBug:     0.82,
	models.CategoryFeature: 0.85,
	models.CategorySupport: 0.80,
}

// fallbackThreshold applies to categories without an explicit entry.
const fallbackThreshold = 0.83

// Matcher finds the existing ticket best matching a target embedding, or
// nil when nothing clears the category threshold. The linear scan below is
// swappable for an indexed nearest-neighbor search without touching
// callers.
type Matcher interface {
	FindMatch(target []float64, category string, candidates []models.Message) *models.Ticket
}

// LinearMatcher scans the candidate set linearly, resolving candidate
// vectors through a VectorCache. Acceptable while candidates are bounded
// to a small time window.
type LinearMatcher struct {
	vectors    *VectorCache
	thresholds map[string]float64
}

// NewLinearMatcher creates a matcher. Overrides merge over
// DefaultThresholds; pass nil to use the defaults as-is.
func NewLinearMatcher(vectors *VectorCache, overrides map[string]float64) *LinearMatcher {
	thresholds := make(map[string]float64, len(DefaultThresholds)+len(overrides))
	for k, v := range DefaultThresholds {
		thresholds[k] = v
	}
	for k, v := range overrides {
		thresholds[strings.ToUpper(k)] = v
	}
	return &LinearMatcher{vectors: vectors, thresholds: thresholds}
}

// FindMatch returns the candidate ticket with the highest cosine
// similarity to target, if it meets the category threshold. Candidates in
// other categories or without a usable vector are skipped.
func (m *LinearMatcher) FindMatch(target []float64, category string, candidates []models.Message) *models.Ticket {
	maxSimilarity := -1.0
	var bestMatch *models.Ticket

	for i := range candidates {
		msg := &candidates[i]
		if msg.Ticket == nil || !strings.EqualFold(msg.Ticket.Category, category) {
			continue
		}
		vec := m.vectors.Resolve(msg.TicketID, msg.Embedding)
		if len(vec) == 0 {
			continue
		}
		if sim := CosineSimilarity(target, vec); sim > maxSimilarity {
			maxSimilarity = sim
			bestMatch = msg.Ticket
		}
	}

	if maxSimilarity >= m.Threshold(category) {
		return bestMatch
	}
	return nil
}

// Threshold returns the acceptance threshold for a category.
func (m *LinearMatcher) Threshold(category string) float64 {
	if t, ok := m.thresholds[strings.ToUpper(category)]; ok {
		return t
	}
	return fallbackThreshold
}

// CosineSimilarity computes dot(a,b)/(|a|*|b|). Vectors of different
// dimensionality or zero norm score 0 rather than erroring; that reads as
// "no match" to the caller.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
