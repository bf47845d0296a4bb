package search

import (
	"strings"

	"github.com/rixingyike/rustpress/internal/corpus"
	"github.com/rixingyike/rustpress/internal/index"
)

// DefaultFallbackLimit caps fallback results.
const DefaultFallbackLimit = 10

// FallbackScorer finds documents by case-insensitive substring, catching
// partial words and punctuation-adjacent text the tokenized index misses.
type FallbackScorer struct {
	weights map[string]float64
	limit   int
}

// NewFallbackScorer uses the field weights of cfg. A non-positive limit
// means DefaultFallbackLimit.
func NewFallbackScorer(cfg index.Config, limit int) *FallbackScorer {
	if limit <= 0 {
		limit = DefaultFallbackLimit
	}
	w := make(map[string]float64, len(cfg.Fields))
	for _, f := range cfg.Fields {
		w[f.Name] = f.Weight
	}
	return &FallbackScorer{weights: w, limit: limit}
}

// Limit returns the result cap.
func (f *FallbackScorer) Limit() int { return f.limit }

// Search scores each document by adding a field's weight once when the
// field (or any one of its tags or categories) contains query. Results are
// ordered by score, ties in corpus order, and capped at Limit.
func (f *FallbackScorer) Search(query string, docs []corpus.Document) []index.Hit {
	needle := strings.ToLower(query)
	if strings.TrimSpace(needle) == "" {
		return []index.Hit{}
	}

	hits := make([]index.Hit, 0)
	for pos, doc := range docs {
		var score float64
		if strings.Contains(strings.ToLower(doc.Title), needle) {
			score += f.weights[index.FieldTitle]
		}
		if strings.Contains(strings.ToLower(doc.Content), needle) {
			score += f.weights[index.FieldContent]
		}
		if anyContains(doc.Tags, needle) {
			score += f.weights[index.FieldTags]
		}
		if anyContains(doc.Categories, needle) {
			score += f.weights[index.FieldCategories]
		}
		if score > 0 {
			hits = append(hits, index.Hit{DocID: doc.ID, Position: pos, Score: score})
		}
	}

	index.SortHits(hits)
	if len(hits) > f.limit {
		hits = hits[:f.limit]
	}
	return hits
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
