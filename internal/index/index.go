// Package index provides the primary ranked text index over a corpus. The
// default memory backend scores a token match as frequency x weight for
// title and content, and as the field weight once per document for tags and
// categories. The bleve and sqlite backends rank with their own relevance
// models behind the same interface.
package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rixingyike/rustpress/internal/corpus"
	"github.com/rixingyike/rustpress/internal/errors"
)

// Index is a queryable ranked index over one corpus.
type Index interface {
	// Build replaces the indexed corpus. On error the index is left unbuilt.
	Build(ctx context.Context, docs []corpus.Document) error

	// Search returns hits with Score > 0, best first, ties in corpus order.
	// A blank query returns an empty slice. Before a successful Build it
	// returns ERR_301_INDEX_NOT_BUILT.
	Search(ctx context.Context, query string) ([]Hit, error)

	Stats() Stats

	Close() error
}

// Hit is one scored document.
type Hit struct {
	DocID    string
	Position int
	Score    float64
}

// Stats describes a built index.
type Stats struct {
	Backend   string `json:"backend"`
	Documents int    `json:"documents"`
	// Terms is the number of distinct terms, when the backend can tell.
	Terms int  `json:"terms"`
	Built bool `json:"built"`
}

// Backend names.
const (
	BackendMemory = "memory"
	BackendBleve  = "bleve"
	BackendSQLite = "sqlite"
)

// New creates an unbuilt index for the named backend. An empty name selects
// the memory backend.
func New(backend string, cfg Config) (Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(backend) {
	case BackendMemory, "":
		return NewMemoryIndex(cfg), nil
	case BackendBleve:
		return NewBleveIndex(cfg), nil
	case BackendSQLite:
		return NewSQLiteIndex(cfg)
	default:
		return nil, errors.ConfigError(
			fmt.Sprintf("unknown index backend: %s (valid options: memory, bleve, sqlite)", backend), nil)
	}
}

// SortHits orders by score descending, then by corpus position. Every
// scorer uses it so ties break the same way.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
}

// fieldValues returns the raw text of a named document field.
func fieldValues(doc corpus.Document, field string) []string {
	switch field {
	case FieldTitle:
		return []string{doc.Title}
	case FieldContent:
		return []string{doc.Content}
	case FieldTags:
		return doc.Tags
	case FieldCategories:
		return doc.Categories
	}
	return nil
}

// fieldText pre-tokenizes a field into a space-joined term string, the form
// the sqlite backend stores.
func fieldText(doc corpus.Document, field string) string {
	var toks []string
	for _, v := range fieldValues(doc, field) {
		toks = append(toks, Tokenize(v)...)
	}
	return strings.Join(toks, " ")
}

func buildFailed(backend string, err error) error {
	return errors.New(errors.ErrCodeIndexBuildFailed, "failed to build search index", err).
		WithDetail("backend", backend)
}
