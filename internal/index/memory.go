package index

import (
	"context"
	"sync"

	"github.com/rixingyike/rustpress/internal/corpus"
	"github.com/rixingyike/rustpress/internal/errors"
)

// posting is one document's contribution for a term in one field.
type posting struct {
	pos   int
	score float64
}

// MemoryIndex is a weighted inverted index held entirely in memory.
type MemoryIndex struct {
	mu       sync.RWMutex
	cfg      Config
	postings map[string][]posting
	ids      []string
	built    bool
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex returns an unbuilt memory index.
func NewMemoryIndex(cfg Config) *MemoryIndex {
	return &MemoryIndex{cfg: cfg}
}

// Build indexes docs. Title and content postings carry frequency x weight;
// presence fields carry the weight once per document.
func (m *MemoryIndex) Build(ctx context.Context, docs []corpus.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.built = false
	m.postings = nil
	m.ids = nil

	postings := make(map[string][]posting)
	ids := make([]string, len(docs))

	for pos, doc := range docs {
		if pos%256 == 0 {
			if err := ctx.Err(); err != nil {
				return buildFailed(BackendMemory, err)
			}
		}
		ids[pos] = doc.ID

		for _, f := range m.cfg.Fields {
			freq := make(map[string]int)
			for _, v := range fieldValues(doc, f.Name) {
				for _, tok := range Tokenize(v) {
					freq[tok]++
				}
			}
			// Postings for one (term, doc) pair accumulate across fields;
			// merging here keeps one entry per doc.
			for tok, n := range freq {
				contrib := f.Weight
				if !f.Presence {
					contrib *= float64(n)
				}
				postings[tok] = addPosting(postings[tok], pos, contrib)
			}
		}
	}

	m.postings = postings
	m.ids = ids
	m.built = true
	return nil
}

// addPosting appends or merges a contribution. Documents are indexed in
// position order, so a doc's entry, if present, is always last.
func addPosting(list []posting, pos int, score float64) []posting {
	if n := len(list); n > 0 && list[n-1].pos == pos {
		list[n-1].score += score
		return list
	}
	return append(list, posting{pos: pos, score: score})
}

// Search sums the postings of each distinct query term.
func (m *MemoryIndex) Search(ctx context.Context, query string) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.built {
		return nil, errors.IndexNotBuilt(BackendMemory)
	}

	toks := uniqueTokens(query)
	if len(toks) == 0 {
		return []Hit{}, nil
	}

	scores := make(map[int]float64)
	for _, tok := range toks {
		for _, p := range m.postings[tok] {
			scores[p.pos] += p.score
		}
	}

	hits := make([]Hit, 0, len(scores))
	for pos, score := range scores {
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{DocID: m.ids[pos], Position: pos, Score: score})
	}
	SortHits(hits)
	return hits, nil
}

// Stats implements Index.
func (m *MemoryIndex) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Backend:   BackendMemory,
		Documents: len(m.ids),
		Terms:     len(m.postings),
		Built:     m.built,
	}
}

// Close releases the postings. The index must be rebuilt before reuse.
func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = nil
	m.ids = nil
	m.built = false
	return nil
}
