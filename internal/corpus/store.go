package corpus

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/rixingyike/rustpress/internal/errors"
)

// Store is the in-memory document collection. A Load replaces the whole
// corpus; a failed Load leaves the previous corpus in place.
type Store struct {
	mu   sync.RWMutex
	docs []Document
	byID map[string]int
	gen  uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Load validates docs and atomically swaps them in. IDs must be non-empty and
// unique.
func (s *Store) Load(docs []Document) error {
	byID := make(map[string]int, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return errors.CorpusMalformed(fmt.Sprintf("entry %d has an empty id", i), nil).
				WithDetail("position", strconv.Itoa(i))
		}
		if prev, dup := byID[d.ID]; dup {
			return errors.CorpusMalformed(fmt.Sprintf("duplicate document id %q", d.ID), nil).
				WithDetail("position", strconv.Itoa(i)).
				WithDetail("first_position", strconv.Itoa(prev))
		}
		byID[d.ID] = i
	}

	owned := make([]Document, len(docs))
	copy(owned, docs)

	s.mu.Lock()
	s.docs = owned
	s.byID = byID
	s.gen++
	s.mu.Unlock()
	return nil
}

// Get returns the document with the given id.
func (s *Store) Get(id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return Document{}, errors.New(errors.ErrCodeDocumentNotFound,
			fmt.Sprintf("document %q not found", id), nil).WithDetail("id", id)
	}
	return s.docs[i], nil
}

// At returns the document at corpus position i.
func (s *Store) At(i int) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.docs) {
		return Document{}, false
	}
	return s.docs[i], true
}

// Position returns the corpus order of id.
func (s *Store) Position(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	return i, ok
}

// All returns the documents in corpus order. The slice is a copy; the
// documents themselves must be treated as read-only.
func (s *Store) All() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Len returns the number of loaded documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Generation increments on every successful Load. Zero means nothing has
// been loaded yet.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}
