package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rixingyike/rustpress/internal/errors"
)

func sampleDocs() []Document {
	return []Document{
		{ID: "a", Title: "Alpha", URL: "/a.html", Tags: []string{}, Categories: []string{}},
		{ID: "b", Title: "Beta", URL: "/b.html", Tags: []string{"x"}, Categories: []string{}},
		{ID: "c", Title: "Gamma", URL: "/c.html", Tags: []string{}, Categories: []string{"y"}},
	}
}

func TestStore_LoadAndGet(t *testing.T) {
	// Given: a loaded store
	s := NewStore()
	require.NoError(t, s.Load(sampleDocs()))

	// When: looking up by id and position
	doc, err := s.Get("b")
	pos, ok := s.Position("c")
	at, atOK := s.At(0)

	// Then: lookups resolve to the right documents
	require.NoError(t, err)
	assert.Equal(t, "Beta", doc.Title)
	assert.True(t, ok)
	assert.Equal(t, 2, pos)
	assert.True(t, atOK)
	assert.Equal(t, "a", at.ID)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, uint64(1), s.Generation())
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Load(sampleDocs()))

	_, err := s.Get("zzz")

	assert.ErrorIs(t, err, errors.ErrDocumentNotFound)
	_, ok := s.At(3)
	assert.False(t, ok)
	_, ok = s.At(-1)
	assert.False(t, ok)
}

func TestStore_DuplicateIDKeepsPreviousCorpus(t *testing.T) {
	// Given: a store with a good corpus
	s := NewStore()
	require.NoError(t, s.Load(sampleDocs()))

	// When: loading a corpus with a duplicate id
	bad := append(sampleDocs(), Document{ID: "a", Title: "Again"})
	err := s.Load(bad)

	// Then: the load fails and the previous corpus is untouched
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCorpusMalformed)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, uint64(1), s.Generation())
	doc, getErr := s.Get("a")
	require.NoError(t, getErr)
	assert.Equal(t, "Alpha", doc.Title)
}

func TestStore_EmptyIDRejected(t *testing.T) {
	s := NewStore()

	err := s.Load([]Document{{ID: ""}})

	assert.ErrorIs(t, err, errors.ErrCorpusMalformed)
	assert.Zero(t, s.Generation())
}

func TestStore_ReloadReplacesEverything(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Load(sampleDocs()))

	require.NoError(t, s.Load([]Document{{ID: "z", Title: "Zeta"}}))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, uint64(2), s.Generation())
	_, err := s.Get("a")
	assert.Error(t, err)
}

func TestStore_CallerMutationDoesNotLeak(t *testing.T) {
	// Given: the caller keeps its slice after loading
	docs := sampleDocs()
	s := NewStore()
	require.NoError(t, s.Load(docs))

	// When: the caller overwrites an element and the All() copy
	docs[0] = Document{ID: "mutated"}
	all := s.All()
	all[1] = Document{ID: "mutated"}

	// Then: the store is unaffected
	doc, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", doc.Title)
	assert.Equal(t, "b", s.All()[1].ID)
}

func TestStore_EmptyCorpusIsValid(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Load(nil))

	assert.Zero(t, s.Len())
	assert.Equal(t, uint64(1), s.Generation())
}
