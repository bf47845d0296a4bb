package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rixingyike/rustpress/internal/corpus"
	searcherr "github.com/rixingyike/rustpress/internal/errors"
	"github.com/rixingyike/rustpress/internal/index"
	"github.com/rixingyike/rustpress/internal/telemetry"
)

func guideCorpus() []corpus.Document {
	return []corpus.Document{
		{ID: "1", Title: "Rust Guide", Content: "Learn Rust today", Tags: []string{"rust"}, Categories: []string{}, URL: "/a", Date: "2024"},
		{ID: "2", Title: "Cooking", Content: "rust removal tips", Tags: []string{}, Categories: []string{"home"}, URL: "/b", Date: "2023"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// spyIndex wraps a real index and records calls, optionally failing.
type spyIndex struct {
	index.Index
	searches atomic.Int32
	builds   atomic.Int32
	err      error
	panicMsg string
	buildErr error
}

func (s *spyIndex) Build(ctx context.Context, docs []corpus.Document) error {
	s.builds.Add(1)
	if s.buildErr != nil {
		return s.buildErr
	}
	return s.Index.Build(ctx, docs)
}

func (s *spyIndex) Search(ctx context.Context, q string) ([]index.Hit, error) {
	s.searches.Add(1)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.Index.Search(ctx, q)
}

func newSpy() *spyIndex {
	return &spyIndex{Index: index.NewMemoryIndex(index.DefaultConfig())}
}

func newLoadedEngine(t *testing.T, idx index.Index, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithLogger(quietLogger())}, opts...)
	e, err := NewEngine(corpus.NewStore(), idx, opts...)
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background(), guideCorpus()))
	return e
}

func TestNewEngine_NilDependencies(t *testing.T) {
	_, err := NewEngine(nil, newSpy())
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = NewEngine(corpus.NewStore(), nil)
	assert.ErrorIs(t, err, ErrNilDependency)
}

func TestEngine_EndToEndGuide(t *testing.T) {
	// Given: the two-document guide corpus
	e := newLoadedEngine(t, newSpy())

	// When: searching "rust"
	resp := e.Search(context.Background(), "rust")

	// Then: both documents come back from the index, the guide first
	require.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, SourcePrimary, resp.Source)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "1", resp.Results[0].DocumentID)
	assert.Equal(t, "2", resp.Results[1].DocumentID)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
	assert.GreaterOrEqual(t, resp.Results[0].Score, 18.0)
	assert.Equal(t, 5.0, resp.Results[1].Score)

	first := resp.Results[0]
	assert.Equal(t, "<mark>Rust</mark> Guide", first.TitleHTML)
	assert.Equal(t, "Learn <mark>Rust</mark> today", first.Excerpt)
	assert.Equal(t, "/a", first.URL)
	assert.Equal(t, "2024", first.Date)
	assert.Equal(t, []string{"rust"}, first.Tags)
}

func TestEngine_BlankQueryTouchesNothing(t *testing.T) {
	spy := newSpy()
	e := newLoadedEngine(t, spy)

	for _, q := range []string{"", "   ", "\t\n"} {
		resp := e.Search(context.Background(), q)

		assert.Equal(t, StatusEmptyQuery, resp.Status)
		assert.Empty(t, resp.Results)
		assert.Equal(t, SourceNone, resp.Source)
	}
	assert.Zero(t, spy.searches.Load())
}

func TestEngine_LoadingBeforeLoad(t *testing.T) {
	// Given: an engine that was never loaded
	spy := newSpy()
	e, err := NewEngine(corpus.NewStore(), spy, WithLogger(quietLogger()))
	require.NoError(t, err)

	// When: searching
	resp := e.Search(context.Background(), "rust")

	// Then: a distinct loading signal, and the index was not queried
	assert.Equal(t, StatusLoading, resp.Status)
	assert.False(t, e.Loaded())
	assert.Zero(t, spy.searches.Load())
}

func TestEngine_MalformedCorpusStaysLoading(t *testing.T) {
	e, err := NewEngine(corpus.NewStore(), newSpy(), WithLogger(quietLogger()))
	require.NoError(t, err)

	docs := guideCorpus()
	docs[1].ID = docs[0].ID
	err = e.Load(context.Background(), docs)

	assert.ErrorIs(t, err, searcherr.ErrCorpusMalformed)
	assert.False(t, e.Loaded())
	assert.Equal(t, StatusLoading, e.Search(context.Background(), "rust").Status)
}

func TestEngine_BuildFailureStaysLoading(t *testing.T) {
	spy := newSpy()
	spy.buildErr = searcherr.New(searcherr.ErrCodeIndexBuildFailed, "boom", nil)
	e, err := NewEngine(corpus.NewStore(), spy, WithLogger(quietLogger()))
	require.NoError(t, err)

	err = e.Load(context.Background(), guideCorpus())

	assert.ErrorIs(t, err, searcherr.ErrIndexBuildFailed)
	assert.Equal(t, StatusLoading, e.Search(context.Background(), "rust").Status)
}

func TestEngine_FallbackOnlyWhenPrimaryEmpty(t *testing.T) {
	// Given: a tag that only contains the query mid-word
	spy := newSpy()
	e, err := NewEngine(corpus.NewStore(), spy, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background(), []corpus.Document{
		{ID: "x", Title: "Notes", Content: "plain text", Tags: []string{"rustlang"}, Categories: []string{}, URL: "/x"},
	}))

	// When: the token query misses and the substring query is used
	resp := e.Search(context.Background(), "lang")

	// Then: the fallback found it with at least the tag weight
	require.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, SourceFallback, resp.Source)
	require.Len(t, resp.Results, 1)
	assert.GreaterOrEqual(t, resp.Results[0].Score, 8.0)

	// And: a primary hit never reaches the fallback
	resp = e.Search(context.Background(), "notes")
	assert.Equal(t, SourcePrimary, resp.Source)
}

func TestEngine_NoMatchesIsOKAndEmpty(t *testing.T) {
	e := newLoadedEngine(t, newSpy())

	resp := e.Search(context.Background(), "zzzz")

	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, SourceFallback, resp.Source)
	assert.Empty(t, resp.Results)
}

func TestEngine_TitleOutranksContent(t *testing.T) {
	spy := newSpy()
	e, err := NewEngine(corpus.NewStore(), spy, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background(), []corpus.Document{
		{ID: "c", Title: "other", Content: "about kettles", Tags: []string{}, Categories: []string{}},
		{ID: "t", Title: "kettles", Content: "other", Tags: []string{}, Categories: []string{}},
	}))

	resp := e.Search(context.Background(), "kettles")

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "t", resp.Results[0].DocumentID)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
}

func TestEngine_IndexErrorIsPerQuery(t *testing.T) {
	// Given: an index that fails queries
	spy := newSpy()
	e := newLoadedEngine(t, spy)
	spy.err = errors.New("pathological input")

	// When: searching
	resp := e.Search(context.Background(), "rust")

	// Then: a retryable query failure, not a crash
	assert.Equal(t, StatusFailed, resp.Status)
	assert.ErrorIs(t, resp.Err, searcherr.ErrQueryFailed)
	assert.True(t, searcherr.IsRetryable(resp.Err))
	assert.True(t, e.Loaded())

	// And: the next query works once the index recovers
	spy.err = nil
	assert.Equal(t, StatusOK, e.Search(context.Background(), "rust").Status)
}

func TestEngine_IndexPanicIsRecovered(t *testing.T) {
	spy := newSpy()
	e := newLoadedEngine(t, spy)
	spy.panicMsg = "index out of range"

	var resp Response
	assert.NotPanics(t, func() { resp = e.Search(context.Background(), "rust") })

	assert.Equal(t, StatusFailed, resp.Status)
	assert.ErrorIs(t, resp.Err, searcherr.ErrQueryFailed)
	assert.Contains(t, resp.Err.Error(), "index out of range")
}

func TestEngine_NavigatorResetOnEverySearch(t *testing.T) {
	// Given: a selection on a result list
	e := newLoadedEngine(t, newSpy())
	e.Search(context.Background(), "rust")
	nav := e.Navigator()
	assert.Equal(t, 2, nav.Len())
	nav.Next()
	nav.Next()

	// When: another query replaces the list
	e.Search(context.Background(), "cooking")

	// Then: the selection is cleared
	assert.Equal(t, -1, nav.Selected())
	assert.Equal(t, 1, nav.Len())

	// And: a cleared query empties the list
	e.Search(context.Background(), " ")
	assert.Zero(t, nav.Len())
	_, ok := nav.Activate()
	assert.False(t, ok)
}

func TestEngine_CacheServesRepeatAndPurgesOnLoad(t *testing.T) {
	spy := newSpy()
	e := newLoadedEngine(t, spy)

	first := e.Search(context.Background(), "rust")
	second := e.Search(context.Background(), "  rust ")

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, int32(1), spy.searches.Load())
	assert.Equal(t, 1, e.Stats().CacheEntries)

	// When: the corpus is reloaded
	require.NoError(t, e.Load(context.Background(), guideCorpus()[:1]))
	resp := e.Search(context.Background(), "rust")

	// Then: results reflect the new corpus
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, int32(2), spy.searches.Load())
}

func TestEngine_CacheDisabled(t *testing.T) {
	spy := newSpy()
	e := newLoadedEngine(t, spy, WithCacheSize(0))

	e.Search(context.Background(), "rust")
	e.Search(context.Background(), "rust")

	assert.Equal(t, int32(2), spy.searches.Load())
	assert.Zero(t, e.Stats().CacheEntries)
}

func TestEngine_CachedResultsAreIsolated(t *testing.T) {
	e := newLoadedEngine(t, newSpy())

	first := e.Search(context.Background(), "rust")
	first.Results[0].URL = "/mutated"
	second := e.Search(context.Background(), "rust")

	assert.Equal(t, "/a", second.Results[0].URL)
}

func TestEngine_MaxResults(t *testing.T) {
	e := newLoadedEngine(t, newSpy(), WithMaxResults(1))

	resp := e.Search(context.Background(), "rust")

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "1", resp.Results[0].DocumentID)
}

func TestEngine_ReloadReplacesCorpus(t *testing.T) {
	e := newLoadedEngine(t, newSpy())

	err := e.Reload(context.Background(), func(context.Context) ([]corpus.Document, error) {
		return []corpus.Document{
			{ID: "new", Title: "Zig notes", Content: "comptime", Tags: []string{}, Categories: []string{}, URL: "/z"},
		}, nil
	})

	require.NoError(t, err)
	assert.True(t, e.Loaded())
	resp := e.Search(context.Background(), "zig")
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "new", resp.Results[0].DocumentID)
	assert.Empty(t, e.Search(context.Background(), "cooking").Results)
}

func TestEngine_ReloadFailureLeavesNotLoaded(t *testing.T) {
	e := newLoadedEngine(t, newSpy())

	err := e.Reload(context.Background(), func(context.Context) ([]corpus.Document, error) {
		return nil, searcherr.CorpusLoadFailed("search.json returned 404", nil)
	})

	assert.ErrorIs(t, err, searcherr.ErrCorpusLoadFailed)
	assert.False(t, e.Loaded())
	assert.Equal(t, StatusLoading, e.Search(context.Background(), "rust").Status)
}

func TestEngine_ReloadRequiresLoader(t *testing.T) {
	e := newLoadedEngine(t, newSpy())

	assert.ErrorIs(t, e.Reload(context.Background(), nil), ErrNilDependency)
}

func TestEngine_ConcurrentReloadsCollapse(t *testing.T) {
	// Given: a loader that blocks until released
	spy := newSpy()
	e := newLoadedEngine(t, spy)
	release := make(chan struct{})
	var calls atomic.Int32
	loader := func(context.Context) ([]corpus.Document, error) {
		calls.Add(1)
		<-release
		return guideCorpus(), nil
	}

	// When: several reloads start together
	var wg sync.WaitGroup
	started := make(chan struct{}, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			assert.NoError(t, e.Reload(context.Background(), loader))
		}()
	}
	for range 4 {
		<-started
	}
	close(release)
	wg.Wait()

	// Then: the engine ends loaded and the loader ran at most once per wave
	assert.True(t, e.Loaded())
	assert.LessOrEqual(t, calls.Load(), int32(4))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestEngine_ConcurrentSearchDuringLoad(t *testing.T) {
	e := newLoadedEngine(t, newSpy())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				resp := e.Search(context.Background(), "rust")
				assert.Contains(t, []Status{StatusOK, StatusLoading}, resp.Status)
			}
		}()
	}
	for range 5 {
		require.NoError(t, e.Load(context.Background(), guideCorpus()))
	}
	wg.Wait()
}

func TestEngine_Stats(t *testing.T) {
	e := newLoadedEngine(t, newSpy())

	s := e.Stats()

	assert.True(t, s.Loaded)
	assert.Equal(t, 2, s.Documents)
	assert.Equal(t, uint64(1), s.Generation)
	assert.Equal(t, index.BackendMemory, s.Backend)
	assert.Positive(t, s.Terms)
}

func TestEngine_CloseUnloads(t *testing.T) {
	e := newLoadedEngine(t, newSpy())

	require.NoError(t, e.Close())

	assert.False(t, e.Loaded())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "empty_query", StatusEmptyQuery.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "status(9)", Status(9).String())
}

func TestEngine_Document(t *testing.T) {
	// Given: an engine before and after loading
	e, err := NewEngine(corpus.NewStore(), newSpy(), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = e.Document("1")
	assert.ErrorIs(t, err, searcherr.ErrIndexNotBuilt)

	require.NoError(t, e.Load(context.Background(), guideCorpus()))

	// Then: documents resolve by id
	doc, err := e.Document("2")
	require.NoError(t, err)
	assert.Equal(t, "Cooking", doc.Title)

	_, err = e.Document("missing")
	assert.ErrorIs(t, err, searcherr.ErrDocumentNotFound)
}

func TestEngine_RecordsQueryOutcomes(t *testing.T) {
	// Given: an engine with metrics and a failing second index
	metrics := telemetry.NewQueryMetrics(telemetry.Config{})
	e := newLoadedEngine(t, newSpy(), WithMetrics(metrics))
	ctx := context.Background()

	// When: running one query of each kind plus a blank one
	e.Search(ctx, "rust")
	e.Search(ctx, "ook")
	e.Search(ctx, "zig")
	e.Search(ctx, "   ")

	// Then: evaluated queries are classified, the blank one is skipped
	snap := metrics.Snapshot()
	assert.Equal(t, int64(3), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.Outcomes[telemetry.OutcomePrimary])
	assert.Equal(t, int64(1), snap.Outcomes[telemetry.OutcomeFallback])
	assert.Equal(t, int64(1), snap.Outcomes[telemetry.OutcomeNoMatch])
	assert.Equal(t, []string{"zig"}, snap.NoMatchQueries)
}

func TestEngine_RecordsFailuresNotLoading(t *testing.T) {
	metrics := telemetry.NewQueryMetrics(telemetry.Config{})
	spy := newSpy()
	spy.err = errors.New("disk on fire")
	e := newLoadedEngine(t, spy, WithMetrics(metrics))
	unloaded, err := NewEngine(corpus.NewStore(), newSpy(), WithLogger(quietLogger()), WithMetrics(metrics))
	require.NoError(t, err)

	e.Search(context.Background(), "rust")
	unloaded.Search(context.Background(), "rust")

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.Outcomes[telemetry.OutcomeFailed])
}
