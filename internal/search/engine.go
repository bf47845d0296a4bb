package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/rixingyike/rustpress/internal/corpus"
	searcherr "github.com/rixingyike/rustpress/internal/errors"
	"github.com/rixingyike/rustpress/internal/index"
	"github.com/rixingyike/rustpress/internal/telemetry"
)

// DefaultCacheSize is the number of query responses kept per corpus generation.
const DefaultCacheSize = 256

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// Loader fetches a fresh corpus for Reload.
type Loader func(ctx context.Context) ([]corpus.Document, error)

// Engine gates queries behind a successful load and composes the primary
// index, fallback scorer and excerpter. Queries run under a read lock; loads
// take the write lock, so no query observes a half-built index.
type Engine struct {
	mu     sync.RWMutex
	loaded bool

	store     *corpus.Store
	index     index.Index
	fallback  *FallbackScorer
	excerpter *Excerpter
	nav       *Navigator

	cacheSize  int
	cache      *lru.Cache[string, Response]
	maxResults int
	metrics    *telemetry.QueryMetrics

	reloads singleflight.Group
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithFallback replaces the default fallback scorer.
func WithFallback(f *FallbackScorer) EngineOption {
	return func(e *Engine) {
		if f != nil {
			e.fallback = f
		}
	}
}

// WithExcerpter replaces the default excerpter.
func WithExcerpter(x *Excerpter) EngineOption {
	return func(e *Engine) {
		if x != nil {
			e.excerpter = x
		}
	}
}

// WithCacheSize sets the response cache size. Zero disables caching.
func WithCacheSize(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.cacheSize = n
		}
	}
}

// WithMaxResults caps the number of results per response. Zero means no cap.
func WithMaxResults(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxResults = n
		}
	}
}

// WithMetrics records every evaluated query in m.
func WithMetrics(m *telemetry.QueryMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine over store and idx. The engine reports
// StatusLoading until Load succeeds.
func NewEngine(store *corpus.Store, idx index.Index, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: document store is required", ErrNilDependency)
	}
	if idx == nil {
		return nil, fmt.Errorf("%w: search index is required", ErrNilDependency)
	}

	e := &Engine{
		store:     store,
		index:     idx,
		fallback:  NewFallbackScorer(index.DefaultConfig(), DefaultFallbackLimit),
		excerpter: NewExcerpter(DefaultExcerptLength),
		nav:       NewNavigator(),
		cacheSize: DefaultCacheSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.cacheSize > 0 {
		cache, err := lru.New[string, Response](e.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create response cache: %w", err)
		}
		e.cache = cache
	}

	return e, nil
}

// Load replaces the corpus and rebuilds the index. On any failure the
// engine is left not loaded and queries report StatusLoading.
func (e *Engine) Load(ctx context.Context, docs []corpus.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(ctx, docs)
}

func (e *Engine) loadLocked(ctx context.Context, docs []corpus.Document) error {
	start := time.Now()
	e.loaded = false
	if e.cache != nil {
		e.cache.Purge()
	}

	if err := e.store.Load(docs); err != nil {
		e.logger.Error("corpus_load_failed", searcherr.LogAttrs(err)...)
		return err
	}
	if err := e.index.Build(ctx, e.store.All()); err != nil {
		e.logger.Error("index_build_failed", searcherr.LogAttrs(err)...)
		return err
	}

	e.loaded = true
	stats := e.index.Stats()
	e.logger.Info("corpus_loaded",
		slog.Int("documents", e.store.Len()),
		slog.String("backend", stats.Backend),
		slog.Int("terms", stats.Terms),
		slog.Uint64("generation", e.store.Generation()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Reload fetches a corpus with loader and loads it. Concurrent calls share
// one fetch and build. The engine reports StatusLoading while the reload
// runs, and stays not loaded if it fails.
func (e *Engine) Reload(ctx context.Context, loader Loader) error {
	if loader == nil {
		return fmt.Errorf("%w: loader is required", ErrNilDependency)
	}

	_, err, shared := e.reloads.Do("reload", func() (any, error) {
		e.mu.Lock()
		e.loaded = false
		e.mu.Unlock()

		docs, err := loader(ctx)
		if err != nil {
			e.logger.Error("corpus_fetch_failed", searcherr.LogAttrs(err)...)
			return nil, err
		}
		return nil, e.Load(ctx, docs)
	})
	if shared {
		e.logger.Debug("reload_shared")
	}
	return err
}

// Search evaluates query. Every call replaces the navigator's result list,
// with an empty list for any status other than StatusOK.
func (e *Engine) Search(ctx context.Context, query string) Response {
	start := time.Now()
	query = strings.TrimSpace(query)
	resp := e.search(ctx, query)
	e.nav.SetResults(resp.Results)
	elapsed := time.Since(start)

	if e.metrics != nil {
		if outcome, ok := outcomeOf(resp); ok {
			e.metrics.Record(telemetry.QueryEvent{
				Query:       query,
				Outcome:     outcome,
				ResultCount: len(resp.Results),
				Latency:     elapsed,
			})
		}
	}

	e.logger.Debug("search_completed",
		slog.String("query", query),
		slog.String("status", resp.Status.String()),
		slog.String("source", string(resp.Source)),
		slog.Int("results", len(resp.Results)),
		slog.Duration("duration", elapsed))
	return resp
}

// outcomeOf classifies an evaluated response. Blank queries and queries
// made before a load are not evaluated and are not recorded.
func outcomeOf(resp Response) (telemetry.Outcome, bool) {
	switch {
	case resp.Status == StatusFailed:
		return telemetry.OutcomeFailed, true
	case resp.Status != StatusOK:
		return "", false
	case len(resp.Results) == 0:
		return telemetry.OutcomeNoMatch, true
	case resp.Source == SourceFallback:
		return telemetry.OutcomeFallback, true
	default:
		return telemetry.OutcomePrimary, true
	}
}

func (e *Engine) search(ctx context.Context, query string) Response {
	if query == "" {
		return Response{Status: StatusEmptyQuery, Query: query, Results: []Result{}}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.loaded {
		return Response{Status: StatusLoading, Query: query, Results: []Result{}}
	}

	key := cacheKey(e.store.Generation(), query)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			cached.Results = cloneResults(cached.Results)
			return cached
		}
	}

	hits, source, err := e.evaluate(ctx, query)
	if err != nil {
		e.logger.Warn("search_failed", append([]any{slog.String("query", query)}, searcherr.LogAttrs(err)...)...)
		return Response{Status: StatusFailed, Query: query, Results: []Result{}, Err: err}
	}

	if source == SourcePrimary && e.maxResults > 0 && len(hits) > e.maxResults {
		hits = hits[:e.maxResults]
	}

	resp := Response{
		Status:  StatusOK,
		Query:   query,
		Source:  source,
		Results: e.decorate(hits, query),
	}
	if e.cache != nil {
		e.cache.Add(key, Response{Status: resp.Status, Query: resp.Query, Source: resp.Source, Results: cloneResults(resp.Results)})
	}
	return resp
}

// evaluate runs the primary index and, when it finds nothing, the fallback.
// Index errors and panics surface as QueryFailed.
func (e *Engine) evaluate(ctx context.Context, query string) (hits []index.Hit, source Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			hits, source = nil, SourceNone
			err = searcherr.QueryFailed(fmt.Sprintf("search panicked: %v", r), nil)
		}
	}()

	hits, err = e.index.Search(ctx, query)
	if err != nil {
		return nil, SourceNone, searcherr.QueryFailed("search index query failed", err)
	}
	if len(hits) > 0 {
		return hits, SourcePrimary, nil
	}
	return e.fallback.Search(query, e.store.All()), SourceFallback, nil
}

func (e *Engine) decorate(hits []index.Hit, query string) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		doc, err := e.store.Get(h.DocID)
		if err != nil {
			e.logger.Warn("hit_without_document", slog.String("doc_id", h.DocID))
			continue
		}
		results = append(results, Result{
			DocumentID: doc.ID,
			Score:      h.Score,
			Title:      doc.Title,
			TitleHTML:  e.excerpter.Highlight(doc.Title, query),
			Excerpt:    e.excerpter.Generate(doc.Content, query),
			URL:        doc.URL,
			Date:       doc.Date,
			Tags:       doc.Tags,
			Categories: doc.Categories,
		})
	}
	return results
}

// Document returns a loaded document by id. It returns
// ERR_301_INDEX_NOT_BUILT while the engine is not loaded.
func (e *Engine) Document(id string) (corpus.Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.loaded {
		return corpus.Document{}, searcherr.IndexNotBuilt(e.index.Stats().Backend)
	}
	return e.store.Get(id)
}

// Navigator returns the selection state over the latest results.
func (e *Engine) Navigator() *Navigator {
	return e.nav
}

// Loaded reports whether queries will be evaluated.
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

// Stats returns a snapshot of engine state.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	is := e.index.Stats()
	s := Stats{
		Loaded:     e.loaded,
		Documents:  e.store.Len(),
		Generation: e.store.Generation(),
		Backend:    is.Backend,
		Terms:      is.Terms,
	}
	if e.cache != nil {
		s.CacheEntries = e.cache.Len()
	}
	return s
}

// Close releases the index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	return e.index.Close()
}

func cacheKey(gen uint64, query string) string {
	return strconv.FormatUint(gen, 10) + "\x00" + query
}

func cloneResults(in []Result) []Result {
	out := make([]Result, len(in))
	copy(out, in)
	return out
}
