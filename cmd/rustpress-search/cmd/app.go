package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rixingyike/rustpress/internal/config"
	"github.com/rixingyike/rustpress/internal/corpus"
	"github.com/rixingyike/rustpress/internal/index"
	mcpserver "github.com/rixingyike/rustpress/internal/mcp"
	"github.com/rixingyike/rustpress/internal/search"
	"github.com/rixingyike/rustpress/internal/telemetry"
	"github.com/rixingyike/rustpress/internal/ui"
	"github.com/rixingyike/rustpress/internal/watcher"
)

// errWatchURL is returned when --watch is used with an http(s) corpus.
var errWatchURL = errors.New("--watch needs a local corpus file, not a URL")

// app wires one engine to its corpus source and remembers load outcomes for
// status reporting.
type app struct {
	cfg     *config.Config
	engine  *search.Engine
	metrics *telemetry.QueryMetrics
	logger  *slog.Logger

	mu        sync.Mutex
	loadedAt  time.Time
	loadErr   error
	watchMode string
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}
	idxCfg := index.DefaultConfig()
	idx, err := index.New(cfg.Index.Backend, idxCfg)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewQueryMetrics(telemetry.DefaultConfig())
	engine, err := search.NewEngine(corpus.NewStore(), idx,
		search.WithFallback(search.NewFallbackScorer(idxCfg, cfg.Search.FallbackLimit)),
		search.WithExcerpter(search.NewExcerpter(cfg.Search.ExcerptLength)),
		search.WithCacheSize(cfg.Search.CacheSize),
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithMetrics(metrics),
		search.WithLogger(logger),
	)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	return &app{cfg: cfg, engine: engine, metrics: metrics, logger: logger, watchMode: "n/a"}, nil
}

// loader fetches and decodes the configured corpus.
func (a *app) loader() search.Loader {
	// Validate has already rejected an unparsable corpus.timeout.
	timeout, _ := a.cfg.CorpusTimeout()
	source := a.cfg.Corpus.Source
	return func(ctx context.Context) ([]corpus.Document, error) {
		return corpus.LoadSource(ctx, source, corpus.FetchOptions{Timeout: timeout})
	}
}

// reload replaces the engine's corpus from the configured source.
func (a *app) reload(ctx context.Context) error {
	err := a.engine.Reload(ctx, a.loader())

	a.mu.Lock()
	a.loadErr = err
	if err == nil {
		a.loadedAt = time.Now()
	}
	a.mu.Unlock()
	return err
}

// watch reloads the corpus whenever its file changes, until ctx is done.
// A batch that only deletes the file keeps the current corpus, so a site
// rebuild that removes and rewrites search.json does not blank the index.
// onReload, when set, is called after every reload attempt.
func (a *app) watch(ctx context.Context, onReload func(error)) error {
	if corpus.IsURL(a.cfg.Corpus.Source) {
		return errWatchURL
	}
	debounce, _ := a.cfg.WatchDebounce()

	w, err := watcher.New([]string{a.cfg.Corpus.Source}, watcher.Options{DebounceWindow: debounce})
	if err != nil {
		return fmt.Errorf("watch corpus: %w", err)
	}
	a.setWatchMode("running")
	defer a.setWatchMode("stopped")

	return watcher.Run(ctx, w, func(ctx context.Context, events []watcher.FileEvent) error {
		if watcher.OnlyDeletes(events) {
			a.logger.Warn("corpus_deleted_keeping_previous",
				slog.String("source", a.cfg.Corpus.Source))
			return nil
		}
		err := a.reload(ctx)
		if onReload != nil {
			onReload(err)
		}
		return err
	})
}

func (a *app) setWatchMode(mode string) {
	a.mu.Lock()
	a.watchMode = mode
	a.mu.Unlock()
}

// statusInfo collects what the status renderer shows.
func (a *app) statusInfo() ui.StatusInfo {
	stats := a.engine.Stats()

	a.mu.Lock()
	defer a.mu.Unlock()

	info := ui.StatusInfo{
		Source:        a.cfg.Corpus.Source,
		Backend:       stats.Backend,
		Loaded:        stats.Loaded,
		Documents:     stats.Documents,
		Terms:         stats.Terms,
		Generation:    stats.Generation,
		CacheEntries:  stats.CacheEntries,
		LoadedAt:      a.loadedAt,
		WatcherStatus: a.watchMode,
	}
	if a.loadErr != nil {
		info.LoadError = a.loadErr.Error()
	}
	if !corpus.IsURL(a.cfg.Corpus.Source) {
		if fi, err := os.Stat(a.cfg.Corpus.Source); err == nil {
			info.CorpusBytes = fi.Size()
		}
	}
	return info
}

// corpusInfo adapts statusInfo for the corpus_status MCP tool.
func (a *app) corpusInfo() mcpserver.CorpusInfo {
	info := a.statusInfo()
	out := mcpserver.CorpusInfo{
		Source:    info.Source,
		LoadError: info.LoadError,
		Watching:  info.WatcherStatus == "running",
	}
	if snap := a.metrics.Snapshot(); snap.TotalQueries > 0 {
		out.Queries = &snap
	}
	if !info.LoadedAt.IsZero() {
		out.LoadedAt = info.LoadedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func (a *app) close() {
	if err := a.engine.Close(); err != nil {
		a.logger.Warn("engine_close_failed", slog.String("error", err.Error()))
	}
}
