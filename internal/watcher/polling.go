package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"
)

// PollingWatcher detects changes by stating each target on an interval.
// Used when fsnotify is unavailable or disabled.
type PollingWatcher struct {
	interval time.Duration
	targets  []string
	state    map[string]fileSnapshot
	events   chan FileEvent
	errors   chan error
	stopCh   chan struct{}
	mu       sync.Mutex
	stopped  bool
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	exists  bool
}

// NewPollingWatcher creates a polling watcher for the given absolute paths.
func NewPollingWatcher(targets []string, interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval: interval,
		targets:  targets,
		state:    make(map[string]fileSnapshot, len(targets)),
		events:   make(chan FileEvent, 64),
		errors:   make(chan error, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start records a baseline and polls until Stop or ctx is done.
func (p *PollingWatcher) Start(ctx context.Context) error {
	p.mu.Lock()
	for _, path := range p.targets {
		snap, err := stat(path)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("perform initial scan: %w", err)
		}
		p.state[path] = snap
	}
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChanges()
		}
	}
}

// detectChanges compares each target with its last snapshot.
func (p *PollingWatcher) detectChanges() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, path := range p.targets {
		snap, err := stat(path)
		if err != nil {
			p.emitError(err)
			continue
		}
		prev := p.state[path]
		p.state[path] = snap

		switch {
		case !prev.exists && snap.exists:
			p.emitEvent(FileEvent{Path: path, Operation: OpCreate, Timestamp: time.Now()})
		case prev.exists && !snap.exists:
			p.emitEvent(FileEvent{Path: path, Operation: OpDelete, Timestamp: time.Now()})
		case snap.exists && (prev.modTime != snap.modTime || prev.size != snap.size):
			p.emitEvent(FileEvent{Path: path, Operation: OpModify, Timestamp: time.Now()})
		}
	}
}

func stat(path string) (fileSnapshot, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileSnapshot{}, nil
	}
	if err != nil {
		return fileSnapshot{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return fileSnapshot{modTime: info.ModTime(), size: info.Size(), exists: true}, nil
}

// Stop stops the polling watcher. Safe to call multiple times.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of non-fatal errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// emitEvent must be called with the lock held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}
	select {
	case p.events <- event:
	default:
		slog.Warn("polling_buffer_full",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()))
	}
}

// emitError must be called with the lock held.
func (p *PollingWatcher) emitError(err error) {
	if p.stopped {
		return
	}
	select {
	case p.errors <- err:
	default:
	}
}
