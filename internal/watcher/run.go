package watcher

import (
	"context"
	"errors"
	"log/slog"
)

// ChangeFunc handles one debounced batch of changes.
type ChangeFunc func(ctx context.Context, events []FileEvent) error

// Run starts w and calls onChange for every batch until ctx is done or the
// watcher stops. Errors from onChange and from the watcher are logged and do
// not stop the loop. Run stops the watcher before returning.
func Run(ctx context.Context, w *FileWatcher, onChange ChangeFunc) error {
	defer func() { _ = w.Stop() }()

	startErr := make(chan error, 1)
	go func() { startErr <- w.Start(ctx) }()

	slog.Info("watcher_started",
		slog.String("type", w.WatcherType()),
		slog.Any("targets", w.Targets()))

	events, errs := w.Events(), w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-startErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			if err := onChange(ctx, batch); err != nil {
				slog.Warn("watch_change_failed",
					slog.Int("events", len(batch)),
					slog.String("error", err.Error()))
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}
}
