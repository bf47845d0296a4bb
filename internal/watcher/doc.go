// Package watcher notices when the corpus file or the search config changes
// on disk and triggers a reload.
//
// Site generators often replace search.json with a delete followed by a
// create, or write it in several chunks. The watcher observes the parent
// directory of each target with fsnotify, keeps only events for the target
// files, and debounces them into one batch per burst. Where fsnotify is
// unavailable it falls back to polling the targets' size and mtime.
//
// Usage:
//
//	w, err := watcher.New([]string{"public/search.json"}, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	err = watcher.Run(ctx, w, func(ctx context.Context, events []watcher.FileEvent) error {
//	    return engine.Reload(ctx, load)
//	})
package watcher
