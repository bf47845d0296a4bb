package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// StatusInfo describes the loaded corpus and index.
type StatusInfo struct {
	Source       string    `json:"source"`
	CorpusBytes  int64     `json:"corpus_bytes"`
	Backend      string    `json:"backend"`
	Loaded       bool      `json:"loaded"`
	Documents    int       `json:"documents"`
	Terms        int       `json:"terms,omitempty"`
	Generation   uint64    `json:"generation"`
	CacheEntries int       `json:"cache_entries"`
	LoadedAt     time.Time `json:"loaded_at,omitempty"`
	LoadError    string    `json:"load_error,omitempty"`
	// WatcherStatus is "running", "stopped", or "n/a".
	WatcherStatus string `json:"watcher_status"`
}

// StatusRenderer displays corpus status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Search Status: "+info.Source))

	state := "ready"
	if !info.Loaded {
		state = "error"
	}
	_, _ = fmt.Fprintf(r.out, "  Index:      %s (%s)\n", r.renderStatus(state), info.Backend)
	if info.LoadError != "" {
		_, _ = fmt.Fprintf(r.out, "  Error:      %s\n", r.styles.Error.Render(info.LoadError))
	}
	_, _ = fmt.Fprintf(r.out, "  Documents:  %d\n", info.Documents)
	if info.Terms > 0 {
		_, _ = fmt.Fprintf(r.out, "  Terms:      %d\n", info.Terms)
	}
	if info.CorpusBytes > 0 {
		_, _ = fmt.Fprintf(r.out, "  Corpus:     %s\n", FormatBytes(info.CorpusBytes))
	}
	if !info.LoadedAt.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Loaded:     %s\n", formatTime(info.LoadedAt))
	}
	_, _ = fmt.Fprintf(r.out, "  Generation: %d\n", info.Generation)

	if info.WatcherStatus != "" && info.WatcherStatus != "n/a" {
		_, _ = fmt.Fprintf(r.out, "  Watcher:    %s\n", r.renderStatus(info.WatcherStatus))
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "ready", "running":
		return r.styles.Success.Render(status)
	case "stopped":
		return r.styles.Warning.Render(status)
	case "error":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
