// Package search orchestrates a query over the corpus: the primary index
// first, the substring fallback when the index finds nothing, then excerpt
// and title highlighting for display. The Navigator holds the keyboard
// selection over the latest result list.
package search

import "fmt"

// Status tells the UI which state a Response represents.
type Status int

const (
	// StatusOK carries a (possibly empty) result list.
	StatusOK Status = iota
	// StatusEmptyQuery means the trimmed query was blank; the UI should show
	// a cleared state rather than "no results".
	StatusEmptyQuery
	// StatusLoading means no corpus is loaded yet, or the last load failed.
	StatusLoading
	// StatusFailed means evaluating this query failed. Later queries are
	// unaffected.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmptyQuery:
		return "empty_query"
	case StatusLoading:
		return "loading"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Source records which scorer produced the results.
type Source string

const (
	SourceNone     Source = ""
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// Result is one rendered search hit.
type Result struct {
	DocumentID string  `json:"id"`
	Score      float64 `json:"score"`
	Title      string  `json:"title"`
	// TitleHTML is the HTML-escaped title with query matches in <mark>.
	TitleHTML string `json:"title_html"`
	// Excerpt is an HTML-escaped content window with query matches in <mark>.
	Excerpt    string   `json:"excerpt"`
	URL        string   `json:"url"`
	Date       string   `json:"date,omitempty"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
}

// Response is the outcome of one Engine.Search call.
type Response struct {
	Status  Status   `json:"status"`
	Query   string   `json:"query"`
	Source  Source   `json:"source,omitempty"`
	Results []Result `json:"results"`
	// Err is set only for StatusFailed.
	Err error `json:"-"`
}

// Stats summarises engine state.
type Stats struct {
	Loaded       bool   `json:"loaded"`
	Documents    int    `json:"documents"`
	Generation   uint64 `json:"generation"`
	Backend      string `json:"backend"`
	Terms        int    `json:"terms,omitempty"`
	CacheEntries int    `json:"cache_entries"`
}
