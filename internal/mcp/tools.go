package mcp

import "github.com/rixingyike/rustpress/internal/telemetry"

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"words to search for in post titles, content, tags and categories"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Status  string               `json:"status" jsonschema:"ok, or loading while the corpus is not loaded"`
	Source  string               `json:"source,omitempty" jsonschema:"primary for token matches, fallback for substring matches"`
	Results []SearchResultOutput `json:"results" jsonschema:"matching posts, best first"`
}

// SearchResultOutput describes one matching post.
type SearchResultOutput struct {
	ID         string   `json:"id" jsonschema:"document id, readable as rustpress://doc/{id}"`
	Title      string   `json:"title"`
	URL        string   `json:"url" jsonschema:"site-relative URL of the post"`
	Date       string   `json:"date,omitempty"`
	Excerpt    string   `json:"excerpt" jsonschema:"content snippet around the first match, matches in **bold**"`
	Score      float64  `json:"score" jsonschema:"relevance score, higher is better"`
	Tags       []string `json:"tags,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// CorpusStatusInput defines the input schema for the corpus_status tool (no parameters).
type CorpusStatusInput struct{}

// CorpusStatusOutput defines the output schema for the corpus_status tool.
type CorpusStatusOutput struct {
	Source       string `json:"source"`
	Loaded       bool   `json:"loaded"`
	Backend      string `json:"backend"`
	Documents    int    `json:"documents"`
	Terms        int    `json:"terms,omitempty"`
	Generation   uint64 `json:"generation"`
	CacheEntries int    `json:"cache_entries"`
	LoadedAt     string `json:"loaded_at,omitempty"`
	LoadError    string `json:"load_error,omitempty"`
	Watching     bool   `json:"watching"`

	// Queries summarizes queries served since startup, when tracked.
	Queries *telemetry.Snapshot `json:"queries,omitempty"`
}

// CorpusInfo is what the serving command knows about the corpus beyond the
// engine's own stats.
type CorpusInfo struct {
	Source    string
	LoadedAt  string
	LoadError string
	Watching  bool
	Queries   *telemetry.Snapshot
}
