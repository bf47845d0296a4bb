// Package corpus holds the immutable document collection the search engine
// indexes: the search.json array emitted by the rustpress site generator.
package corpus

// Document is one searchable post. Documents are immutable once loaded.
type Document struct {
	// ID is unique within a corpus. The generator emits the post position as
	// a number; string IDs are accepted as-is.
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
	// URL is the navigation target, e.g. "/tech/rust/hello.html".
	URL string `json:"url"`
	// Date is an opaque display string.
	Date string `json:"date,omitempty"`
	Slug string `json:"slug,omitempty"`
}
