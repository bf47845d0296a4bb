package search

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultExcerptLength is the visible excerpt budget in characters.
	DefaultExcerptLength = 150

	contextBefore = 50
	contextAfter  = 100
	ellipsis      = "..."
)

// Excerpter renders content windows and titles with query matches wrapped in
// <mark>. All output is HTML-escaped except the mark tags themselves.
type Excerpter struct {
	maxLength int
}

// NewExcerpter returns an Excerpter with the given visible budget. A
// non-positive length means DefaultExcerptLength.
func NewExcerpter(maxLength int) *Excerpter {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	return &Excerpter{maxLength: maxLength}
}

// MaxLength returns the visible budget, not counting ellipses.
func (x *Excerpter) MaxLength() int { return x.maxLength }

// Generate returns a window of content around the first case-insensitive
// occurrence of query: 50 characters before the match and 100 after, trimmed
// from the end to fit MaxLength. Without an occurrence it returns the first
// MaxLength characters. An ellipsis marks each truncated side. The budget
// counts content characters before HTML escaping, so entities such as &amp;
// count as one.
func (x *Excerpter) Generate(content, query string) string {
	runes := []rune(content)
	n := len(runes)

	re := matcher(query)
	var loc []int
	if re != nil {
		loc = re.FindStringIndex(content)
	}

	if loc == nil {
		if n <= x.maxLength {
			return html.EscapeString(content)
		}
		return html.EscapeString(string(runes[:x.maxLength])) + ellipsis
	}

	matchStart := utf8.RuneCountInString(content[:loc[0]])
	matchEnd := matchStart + utf8.RuneCountInString(content[loc[0]:loc[1]])

	start := max(0, matchStart-contextBefore)
	end := min(n, matchEnd+contextAfter)
	if end-start > x.maxLength {
		end = start + x.maxLength
		if end < matchEnd {
			// The match does not fit with its leading context.
			start = matchStart
			end = min(n, matchStart+x.maxLength)
		}
	}

	var sb strings.Builder
	if start > 0 {
		sb.WriteString(ellipsis)
	}
	if end < matchEnd {
		// Only part of the match fits; the regexp would miss it.
		sb.WriteString("<mark>")
		sb.WriteString(html.EscapeString(string(runes[start:end])))
		sb.WriteString("</mark>")
	} else {
		sb.WriteString(x.highlight(string(runes[start:end]), re))
	}
	if end < n {
		sb.WriteString(ellipsis)
	}
	return sb.String()
}

// Highlight escapes text and wraps every case-insensitive occurrence of query
// in <mark>. A blank query returns text unchanged.
func (x *Excerpter) Highlight(text, query string) string {
	re := matcher(query)
	if re == nil {
		return text
	}
	return x.highlight(text, re)
}

func (x *Excerpter) highlight(text string, re *regexp.Regexp) string {
	var sb strings.Builder
	prev := 0
	for _, m := range re.FindAllStringIndex(text, -1) {
		sb.WriteString(html.EscapeString(text[prev:m[0]]))
		sb.WriteString("<mark>")
		sb.WriteString(html.EscapeString(text[m[0]:m[1]]))
		sb.WriteString("</mark>")
		prev = m[1]
	}
	sb.WriteString(html.EscapeString(text[prev:]))
	return sb.String()
}

// matcher compiles query as a literal, case-insensitive pattern. It returns
// nil for a blank query.
func matcher(query string) *regexp.Regexp {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
}
