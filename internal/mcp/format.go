package mcp

import (
	"fmt"
	"html"
	"strings"

	"github.com/rixingyike/rustpress/internal/search"
)

// FormatSearchResults renders a response as markdown. Highlighted terms
// become bold.
func FormatSearchResults(resp search.Response) string {
	switch resp.Status {
	case search.StatusLoading:
		return "## Search Index Loading\n\n" +
			"The site corpus is not loaded yet. Please try again in a moment."
	case search.StatusEmptyQuery:
		return "Enter a non-empty query."
	}

	if len(resp.Results) == 0 {
		return fmt.Sprintf("No results found for \"%s\"", resp.Query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\"\n\n", resp.Query))
	sb.WriteString(fmt.Sprintf("Found %d result", len(resp.Results)))
	if len(resp.Results) != 1 {
		sb.WriteString("s")
	}
	if resp.Source == search.SourceFallback {
		sb.WriteString(" (substring match)")
	}
	sb.WriteString("\n\n")

	for i, r := range resp.Results {
		formatResult(&sb, i+1, r)
	}
	return sb.String()
}

func formatResult(sb *strings.Builder, n int, r search.Result) {
	sb.WriteString(fmt.Sprintf("### %d. [%s](%s)\n\n", n, markdownFromMarked(r.TitleHTML), r.URL))

	var meta []string
	if r.Date != "" {
		meta = append(meta, r.Date)
	}
	if len(r.Tags) > 0 {
		meta = append(meta, "tags: "+strings.Join(r.Tags, ", "))
	}
	if len(r.Categories) > 0 {
		meta = append(meta, "categories: "+strings.Join(r.Categories, ", "))
	}
	meta = append(meta, fmt.Sprintf("score: %.2f", r.Score))
	sb.WriteString("*" + strings.Join(meta, " | ") + "*\n\n")

	if r.Excerpt != "" {
		sb.WriteString("> " + markdownFromMarked(r.Excerpt) + "\n\n")
	}
}

// markdownFromMarked turns <mark> spans into bold and unescapes the rest.
func markdownFromMarked(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "**")
	s = strings.ReplaceAll(s, "</mark>", "**")
	return html.UnescapeString(s)
}

// clampLimit returns defaultVal for a non-positive limit, otherwise limit
// bounded to [min, max].
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
