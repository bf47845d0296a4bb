package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	searcherr "github.com/rixingyike/rustpress/internal/errors"
	"github.com/rixingyike/rustpress/internal/search"
)

// ResultsRenderer prints one search response as text or JSON.
type ResultsRenderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewResultsRenderer creates a renderer for cfg.Output.
func NewResultsRenderer(cfg Config) *ResultsRenderer {
	return &ResultsRenderer{
		out:     cfg.Output,
		styles:  GetStyles(cfg.NoColor),
		noColor: cfg.NoColor,
	}
}

// Render writes a human-readable listing of resp.
func (r *ResultsRenderer) Render(resp search.Response) error {
	switch resp.Status {
	case search.StatusEmptyQuery:
		_, err := fmt.Fprintln(r.out, r.styles.Dim.Render("Enter a query to search."))
		return err
	case search.StatusLoading:
		_, err := fmt.Fprintln(r.out, r.styles.Warning.Render("Search index is not loaded."))
		return err
	case search.StatusFailed:
		_, err := fmt.Fprint(r.out, r.styles.Error.Render(searcherr.FormatForCLI(resp.Err)))
		return err
	}

	if len(resp.Results) == 0 {
		_, err := fmt.Fprintf(r.out, "No results for %q\n", resp.Query)
		return err
	}

	noun := "results"
	if len(resp.Results) == 1 {
		noun = "result"
	}
	header := fmt.Sprintf("%d %s for %q", len(resp.Results), noun, resp.Query)
	if resp.Source == search.SourceFallback {
		header += r.styles.Dim.Render(" (substring match)")
	}
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render(header))

	for i, res := range resp.Results {
		r.renderResult(i+1, res)
	}
	return nil
}

func (r *ResultsRenderer) renderResult(n int, res search.Result) {
	title := RenderMarked(res.TitleHTML, r.styles, r.noColor)
	_, _ = fmt.Fprintf(r.out, "%2d. %s %s\n", n, r.styles.Title.Render(title),
		r.styles.Dim.Render(fmt.Sprintf("(%.2f)", res.Score)))

	if res.Excerpt != "" {
		_, _ = fmt.Fprintf(r.out, "    %s\n", RenderMarked(res.Excerpt, r.styles, r.noColor))
	}

	meta := []string{r.styles.URL.Render(res.URL)}
	if res.Date != "" {
		meta = append(meta, res.Date)
	}
	for _, tag := range res.Tags {
		meta = append(meta, "#"+tag)
	}
	_, _ = fmt.Fprintf(r.out, "    %s\n\n", r.styles.Label.Render(strings.Join(meta, " · ")))
}

type jsonResponse struct {
	search.Response
	Error json.RawMessage `json:"error,omitempty"`
}

// RenderJSON writes resp as indented JSON. A failed response carries the
// structured error under "error".
func (r *ResultsRenderer) RenderJSON(resp search.Response) error {
	out := jsonResponse{Response: resp}
	if resp.Err != nil {
		data, err := searcherr.FormatJSON(resp.Err)
		if err != nil {
			return fmt.Errorf("encode error: %w", err)
		}
		out.Error = data
	}

	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
