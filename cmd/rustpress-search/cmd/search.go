package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rixingyike/rustpress/internal/search"
	"github.com/rixingyike/rustpress/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit   int
	format  string // "text", "json"
	noColor bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one query against the site corpus",
		Long: `Load the corpus, run one query and print the ranked posts.

Posts are matched by whole words in the title, content, tags and
categories. When no word matches, posts containing the query as a
substring are listed instead.

Examples:
  rustpress-search search rust
  rustpress-search search "async runtime" --limit 5
  rustpress-search search 入门 --format json
  rustpress-search search tokio --corpus https://example.com/search.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 for all)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("invalid format %q (valid options: text, json)", opts.format)
	}

	a, err := newApp(appConfig, slog.Default())
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.reload(ctx); err != nil {
		return err
	}

	resp := a.engine.Search(ctx, query)
	if opts.limit > 0 && len(resp.Results) > opts.limit {
		resp.Results = resp.Results[:opts.limit]
	}

	var uiOpts []ui.ConfigOption
	if opts.noColor {
		uiOpts = append(uiOpts, ui.WithNoColor(true))
	}
	renderer := ui.NewResultsRenderer(ui.NewConfig(cmd.OutOrStdout(), uiOpts...))

	if opts.format == "json" {
		if err := renderer.RenderJSON(resp); err != nil {
			return err
		}
	} else if err := renderer.Render(resp); err != nil {
		return err
	}

	if resp.Status == search.StatusFailed {
		return resp.Err
	}
	return nil
}
