package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/rixingyike/rustpress/internal/mcp"
	"github.com/rixingyike/rustpress/pkg/version"
)

func newServeCmd() *cobra.Command {
	var transport string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start an MCP server over stdio exposing the site corpus to assistants.

Tools:
  search         ranked post search with highlighted excerpts
  corpus_status  whether the corpus is loaded, and how large it is

Posts are also readable as resources at rustpress://doc/{id}.

Logs go to the log file only, since stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), transport, watch || appConfig.Watch.Enabled)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the corpus when its file changes")

	return cmd
}

func runServe(ctx context.Context, transport string, watch bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("serve_starting",
		slog.String("version", version.Version),
		slog.String("transport", transport),
		slog.String("source", appConfig.Corpus.Source),
		slog.Bool("watch", watch))

	a, err := newApp(appConfig, slog.Default())
	if err != nil {
		return err
	}
	defer a.close()

	srv, err := mcpserver.NewServer(a.engine,
		mcpserver.WithCorpusInfo(a.corpusInfo),
		mcpserver.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Tools answer with a loading status until the first load finishes. A
	// failed load is reported through corpus_status rather than ending serve.
	go func() {
		if err := a.reload(ctx); err != nil {
			slog.Error("initial_load_failed", slog.String("error", err.Error()))
		}
	}()

	if watch {
		go func() {
			if err := a.watch(ctx, nil); err != nil {
				slog.Warn("watch_unavailable", slog.String("error", err.Error()))
			}
		}()
	}

	return srv.Serve(ctx, transport)
}
