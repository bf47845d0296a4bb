package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rixingyike/rustpress/internal/output"
	"github.com/rixingyike/rustpress/internal/ui"
)

func newTUICmd() *cobra.Command {
	var watch bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive search box",
		Long: `Open a full-screen search box over the site corpus.

Results update as you type. Use Up/Down (or Ctrl+P/Ctrl+N) to move the
selection, Enter to print the selected post's URL and exit, Esc to close.

With --watch the corpus is reloaded whenever its file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), cmd, watch || appConfig.Watch.Enabled, noColor)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the corpus when its file changes")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runTUI(ctx context.Context, cmd *cobra.Command, watch, noColor bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(appConfig, slog.Default())
	if err != nil {
		return err
	}
	defer a.close()

	uiOpts := []ui.ConfigOption{ui.WithSource(appConfig.Corpus.Source)}
	if noColor {
		uiOpts = append(uiOpts, ui.WithNoColor(true))
	}
	tui, err := ui.NewTUI(ctx, a.engine, ui.NewConfig(os.Stdout, uiOpts...))
	if err != nil {
		return fmt.Errorf("%w: use 'rustpress-search search' for non-interactive queries", err)
	}

	// The box opens in the loading state and refreshes once the corpus is in.
	go func() {
		tui.NotifyReloaded(a.reload(ctx))
	}()

	if watch {
		go func() {
			if err := a.watch(ctx, tui.NotifyReloaded); err != nil {
				slog.Warn("watch_unavailable", slog.String("error", err.Error()))
			}
		}()
	}

	chosen, err := tui.Run()
	if err != nil {
		return err
	}

	if loadErr := a.statusInfo().LoadError; loadErr != "" {
		output.New(cmd.ErrOrStderr(), ui.DetectNoColor()).Warningf("corpus not loaded: %s", loadErr)
	}
	if chosen != "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), chosen)
	}
	return err
}
