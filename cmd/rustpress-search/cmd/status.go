package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rixingyike/rustpress/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Load the corpus and report index health",
		Long: `Load the configured corpus, build the index and report document and
term counts, the backend in use, and any load error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(appConfig, slog.Default())
			if err != nil {
				return err
			}
			defer a.close()

			loadErr := a.reload(cmd.Context())

			renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor || ui.NewConfig(cmd.OutOrStdout()).NoColor)
			if jsonOutput {
				if err := renderer.RenderJSON(a.statusInfo()); err != nil {
					return err
				}
			} else if err := renderer.Render(a.statusInfo()); err != nil {
				return err
			}
			return loadErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}
