// Package cmd provides the CLI commands for rustpress-search.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rixingyike/rustpress/internal/config"
	searcherr "github.com/rixingyike/rustpress/internal/errors"
	"github.com/rixingyike/rustpress/internal/logging"
	"github.com/rixingyike/rustpress/internal/output"
	"github.com/rixingyike/rustpress/internal/ui"
	"github.com/rixingyike/rustpress/pkg/version"
)

// Persistent flags shared by every subcommand.
var (
	siteDir        string
	corpusSource   string
	backendName    string
	debugMode      bool
	logFile        string
	loggingCleanup func()

	// appConfig is resolved by the persistent pre-run hook.
	appConfig *config.Config
)

// NewRootCmd creates the root command for the rustpress-search CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rustpress-search",
		Short: "Search a rustpress site's posts",
		Long: `rustpress-search loads the search.json corpus a rustpress site build
emits and ranks posts by title, content, tags and categories.

Use it for one-shot queries, as an interactive search box, or as an MCP
server so assistants can search the site.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: startLogging,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			stopLogging()
			return nil
		},
	}

	cmd.SetVersionTemplate("rustpress-search version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&siteDir, "dir", "C", ".", "Site root holding config files")
	cmd.PersistentFlags().StringVar(&corpusSource, "corpus", "", "Corpus file or URL (overrides corpus.source)")
	cmd.PersistentFlags().StringVar(&backendName, "backend", "", "Index backend: memory, bleve, sqlite (overrides index.backend)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newTUICmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and reports a failure on stderr.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		out := output.New(root.ErrOrStderr(), ui.DetectNoColor())
		if searcherr.GetCode(err) != "" {
			out.Failure(err)
		} else {
			out.Error(err.Error())
		}
	}
	return err
}

// startLogging resolves configuration and installs the process logger.
// serve never writes to stderr: stdout carries JSON-RPC and stderr noise
// confuses some MCP clients.
func startLogging(cmd *cobra.Command, _ []string) error {
	level, path := "warn", logFile
	if cmd.Name() != "version" && cmd.Name() != "init" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg
		level = cfg.Log.Level
		if path == "" {
			path = cfg.Log.File
		}
	}
	if debugMode {
		level = "debug"
	}

	var logCfg logging.Config
	switch {
	case cmd.Name() == "serve":
		logCfg = logging.ServeConfig(level, path)
	case debugMode && path == "":
		logCfg = logging.DebugConfig()
	default:
		logCfg = logging.DefaultConfig()
		logCfg.Level = level
		logCfg.FilePath = path
	}

	cleanup, err := logging.Install(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup

	slog.Debug("logging_started",
		slog.String("command", cmd.Name()),
		slog.String("level", logCfg.Level),
		slog.String("log_file", logCfg.FilePath))
	return nil
}

func stopLogging() {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// loadConfig resolves configuration for --dir and applies the flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(siteDir)
	if err != nil {
		return nil, err
	}
	if corpusSource != "" {
		cfg.Corpus.Source = corpusSource
	}
	if backendName != "" {
		cfg.Index.Backend = backendName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
