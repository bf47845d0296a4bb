// Package ui renders search results in the terminal: a bubbletea search box
// for interactive use, and plain or lightly styled text for one-shot queries.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Config configures terminal rendering.
type Config struct {
	Output  io.Writer
	NoColor bool
	// Source is shown in headers, usually the corpus path or URL.
	Source string
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithSource sets the corpus source shown in headers.
func WithSource(source string) ConfigOption {
	return func(c *Config) {
		c.Source = source
	}
}

// NewConfig creates a Config for output. Color is off when output is not a
// terminal or NO_COLOR is set.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Output:  output,
		NoColor: !IsTTY(output) || DetectNoColor(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
