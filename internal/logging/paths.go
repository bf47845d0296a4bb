package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.rustpress-search/logs, falling back to the temp
// directory when the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".rustpress-search", "logs")
	}
	return filepath.Join(home, ".rustpress-search", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "search.log")
}
