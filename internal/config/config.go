// Package config loads rustpress-search settings from defaults, dotenv files,
// user and project config files, and RUSTPRESS_SEARCH_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rixingyike/rustpress/internal/errors"
	"github.com/rixingyike/rustpress/internal/index"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RUSTPRESS_SEARCH_"

// Config is the complete rustpress-search configuration.
type Config struct {
	Corpus CorpusConfig `yaml:"corpus" json:"corpus"`
	Index  IndexConfig  `yaml:"index" json:"index"`
	Search SearchConfig `yaml:"search" json:"search"`
	Watch  WatchConfig  `yaml:"watch" json:"watch"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

// CorpusConfig locates the search.json produced by the site generator.
type CorpusConfig struct {
	// Source is a file path or an http(s) URL.
	Source string `yaml:"source" json:"source"`
	// Timeout bounds a single fetch, e.g. "10s".
	Timeout string `yaml:"timeout" json:"timeout"`
}

// IndexConfig selects the primary index backend.
type IndexConfig struct {
	// Backend is one of "memory" (default), "bleve" or "sqlite".
	Backend string `yaml:"backend" json:"backend"`
}

// SearchConfig tunes result presentation.
type SearchConfig struct {
	ExcerptLength int `yaml:"excerpt_length" json:"excerpt_length"`
	FallbackLimit int `yaml:"fallback_limit" json:"fallback_limit"`
	// CacheSize is the number of cached query responses; 0 disables caching.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// MaxResults caps rendered results; 0 means no cap.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// WatchConfig controls corpus file watching for tui and serve.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LogConfig controls the slog logger.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Source:  filepath.Join("public", "search.json"),
			Timeout: "10s",
		},
		Index: IndexConfig{
			Backend: index.BackendMemory,
		},
		Search: SearchConfig{
			ExcerptLength: 150,
			FallbackLimit: 10,
			CacheSize:     256,
			MaxResults:    0,
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: "300ms",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// GetUserConfigPath returns the user-level config file:
//   - $XDG_CONFIG_HOME/rustpress-search/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/rustpress-search/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rustpress-search", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "rustpress-search", "config.yaml")
	}
	return filepath.Join(home, ".config", "rustpress-search", "config.yaml")
}

// Load resolves configuration for the site rooted at dir. Sources apply in
// increasing precedence:
//  1. Defaults
//  2. dir/.env (never overrides variables already set in the process)
//  3. User config (~/.config/rustpress-search/config.yaml)
//  4. Project config: .rustpress-search.yaml, .rustpress-search.yml, or the
//     [search] table of the site's config.toml
//  5. RUSTPRESS_SEARCH_* environment variables
//
// The merged result is validated before it is returned.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := loadDotEnv(dir); err != nil {
		return nil, err
	}

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadProjectFile(dir); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// A relative corpus path is relative to the site, not the caller's cwd.
	if !isURL(cfg.Corpus.Source) && !filepath.IsAbs(cfg.Corpus.Source) {
		cfg.Corpus.Source = filepath.Join(dir, cfg.Corpus.Source)
	}

	return cfg, nil
}

func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to read %s", path), err)
	}
	return nil
}

// loadProjectFile prefers the dedicated YAML file; the site config.toml is
// consulted only when neither YAML variant exists.
func (c *Config) loadProjectFile(dir string) error {
	for _, name := range []string{".rustpress-search.yaml", ".rustpress-search.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}

	path := filepath.Join(dir, "config.toml")
	if fileExists(path) {
		return c.loadSiteTOML(path)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}

	c.mergeWith(&parsed)
	return nil
}

// siteFile is the subset of a rustpress config.toml this tool reads.
type siteFile struct {
	Search *siteSearch `toml:"search"`
}

type siteSearch struct {
	Source        string `toml:"source"`
	Timeout       string `toml:"timeout"`
	Backend       string `toml:"backend"`
	ExcerptLength int    `toml:"excerpt_length"`
	FallbackLimit int    `toml:"fallback_limit"`
	CacheSize     int    `toml:"cache_size"`
	MaxResults    int    `toml:"max_results"`
	Watch         bool   `toml:"watch"`
	Debounce      string `toml:"debounce"`
}

func (c *Config) loadSiteTOML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to read site config %s", path), err)
	}

	var site siteFile
	if err := toml.Unmarshal(data, &site); err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to parse site config %s", path), err).
			WithDetail("path", path)
	}
	if site.Search == nil {
		return nil
	}

	s := site.Search
	c.mergeWith(&Config{
		Corpus: CorpusConfig{Source: s.Source, Timeout: s.Timeout},
		Index:  IndexConfig{Backend: s.Backend},
		Search: SearchConfig{
			ExcerptLength: s.ExcerptLength,
			FallbackLimit: s.FallbackLimit,
			CacheSize:     s.CacheSize,
			MaxResults:    s.MaxResults,
		},
		Watch: WatchConfig{Enabled: s.Watch, Debounce: s.Debounce},
	})
	return nil
}

// mergeWith copies non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Corpus.Source != "" {
		c.Corpus.Source = other.Corpus.Source
	}
	if other.Corpus.Timeout != "" {
		c.Corpus.Timeout = other.Corpus.Timeout
	}
	if other.Index.Backend != "" {
		c.Index.Backend = other.Index.Backend
	}
	if other.Search.ExcerptLength != 0 {
		c.Search.ExcerptLength = other.Search.ExcerptLength
	}
	if other.Search.FallbackLimit != 0 {
		c.Search.FallbackLimit = other.Search.FallbackLimit
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Watch.Enabled {
		c.Watch.Enabled = true
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvPrefix + "CORPUS_SOURCE"); v != "" {
		c.Corpus.Source = v
	}
	if v := os.Getenv(EnvPrefix + "CORPUS_TIMEOUT"); v != "" {
		c.Corpus.Timeout = v
	}
	if v := os.Getenv(EnvPrefix + "INDEX_BACKEND"); v != "" {
		c.Index.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv(EnvPrefix + "WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv(EnvPrefix + "WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.ConfigError(fmt.Sprintf("%sWATCH must be a boolean, got %q", EnvPrefix, v), err)
		}
		c.Watch.Enabled = b
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"EXCERPT_LENGTH", &c.Search.ExcerptLength},
		{"FALLBACK_LIMIT", &c.Search.FallbackLimit},
		{"CACHE_SIZE", &c.Search.CacheSize},
		{"MAX_RESULTS", &c.Search.MaxResults},
	}
	for _, in := range ints {
		v := os.Getenv(EnvPrefix + in.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.ConfigError(fmt.Sprintf("%s%s must be an integer, got %q", EnvPrefix, in.name, v), err)
		}
		*in.dst = n
	}
	return nil
}

// Validate reports the first invalid setting as an ERR_101_CONFIG_INVALID
// error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Corpus.Source) == "" {
		return errors.ConfigError("corpus.source must not be empty", nil)
	}
	if _, err := c.CorpusTimeout(); err != nil {
		return errors.ConfigError(fmt.Sprintf("corpus.timeout is not a valid duration: %q", c.Corpus.Timeout), err)
	}

	switch strings.ToLower(c.Index.Backend) {
	case index.BackendMemory, index.BackendBleve, index.BackendSQLite:
	default:
		return errors.ConfigError(fmt.Sprintf("index.backend must be 'memory', 'bleve', or 'sqlite', got %s", c.Index.Backend), nil)
	}

	if c.Search.ExcerptLength <= 0 {
		return errors.ConfigError(fmt.Sprintf("search.excerpt_length must be positive, got %d", c.Search.ExcerptLength), nil)
	}
	if c.Search.FallbackLimit <= 0 {
		return errors.ConfigError(fmt.Sprintf("search.fallback_limit must be positive, got %d", c.Search.FallbackLimit), nil)
	}
	if c.Search.CacheSize < 0 {
		return errors.ConfigError(fmt.Sprintf("search.cache_size must be non-negative, got %d", c.Search.CacheSize), nil)
	}
	if c.Search.MaxResults < 0 {
		return errors.ConfigError(fmt.Sprintf("search.max_results must be non-negative, got %d", c.Search.MaxResults), nil)
	}

	if _, err := c.WatchDebounce(); err != nil {
		return errors.ConfigError(fmt.Sprintf("watch.debounce is not a valid duration: %q", c.Watch.Debounce), err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return errors.ConfigError(fmt.Sprintf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level), nil)
	}

	return nil
}

// CorpusTimeout parses corpus.timeout. An empty value means no timeout.
func (c *Config) CorpusTimeout() (time.Duration, error) {
	return parseDuration(c.Corpus.Timeout)
}

// WatchDebounce parses watch.debounce. An empty value means no debounce.
func (c *Config) WatchDebounce() (time.Duration, error) {
	return parseDuration(c.Watch.Debounce)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
