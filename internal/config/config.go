// Package config loads rtfm configuration from defaults, the user config
// file and RTFM_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultCacheDir is where the catalog, documents and search index live.
	DefaultCacheDir = "~/.cache/rtfm"

	// DefaultIndexURL is the IETF RFC index in plain text format.
	DefaultIndexURL = "https://www.rfc-editor.org/rfc-index.txt"

	// DefaultDocumentBaseURL is prefixed to rfc<N>.txt to download a document.
	DefaultDocumentBaseURL = "https://www.rfc-editor.org/rfc/"

	// BackendBleve selects the bleve full-text engine.
	BackendBleve = "bleve"
	// BackendSQLite selects the SQLite FTS5 full-text engine.
	BackendSQLite = "sqlite"
)

// Config represents the complete rtfm configuration.
type Config struct {
	Version  int          `yaml:"version" json:"version"`
	CacheDir string       `yaml:"cache_dir" json:"cache_dir"`
	Remote   RemoteConfig `yaml:"remote" json:"remote"`
	Search   SearchConfig `yaml:"search" json:"search"`
	Pager    string       `yaml:"pager" json:"pager"`
	Log      LogConfig    `yaml:"log" json:"log"`
}

// RemoteConfig configures the RFC mirror the cache is synchronized from.
type RemoteConfig struct {
	IndexURL        string `yaml:"index_url" json:"index_url"`
	DocumentBaseURL string `yaml:"document_base_url" json:"document_base_url"`
	// Timeout bounds every single HTTP request, e.g. "30s".
	Timeout string `yaml:"timeout" json:"timeout"`
	// Retries applies to the index download only. Documents are never retried.
	Retries   int    `yaml:"retries" json:"retries"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// SearchConfig configures the full-text search index.
type SearchConfig struct {
	// Backend is "bleve" (default) or "sqlite".
	Backend string `yaml:"backend" json:"backend"`
	// CommitInterval is the number of documents written per index batch.
	CommitInterval int `yaml:"commit_interval" json:"commit_interval"`
	// MaxResults caps search output; 0 means unlimited.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version:  1,
		CacheDir: DefaultCacheDir,
		Remote: RemoteConfig{
			IndexURL:        DefaultIndexURL,
			DocumentBaseURL: DefaultDocumentBaseURL,
			Timeout:         "30s",
			Retries:         2,
		},
		Search: SearchConfig{
			Backend:        BackendBleve,
			CommitInterval: 50,
			MaxResults:     0,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/rtfm/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/rtfm/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rtfm", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "rtfm", "config.yaml")
	}
	return filepath.Join(home, ".config", "rtfm", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return FileExists(GetUserConfigPath())
}

// Load loads configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. The config file at path (GetUserConfigPath() when path is empty)
//  3. Environment variables (RTFM_*)
//
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = GetUserConfigPath()
	}
	if FileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile returns the defaults merged with the file at path, without
// environment overrides. It is what 'rtfm config init --force' rewrites.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if FileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.CacheDir != "" {
		c.CacheDir = other.CacheDir
	}

	if other.Remote.IndexURL != "" {
		c.Remote.IndexURL = other.Remote.IndexURL
	}
	if other.Remote.DocumentBaseURL != "" {
		c.Remote.DocumentBaseURL = other.Remote.DocumentBaseURL
	}
	if other.Remote.Timeout != "" {
		c.Remote.Timeout = other.Remote.Timeout
	}
	// A YAML 0 is indistinguishable from unset; RTFM_RETRIES=0 disables retries.
	if other.Remote.Retries != 0 {
		c.Remote.Retries = other.Remote.Retries
	}
	if other.Remote.UserAgent != "" {
		c.Remote.UserAgent = other.Remote.UserAgent
	}

	if other.Search.Backend != "" {
		c.Search.Backend = other.Search.Backend
	}
	if other.Search.CommitInterval != 0 {
		c.Search.CommitInterval = other.Search.CommitInterval
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}

	if other.Pager != "" {
		c.Pager = other.Pager
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.MaxSizeMB != 0 {
		c.Log.MaxSizeMB = other.Log.MaxSizeMB
	}
	if other.Log.MaxFiles != 0 {
		c.Log.MaxFiles = other.Log.MaxFiles
	}
}

// applyEnvOverrides applies RTFM_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RTFM_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("RTFM_INDEX_URL"); v != "" {
		c.Remote.IndexURL = v
	}
	if v := os.Getenv("RTFM_DOCUMENT_BASE_URL"); v != "" {
		c.Remote.DocumentBaseURL = v
	}
	if v := os.Getenv("RTFM_TIMEOUT"); v != "" {
		c.Remote.Timeout = v
	}
	if v := os.Getenv("RTFM_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Remote.Retries = n
		}
	}
	if v := os.Getenv("RTFM_SEARCH_BACKEND"); v != "" {
		c.Search.Backend = v
	}
	if v := os.Getenv("RTFM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CacheDir) == "" {
		return fmt.Errorf("cache_dir must not be empty")
	}
	if c.Remote.IndexURL == "" {
		return fmt.Errorf("remote.index_url must not be empty")
	}
	if c.Remote.DocumentBaseURL == "" {
		return fmt.Errorf("remote.document_base_url must not be empty")
	}
	if d, err := time.ParseDuration(c.Remote.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("remote.timeout must be a positive duration, got %q", c.Remote.Timeout)
	}
	if c.Remote.Retries < 0 {
		return fmt.Errorf("remote.retries must be non-negative, got %d", c.Remote.Retries)
	}

	switch strings.ToLower(c.Search.Backend) {
	case BackendBleve, BackendSQLite:
	default:
		return fmt.Errorf("search.backend must be 'bleve' or 'sqlite', got %s", c.Search.Backend)
	}
	if c.Search.CommitInterval <= 0 {
		return fmt.Errorf("search.commit_interval must be positive, got %d", c.Search.CommitInterval)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}
	return nil
}

// ResolvedCacheDir returns CacheDir with ~ and environment variables expanded.
func (c *Config) ResolvedCacheDir() string {
	return ExpandPath(c.CacheDir)
}

// RequestTimeout returns the parsed per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExpandPath expands environment variables and a leading ~ in path.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// FileExists reports whether path is an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
