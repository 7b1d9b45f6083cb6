package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	ExportDir string `toml:"export_dir"`
}

// Plex contains connection settings for the Plex Media Server.
type Plex struct {
	URL            string `toml:"url"`
	Token          string `toml:"token"`
	MoviesLibrary  string `toml:"movies_library"`
	TVLibrary      string `toml:"tv_library"`
	DiscoverURL    string `toml:"discover_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Letterboxd names the CSV files inside the unpacked export.
type Letterboxd struct {
	WatchlistFile          string `toml:"watchlist_file"`
	WatchedFile            string `toml:"watched_file"`
	RatingsFile            string `toml:"ratings_file"`
	IncludeWatchedNotRated bool   `toml:"include_watched_not_rated"`
}

// Watchlist controls how matched watchlist entries are published.
type Watchlist struct {
	Mode               WatchlistMode `toml:"mode"`
	PlaylistName       string        `toml:"playlist_name"`
	ReferencePlaylist  string        `toml:"reference_playlist"`
	SkipReferenceItems bool          `toml:"skip_reference_items"`
	SortByTitle        bool          `toml:"sort_by_title"`
	StopWords          []string      `toml:"stop_words"`
}

// TMDB contains configuration for The Movie Database bridging.
type TMDB struct {
	Enabled             bool        `toml:"enabled"`
	APIKey              string      `toml:"api_key"`
	BaseURL             string      `toml:"base_url"`
	Language            string      `toml:"language"`
	Region              string      `toml:"region"`
	ReleaseType         ReleaseType `toml:"release_type"`
	Cache               bool        `toml:"cache"`
	InvalidateCache     bool        `toml:"invalidate_cache"`
	InvalidateCacheDays int         `toml:"invalidate_cache_days"`
	RequestsPerSecond   float64     `toml:"requests_per_second"`
}

// Selection controls how ambiguous library matches are resolved.
type Selection struct {
	Mode           SelectionMode `toml:"mode"`
	TimeoutSeconds int           `toml:"timeout_seconds"`
	APIBind        string        `toml:"api_bind"`
	APIToken       string        `toml:"api_token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelsync.
//
// Configuration sections by subsystem:
//   - Paths: store, log, and export directories
//   - Plex: library server connection and section names
//   - Letterboxd: export file names
//   - Watchlist: playlist or builtin watchlist publishing
//   - TMDB: optional title/year bridging and its cache
//   - Selection: disambiguation mode and deferred API settings
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Plex       Plex       `toml:"plex"`
	Letterboxd Letterboxd `toml:"letterboxd"`
	Watchlist  Watchlist  `toml:"watchlist"`
	TMDB       TMDB       `toml:"tmdb"`
	Selection  Selection  `toml:"selection"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the location of a JSON store file inside the data directory.
func (c *Config) StorePath(name string) string {
	return filepath.Join(c.Paths.DataDir, name)
}

// CacheDBPath returns the location of the metadata cache database.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.Paths.DataDir, "reelsync.db")
}

// ExportPath returns the location of an export CSV.
func (c *Config) ExportPath(name string) string {
	return filepath.Join(c.Paths.ExportDir, name)
}

// PlexTimeout returns the per-request timeout for Plex calls.
func (c *Config) PlexTimeout() time.Duration {
	return time.Duration(c.Plex.TimeoutSeconds) * time.Second
}

// SelectionTimeout returns how long a deferred selection may stay pending.
func (c *Config) SelectionTimeout() time.Duration {
	return time.Duration(c.Selection.TimeoutSeconds) * time.Second
}

// RequirePlex reports whether the Plex connection settings are usable.
// Commands that never touch the library server skip this check.
func (c *Config) RequirePlex() error {
	if strings.TrimSpace(c.Plex.URL) == "" {
		return errors.New("plex.url is required")
	}
	if strings.TrimSpace(c.Plex.Token) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelsync/config.toml"
		}
		return fmt.Errorf("plex.token is required. Set PLEX_TOKEN env var or edit %s (create with 'reelsync config init')", defaultPath)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
