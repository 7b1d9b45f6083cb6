package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEnums(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEnums() error {
	if _, err := ParseWatchlistMode(string(c.Watchlist.Mode)); err != nil {
		return fmt.Errorf("watchlist.mode: %w", err)
	}
	if _, err := ParseSelectionMode(string(c.Selection.Mode)); err != nil {
		return fmt.Errorf("selection.mode: %w", err)
	}
	if !c.TMDB.ReleaseType.Valid() {
		return fmt.Errorf("tmdb.release_type: %s is not supported", c.TMDB.ReleaseType)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if !c.TMDB.Enabled {
		return nil
	}
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelsync/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required when tmdb.enabled is true. Set TMDB_API_KEY env var or edit %s", defaultPath)
	}
	if c.TMDB.InvalidateCacheDays <= 0 {
		return errors.New("tmdb.invalidate_cache_days must be positive")
	}
	if c.TMDB.RequestsPerSecond < 0 {
		return errors.New("tmdb.requests_per_second must not be negative")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if c.Plex.TimeoutSeconds <= 0 {
		return errors.New("plex.timeout_seconds must be positive")
	}
	if c.Selection.TimeoutSeconds <= 0 {
		return errors.New("selection.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
