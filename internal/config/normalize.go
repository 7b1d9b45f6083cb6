package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlex()
	c.normalizeLetterboxd()
	c.normalizeWatchlist()
	c.normalizeTMDB()
	c.normalizeSelection()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePlex() {
	if c.Plex.Token == "" {
		if value, ok := os.LookupEnv("PLEX_TOKEN"); ok {
			c.Plex.Token = value
		}
	}
	c.Plex.Token = strings.TrimSpace(c.Plex.Token)
	c.Plex.URL = strings.TrimRight(strings.TrimSpace(c.Plex.URL), "/")
	c.Plex.MoviesLibrary = strings.TrimSpace(c.Plex.MoviesLibrary)
	c.Plex.TVLibrary = strings.TrimSpace(c.Plex.TVLibrary)
	c.Plex.DiscoverURL = strings.TrimRight(strings.TrimSpace(c.Plex.DiscoverURL), "/")
	if c.Plex.DiscoverURL == "" {
		c.Plex.DiscoverURL = defaultPlexDiscoverURL
	}
}

func (c *Config) normalizeLetterboxd() {
	c.Letterboxd.WatchlistFile = strings.TrimSpace(c.Letterboxd.WatchlistFile)
	if c.Letterboxd.WatchlistFile == "" {
		c.Letterboxd.WatchlistFile = defaultWatchlistFile
	}
	c.Letterboxd.WatchedFile = strings.TrimSpace(c.Letterboxd.WatchedFile)
	if c.Letterboxd.WatchedFile == "" {
		c.Letterboxd.WatchedFile = defaultWatchedFile
	}
	c.Letterboxd.RatingsFile = strings.TrimSpace(c.Letterboxd.RatingsFile)
	if c.Letterboxd.RatingsFile == "" {
		c.Letterboxd.RatingsFile = defaultRatingsFile
	}
}

func (c *Config) normalizeWatchlist() {
	c.Watchlist.Mode = WatchlistMode(strings.ToLower(strings.TrimSpace(string(c.Watchlist.Mode))))
	if c.Watchlist.Mode == "" {
		c.Watchlist.Mode = WatchlistModePlaylist
	}
	c.Watchlist.PlaylistName = strings.TrimSpace(c.Watchlist.PlaylistName)
	if c.Watchlist.PlaylistName == "" {
		c.Watchlist.PlaylistName = defaultPlaylistName
	}
	c.Watchlist.ReferencePlaylist = strings.TrimSpace(c.Watchlist.ReferencePlaylist)
	words := make([]string, 0, len(c.Watchlist.StopWords))
	for _, w := range c.Watchlist.StopWords {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	c.Watchlist.StopWords = words
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	c.TMDB.Region = strings.ToUpper(strings.TrimSpace(c.TMDB.Region))
	if c.TMDB.Region == "" {
		c.TMDB.Region = defaultTMDBRegion
	}
	if c.TMDB.ReleaseType == 0 {
		c.TMDB.ReleaseType = ReleaseTypeTheatrical
	}
}

func (c *Config) normalizeSelection() {
	c.Selection.Mode = SelectionMode(strings.ToLower(strings.TrimSpace(string(c.Selection.Mode))))
	if c.Selection.Mode == "" {
		c.Selection.Mode = SelectionModeAuto
	}
	c.Selection.APIBind = strings.TrimSpace(c.Selection.APIBind)
	if c.Selection.APIBind == "" {
		c.Selection.APIBind = defaultAPIBind
	}
	if c.Selection.APIToken == "" {
		if value, ok := os.LookupEnv("REELSYNC_API_TOKEN"); ok {
			c.Selection.APIToken = value
		}
	}
	c.Selection.APIToken = strings.TrimSpace(c.Selection.APIToken)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
