package config

const (
	defaultDataDir             = "~/.local/share/reelsync"
	defaultLogDir              = "~/.local/share/reelsync/logs"
	defaultExportDir           = "~/letterboxd"
	defaultPlexURL             = "http://127.0.0.1:32400"
	defaultPlexMoviesLibrary   = "Movies"
	defaultPlexTVLibrary       = "TV Shows"
	defaultPlexDiscoverURL     = "https://discover.provider.plex.tv"
	defaultPlexTimeoutSeconds  = 30
	defaultWatchlistFile       = "watchlist.csv"
	defaultWatchedFile         = "watched.csv"
	defaultRatingsFile         = "ratings.csv"
	defaultPlaylistName        = "Letterboxd Watchlist"
	defaultTMDBLanguage        = "en-US"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBRegion          = "US"
	defaultInvalidateCacheDays = 30
	defaultRequestsPerSecond   = 20
	defaultSelectionTimeout    = 900
	defaultAPIBind             = "127.0.0.1:7488"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var defaultStopWords = []string{"the", "a", "an"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Plex: Plex{
			URL:            defaultPlexURL,
			MoviesLibrary:  defaultPlexMoviesLibrary,
			TVLibrary:      defaultPlexTVLibrary,
			DiscoverURL:    defaultPlexDiscoverURL,
			TimeoutSeconds: defaultPlexTimeoutSeconds,
		},
		Letterboxd: Letterboxd{
			WatchlistFile: defaultWatchlistFile,
			WatchedFile:   defaultWatchedFile,
			RatingsFile:   defaultRatingsFile,
		},
		Watchlist: Watchlist{
			Mode:         WatchlistModePlaylist,
			PlaylistName: defaultPlaylistName,
			StopWords:    append([]string(nil), defaultStopWords...),
		},
		TMDB: TMDB{
			BaseURL:             defaultTMDBBaseURL,
			Language:            defaultTMDBLanguage,
			Region:              defaultTMDBRegion,
			ReleaseType:         ReleaseTypeTheatrical,
			Cache:               true,
			InvalidateCacheDays: defaultInvalidateCacheDays,
			RequestsPerSecond:   defaultRequestsPerSecond,
		},
		Selection: Selection{
			Mode:           SelectionModeAuto,
			TimeoutSeconds: defaultSelectionTimeout,
			APIBind:        defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
