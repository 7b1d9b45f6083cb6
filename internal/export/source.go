package export

import (
	"path/filepath"

	"reelsync/internal/config"
	"reelsync/internal/movie"
)

// Source locates the files of an unpacked Letterboxd export.
type Source struct {
	Dir   string
	Files config.Letterboxd
}

// NewSource builds a Source from configuration.
func NewSource(cfg *config.Config) Source {
	return Source{Dir: cfg.Paths.ExportDir, Files: cfg.Letterboxd}
}

// Watchlist returns the watchlist rows, followed by watched rows that carry
// no rating when IncludeWatchedNotRated is set.
func (s Source) Watchlist() ([]Row, error) {
	rows, err := ReadFile(filepath.Join(s.Dir, s.Files.WatchlistFile))
	if err != nil {
		return nil, err
	}
	if !s.Files.IncludeWatchedNotRated {
		return rows, nil
	}

	watched, err := ReadFile(filepath.Join(s.Dir, s.Files.WatchedFile))
	if err != nil {
		return nil, err
	}
	ratings, err := ReadFile(filepath.Join(s.Dir, s.Files.RatingsFile))
	if err != nil {
		return nil, err
	}
	return MergeWatchedNotRated(rows, watched, ratings), nil
}

// Ratings returns the ratings rows.
func (s Source) Ratings() ([]Row, error) {
	return ReadFile(filepath.Join(s.Dir, s.Files.RatingsFile))
}

// MergeWatchedNotRated appends watched rows absent from ratings to watchlist,
// skipping pairs already present.
func MergeWatchedNotRated(watchlist, watched, ratings []Row) []Row {
	rated := make(map[[2]string]struct{}, len(ratings))
	for _, r := range ratings {
		rated[r.key()] = struct{}{}
	}
	seen := make(map[[2]string]struct{}, len(watchlist))
	for _, r := range watchlist {
		seen[r.key()] = struct{}{}
	}
	out := append([]Row(nil), watchlist...)
	for _, r := range watched {
		k := r.key()
		if _, ok := rated[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// SortByTitle orders rows by their stop-word-stripped title.
func SortByTitle(rows []Row, sw movie.StopWords) {
	movie.SortByTitle(rows, sw, func(r Row) string { return r.Name })
}
