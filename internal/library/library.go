package library

import (
	"context"
	"strconv"
	"strings"
	"time"

	"reelsync/internal/movie"
)

// Item is one library entry as the reconciliation engine sees it.
type Item struct {
	Key        string
	Title      string
	Year       int
	Edition    string
	GUIDs      []string
	UserRating float64
	AddedAt    time.Time
}

// Identity returns the (title, year) pair of the item.
func (i Item) Identity() movie.Identity {
	return movie.Identity{Name: i.Title, Year: i.Year}
}

// HasGUID reports whether guid is among the item's external identifiers.
func (i Item) HasGUID(guid string) bool {
	for _, g := range i.GUIDs {
		if g == guid {
			return true
		}
	}
	return false
}

// ExternalID returns the identifier for scheme ("imdb", "tmdb", "tvdb")
// without its scheme prefix.
func (i Item) ExternalID(scheme string) (string, bool) {
	prefix := scheme + "://"
	for _, g := range i.GUIDs {
		if strings.HasPrefix(g, prefix) {
			return strings.TrimPrefix(g, prefix), true
		}
	}
	return "", false
}

// Label renders the item for prompts and logs.
func (i Item) Label() string {
	label := i.Identity().String()
	if i.Edition != "" {
		label += " [" + i.Edition + "]"
	}
	return label
}

// TMDBGUID builds the tagged identifier for a TMDB movie id.
func TMDBGUID(id int64) string {
	return "tmdb://" + strconv.FormatInt(id, 10)
}

// IMDbGUID builds the tagged identifier for an IMDb id.
func IMDbGUID(id string) string {
	return "imdb://" + id
}

// Searcher queries the movie and show collections.
type Searcher interface {
	// SearchMovies returns movies whose title equals title exactly. A
	// non-empty years slice restricts results to those release years.
	SearchMovies(ctx context.Context, title string, years []int) ([]Item, error)
	// SearchShows returns shows whose title equals title.
	SearchShows(ctx context.Context, title string) ([]Item, error)
	// LookupByGUID returns the movie tagged with guid.
	LookupByGUID(ctx context.Context, guid string) (Item, bool, error)
}

// Publisher mutates playlists, the account watchlist and ratings.
//
// Implementations tag errors with services.ErrNotFound for an absent playlist
// and services.ErrDuplicate for an item already on the watchlist.
type Publisher interface {
	PlaylistItems(ctx context.Context, name string) ([]Item, error)
	DeletePlaylist(ctx context.Context, name string) error
	CreatePlaylist(ctx context.Context, name string, items []Item) error
	AddToWatchlist(ctx context.Context, item Item) error
	Rate(ctx context.Context, item Item, rating int) error
}

// Catalog enumerates the movie collection.
type Catalog interface {
	// Movies lists movies, newest additions first when limit > 0.
	Movies(ctx context.Context, limit int) ([]Item, error)
}

// Library is the full collaborator surface.
type Library interface {
	Searcher
	Publisher
	Catalog
}
