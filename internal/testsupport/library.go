package testsupport

import (
	"context"
	"slices"
	"sort"
	"sync"

	"reelsync/internal/library"
	"reelsync/internal/services"
)

// MovieSearch records one SearchMovies call.
type MovieSearch struct {
	Title string
	Years []int
}

// Library is an in-memory library.Library for tests.
type Library struct {
	mu sync.Mutex

	MovieItems []library.Item
	ShowItems  []library.Item
	Playlists  map[string][]library.Item
	Watchlist  []library.Item
	Ratings    map[string]int

	// SearchErr is returned by every search when set.
	SearchErr error

	MovieSearches []MovieSearch
	ShowSearches  []string
	GUIDLookups   []string
}

// NewLibrary returns a library holding movies.
func NewLibrary(movies ...library.Item) *Library {
	return &Library{
		MovieItems: movies,
		Playlists:  make(map[string][]library.Item),
		Ratings:    make(map[string]int),
	}
}

// AddShow registers a show for SearchShows.
func (l *Library) AddShow(title string, year int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ShowItems = append(l.ShowItems, library.Item{Key: "show-" + title, Title: title, Year: year})
}

func (l *Library) SearchMovies(_ context.Context, title string, years []int) ([]library.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.MovieSearches = append(l.MovieSearches, MovieSearch{Title: title, Years: slices.Clone(years)})
	if l.SearchErr != nil {
		return nil, l.SearchErr
	}
	var out []library.Item
	for _, item := range l.MovieItems {
		if item.Title != title {
			continue
		}
		if len(years) > 0 && !slices.Contains(years, item.Year) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (l *Library) SearchShows(_ context.Context, title string) ([]library.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ShowSearches = append(l.ShowSearches, title)
	if l.SearchErr != nil {
		return nil, l.SearchErr
	}
	var out []library.Item
	for _, item := range l.ShowItems {
		if item.Title == title {
			out = append(out, item)
		}
	}
	return out, nil
}

func (l *Library) LookupByGUID(_ context.Context, guid string) (library.Item, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.GUIDLookups = append(l.GUIDLookups, guid)
	for _, item := range l.MovieItems {
		if item.HasGUID(guid) {
			return item, true, nil
		}
	}
	return library.Item{}, false, nil
}

func (l *Library) PlaylistItems(_ context.Context, name string) ([]library.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	items, ok := l.Playlists[name]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "library", "playlist items", name, nil)
	}
	return slices.Clone(items), nil
}

func (l *Library) DeletePlaylist(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.Playlists[name]; !ok {
		return services.Wrap(services.ErrNotFound, "library", "delete playlist", name, nil)
	}
	delete(l.Playlists, name)
	return nil
}

func (l *Library) CreatePlaylist(_ context.Context, name string, items []library.Item) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.Playlists[name]; ok {
		return services.Wrap(services.ErrDuplicate, "library", "create playlist", name, nil)
	}
	l.Playlists[name] = slices.Clone(items)
	return nil
}

func (l *Library) AddToWatchlist(_ context.Context, item library.Item) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.Watchlist {
		if existing.Key == item.Key {
			return services.Wrap(services.ErrDuplicate, "library", "add to watchlist", item.Label(), nil)
		}
	}
	l.Watchlist = append(l.Watchlist, item)
	return nil
}

func (l *Library) Rate(_ context.Context, item library.Item, rating int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Ratings[item.Key] = rating
	for i := range l.MovieItems {
		if l.MovieItems[i].Key == item.Key {
			l.MovieItems[i].UserRating = float64(rating)
		}
	}
	return nil
}

func (l *Library) Movies(_ context.Context, limit int) ([]library.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := slices.Clone(l.MovieItems)
	if limit > 0 {
		sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
		if len(out) > limit {
			out = out[:limit]
		}
	}
	return out, nil
}

var _ library.Library = (*Library)(nil)
