package identification

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"reelsync/internal/identification/tmdb"
	"reelsync/internal/metacache"
	"reelsync/internal/movie"
	"reelsync/internal/services"
)

type fakeSearcher struct {
	results      map[int][]tmdb.Result
	searchErr    error
	searches     []tmdb.SearchOptions
	translations map[int64]*tmdb.Translations
	details      map[int64]*tmdb.MovieDetails
	releases     map[int64]*tmdb.ReleaseDates
}

func (f *fakeSearcher) SearchMovieWithOptions(_ context.Context, _ string, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	f.searches = append(f.searches, opts)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &tmdb.Response{Results: f.results[opts.Year]}, nil
}

func (f *fakeSearcher) GetMovieDetails(_ context.Context, id int64) (*tmdb.MovieDetails, error) {
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, errors.New("no details")
}

func (f *fakeSearcher) GetMovieTranslations(_ context.Context, id int64) (*tmdb.Translations, error) {
	if tr, ok := f.translations[id]; ok {
		return tr, nil
	}
	return &tmdb.Translations{ID: id}, nil
}

func (f *fakeSearcher) GetReleaseDates(_ context.Context, id int64) (*tmdb.ReleaseDates, error) {
	if rd, ok := f.releases[id]; ok {
		return rd, nil
	}
	return nil, errors.New("no release dates")
}

func regionTranslation(region, title string) tmdb.Translation {
	tr := tmdb.Translation{Region: region}
	tr.Data.Title = title
	return tr
}

func openCache(t *testing.T) *metacache.Store {
	t.Helper()
	store, err := metacache.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("metacache.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestResolvePrefersRegionTranslation(t *testing.T) {
	client := &fakeSearcher{
		results: map[int][]tmdb.Result{
			2003: {{ID: 670, Title: "Oldboy", OriginalTitle: "올드보이", ReleaseDate: "2003-11-21"}},
		},
		translations: map[int64]*tmdb.Translations{
			670: {ID: 670, Translations: []tmdb.Translation{regionTranslation("DE", "Oldboy (2003)"), regionTranslation("US", "Oldboy")}},
		},
		details: map[int64]*tmdb.MovieDetails{670: {ID: 670, IMDbID: "tt0364569"}},
	}
	cache := openCache(t)
	resolver := NewResolver(client, cache, ResolverOptions{Region: "US", ReleaseType: 3}, nil)

	res, err := resolver.Resolve(context.Background(), movie.Identity{Name: "Oldboy", Year: 2003})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Title != "Oldboy" || res.Year != 2003 {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if res.IMDbID != "tt0364569" {
		t.Fatalf("expected imdb id from details, got %q", res.IMDbID)
	}

	entry, ok, err := cache.LookupSource(context.Background(), "Oldboy", 2003)
	if err != nil || !ok {
		t.Fatalf("expected cache entry, ok=%v err=%v", ok, err)
	}
	if entry.TMDBID != 670 || entry.ResolvedReleaseDate != "2003-11-21" {
		t.Fatalf("unexpected cache entry %+v", entry)
	}
}

func TestResolveFallsBackToOriginalTitle(t *testing.T) {
	client := &fakeSearcher{
		results: map[int][]tmdb.Result{
			2001: {{ID: 129, Title: "Spirited Away", OriginalTitle: "千と千尋の神隠し", ReleaseDate: "2001-07-20"}},
		},
	}
	resolver := NewResolver(client, nil, ResolverOptions{Region: "FR"}, nil)

	res, err := resolver.Resolve(context.Background(), movie.Identity{Name: "Spirited Away", Year: 2001})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Title != "千と千尋の神隠し" {
		t.Fatalf("expected original title fallback, got %q", res.Title)
	}
}

func TestResolveUsesCacheWithoutNetwork(t *testing.T) {
	cache := openCache(t)
	if err := cache.Put(context.Background(), metacache.Entry{
		SourceTitle:         "Amélie",
		SourceYear:          2001,
		ResolvedTitle:       "Le Fabuleux Destin d'Amélie Poulain",
		ResolvedReleaseDate: "2001-04-25",
		TMDBID:              194,
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	client := &fakeSearcher{searchErr: errors.New("offline")}
	resolver := NewResolver(client, cache, ResolverOptions{Region: "US"}, nil)

	res, err := resolver.Resolve(context.Background(), movie.Identity{Name: "Amélie", Year: 2001})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Title != "Le Fabuleux Destin d'Amélie Poulain" || res.Year != 2001 {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if len(client.searches) != 0 {
		t.Fatalf("expected no tmdb searches, got %d", len(client.searches))
	}
}

func TestSearchRetriesWithoutYear(t *testing.T) {
	client := &fakeSearcher{
		results: map[int][]tmdb.Result{
			0: {{ID: 1, Title: "Stalker", ReleaseDate: "1979-05-25"}},
		},
	}
	resolver := NewResolver(client, nil, ResolverOptions{}, nil)

	got := resolver.Search(context.Background(), "Stalker", 1980)
	if len(got) != 1 || got[0].TMDBID != 1 {
		t.Fatalf("unexpected candidates %+v", got)
	}
	if len(client.searches) != 2 || client.searches[0].Year != 1980 || client.searches[1].Year != 0 {
		t.Fatalf("unexpected search sequence %+v", client.searches)
	}
}

func TestResolveNoCandidates(t *testing.T) {
	client := &fakeSearcher{searchErr: errors.New("boom")}
	resolver := NewResolver(client, nil, ResolverOptions{}, nil)

	_, err := resolver.Resolve(context.Background(), movie.Identity{Name: "Nothing", Year: 2020})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveWithoutReleaseYearIsNotCached(t *testing.T) {
	client := &fakeSearcher{
		results: map[int][]tmdb.Result{
			2030: {{ID: 9, Title: "Announced", ReleaseDate: ""}},
		},
	}
	cache := openCache(t)
	resolver := NewResolver(client, cache, ResolverOptions{}, nil)

	_, err := resolver.Resolve(context.Background(), movie.Identity{Name: "Announced", Year: 2030})
	if !errors.Is(err, ErrNoReleaseYear) {
		t.Fatalf("expected ErrNoReleaseYear, got %v", err)
	}
	count, err := cache.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cache, got %d entries", count)
	}
}

func TestReleaseDatePrefersRegionAndType(t *testing.T) {
	client := &fakeSearcher{
		results: map[int][]tmdb.Result{
			2024: {{ID: 5, Title: "Dune: Part Two", ReleaseDate: "2024-02-27"}},
		},
		releases: map[int64]*tmdb.ReleaseDates{
			5: {ID: 5, Results: []tmdb.CountryReleases{{
				Region: "US",
				ReleaseDates: []tmdb.ReleaseDate{
					{Type: 1, ReleaseDate: "2024-02-15T00:00:00.000Z"},
					{Type: 3, ReleaseDate: "2024-03-01T00:00:00.000Z"},
				},
			}}},
		},
	}
	resolver := NewResolver(client, nil, ResolverOptions{Region: "US", ReleaseType: 3}, nil)

	if got := resolver.ReleaseDate(context.Background(), movie.Identity{Name: "Dune: Part Two", Year: 2024}); got != "2024-03-01" {
		t.Fatalf("expected theatrical date, got %q", got)
	}

	resolver = NewResolver(client, nil, ResolverOptions{Region: "JP", ReleaseType: 3}, nil)
	if got := resolver.ReleaseDate(context.Background(), movie.Identity{Name: "Dune: Part Two", Year: 2024}); got != "2024-02-27" {
		t.Fatalf("expected primary date fallback, got %q", got)
	}
}
