package stores_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsync/internal/movie"
	"reelsync/internal/services"
	"reelsync/internal/stores"
)

var oldboy = movie.Identity{Name: "Oldboy", Year: 2003}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestIgnoreListAddGuardsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), stores.IgnoreFile)
	list, err := stores.LoadIgnoreList(path, nil)
	if err != nil {
		t.Fatalf("LoadIgnoreList: %v", err)
	}
	if !list.Add(oldboy) {
		t.Fatal("expected first add to change the list")
	}
	if list.Add(oldboy) {
		t.Fatal("expected duplicate add to be rejected")
	}
	if !list.Contains(oldboy) {
		t.Fatal("expected identity to be ignored")
	}
	if list.Contains(oldboy.WithYear(2013)) {
		t.Fatal("a different year is a different identity")
	}
}

func TestIgnoreListSaveMergesConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), stores.IgnoreFile)

	first, err := stores.LoadIgnoreList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := stores.LoadIgnoreList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	first.Add(movie.Identity{Name: "Chernobyl", Year: 2019})
	second.Add(movie.Identity{Name: "Band of Brothers", Year: 2001})

	if err := first.Save(ctx); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := second.Save(ctx); err != nil {
		t.Fatalf("second save: %v", err)
	}

	reloaded, err := stores.LoadIgnoreList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("expected both appends to survive, got %v", reloaded.Entries())
	}
}

func TestIgnoreListReadsStringYears(t *testing.T) {
	path := filepath.Join(t.TempDir(), stores.IgnoreFile)
	writeFile(t, path, `[{"name": "Oldboy", "year": "2003"}]`)
	list, err := stores.LoadIgnoreList(path, nil)
	if err != nil {
		t.Fatalf("LoadIgnoreList: %v", err)
	}
	if !list.Contains(oldboy) {
		t.Fatalf("expected string year to match numeric identity, entries=%v", list.Entries())
	}
}

func TestMissingListIdempotentAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), stores.MissingFile)

	for run := range 2 {
		list, err := stores.LoadMissingList(path, nil)
		if err != nil {
			t.Fatalf("run %d load: %v", run, err)
		}
		list.Add(oldboy, "")
		if err := list.Save(ctx); err != nil {
			t.Fatalf("run %d save: %v", run, err)
		}
	}

	list, err := stores.LoadMissingList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if list.Len() != 1 {
		t.Fatalf("expected a single entry, got %v", list.Entries())
	}
}

func TestMissingListSaveMergesConcurrentRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), stores.MissingFile)
	heat := movie.Identity{Name: "Heat", Year: 1995}
	dune := movie.Identity{Name: "Dune", Year: 2021}
	writeFile(t, path, `[{"name": "Dune", "year": 2021, "release_date": null}]`)

	watchlist, err := stores.LoadMissingList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	rating, err := stores.LoadMissingList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	watchlist.Add(heat, "1995-12-15")
	rating.Add(oldboy, "")
	rating.Backfill(dune, "2021-10-22")
	if err := watchlist.Save(ctx); err != nil {
		t.Fatalf("watchlist save: %v", err)
	}
	if err := rating.Save(ctx); err != nil {
		t.Fatalf("rating save: %v", err)
	}

	reloaded, err := stores.LoadMissingList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []movie.Identity{dune, heat, oldboy} {
		if !reloaded.Contains(id) {
			t.Fatalf("expected %s on disk, got %+v", id, reloaded.Entries())
		}
	}
	if reloaded.NeedsReleaseDate(dune) {
		t.Fatal("expected backfilled release date to persist")
	}

	watchlist.Remove(dune)
	if err := watchlist.Save(ctx); err != nil {
		t.Fatalf("second save: %v", err)
	}
	reloaded, err = stores.LoadMissingList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Contains(dune) || reloaded.Len() != 2 {
		t.Fatalf("expected removal to persist and others kept, got %+v", reloaded.Entries())
	}
}

func TestMissingListRemoveAndBackfill(t *testing.T) {
	path := filepath.Join(t.TempDir(), stores.MissingFile)
	list, err := stores.LoadMissingList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	heat := movie.Identity{Name: "Heat", Year: 1995}
	list.Add(oldboy, "")
	list.Add(heat, "1995-12-15")

	if !list.NeedsReleaseDate(oldboy) {
		t.Fatal("expected oldboy to need a release date")
	}
	if !list.Backfill(oldboy, "2003-11-21") {
		t.Fatal("expected backfill to apply")
	}
	if list.Backfill(heat, "2000-01-01") {
		t.Fatal("backfill must not overwrite an existing date")
	}
	if removed := list.Remove(oldboy, movie.Identity{Name: "Unknown", Year: 1}); removed != 1 {
		t.Fatalf("expected one removal, got %d", removed)
	}
	entries := list.Entries()
	if len(entries) != 1 || entries[0].Name != "Heat" || *entries[0].ReleaseDate != "1995-12-15" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestMissingListWritesStableFields(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), stores.MissingFile)
	list, err := stores.LoadMissingList(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	list.Add(oldboy, "")
	if err := list.Save(ctx); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, fragment := range []string{`"name": "Oldboy"`, `"year": 2003`, `"release_date": null`} {
		if !strings.Contains(string(data), fragment) {
			t.Fatalf("expected %s in %s", fragment, data)
		}
	}
}

func TestMappingTableLegacyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), stores.MappingFile)
	writeFile(t, path, `[
  {"letterboxd_title": "Old Boy", "plex_title": "Oldboy"},
  {"source_title": "Heat", "target_title": "Heat", "target_year": -1},
  {"source_title": "Solaris", "target_title": "Solyaris", "target_year": 1972}
]`)
	table, err := stores.LoadMappingTable(path, nil)
	if err != nil {
		t.Fatalf("LoadMappingTable: %v", err)
	}
	entry, ok := table.Lookup("Old Boy")
	if !ok {
		t.Fatal("expected legacy entry to load")
	}
	if got := entry.Apply(movie.Identity{Name: "Old Boy", Year: 2003}); !got.Equal(oldboy) {
		t.Fatalf("unexpected remap %v", got)
	}
	heat, _ := table.Lookup("Heat")
	if got := heat.Apply(movie.Identity{Name: "Heat", Year: 1995}); got.Year != 1995 {
		t.Fatalf("year -1 must keep the original year, got %v", got)
	}
	solaris, _ := table.Lookup("Solaris")
	if got := solaris.Apply(movie.Identity{Name: "Solaris", Year: 1971}); got.Name != "Solyaris" || got.Year != 1972 {
		t.Fatalf("unexpected remap %v", got)
	}
	if _, ok := table.Lookup("heat"); ok {
		t.Fatal("lookup must be exact")
	}
}

func TestDisambiguationCacheWritesThrough(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), stores.DisambiguationFile)
	cache, err := stores.LoadDisambiguationCache(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Record(ctx, oldboy, "/library/metadata/11"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	reloaded, err := stores.LoadDisambiguationCache(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	key, ok := reloaded.Lookup(oldboy)
	if !ok || key != "/library/metadata/11" {
		t.Fatalf("expected persisted decision, got %q %v", key, ok)
	}
	if _, ok := reloaded.Lookup(oldboy.WithYear(2013)); ok {
		t.Fatal("lookup must key on year too")
	}
}

func TestDisambiguationCacheNewestDecisionWins(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), stores.DisambiguationFile)
	first, err := stores.LoadDisambiguationCache(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := stores.LoadDisambiguationCache(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	heat := movie.Identity{Name: "Heat", Year: 1995}
	if err := first.Record(ctx, oldboy, "/library/metadata/7"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Record(ctx, heat, "/library/metadata/30"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := second.Record(ctx, oldboy, "/library/metadata/11"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	reloaded, err := stores.LoadDisambiguationCache(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	entries := reloaded.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected one entry per identity, got %+v", entries)
	}
	if key, _ := reloaded.Lookup(oldboy); key != "/library/metadata/11" {
		t.Fatalf("expected newest decision, got %q", key)
	}
	if key, _ := reloaded.Lookup(heat); key != "/library/metadata/30" {
		t.Fatalf("expected other writer's decision kept, got %q", key)
	}
}

func TestDisambiguationCacheLegacyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), stores.DisambiguationFile)
	writeFile(t, path, `[{"combination": {"name": "Oldboy", "year": "2003"}, "movie_to_prefer_key": "/library/metadata/7"}]`)
	cache, err := stores.LoadDisambiguationCache(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if key, ok := cache.Lookup(oldboy); !ok || key != "/library/metadata/7" {
		t.Fatalf("expected legacy key, got %q %v", key, ok)
	}
}

func TestLoadSetRejectsMalformedStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, stores.MissingFile), `{"name": `)
	_, err := stores.LoadSet(func(name string) string { return filepath.Join(dir, name) }, nil)
	if err == nil {
		t.Fatal("expected error for malformed store")
	}
	if !errors.Is(err, services.ErrConfiguration) || !services.IsFatal(err) {
		t.Fatalf("expected fatal configuration error, got %v", err)
	}
}
