package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelsync/internal/api"
	"reelsync/internal/config"
	"reelsync/internal/library"
	"reelsync/internal/movie"
	"reelsync/internal/selector"
	"reelsync/internal/stores"
	"reelsync/internal/testsupport"
)

type pingableLibrary struct {
	*testsupport.Library
}

func (pingableLibrary) Ping(context.Context) error { return nil }

type cliTestEnv struct {
	base       string
	configPath string
	dataDir    string
	exportDir  string
	lib        *testsupport.Library
}

func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		base:       base,
		configPath: filepath.Join(base, "config.toml"),
		dataDir:    filepath.Join(base, "data"),
		exportDir:  filepath.Join(base, "export"),
		lib:        testsupport.NewLibrary(),
	}
	contents := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
export_dir = %q

[plex]
url = "http://127.0.0.1:32400"
token = "test"

[logging]
level = "error"

%s
`, env.dataDir, filepath.Join(base, "logs"), env.exportDir, extra)
	if err := os.WriteFile(env.configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommandWith(func(ctx *commandContext) {
		ctx.stdin = strings.NewReader("")
		ctx.stdinTTY = func() bool { return false }
		ctx.newLibrary = func(*config.Config, *slog.Logger) (serverLibrary, error) {
			return pingableLibrary{e.lib}, nil
		}
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reelsync", "config.toml")
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[selection]") {
		t.Fatalf("sample config missing selection section")
	}

	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
}

func TestWatchlistCommandPublishesPlaylist(t *testing.T) {
	env := setupCLITestEnv(t, "[selection]\nmode = \"decline\"\n")
	env.lib.MovieItems = []library.Item{{Key: "101", Title: "Oldboy", Year: 2003}}
	testsupport.WriteCSV(t, filepath.Join(env.exportDir, "watchlist.csv"),
		[]string{"Date", "Name", "Year", "Letterboxd URI"},
		[]string{"2024-01-01", "Oldboy", "2003", "https://boxd.it/1"},
		[]string{"2024-01-02", "Heat", "1995", "https://boxd.it/2"},
	)

	out, err := env.run(t, "watchlist")
	if err != nil {
		t.Fatalf("watchlist: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 matched, 1 missing") {
		t.Fatalf("unexpected summary: %s", out)
	}
	playlist := env.lib.Playlists["Letterboxd Watchlist"]
	if len(playlist) != 1 || playlist[0].Key != "101" {
		t.Fatalf("unexpected playlist %+v", playlist)
	}

	missing, err := stores.LoadMissingList(filepath.Join(env.dataDir, stores.MissingFile), nil)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if !missing.Contains(movie.Identity{Name: "Heat", Year: 1995}) || missing.Len() != 1 {
		t.Fatalf("unexpected missing list %+v", missing.Entries())
	}

	out, err = env.run(t, "missing")
	if err != nil {
		t.Fatalf("missing: %v", err)
	}
	if !strings.Contains(out, "Heat") || !strings.Contains(out, "1995") {
		t.Fatalf("missing table lacks entry: %s", out)
	}
}

func TestWatchlistCommandRequiresExport(t *testing.T) {
	env := setupCLITestEnv(t, "")
	if _, err := env.run(t, "watchlist"); err == nil {
		t.Fatal("expected error without an export file")
	}
}

func TestRatingCommandRatesMatchedItems(t *testing.T) {
	env := setupCLITestEnv(t, "[selection]\nmode = \"decline\"\n")
	env.lib.MovieItems = []library.Item{{Key: "101", Title: "Oldboy", Year: 2003}}
	testsupport.WriteCSV(t, filepath.Join(env.exportDir, "ratings.csv"),
		[]string{"Date", "Name", "Year", "Letterboxd URI", "Rating"},
		[]string{"2024-01-01", "Oldboy", "2003", "https://boxd.it/1", "4.5"},
	)

	if out, err := env.run(t, "rating"); err != nil {
		t.Fatalf("rating: %v\n%s", err, out)
	}
	if got := env.lib.Ratings["101"]; got != 9 {
		t.Fatalf("expected rating 9, got %d", got)
	}

	env.lib.Ratings = map[string]int{}
	if out, err := env.run(t, "rating"); err != nil {
		t.Fatalf("second rating run: %v\n%s", err, out)
	}
	if len(env.lib.Ratings) != 0 {
		t.Fatalf("cached rating should not be pushed again, got %+v", env.lib.Ratings)
	}
}

func TestOwnedCommandWritesCSV(t *testing.T) {
	env := setupCLITestEnv(t, "")
	env.lib.MovieItems = []library.Item{
		{Key: "101", Title: "Oldboy", Year: 2003, GUIDs: []string{"imdb://tt0364569"}},
		{Key: "102", Title: "Heat", Year: 1995},
	}
	target := filepath.Join(env.base, "owned.csv")
	out, err := env.run(t, "owned", "--output", target)
	if err != nil {
		t.Fatalf("owned: %v", err)
	}
	if !strings.Contains(out, "Wrote 1 movies") {
		t.Fatalf("unexpected output %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read owned: %v", err)
	}
	if !strings.Contains(string(data), "Oldboy,tt0364569") {
		t.Fatalf("unexpected csv %q", data)
	}
}

func TestRunLockRejectsSecondProcess(t *testing.T) {
	env := setupCLITestEnv(t, "")
	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	lock, err := acquireRunLock(cfg)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := env.run(t, "watchlist"); err == nil || !strings.Contains(err.Error(), "another reelsync process") {
		t.Fatalf("expected lock contention error, got %v", err)
	}
}

func TestPendingListsRemoteSelections(t *testing.T) {
	registry := selector.NewRegistry()
	session := selector.NewSession("watchlist", time.Minute, nil)
	registry.Add(session)
	srv := httptest.NewServer(api.NewServer("127.0.0.1:0", "secret", registry, nil).Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_, _, _ = session.Prompt(ctx, movie.Identity{Name: "Oldboy", Year: 2003}, []library.Item{
			{Key: "101", Title: "Oldboy", Year: 2003},
			{Key: "102", Title: "Oldboy", Year: 2003, Edition: "Director's Cut"},
		})
	}()
	deadline := time.Now().Add(2 * time.Second)
	for session.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("request never became pending")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bind := strings.TrimPrefix(srv.URL, "http://")
	env := setupCLITestEnv(t, fmt.Sprintf("[selection]\napi_bind = %q\napi_token = \"secret\"\n", bind))
	out, err := env.run(t, "pending")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if !strings.Contains(out, "Oldboy (2003)") || !strings.Contains(out, "Director's Cut") {
		t.Fatalf("unexpected pending output: %s", out)
	}
}

func TestNormalizePipelines(t *testing.T) {
	runs, err := normalizePipelines([]string{"Rating", "watchlist", "rating"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(runs) != 2 || runs[0] != runRating || runs[1] != runWatchlist {
		t.Fatalf("unexpected runs %v", runs)
	}
	if _, err := normalizePipelines([]string{"owned"}); err == nil {
		t.Fatal("expected error for unknown pipeline")
	}
}

func TestDialAddress(t *testing.T) {
	if got := dialAddress(":7488"); got != "127.0.0.1:7488" {
		t.Fatalf("dialAddress(:7488) = %q", got)
	}
	if got := dialAddress("10.0.0.2:7488"); got != "10.0.0.2:7488" {
		t.Fatalf("dialAddress kept host = %q", got)
	}
}

func TestTableViewPadsRowsAndCaptions(t *testing.T) {
	out := tableView{
		headers: []string{"Title", "Year"},
		aligns:  []columnAlignment{alignLeft, alignRight},
		rows:    [][]string{{"Heat"}},
		caption: "1 missing",
	}.render()
	if !strings.Contains(out, "Heat") || !strings.Contains(out, "1 missing") {
		t.Fatalf("unexpected table %q", out)
	}
	if (tableView{}).render() != "" {
		t.Fatal("empty view should render nothing")
	}
}

func TestConfigValidateReportsReadiness(t *testing.T) {
	env := setupCLITestEnv(t, "")
	testsupport.WriteCSV(t, filepath.Join(env.exportDir, "watchlist.csv"), []string{"Date", "Name", "Year", "Letterboxd URI"})

	out, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	for _, want := range []string{"Export watchlist.csv: ok", "Export ratings.csv: not found", "TMDB bridging: disabled", "Configuration valid"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
