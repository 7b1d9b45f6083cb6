package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelsync/internal/config"
)

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	t.Setenv("PLEX_TOKEN", "plex-token")
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".local", "share", "reelsync"); cfg.Paths.DataDir != want {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, want)
	}
	if cfg.Plex.Token != "plex-token" {
		t.Fatalf("expected plex token from env, got %q", cfg.Plex.Token)
	}
	if cfg.TMDB.APIKey != "tmdb-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Watchlist.Mode != config.WatchlistModePlaylist {
		t.Fatalf("unexpected watchlist mode %q", cfg.Watchlist.Mode)
	}
	if cfg.Selection.Mode != config.SelectionModeAuto {
		t.Fatalf("unexpected selection mode %q", cfg.Selection.Mode)
	}
	if cfg.TMDB.ReleaseType != config.ReleaseTypeTheatrical {
		t.Fatalf("unexpected release type %v", cfg.TMDB.ReleaseType)
	}
	if got := cfg.StorePath("ignore.json"); got != filepath.Join(cfg.Paths.DataDir, "ignore.json") {
		t.Fatalf("unexpected store path %q", got)
	}
	if err := cfg.RequirePlex(); err != nil {
		t.Fatalf("RequirePlex: %v", err)
	}
}

func TestLoadCustomPathParsesSections(t *testing.T) {
	t.Setenv("PLEX_TOKEN", "")
	t.Setenv("TMDB_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `[paths]
data_dir = "~/state"
export_dir = "~/exports"

[plex]
url = "http://plex.local:32400/"
token = "abc"

[watchlist]
mode = "BUILTIN"
stop_words = ["the", " ", "der"]

[tmdb]
enabled = true
api_key = "key"
release_type = "digital"
region = "de"

[selection]
mode = "deferred"
timeout_seconds = 60
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Plex.URL != "http://plex.local:32400" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Plex.URL)
	}
	if cfg.Watchlist.Mode != config.WatchlistModeBuiltin {
		t.Fatalf("expected builtin mode, got %q", cfg.Watchlist.Mode)
	}
	if len(cfg.Watchlist.StopWords) != 2 || cfg.Watchlist.StopWords[1] != "der" {
		t.Fatalf("unexpected stop words %v", cfg.Watchlist.StopWords)
	}
	if cfg.TMDB.ReleaseType != config.ReleaseTypeDigital {
		t.Fatalf("unexpected release type %v", cfg.TMDB.ReleaseType)
	}
	if cfg.TMDB.Region != "DE" {
		t.Fatalf("expected upper-cased region, got %q", cfg.TMDB.Region)
	}
	if cfg.Selection.Mode != config.SelectionModeDeferred {
		t.Fatalf("unexpected selection mode %q", cfg.Selection.Mode)
	}
}

func TestLoadRejectsUnknownEnums(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cases := map[string]string{
		"watchlist": "[watchlist]\nmode = \"queue\"\n",
		"selection": "[selection]\nmode = \"web\"\n",
		"release":   "[tmdb]\nrelease_type = \"Release.THEATRICAL\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected error for unknown enum value")
			}
		})
	}
}

func TestValidateRequiresTMDBKeyWhenEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.TMDB.Enabled = true
	cfg.TMDB.APIKey = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("expected tmdb.api_key error, got %v", err)
	}
}

func TestRequirePlexReportsMissingToken(t *testing.T) {
	cfg := config.Default()
	cfg.Plex.Token = ""
	if err := cfg.RequirePlex(); err == nil || !strings.Contains(err.Error(), "PLEX_TOKEN") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.TMDB.ReleaseType != config.ReleaseTypeTheatrical {
		t.Fatalf("unexpected sample release type %v", cfg.TMDB.ReleaseType)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config fails Load: %v", err)
	}
}
