package metacache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is a cached TMDB resolution.
type Entry struct {
	SourceTitle         string
	SourceYear          int
	ResolvedTitle       string
	ResolvedReleaseDate string
	TMDBID              int64
	IMDbID              string
	CreatedAt           time.Time
}

// Store manages cache persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the cache database and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// timeLayout sorts lexicographically, which Invalidate relies on.
const timeLayout = "2006-01-02T15:04:05.000Z"

const entryColumns = `source_title, source_year, resolved_title, resolved_release_date, tmdb_id, imdb_id, created_at`

// LookupSource returns the resolution cached for an export (title, year) pair.
func (s *Store) LookupSource(ctx context.Context, title string, year int) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM tmdb_cache WHERE source_title = ? AND source_year = ?`,
		title, year)
	return scanEntry(row)
}

// LookupResolved returns a resolution by its canonical (title, release date) pair.
func (s *Store) LookupResolved(ctx context.Context, title, releaseDate string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM tmdb_cache WHERE resolved_title = ? AND resolved_release_date = ? ORDER BY id LIMIT 1`,
		title, releaseDate)
	return scanEntry(row)
}

// LookupIMDbID returns the IMDb identifier cached for a TMDB id.
func (s *Store) LookupIMDbID(ctx context.Context, tmdbID int64) (string, bool, error) {
	var imdb sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT imdb_id FROM tmdb_cache WHERE tmdb_id = ? AND imdb_id IS NOT NULL AND imdb_id != '' ORDER BY id LIMIT 1`,
		tmdbID).Scan(&imdb)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup imdb id: %w", err)
	}
	return imdb.String, imdb.Valid, nil
}

// Put stores a resolution keyed by its source pair. An existing row for the
// same source pair is left untouched.
func (s *Store) Put(ctx context.Context, entry Entry) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tmdb_cache (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_title, source_year) DO NOTHING`,
		entry.SourceTitle,
		entry.SourceYear,
		entry.ResolvedTitle,
		entry.ResolvedReleaseDate,
		entry.TMDBID,
		nullableString(entry.IMDbID),
		created.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert tmdb cache entry: %w", err)
	}
	return nil
}

// Invalidate deletes rows older than the given number of days and reports how
// many were removed.
func (s *Store) Invalidate(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("invalidate: days must be positive, got %d", days)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM tmdb_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("invalidate tmdb cache: %w", err)
	}
	return res.RowsAffected()
}

// Flush deletes every cached resolution and rating.
func (s *Store) Flush(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []string{"tmdb_cache", "rating_cache"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table)
		if err != nil {
			return total, fmt.Errorf("flush %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Count returns the number of cached resolutions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tmdb_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tmdb cache: %w", err)
	}
	return n, nil
}

// HasRating reports whether rating was already issued for title.
func (s *Store) HasRating(ctx context.Context, title string, rating int) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM rating_cache WHERE title = ? AND rating = ?`, title, rating).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup rating cache: %w", err)
	}
	return n > 0, nil
}

// RecordRating remembers that rating was issued for title.
func (s *Store) RecordRating(ctx context.Context, title string, rating int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rating_cache (title, rating, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(title, rating) DO NOTHING`,
		title, rating, s.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record rating: %w", err)
	}
	return nil
}

func scanEntry(row *sql.Row) (Entry, bool, error) {
	var (
		entry   Entry
		imdb    sql.NullString
		created string
	)
	err := row.Scan(
		&entry.SourceTitle,
		&entry.SourceYear,
		&entry.ResolvedTitle,
		&entry.ResolvedReleaseDate,
		&entry.TMDBID,
		&imdb,
		&created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("scan tmdb cache entry: %w", err)
	}
	entry.IMDbID = imdb.String
	if ts, parseErr := time.Parse(timeLayout, created); parseErr == nil {
		entry.CreatedAt = ts
	}
	return entry, true, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
