package identification

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"reelsync/internal/identification/tmdb"
	"reelsync/internal/logging"
	"reelsync/internal/metacache"
	"reelsync/internal/movie"
	"reelsync/internal/services"
)

// ErrNoReleaseYear marks a resolution whose release date carries no year.
// The row cannot be searched yet and is skipped rather than recorded missing.
var ErrNoReleaseYear = errors.New("resolved movie has no release year")

// Cache is the persistence used to short-circuit TMDB lookups.
type Cache interface {
	LookupSource(ctx context.Context, title string, year int) (metacache.Entry, bool, error)
	LookupResolved(ctx context.Context, title, releaseDate string) (metacache.Entry, bool, error)
	LookupIMDbID(ctx context.Context, tmdbID int64) (string, bool, error)
	Put(ctx context.Context, entry metacache.Entry) error
}

// Candidate is one TMDB match for an export title.
type Candidate struct {
	TMDBID        int64
	Title         string
	OriginalTitle string
	ReleaseDate   string
	IMDbID        string
	// Cached marks candidates served from the local cache; their Title is
	// already the preferred library-facing title.
	Cached bool
}

// Resolution is the library-facing identity of an export row.
type Resolution struct {
	Title       string
	Year        int
	ReleaseDate string
	TMDBID      int64
	IMDbID      string
}

// Identity returns the resolved (title, year) pair.
func (r Resolution) Identity() movie.Identity {
	return movie.Identity{Name: r.Title, Year: r.Year}
}

// ResolverOptions tunes region-dependent lookups.
type ResolverOptions struct {
	// Region is the ISO 3166-1 code whose translated title the library uses.
	Region string
	// ReleaseType is the TMDB release type used for missing-entry dates.
	ReleaseType int
}

// Resolver bridges export titles to TMDB titles and release years.
type Resolver struct {
	client tmdb.Searcher
	cache  Cache
	opts   ResolverOptions
	logger *slog.Logger
}

// NewResolver builds a resolver. A nil cache disables caching.
func NewResolver(client tmdb.Searcher, cache Cache, opts ResolverOptions, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		client: client,
		cache:  cache,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "tmdb_resolver"),
	}
}

// Search returns TMDB candidates for title. A cached resolution for the exact
// (title, year) pair is returned as the only candidate. Request failures
// degrade to an empty result; a year-scoped search that finds nothing is
// retried once without the year.
func (r *Resolver) Search(ctx context.Context, title string, year int) []Candidate {
	if cached, ok := r.cachedSource(ctx, title, year); ok {
		return []Candidate{cached}
	}

	candidates := r.search(ctx, title, year)
	if len(candidates) == 0 && year > 0 {
		r.logger.Debug("broadening tmdb search without year",
			logging.String("title", title),
			logging.Int("year", year))
		candidates = r.search(ctx, title, 0)
	}
	return candidates
}

// PreferredTitle picks the title the library is expected to use: a cached
// resolution, else the translation for the configured region, else the
// original title.
func (r *Resolver) PreferredTitle(ctx context.Context, c Candidate) string {
	if c.Cached {
		return c.Title
	}
	if r.cache != nil {
		entry, ok, err := r.cache.LookupResolved(ctx, c.Title, c.ReleaseDate)
		if err != nil {
			r.logger.Debug("tmdb cache lookup failed", logging.Error(err))
		} else if ok && entry.ResolvedTitle != "" {
			return entry.ResolvedTitle
		}
	}

	fallback := c.OriginalTitle
	if fallback == "" {
		fallback = c.Title
	}
	translations, err := r.client.GetMovieTranslations(ctx, c.TMDBID)
	if err != nil {
		logging.WarnWithContext(r.logger, "tmdb translations unavailable", "tmdb_translations_failed",
			logging.Int64("tmdb_id", c.TMDBID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "falling back to the original title"))
		return fallback
	}
	tr, ok := translations.ForRegion(r.opts.Region)
	if !ok || strings.TrimSpace(tr.Data.Title) == "" {
		return fallback
	}
	return tr.Data.Title
}

// Resolve maps an export identity to its library-facing title and year and
// caches the result under the export pair. It returns an error wrapping
// services.ErrNotFound when TMDB has no candidates and ErrNoReleaseYear when
// the match has no usable release date.
func (r *Resolver) Resolve(ctx context.Context, id movie.Identity) (Resolution, error) {
	candidates := r.Search(ctx, id.Name, id.Year)
	if len(candidates) == 0 {
		return Resolution{}, services.Wrap(services.ErrNotFound, "tmdb_resolver", "resolve", id.String(), nil)
	}
	best := candidates[0]

	res := Resolution{TMDBID: best.TMDBID, ReleaseDate: best.ReleaseDate, IMDbID: best.IMDbID}
	if best.Cached {
		res.Title = best.Title
	} else {
		res.Title = r.PreferredTitle(ctx, best)
	}
	res.Year = yearPrefix(res.ReleaseDate)
	if res.Year == 0 {
		return res, ErrNoReleaseYear
	}

	if !best.Cached {
		if res.IMDbID == "" {
			res.IMDbID = r.imdbID(ctx, best.TMDBID)
		}
		r.store(ctx, id, res)
	}

	r.logger.Debug("resolved via tmdb",
		logging.String("source", id.String()),
		logging.String("resolved", res.Identity().String()),
		logging.Int64("tmdb_id", res.TMDBID))
	return res, nil
}

// ReleaseDate returns a best-effort release date for an unmatched identity:
// the configured region and release type first, then the primary release
// date. Failures yield an empty string.
func (r *Resolver) ReleaseDate(ctx context.Context, id movie.Identity) string {
	candidates := r.Search(ctx, id.Name, id.Year)
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	dates, err := r.client.GetReleaseDates(ctx, best.TMDBID)
	if err != nil {
		r.logger.Debug("tmdb release dates unavailable",
			logging.Int64("tmdb_id", best.TMDBID),
			logging.Error(err))
		return best.ReleaseDate
	}
	if date, ok := dates.Find(r.opts.Region, r.opts.ReleaseType); ok {
		return date
	}
	return best.ReleaseDate
}

func (r *Resolver) search(ctx context.Context, title string, year int) []Candidate {
	resp, err := r.client.SearchMovieWithOptions(ctx, title, tmdb.SearchOptions{Year: year})
	if err != nil {
		logging.WarnWithContext(r.logger, "tmdb search failed", "tmdb_search_failed",
			logging.String("title", title),
			logging.Int("year", year),
			logging.Error(err),
			logging.String(logging.FieldImpact, "treated as no results"))
		return nil
	}
	if resp == nil {
		return nil
	}
	out := make([]Candidate, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.ID <= 0 {
			continue
		}
		out = append(out, Candidate{
			TMDBID:        result.ID,
			Title:         result.Title,
			OriginalTitle: result.OriginalTitle,
			ReleaseDate:   result.ReleaseDate,
		})
	}
	return out
}

func (r *Resolver) cachedSource(ctx context.Context, title string, year int) (Candidate, bool) {
	if r.cache == nil {
		return Candidate{}, false
	}
	entry, ok, err := r.cache.LookupSource(ctx, title, year)
	if err != nil {
		r.logger.Debug("tmdb cache lookup failed", logging.Error(err))
		return Candidate{}, false
	}
	if !ok {
		return Candidate{}, false
	}
	return Candidate{
		TMDBID:      entry.TMDBID,
		Title:       entry.ResolvedTitle,
		ReleaseDate: entry.ResolvedReleaseDate,
		IMDbID:      entry.IMDbID,
		Cached:      true,
	}, true
}

func (r *Resolver) imdbID(ctx context.Context, tmdbID int64) string {
	if r.cache != nil {
		if imdb, ok, err := r.cache.LookupIMDbID(ctx, tmdbID); err == nil && ok {
			return imdb
		}
	}
	details, err := r.client.GetMovieDetails(ctx, tmdbID)
	if err != nil {
		r.logger.Debug("tmdb details unavailable", logging.Int64("tmdb_id", tmdbID), logging.Error(err))
		return ""
	}
	return details.IMDbID
}

func (r *Resolver) store(ctx context.Context, id movie.Identity, res Resolution) {
	if r.cache == nil {
		return
	}
	err := r.cache.Put(ctx, metacache.Entry{
		SourceTitle:         id.Name,
		SourceYear:          id.Year,
		ResolvedTitle:       res.Title,
		ResolvedReleaseDate: res.ReleaseDate,
		TMDBID:              res.TMDBID,
		IMDbID:              res.IMDbID,
	})
	if err != nil {
		logging.WarnWithContext(r.logger, "tmdb cache write failed", "tmdb_cache_write_failed",
			logging.Movie(id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the next run repeats the lookup"))
	}
}

func yearPrefix(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := movie.ParseYear(date[:4])
	if err != nil {
		return 0
	}
	return year
}
