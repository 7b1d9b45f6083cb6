package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelsync/internal/export"
	"reelsync/internal/identification"
	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/movie"
	"reelsync/internal/services"
	"reelsync/internal/stores"
)

// Resolver bridges export identities through an external metadata index.
type Resolver interface {
	Resolve(ctx context.Context, id movie.Identity) (identification.Resolution, error)
	ReleaseDate(ctx context.Context, id movie.Identity) string
}

// Chooser picks one of several candidates.
type Chooser interface {
	Choose(ctx context.Context, id movie.Identity, candidates []library.Item) (library.Item, bool, error)
}

// Options wires an Engine.
type Options struct {
	Library library.Searcher
	Stores  *stores.Set
	Chooser Chooser
	// Resolver enables bridged mode when non-nil.
	Resolver Resolver
	Now      func() time.Time
	Logger   *slog.Logger
}

// Engine classifies export rows against the library and keeps the stores
// current. Rows are processed strictly in order.
type Engine struct {
	library  library.Searcher
	stores   *stores.Set
	chooser  Chooser
	resolver Resolver
	now      func() time.Time
	logger   *slog.Logger
}

// New validates opts and returns an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Library == nil {
		return nil, services.Wrap(services.ErrConfiguration, "reconcile", "init", "library is required", nil)
	}
	if opts.Stores == nil {
		return nil, services.Wrap(services.ErrConfiguration, "reconcile", "init", "stores are required", nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Engine{
		library:  opts.Library,
		stores:   opts.Stores,
		chooser:  opts.Chooser,
		resolver: opts.Resolver,
		now:      opts.Now,
		logger:   logging.NewComponentLogger(opts.Logger, "reconcile"),
	}, nil
}

// Bridged reports whether rows are resolved through the metadata index.
func (e *Engine) Bridged() bool {
	return e.resolver != nil
}

// Run processes rows in order and saves the stores. Per-row failures degrade
// the row; only cancellation and configuration errors end the run early.
func (e *Engine) Run(ctx context.Context, run string, rows []export.Row) (Report, error) {
	runID := uuid.NewString()
	ctx = services.WithRunName(services.WithRunID(ctx, runID), run)
	logger := logging.WithContext(ctx, e.logger)

	report := Report{RunID: runID, Run: run, Results: make([]Result, 0, len(rows))}
	logger.Info("reconciliation started",
		logging.Int("rows", len(rows)),
		logging.Bool("bridged", e.Bridged()))
	start := time.Now()

	var runErr error
	for i, row := range rows {
		res, err := e.process(ctx, logger, i+1, len(rows), row)
		if err != nil {
			runErr = err
			break
		}
		report.Results = append(report.Results, res)
	}

	// Stores are saved even after an early stop so decisions made so far persist.
	saveCtx := context.WithoutCancel(ctx)
	if err := e.stores.Save(saveCtx); err != nil {
		logging.ErrorWithContext(logger, "failed to save stores", "store_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the data directory"))
		if runErr == nil {
			runErr = err
		}
	}

	logger.Info("reconciliation finished",
		logging.Int("processed", len(report.Results)),
		logging.Int(OutcomeMatched.String(), report.Count(OutcomeMatched)),
		logging.Int(OutcomeMissing.String(), report.Count(OutcomeMissing)),
		logging.Int(OutcomeIgnored.String(), report.Count(OutcomeIgnored)),
		logging.Int(OutcomeSkipped.String(), report.Count(OutcomeSkipped)),
		logging.Int(OutcomeDeclined.String(), report.Count(OutcomeDeclined)),
		logging.Duration("elapsed", time.Since(start)))
	return report, runErr
}

func (e *Engine) process(ctx context.Context, logger *slog.Logger, index, total int, row export.Row) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := Result{Row: row}
	name := strings.TrimSpace(row.Name)
	year := strings.TrimSpace(row.Year)
	if name == "" || year == "" {
		return e.skip(logger, res, "blank title or year"), nil
	}

	logger.Info("processing movie",
		logging.String("title", name),
		logging.String("year", year),
		logging.Int("index", index),
		logging.Int("total", total))

	source, err := row.Identity()
	if err != nil {
		return e.skip(logger, res, "invalid year"), nil
	}
	res.Source = source
	res.Identity = source
	if source.Year > e.now().Year() {
		return e.skip(logger, res, "unreleased"), nil
	}
	if e.stores.Ignore.Contains(source) {
		return e.skip(logger, res, "ignored"), nil
	}

	target := source
	if entry, ok := e.stores.Mapping.Lookup(source.Name); ok {
		target = entry.Apply(source)
		res.Identity = target
		if !target.Equal(source) {
			logger.Debug("applied title mapping",
				logging.String("source", source.String()),
				logging.String("target", target.String()))
		}
		if e.stores.Ignore.Contains(target) {
			return e.skip(logger, res, "ignored after mapping"), nil
		}
	}

	if e.resolver != nil {
		return e.processBridged(ctx, logger, res, target)
	}
	return e.processDirect(ctx, logger, res, target)
}

func (e *Engine) processDirect(ctx context.Context, logger *slog.Logger, res Result, target movie.Identity) (Result, error) {
	items, err := e.search(ctx, logger, target.Name, target.YearWindow())
	if err != nil {
		return Result{}, err
	}

	switch len(items) {
	case 0:
		shows, err := e.library.SearchShows(ctx, target.Name)
		if err != nil {
			if fatal(err) {
				return Result{}, err
			}
			logging.WarnWithContext(logger, "show search failed", "library_search_failed",
				logging.String("title", target.Name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "row recorded as missing"))
		}
		if len(shows) > 0 {
			res.Outcome = OutcomeIgnored
			res.Reason = "title is a show"
			if e.stores.Ignore.Add(target) {
				logger.Info("movie is a show, ignoring", logging.Movie(target))
			}
			return res, nil
		}
		return e.missing(logger, res, target, ""), nil
	case 1:
		return e.matched(logger, res, items[0], res.Source, target), nil
	default:
		return e.choose(ctx, logger, res, target, items, false)
	}
}

func (e *Engine) processBridged(ctx context.Context, logger *slog.Logger, res Result, target movie.Identity) (Result, error) {
	resolution, err := e.resolver.Resolve(ctx, target)
	if err != nil {
		if errors.Is(err, identification.ErrNoReleaseYear) {
			return e.skip(logger, res, "release year not yet known"), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		logger.Debug("tmdb resolution failed", logging.Movie(target), logging.Error(err))
		return e.missing(logger, res, target, e.releaseDate(ctx, target)), nil
	}
	resolved := resolution.Identity()
	res.Identity = resolved
	if !resolved.Equal(target) {
		logger.Info("bridged title",
			logging.String("source", target.String()),
			logging.String("resolved", resolved.String()),
			logging.Int64("tmdb_id", resolution.TMDBID))
	}

	items, err := e.search(ctx, logger, resolved.Name, nil)
	if err != nil {
		return Result{}, err
	}

	switch len(items) {
	case 0:
		return e.missing(logger, res, target, e.releaseDate(ctx, target)), nil
	case 1:
		return e.matched(logger, res, items[0], res.Source, target, resolved), nil
	}

	filtered := filterByGUID(items, resolution)
	switch len(filtered) {
	case 0:
		if item, ok := e.lookupGUID(ctx, logger, resolution); ok {
			return e.matched(logger, res, item, res.Source, target, resolved), nil
		}
		return e.missing(logger, res, target, e.releaseDate(ctx, target)), nil
	case 1:
		e.remember(ctx, logger, target, filtered[0])
		return e.matched(logger, res, filtered[0], res.Source, target, resolved), nil
	default:
		return e.choose(ctx, logger, res, target, filtered, true)
	}
}

func (e *Engine) choose(ctx context.Context, logger *slog.Logger, res Result, target movie.Identity, items []library.Item, bridged bool) (Result, error) {
	if e.chooser == nil {
		return e.declined(ctx, logger, res, target, bridged, "no selector configured")
	}
	chosen, ok, err := e.chooser.Choose(ctx, target, items)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return e.declined(ctx, logger, res, target, bridged, "no candidate chosen")
	}
	return e.matched(logger, res, chosen, res.Source, target, res.Identity), nil
}

// remember records an external-id confirmed pick among several candidates so
// later runs replay it like an operator choice.
func (e *Engine) remember(ctx context.Context, logger *slog.Logger, id movie.Identity, item library.Item) {
	if key, ok := e.stores.Disambiguation.Lookup(id); ok && key == item.Key {
		return
	}
	if err := e.stores.Disambiguation.Record(ctx, id, item.Key); err != nil {
		logging.WarnWithContext(logger, "failed to record guid confirmed choice", "disambiguation_record_failed",
			logging.Movie(id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the choice is not remembered for future runs"))
	}
}

func (e *Engine) declined(ctx context.Context, logger *slog.Logger, res Result, target movie.Identity, bridged bool, reason string) (Result, error) {
	if bridged {
		return e.missing(logger, res, target, e.releaseDate(ctx, target)), nil
	}
	res.Outcome = OutcomeDeclined
	res.Reason = reason
	logger.Info("row declined", logging.Movie(target), logging.String("reason", reason))
	return res, nil
}

func (e *Engine) search(ctx context.Context, logger *slog.Logger, title string, years []int) ([]library.Item, error) {
	items, err := e.library.SearchMovies(ctx, title, years)
	if err != nil {
		if fatal(err) {
			return nil, err
		}
		logging.WarnWithContext(logger, "library search failed", "library_search_failed",
			logging.String("title", title),
			logging.Error(err),
			logging.String(logging.FieldImpact, "treated as no results"))
		return nil, nil
	}
	return items, nil
}

func (e *Engine) lookupGUID(ctx context.Context, logger *slog.Logger, resolution identification.Resolution) (library.Item, bool) {
	guids := []string{library.TMDBGUID(resolution.TMDBID)}
	if resolution.IMDbID != "" {
		guids = append(guids, library.IMDbGUID(resolution.IMDbID))
	}
	for _, guid := range guids {
		item, ok, err := e.library.LookupByGUID(ctx, guid)
		if err != nil {
			logging.WarnWithContext(logger, "guid lookup failed", "library_guid_lookup_failed",
				logging.String("guid", guid),
				logging.Error(err),
				logging.String(logging.FieldImpact, "row may be recorded as missing"))
			continue
		}
		if ok {
			return item, true
		}
	}
	return library.Item{}, false
}

func (e *Engine) releaseDate(ctx context.Context, id movie.Identity) string {
	if e.resolver == nil {
		return ""
	}
	if e.stores.Missing.Contains(id) && !e.stores.Missing.NeedsReleaseDate(id) {
		return ""
	}
	return e.resolver.ReleaseDate(ctx, id)
}

func (e *Engine) skip(logger *slog.Logger, res Result, reason string) Result {
	res.Outcome = OutcomeSkipped
	res.Reason = reason
	logger.Debug("row skipped",
		logging.String("title", res.Row.Name),
		logging.String("year", res.Row.Year),
		logging.String("reason", reason))
	return res
}

func (e *Engine) missing(logger *slog.Logger, res Result, id movie.Identity, releaseDate string) Result {
	res.Outcome = OutcomeMissing
	res.Reason = "not in library"
	if !e.stores.Missing.Add(id, releaseDate) {
		if e.stores.Missing.Backfill(id, releaseDate) {
			logger.Debug("backfilled release date", logging.Movie(id), logging.String("release_date", releaseDate))
		}
	}
	logger.Info("movie not in library", logging.Movie(id))
	return res
}

func (e *Engine) matched(logger *slog.Logger, res Result, item library.Item, ids ...movie.Identity) Result {
	res.Outcome = OutcomeMatched
	res.Item = item
	e.stores.Missing.Remove(ids...)
	logger.Info("movie matched",
		logging.Movie(res.Identity),
		logging.String("item", item.Label()),
		logging.String("key", item.Key))
	return res
}

func filterByGUID(items []library.Item, resolution identification.Resolution) []library.Item {
	tmdbGUID := library.TMDBGUID(resolution.TMDBID)
	imdbGUID := ""
	if resolution.IMDbID != "" {
		imdbGUID = library.IMDbGUID(resolution.IMDbID)
	}
	var out []library.Item
	for _, item := range items {
		if item.HasGUID(tmdbGUID) || (imdbGUID != "" && item.HasGUID(imdbGUID)) {
			out = append(out, item)
		}
	}
	return out
}

func fatal(err error) bool {
	return services.IsFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
