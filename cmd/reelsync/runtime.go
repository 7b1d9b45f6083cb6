package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"reelsync/internal/config"
	"reelsync/internal/export"
	"reelsync/internal/identification"
	"reelsync/internal/identification/tmdb"
	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/metacache"
	"reelsync/internal/publish"
	"reelsync/internal/reconcile"
	"reelsync/internal/selector"
	"reelsync/internal/services"
	"reelsync/internal/services/plex"
	"reelsync/internal/stores"
)

const (
	runWatchlist = "watchlist"
	runRating    = "rating"
)

// serverLibrary is the library server collaborator plus its reachability check.
type serverLibrary interface {
	library.Library
	Ping(ctx context.Context) error
}

type libraryFactory func(cfg *config.Config, logger *slog.Logger) (serverLibrary, error)

func newPlexLibrary(cfg *config.Config, logger *slog.Logger) (serverLibrary, error) {
	return plex.NewFromConfig(cfg, logger)
}

// syncRuntime holds the collaborators shared by the pipelines of one process.
type syncRuntime struct {
	cfg      *config.Config
	logger   *slog.Logger
	library  serverLibrary
	cache    *metacache.Store
	resolver *identification.Resolver
}

// openRuntime connects to the library server and opens the metadata cache.
// The server is pinged before any row is touched so an unreachable server
// stops the run up front.
func openRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, newLibrary libraryFactory) (*syncRuntime, error) {
	lib, err := newLibrary(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := lib.Ping(ctx); err != nil {
		return nil, err
	}

	cache, err := metacache.Open(ctx, cfg.CacheDBPath())
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "metacache", "open", cfg.CacheDBPath(), err)
	}
	rt := &syncRuntime{cfg: cfg, logger: logger, library: lib, cache: cache}

	if cfg.TMDB.Enabled && cfg.TMDB.InvalidateCache {
		removed, err := cache.Invalidate(ctx, cfg.TMDB.InvalidateCacheDays)
		if err != nil {
			logging.WarnWithContext(logger, "tmdb cache invalidation failed", "cache_invalidate_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale resolutions may be reused"))
		} else {
			logger.Info("invalidated tmdb cache",
				logging.Int64("removed", removed),
				logging.Int("older_than_days", cfg.TMDB.InvalidateCacheDays))
		}
	}

	if cfg.TMDB.Enabled {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
			tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond))
		if err != nil {
			_ = cache.Close()
			return nil, services.Wrap(services.ErrConfiguration, "tmdb", "init", "", err)
		}
		var resolverCache identification.Cache
		if cfg.TMDB.Cache {
			resolverCache = cache
		}
		rt.resolver = identification.NewResolver(client, resolverCache, identification.ResolverOptions{
			Region:      cfg.TMDB.Region,
			ReleaseType: int(cfg.TMDB.ReleaseType),
		}, logger)
	}
	return rt, nil
}

func (rt *syncRuntime) Close() error {
	if rt == nil || rt.cache == nil {
		return nil
	}
	return rt.cache.Close()
}

// pipelineResult summarizes one pipeline invocation for the caller.
type pipelineResult struct {
	Report  reconcile.Report
	Publish publish.Summary
}

// runPipeline reconciles the rows of run and publishes the matched items. Each
// call loads its own copy of the stores.
func (rt *syncRuntime) runPipeline(ctx context.Context, run string, prompter selector.Prompter) (pipelineResult, error) {
	var result pipelineResult

	source := export.NewSource(rt.cfg)
	var (
		rows []export.Row
		err  error
	)
	switch run {
	case runWatchlist:
		rows, err = source.Watchlist()
	case runRating:
		rows, err = source.Ratings()
	default:
		return result, fmt.Errorf("unknown pipeline %q", run)
	}
	if err != nil {
		return result, err
	}

	set, err := stores.LoadSet(rt.cfg.StorePath, rt.logger)
	if err != nil {
		return result, err
	}

	opts := reconcile.Options{
		Library: rt.library,
		Stores:  set,
		Chooser: selector.New(set.Disambiguation, prompter, rt.logger),
		Logger:  rt.logger,
	}
	if rt.resolver != nil {
		opts.Resolver = rt.resolver
	}
	engine, err := reconcile.New(opts)
	if err != nil {
		return result, err
	}

	report, err := engine.Run(ctx, run, rows)
	result.Report = report
	if err != nil {
		return result, err
	}

	ctx = services.WithRunName(services.WithRunID(ctx, report.RunID), run)
	publisher := publish.New(rt.library, rt.logger)
	switch run {
	case runWatchlist:
		result.Publish, err = publisher.Watchlist(ctx, report.MatchedItems(), publish.WatchlistOptionsFromConfig(rt.cfg))
	case runRating:
		result.Publish = publisher.Ratings(ctx, report.Matched(), rt.cache)
	}
	return result, err
}

// prompterFor resolves the configured selection mode into a prompter. Auto
// mode prompts on the console only when stdin is a terminal.
func (c *commandContext) prompterFor(cfg *config.Config, out io.Writer, session *selector.Session) selector.Prompter {
	switch cfg.Selection.Mode {
	case config.SelectionModeConsole:
		return selector.NewConsolePrompter(c.stdin, out)
	case config.SelectionModeDeferred:
		if session != nil {
			return session
		}
		return selector.DeclinePrompter{}
	case config.SelectionModeDecline:
		return selector.DeclinePrompter{}
	default:
		if c.stdinTTY != nil && c.stdinTTY() {
			return selector.NewConsolePrompter(c.stdin, out)
		}
		return selector.DeclinePrompter{}
	}
}
