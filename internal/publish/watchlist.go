package publish

import (
	"context"
	"errors"
	"log/slog"

	"reelsync/internal/config"
	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/movie"
	"reelsync/internal/services"
)

// WatchlistOptions controls how matched watchlist items are published.
type WatchlistOptions struct {
	Mode               config.WatchlistMode
	PlaylistName       string
	ReferencePlaylist  string
	SkipReferenceItems bool
	SortByTitle        bool
	StopWords          movie.StopWords
}

// WatchlistOptionsFromConfig reads the [watchlist] section.
func WatchlistOptionsFromConfig(cfg *config.Config) WatchlistOptions {
	return WatchlistOptions{
		Mode:               cfg.Watchlist.Mode,
		PlaylistName:       cfg.Watchlist.PlaylistName,
		ReferencePlaylist:  cfg.Watchlist.ReferencePlaylist,
		SkipReferenceItems: cfg.Watchlist.SkipReferenceItems,
		SortByTitle:        cfg.Watchlist.SortByTitle,
		StopWords:          movie.NewStopWords(cfg.Watchlist.StopWords),
	}
}

// Summary counts what a publish step did.
type Summary struct {
	Published  int
	Duplicates int
	Filtered   int
	Failed     int
	Skipped    int
}

// Publisher pushes reconciliation results to the library.
type Publisher struct {
	lib    library.Publisher
	logger *slog.Logger
}

// New builds a Publisher.
func New(lib library.Publisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{lib: lib, logger: logging.NewComponentLogger(logger, "publish")}
}

// Watchlist publishes matched items as a managed playlist or on the account
// watchlist, depending on opts.Mode.
func (p *Publisher) Watchlist(ctx context.Context, items []library.Item, opts WatchlistOptions) (Summary, error) {
	logger := logging.WithContext(ctx, p.logger)
	if opts.Mode == config.WatchlistModeBuiltin {
		return p.builtin(ctx, logger, items), nil
	}
	return p.playlist(ctx, logger, items, opts)
}

func (p *Publisher) playlist(ctx context.Context, logger *slog.Logger, items []library.Item, opts WatchlistOptions) (Summary, error) {
	var summary Summary

	if err := p.lib.DeletePlaylist(ctx, opts.PlaylistName); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			return summary, services.Wrap(services.ErrTransient, "publish", "delete playlist", opts.PlaylistName, err)
		}
		logger.Info("playlist not found, nothing to delete", logging.String("playlist", opts.PlaylistName))
	} else {
		logger.Info("deleted playlist", logging.String("playlist", opts.PlaylistName))
	}

	if opts.SkipReferenceItems && opts.ReferencePlaylist != "" {
		before := len(items)
		items = p.withoutReference(ctx, logger, items, opts.ReferencePlaylist)
		summary.Filtered = before - len(items)
	}

	if opts.SortByTitle {
		items = append([]library.Item(nil), items...)
		movie.SortByTitle(items, opts.StopWords, func(i library.Item) string { return i.Title })
	}

	if len(items) == 0 {
		logger.Info("no items to publish", logging.String("playlist", opts.PlaylistName))
		return summary, nil
	}
	if err := p.lib.CreatePlaylist(ctx, opts.PlaylistName, items); err != nil {
		return summary, services.Wrap(services.ErrTransient, "publish", "create playlist", opts.PlaylistName, err)
	}
	summary.Published = len(items)
	logger.Info("created playlist",
		logging.String("playlist", opts.PlaylistName),
		logging.Int("items", len(items)),
		logging.Int("filtered", summary.Filtered))
	return summary, nil
}

// withoutReference drops items whose (title, year) already appear in the
// reference playlist. An absent reference playlist filters nothing.
func (p *Publisher) withoutReference(ctx context.Context, logger *slog.Logger, items []library.Item, reference string) []library.Item {
	refItems, err := p.lib.PlaylistItems(ctx, reference)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logger.Info("reference playlist not found", logging.String("playlist", reference))
		} else {
			logging.WarnWithContext(logger, "reference playlist unavailable", "reference_playlist_failed",
				logging.String("playlist", reference),
				logging.Error(err),
				logging.String(logging.FieldImpact, "items are published without deduplication"))
		}
		return items
	}
	existing := make([]movie.Identity, 0, len(refItems))
	for _, item := range refItems {
		existing = append(existing, item.Identity())
	}
	out := make([]library.Item, 0, len(items))
	for _, item := range items {
		if movie.Contains(existing, item.Identity()) {
			logger.Debug("already in reference playlist", logging.String(logging.FieldMovie, item.Label()))
			continue
		}
		out = append(out, item)
	}
	return out
}

func (p *Publisher) builtin(ctx context.Context, logger *slog.Logger, items []library.Item) Summary {
	var summary Summary
	for _, item := range items {
		err := p.lib.AddToWatchlist(ctx, item)
		switch {
		case err == nil:
			summary.Published++
			logger.Info("added to watchlist", logging.String(logging.FieldMovie, item.Label()))
		case errors.Is(err, services.ErrDuplicate):
			summary.Duplicates++
			logger.Info("already on watchlist", logging.String(logging.FieldMovie, item.Label()))
		default:
			summary.Failed++
			logging.WarnWithContext(logger, "failed to add to watchlist", "watchlist_add_failed",
				logging.String(logging.FieldMovie, item.Label()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "item missing from the account watchlist"))
		}
	}
	return summary
}
