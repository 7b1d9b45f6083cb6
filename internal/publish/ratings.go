package publish

import (
	"context"
	"math"

	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/reconcile"
)

// RatingCache remembers ratings already pushed to the library.
type RatingCache interface {
	HasRating(ctx context.Context, title string, rating int) (bool, error)
	RecordRating(ctx context.Context, title string, rating int) error
}

// RatingValue converts Letterboxd stars (0.5-5) to the library's 1-10 scale.
func RatingValue(stars float64) int {
	return int(math.Round(stars * 2))
}

// Ratings rates each matched item with its row's stars. Pairs already in the
// cache are skipped; items already carrying the value are only recorded.
func (p *Publisher) Ratings(ctx context.Context, matched []reconcile.Result, cache RatingCache) Summary {
	logger := logging.WithContext(ctx, p.logger)
	var summary Summary
	for _, res := range matched {
		value := RatingValue(res.Row.Rating)
		title := res.Source.Name
		if value <= 0 {
			summary.Skipped++
			continue
		}
		if cache != nil {
			known, err := cache.HasRating(ctx, title, value)
			if err != nil {
				logger.Debug("rating cache lookup failed", logging.Error(err))
			} else if known {
				summary.Skipped++
				continue
			}
		}

		if !sameRating(res.Item, value) {
			if err := p.lib.Rate(ctx, res.Item, value); err != nil {
				summary.Failed++
				logging.WarnWithContext(logger, "failed to rate movie", "rating_failed",
					logging.String(logging.FieldMovie, res.Item.Label()),
					logging.Int("rating", value),
					logging.Error(err),
					logging.String(logging.FieldImpact, "retried on the next run"))
				continue
			}
			summary.Published++
			logger.Info("rated movie", logging.String(logging.FieldMovie, res.Item.Label()), logging.Int("rating", value))
		} else {
			summary.Skipped++
		}

		if cache != nil {
			if err := cache.RecordRating(ctx, title, value); err != nil {
				logger.Debug("rating cache write failed", logging.Error(err))
			}
		}
	}
	return summary
}

func sameRating(item library.Item, value int) bool {
	return math.Abs(item.UserRating-float64(value)) < 0.01
}
