package publish

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"reelsync/internal/fileutil"
	"reelsync/internal/library"
	"reelsync/internal/logging"
)

// OwnedFile is the default name of the owned-movies export.
const OwnedFile = "owned.csv"

// WriteOwned writes a Title,imdbID CSV of every library movie carrying an IMDb
// identifier, or of the limit most recently added when limit > 0. It returns
// the number of rows written.
func (p *Publisher) WriteOwned(ctx context.Context, catalog library.Catalog, path string, limit int) (int, error) {
	items, err := catalog.Movies(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list library movies: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Title", "imdbID"}); err != nil {
		return 0, err
	}
	written := 0
	for _, item := range items {
		imdb, ok := item.ExternalID("imdb")
		if !ok {
			continue
		}
		if err := w.Write([]string{item.Title, imdb}); err != nil {
			return 0, err
		}
		written++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	p.logger.Info("wrote owned export",
		logging.String("path", path),
		logging.Int("movies", written),
		logging.Int("scanned", len(items)))
	return written, nil
}
