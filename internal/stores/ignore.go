package stores

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"reelsync/internal/fileutil"
	"reelsync/internal/logging"
	"reelsync/internal/movie"
)

// IgnoreList holds identities that are permanently skipped: titles that turned
// out to be TV shows plus anything curated by hand. Entries are never removed
// automatically.
type IgnoreList struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	entries []movie.Identity
}

// LoadIgnoreList reads the ignore list at path. A missing file yields an empty list.
func LoadIgnoreList(path string, logger *slog.Logger) (*IgnoreList, error) {
	l := &IgnoreList{path: path, logger: storeLogger(logger, "ignore_list")}
	var entries []movie.Identity
	if err := loadDocument("ignore_list", path, &entries, l.logger); err != nil {
		return nil, err
	}
	l.entries = dedupeIdentities(entries)
	return l, nil
}

// Contains reports whether id is ignored.
func (l *IgnoreList) Contains(id movie.Identity) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return movie.Contains(l.entries, id)
}

// Add appends id unless an equal identity is already present. It reports
// whether the list changed.
func (l *IgnoreList) Add(id movie.Identity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if movie.Contains(l.entries, id) {
		return false
	}
	l.entries = append(l.entries, id)
	l.logger.Info("added to ignore list", logging.Movie(id))
	return true
}

// Entries returns a copy of the list in insertion order.
func (l *IgnoreList) Entries() []movie.Identity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]movie.Identity(nil), l.entries...)
}

// Len returns the number of ignored identities.
func (l *IgnoreList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Save merges the in-memory list with the current file contents under the
// store lock and writes the union back.
func (l *IgnoreList) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fileutil.WithLock(ctx, l.path, func() error {
		var onDisk []movie.Identity
		if _, err := fileutil.ReadJSON(l.path, &onDisk); err != nil {
			return fmt.Errorf("reload ignore list: %w", err)
		}
		merged := mergeIdentities(onDisk, l.entries)
		if err := fileutil.WriteJSONAtomic(l.path, merged); err != nil {
			return fmt.Errorf("persist ignore list: %w", err)
		}
		l.entries = merged
		return nil
	})
}

func dedupeIdentities(ids []movie.Identity) []movie.Identity {
	out := make([]movie.Identity, 0, len(ids))
	for _, id := range ids {
		if !movie.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// mergeIdentities keeps base order and appends unseen identities from extra.
func mergeIdentities(base, extra []movie.Identity) []movie.Identity {
	out := dedupeIdentities(base)
	for _, id := range extra {
		if !movie.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
