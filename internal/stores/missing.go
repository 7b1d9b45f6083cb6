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

// MissingEntry is an identity that could not be matched to a library item.
// ReleaseDate is display-only.
type MissingEntry struct {
	movie.Identity
	ReleaseDate *string `json:"release_date"`
}

// MarshalJSON flattens the identity next to the release date.
func (e MissingEntry) MarshalJSON() ([]byte, error) {
	return marshalMissing(e)
}

// UnmarshalJSON reads the identity fields alongside release_date.
func (e *MissingEntry) UnmarshalJSON(data []byte) error {
	return unmarshalMissing(data, e)
}

// MissingList is the ordered set of unmatched identities. Save merges this
// list's own additions, backfills and removals into the file, so concurrent
// runs keep each other's entries.
type MissingList struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	entries []MissingEntry
	touched []movie.Identity
	removed []movie.Identity
}

// LoadMissingList reads the missing list at path. A missing file yields an empty list.
func LoadMissingList(path string, logger *slog.Logger) (*MissingList, error) {
	l := &MissingList{path: path, logger: storeLogger(logger, "missing_list")}
	var entries []MissingEntry
	if err := loadDocument("missing_list", path, &entries, l.logger); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if l.indexOf(entry.Identity) < 0 {
			l.entries = append(l.entries, entry)
		}
	}
	return l, nil
}

// Contains reports whether id is recorded as missing.
func (l *MissingList) Contains(id movie.Identity) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOf(id) >= 0
}

// Add records id as missing unless an entry with the same identity exists.
// It reports whether the list changed.
func (l *MissingList) Add(id movie.Identity, releaseDate string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexOf(id) >= 0 {
		return false
	}
	entry := MissingEntry{Identity: id}
	if releaseDate != "" {
		entry.ReleaseDate = &releaseDate
	}
	l.entries = append(l.entries, entry)
	l.touch(id)
	l.logger.Info("added to missing list", logging.Movie(id))
	return true
}

// Backfill sets the release date of an existing entry that lacks one.
func (l *MissingList) Backfill(id movie.Identity, releaseDate string) bool {
	if releaseDate == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexOf(id)
	if idx < 0 || l.entries[idx].ReleaseDate != nil {
		return false
	}
	l.entries[idx].ReleaseDate = &releaseDate
	l.touch(id)
	return true
}

// NeedsReleaseDate reports whether id is missing without a release date.
func (l *MissingList) NeedsReleaseDate(id movie.Identity) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := l.indexOf(id)
	return idx >= 0 && l.entries[idx].ReleaseDate == nil
}

// Remove drops every listed identity and returns how many entries were removed.
func (l *MissingList) Remove(ids ...movie.Identity) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	removed := 0
	for _, entry := range l.entries {
		if movie.Contains(ids, entry.Identity) {
			removed++
			l.touched = dropIdentity(l.touched, entry.Identity)
			if !movie.Contains(l.removed, entry.Identity) {
				l.removed = append(l.removed, entry.Identity)
			}
			l.logger.Info("removed from missing list", logging.Movie(entry.Identity))
			continue
		}
		kept = append(kept, entry)
	}
	l.entries = kept
	return removed
}

// Entries returns a copy of the list in insertion order.
func (l *MissingList) Entries() []MissingEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]MissingEntry(nil), l.entries...)
}

// Len returns the number of missing entries.
func (l *MissingList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Save reloads the file under the store lock, applies the changes made
// through this list and writes the result back.
func (l *MissingList) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fileutil.WithLock(ctx, l.path, func() error {
		var onDisk []MissingEntry
		if _, err := fileutil.ReadJSON(l.path, &onDisk); err != nil {
			return fmt.Errorf("reload missing list: %w", err)
		}
		merged := l.mergeInto(onDisk)
		if err := fileutil.WriteJSONAtomic(l.path, merged); err != nil {
			return fmt.Errorf("persist missing list: %w", err)
		}
		l.entries = merged
		l.touched = nil
		l.removed = nil
		return nil
	})
}

func (l *MissingList) mergeInto(onDisk []MissingEntry) []MissingEntry {
	merged := make([]MissingEntry, 0, len(onDisk)+len(l.touched))
	index := func(id movie.Identity) int {
		for i, entry := range merged {
			if entry.Identity.Equal(id) {
				return i
			}
		}
		return -1
	}
	for _, entry := range onDisk {
		if movie.Contains(l.removed, entry.Identity) || index(entry.Identity) >= 0 {
			continue
		}
		merged = append(merged, entry)
	}
	for _, entry := range l.entries {
		if !movie.Contains(l.touched, entry.Identity) {
			continue
		}
		switch idx := index(entry.Identity); {
		case idx < 0:
			merged = append(merged, entry)
		case merged[idx].ReleaseDate == nil:
			merged[idx].ReleaseDate = entry.ReleaseDate
		}
	}
	return merged
}

func (l *MissingList) touch(id movie.Identity) {
	l.removed = dropIdentity(l.removed, id)
	if !movie.Contains(l.touched, id) {
		l.touched = append(l.touched, id)
	}
}

func dropIdentity(ids []movie.Identity, id movie.Identity) []movie.Identity {
	out := ids[:0]
	for _, existing := range ids {
		if !existing.Equal(id) {
			out = append(out, existing)
		}
	}
	return out
}

func (l *MissingList) indexOf(id movie.Identity) int {
	for i, entry := range l.entries {
		if entry.Identity.Equal(id) {
			return i
		}
	}
	return -1
}
