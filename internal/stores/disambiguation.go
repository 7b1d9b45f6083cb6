package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"reelsync/internal/fileutil"
	"reelsync/internal/logging"
	"reelsync/internal/movie"
)

// DisambiguationEntry remembers which library item was chosen for an
// ambiguous identity.
type DisambiguationEntry struct {
	Combination movie.Identity `json:"combination"`
	ChosenKey   string         `json:"chosen_key"`
}

// UnmarshalJSON also accepts the older movie_to_prefer_key field.
func (e *DisambiguationEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Combination      movie.Identity `json:"combination"`
		ChosenKey        string         `json:"chosen_key"`
		MovieToPreferKey string         `json:"movie_to_prefer_key"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Combination = raw.Combination
	e.ChosenKey = firstNonEmpty(raw.ChosenKey, raw.MovieToPreferKey)
	return nil
}

// DisambiguationCache maps identities to previously chosen library keys.
// Lookups key on both name and year. Record writes through to disk.
type DisambiguationCache struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	entries []DisambiguationEntry
}

// LoadDisambiguationCache reads the cache at path. A missing file yields an empty cache.
func LoadDisambiguationCache(path string, logger *slog.Logger) (*DisambiguationCache, error) {
	c := &DisambiguationCache{path: path, logger: storeLogger(logger, "disambiguation_cache")}
	var entries []DisambiguationEntry
	if err := loadDocument("disambiguation_cache", path, &entries, c.logger); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.ChosenKey == "" {
			continue
		}
		c.entries = append(c.entries, entry)
	}
	return c, nil
}

// Lookup returns the chosen key recorded for id, if any. The earliest
// recorded entry wins when duplicates exist.
func (c *DisambiguationCache) Lookup(id movie.Identity) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, entry := range c.entries {
		if entry.Combination.Equal(id) {
			return entry.ChosenKey, true
		}
	}
	return "", false
}

// Record stores a decision and persists the full cache immediately. A newer
// decision replaces any earlier one for the same identity, on disk as well.
// The in-memory entry is kept even when persisting fails.
func (c *DisambiguationCache) Record(ctx context.Context, id movie.Identity, key string) error {
	if key == "" {
		return fmt.Errorf("record disambiguation for %s: empty key", id)
	}
	decided := DisambiguationEntry{Combination: id, ChosenKey: key}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = upsertDecision(c.entries, decided)
	c.logger.Info("recorded disambiguation",
		logging.Movie(id),
		logging.String("chosen_key", key))

	return fileutil.WithLock(ctx, c.path, func() error {
		var onDisk []DisambiguationEntry
		if _, err := fileutil.ReadJSON(c.path, &onDisk); err != nil {
			return fmt.Errorf("reload disambiguation cache: %w", err)
		}
		merged := upsertDecision(mergeDecisions(onDisk, c.entries), decided)
		if err := fileutil.WriteJSONAtomic(c.path, merged); err != nil {
			return fmt.Errorf("persist disambiguation cache: %w", err)
		}
		c.entries = merged
		return nil
	})
}

// Entries returns a copy of the recorded decisions.
func (c *DisambiguationCache) Entries() []DisambiguationEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]DisambiguationEntry(nil), c.entries...)
}

// mergeDecisions keeps base order and appends extra entries whose identity is
// not yet decided.
func mergeDecisions(base, extra []DisambiguationEntry) []DisambiguationEntry {
	out := make([]DisambiguationEntry, 0, len(base)+len(extra))
	seen := func(id movie.Identity) bool {
		for _, entry := range out {
			if entry.Combination.Equal(id) {
				return true
			}
		}
		return false
	}
	for _, group := range [][]DisambiguationEntry{base, extra} {
		for _, entry := range group {
			if entry.ChosenKey == "" || seen(entry.Combination) {
				continue
			}
			out = append(out, entry)
		}
	}
	return out
}

// upsertDecision replaces the entry for decided's identity in place, or
// appends it when the identity is new. Later duplicates are dropped.
func upsertDecision(entries []DisambiguationEntry, decided DisambiguationEntry) []DisambiguationEntry {
	out := make([]DisambiguationEntry, 0, len(entries)+1)
	replaced := false
	for _, entry := range entries {
		if !entry.Combination.Equal(decided.Combination) {
			out = append(out, entry)
			continue
		}
		if !replaced {
			out = append(out, decided)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, decided)
	}
	return out
}
