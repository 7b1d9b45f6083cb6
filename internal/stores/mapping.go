package stores

import (
	"encoding/json"
	"log/slog"
	"strings"

	"reelsync/internal/movie"
)

// MappingEntry rewrites an export title (and optionally its year) before the
// library is searched. A TargetYear of zero keeps the original year.
type MappingEntry struct {
	SourceTitle string `json:"source_title"`
	TargetTitle string `json:"target_title"`
	TargetYear  int    `json:"target_year,omitempty"`
}

// UnmarshalJSON accepts the current field names and the older
// letterboxd_title / plex_title / year spelling. A year of -1 means unset.
func (m *MappingEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		SourceTitle     string          `json:"source_title"`
		TargetTitle     string          `json:"target_title"`
		TargetYear      json.RawMessage `json:"target_year"`
		LetterboxdTitle string          `json:"letterboxd_title"`
		PlexTitle       string          `json:"plex_title"`
		Year            json.RawMessage `json:"year"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.SourceTitle = firstNonEmpty(raw.SourceTitle, raw.LetterboxdTitle)
	m.TargetTitle = firstNonEmpty(raw.TargetTitle, raw.PlexTitle)
	yearRaw := raw.TargetYear
	if len(yearRaw) == 0 {
		yearRaw = raw.Year
	}
	year, err := movie.DecodeYear(yearRaw)
	if err != nil {
		return err
	}
	m.TargetYear = year
	return nil
}

// Apply rewrites id according to the entry.
func (m MappingEntry) Apply(id movie.Identity) movie.Identity {
	if m.TargetTitle != "" {
		id = id.WithName(m.TargetTitle)
	}
	if m.TargetYear > 0 {
		id = id.WithYear(m.TargetYear)
	}
	return id
}

// MappingTable is the user-maintained override table. The pipeline never
// writes it.
type MappingTable struct {
	entries []MappingEntry
}

// LoadMappingTable reads the mapping table at path. A missing file yields an empty table.
func LoadMappingTable(path string, logger *slog.Logger) (*MappingTable, error) {
	var entries []MappingEntry
	if err := loadDocument("mapping_table", path, &entries, storeLogger(logger, "mapping_table")); err != nil {
		return nil, err
	}
	kept := entries[:0]
	for _, entry := range entries {
		if strings.TrimSpace(entry.SourceTitle) == "" {
			continue
		}
		kept = append(kept, entry)
	}
	return &MappingTable{entries: kept}, nil
}

// NewMappingTable builds an in-memory table.
func NewMappingTable(entries ...MappingEntry) *MappingTable {
	return &MappingTable{entries: entries}
}

// Lookup returns the first entry whose source title equals title exactly.
func (t *MappingTable) Lookup(title string) (MappingEntry, bool) {
	if t == nil {
		return MappingEntry{}, false
	}
	for _, entry := range t.entries {
		if entry.SourceTitle == title {
			return entry, true
		}
	}
	return MappingEntry{}, false
}

// Len returns the number of mapping entries.
func (t *MappingTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
