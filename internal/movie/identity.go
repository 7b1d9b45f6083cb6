package movie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Identity is the canonical (title, year) pair for a movie.
type Identity struct {
	Name string `json:"name"`
	Year int    `json:"year"`
}

// New builds an identity from raw export values. The year may be empty, in
// which case Year is zero and Valid reports false.
func New(name, year string) (Identity, error) {
	id := Identity{Name: strings.TrimSpace(name)}
	year = strings.TrimSpace(year)
	if year == "" {
		return id, nil
	}
	parsed, err := ParseYear(year)
	if err != nil {
		return id, err
	}
	id.Year = parsed
	return id, nil
}

// ParseYear parses a four digit year. Dates such as "2003-11-21" yield the
// leading year.
func ParseYear(value string) (int, error) {
	value = strings.TrimSpace(value)
	if len(value) > 4 && value[4] == '-' {
		value = value[:4]
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse year %q: %w", value, err)
	}
	if year < 1000 || year > 9999 {
		return 0, fmt.Errorf("parse year %q: out of range", value)
	}
	return year, nil
}

// Valid reports whether both title and year are present.
func (i Identity) Valid() bool {
	return strings.TrimSpace(i.Name) != "" && i.Year > 0
}

// Equal compares both fields exactly.
func (i Identity) Equal(other Identity) bool {
	return i.Name == other.Name && i.Year == other.Year
}

// WithName returns a copy carrying a different title.
func (i Identity) WithName(name string) Identity {
	i.Name = name
	return i
}

// WithYear returns a copy carrying a different year.
func (i Identity) WithYear(year int) Identity {
	i.Year = year
	return i
}

// YearWindow returns the year itself plus its neighbours. Export dates are
// often premieres while libraries carry the theatrical year.
func (i Identity) YearWindow() []int {
	return []int{i.Year, i.Year - 1, i.Year + 1}
}

func (i Identity) String() string {
	if i.Year <= 0 {
		return i.Name
	}
	return fmt.Sprintf("%s (%d)", i.Name, i.Year)
}

// UnmarshalJSON accepts the year as a number or a numeric string; older
// store files wrote it exactly as it appeared in the CSV export.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name string          `json:"name"`
		Year json.RawMessage `json:"year"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	year, err := DecodeYear(raw.Year)
	if err != nil {
		return fmt.Errorf("identity %q: %w", raw.Name, err)
	}
	i.Name = raw.Name
	i.Year = year
	return nil
}

// DecodeYear reads a JSON year that may be a number, a string, or null.
// Null, empty, and -1 decode as zero ("unset").
func DecodeYear(data json.RawMessage) (int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "-1" {
			return 0, nil
		}
		return ParseYear(s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("decode year: %w", err)
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// Contains reports whether ids holds an identity equal to id.
func Contains(ids []Identity, id Identity) bool {
	for _, candidate := range ids {
		if candidate.Equal(id) {
			return true
		}
	}
	return false
}
