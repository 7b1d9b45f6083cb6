package stores

import (
	"encoding/json"

	"reelsync/internal/movie"
)

type missingWire struct {
	Name        string          `json:"name"`
	Year        json.RawMessage `json:"year"`
	ReleaseDate *string         `json:"release_date"`
}

func marshalMissing(e MissingEntry) ([]byte, error) {
	return json.Marshal(struct {
		Name        string  `json:"name"`
		Year        int     `json:"year"`
		ReleaseDate *string `json:"release_date"`
	}{e.Name, e.Year, e.ReleaseDate})
}

func unmarshalMissing(data []byte, e *MissingEntry) error {
	var wire missingWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	year, err := movie.DecodeYear(wire.Year)
	if err != nil {
		return err
	}
	e.Identity = movie.Identity{Name: wire.Name, Year: year}
	e.ReleaseDate = wire.ReleaseDate
	if e.ReleaseDate != nil && *e.ReleaseDate == "" {
		e.ReleaseDate = nil
	}
	return nil
}
