package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"reelsync/internal/movie"
	"reelsync/internal/services"
)

// Row is one line of a Letterboxd export file.
type Row struct {
	Date   string
	Name   string
	Year   string
	URI    string
	Rating float64
}

// Identity parses the row's (name, year) pair.
func (r Row) Identity() (movie.Identity, error) {
	return movie.New(r.Name, r.Year)
}

func (r Row) key() [2]string {
	return [2]string{strings.TrimSpace(r.Name), strings.TrimSpace(r.Year)}
}

// ReadFile parses the export file at path. A missing file is a configuration
// error.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "export", "open", path+" does not exist", nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "export", "open", path, err)
	}
	defer f.Close()
	rows, err := Read(f)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "parse", path, err)
	}
	return rows, nil
}

// Read parses export rows keyed by header name. Unknown columns are ignored;
// a Rating column is optional.
func Read(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameCol, ok := columns["name"]
	if !ok {
		return nil, errors.New("missing Name column")
	}
	yearCol, ok := columns["year"]
	if !ok {
		return nil, errors.New("missing Year column")
	}

	field := func(record []string, column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if nameCol >= len(record) && yearCol >= len(record) {
			continue
		}
		row := Row{
			Date: field(record, "date"),
			Name: field(record, "name"),
			Year: field(record, "year"),
			URI:  field(record, "letterboxd uri"),
		}
		if raw := field(record, "rating"); raw != "" {
			rating, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid rating %q", line, raw)
			}
			row.Rating = rating
		}
		rows = append(rows, row)
	}
	return rows, nil
}
