package stores

import (
	"context"
	"fmt"
	"log/slog"

	"reelsync/internal/fileutil"
	"reelsync/internal/logging"
	"reelsync/internal/services"
)

// File names inside the data directory.
const (
	IgnoreFile         = "ignore.json"
	MissingFile        = "missing.json"
	MappingFile        = "mapping.json"
	DisambiguationFile = "disambiguation.json"
)

// Set bundles one run's working copy of every store.
type Set struct {
	Ignore         *IgnoreList
	Missing        *MissingList
	Mapping        *MappingTable
	Disambiguation *DisambiguationCache
}

// PathFunc resolves a store file name to its location.
type PathFunc func(name string) string

// LoadSet loads all four stores. Any unreadable or malformed file aborts the
// load with a configuration error.
func LoadSet(path PathFunc, logger *slog.Logger) (*Set, error) {
	ignore, err := LoadIgnoreList(path(IgnoreFile), logger)
	if err != nil {
		return nil, err
	}
	missing, err := LoadMissingList(path(MissingFile), logger)
	if err != nil {
		return nil, err
	}
	mapping, err := LoadMappingTable(path(MappingFile), logger)
	if err != nil {
		return nil, err
	}
	disambiguation, err := LoadDisambiguationCache(path(DisambiguationFile), logger)
	if err != nil {
		return nil, err
	}
	return &Set{Ignore: ignore, Missing: missing, Mapping: mapping, Disambiguation: disambiguation}, nil
}

// Save writes the mutable stores back to disk. The mapping table is
// read-only and the disambiguation cache is written through on every record.
func (s *Set) Save(ctx context.Context) error {
	if err := s.Ignore.Save(ctx); err != nil {
		return err
	}
	return s.Missing.Save(ctx)
}

func loadDocument(component, path string, v any, logger *slog.Logger) error {
	found, err := fileutil.ReadJSON(path, v)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, component, "load", fmt.Sprintf("store file %s is not usable", path), err)
	}
	logger.Debug("loaded store",
		logging.String("path", path),
		logging.Bool("exists", found))
	return nil
}

func storeLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return logging.NewComponentLogger(logger, component)
}
