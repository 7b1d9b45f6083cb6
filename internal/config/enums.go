package config

import (
	"fmt"
	"strings"
)

// WatchlistMode selects how matched watchlist entries are published.
type WatchlistMode string

const (
	WatchlistModePlaylist WatchlistMode = "playlist"
	WatchlistModeBuiltin  WatchlistMode = "builtin"
)

var watchlistModes = map[string]WatchlistMode{
	"playlist": WatchlistModePlaylist,
	"builtin":  WatchlistModeBuiltin,
}

// ParseWatchlistMode maps a configuration string to a mode.
func ParseWatchlistMode(value string) (WatchlistMode, error) {
	mode, ok := watchlistModes[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", fmt.Errorf("unknown watchlist mode %q (want playlist or builtin)", value)
	}
	return mode, nil
}

// SelectionMode chooses how ambiguous matches are resolved.
type SelectionMode string

const (
	// SelectionModeAuto prompts on the console when stdin is a terminal and
	// declines otherwise.
	SelectionModeAuto     SelectionMode = "auto"
	SelectionModeConsole  SelectionMode = "console"
	SelectionModeDeferred SelectionMode = "deferred"
	SelectionModeDecline  SelectionMode = "decline"
)

var selectionModes = map[string]SelectionMode{
	"auto":     SelectionModeAuto,
	"console":  SelectionModeConsole,
	"deferred": SelectionModeDeferred,
	"decline":  SelectionModeDecline,
}

// ParseSelectionMode maps a configuration string to a mode.
func ParseSelectionMode(value string) (SelectionMode, error) {
	mode, ok := selectionModes[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", fmt.Errorf("unknown selection mode %q (want auto, console, deferred, or decline)", value)
	}
	return mode, nil
}

// ReleaseType is the TMDB release type used for missing-entry release dates.
// The numeric values match the TMDB API.
type ReleaseType int

const (
	ReleaseTypePremiere          ReleaseType = 1
	ReleaseTypeTheatricalLimited ReleaseType = 2
	ReleaseTypeTheatrical        ReleaseType = 3
	ReleaseTypeDigital           ReleaseType = 4
	ReleaseTypePhysical          ReleaseType = 5
	ReleaseTypeTV                ReleaseType = 6
)

var releaseTypeNames = map[ReleaseType]string{
	ReleaseTypePremiere:          "premiere",
	ReleaseTypeTheatricalLimited: "theatrical_limited",
	ReleaseTypeTheatrical:        "theatrical",
	ReleaseTypeDigital:           "digital",
	ReleaseTypePhysical:          "physical",
	ReleaseTypeTV:                "tv",
}

var releaseTypesByName = map[string]ReleaseType{
	"premiere":           ReleaseTypePremiere,
	"theatrical_limited": ReleaseTypeTheatricalLimited,
	"theatrical":         ReleaseTypeTheatrical,
	"digital":            ReleaseTypeDigital,
	"physical":           ReleaseTypePhysical,
	"tv":                 ReleaseTypeTV,
}

// ParseReleaseType maps a configuration string to a release type.
func ParseReleaseType(value string) (ReleaseType, error) {
	rt, ok := releaseTypesByName[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return 0, fmt.Errorf("unknown release type %q", value)
	}
	return rt, nil
}

func (r ReleaseType) String() string {
	if name, ok := releaseTypeNames[r]; ok {
		return name
	}
	return fmt.Sprintf("release_type(%d)", int(r))
}

// Valid reports whether r is one of the known variants.
func (r ReleaseType) Valid() bool {
	_, ok := releaseTypeNames[r]
	return ok
}

func (r ReleaseType) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid release type %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *ReleaseType) UnmarshalText(text []byte) error {
	parsed, err := ParseReleaseType(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
