// Package config loads, normalizes, and validates reelsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PLEX_TOKEN and TMDB_API_KEY. Enumerated settings are closed types with
// explicit string tables, so an unknown value fails validation instead of
// silently falling back.
package config
