// Package plex implements the library capability against a Plex Media Server.
//
// The Client speaks the server's XML API over net/http: it resolves library
// section keys by name, searches the movie and show sections, builds a lazy
// index of external identifiers for GUID lookups, and manages playlists and
// ratings. Watchlist additions go through the Plex discover provider.
//
// Errors carry services markers: ErrNotFound for absent sections and
// playlists, ErrDuplicate for watchlist entries that already exist, and
// ErrConfiguration when the token is rejected.
package plex
