// Package identification bridges Letterboxd titles to the titles and release
// years a Plex library uses, via TMDB.
//
// The Resolver consults the local metadata cache first, searches TMDB with
// the export year and then without it, prefers the translated title for the
// configured region, and writes each usable resolution back to the cache.
// Network failures never escape: they degrade to "no candidates" so the
// pipeline can record the row as missing and move on.
package identification
