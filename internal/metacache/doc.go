// Package metacache stores resolved TMDB lookups and issued ratings in a
// local SQLite database so repeated runs avoid redundant network calls and
// library writes.
//
// The TMDB cache is keyed by the export's (title, year) pair and can also be
// queried by the resolved (title, release date) pair. Rows age out through an
// explicit Invalidate call that runs once per invocation; Flush clears
// everything.
package metacache
