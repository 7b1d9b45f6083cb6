// Command reelsync reconciles a Letterboxd export against a Plex library.
//
// The watchlist and rating commands run one reconciliation pass each and
// publish the matched items; serve runs them concurrently behind the
// selection API so ambiguous matches can be answered remotely. Maintenance
// commands inspect the missing list, pending selections and the TMDB cache.
package main
