// Package publish applies reconciliation results to the library: a managed
// watchlist playlist or the account watchlist, per-item ratings gated by the
// local rating cache, and the owned-movies CSV export.
package publish
