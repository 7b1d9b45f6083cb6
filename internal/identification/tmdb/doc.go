// Package tmdb is a small client for The Movie Database API: movie search,
// details, per-region translations, and release dates.
//
// Requests are throttled with a token bucket when WithRateLimit is set. Every
// non-200 response surfaces as an error that includes request latency; callers
// that must degrade gracefully decide how to treat it.
package tmdb
