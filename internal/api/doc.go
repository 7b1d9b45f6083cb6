// Package api serves the deferred selection registry over HTTP.
//
// Routes live under /api: health and run listing, plus per-run listing,
// choose and skip endpoints for pending selections. Handlers only hand
// decisions to the selector sessions; the pipelines that wait on them run
// elsewhere.
package api
