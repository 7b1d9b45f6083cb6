// Package logging assembles structured slog loggers and formatting helpers used
// across reelsync.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code tags log lines with the
// run identifier and pipeline name. A no-op logger is provided for tests.
package logging
