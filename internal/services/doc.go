// Package services defines shared utilities consumed by the reconciliation
// pipelines and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, pipeline names, and request
//     correlation IDs for logging.
//   - Structured error markers plus the Wrap helper so callers can separate
//     fatal configuration failures from per-row degradations.
//
// Integrations with the library server live in subpackages (see plex).
package services
