// Package stores persists the four human-editable JSON documents the
// reconciliation pipeline reads at run start and writes back at run end:
// the ignore list, the missing list, the manual mapping table, and the
// disambiguation cache.
//
// Each store is loaded fully into memory. Saves go through an exclusive
// advisory lock on "<file>.lock" and an atomic temp-file rename. The ignore
// list and the disambiguation cache merge with whatever another run wrote in
// the meantime; the missing list is a per-run report and is overwritten.
//
// A store file that exists but is not valid JSON is a configuration error:
// loading fails and callers abort before processing any rows.
package stores
