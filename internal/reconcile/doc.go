// Package reconcile matches Letterboxd export rows against the library.
//
// Each row moves through a fixed sequence: blank, unreleased and ignored rows
// are skipped; the manual mapping table may rewrite the title and year; in
// bridged mode TMDB translates the identity to the library's title; the
// library is searched within a one-year window (or by title alone when
// bridged); and the result count decides the outcome. Zero results become
// missing, or ignored when the title is a show. One result matches. Several
// results go to the selector, filtered first by TMDB or IMDb identifier when
// bridged.
//
// The Engine owns the run's working copy of the stores and is the only code
// that mutates them. Stores are saved once at the end of a run; the
// disambiguation cache is written through by the selector.
package reconcile
