// Package movie defines the (title, year) identity shared by every store and
// pipeline stage, plus the stop-word title sort key used to order batches.
//
// Identity equality is structural and exact: no case folding, punctuation
// stripping, or diacritic normalization is applied. The sort key is the only
// place where titles are folded, and it is never used for equality.
package movie
