// Package fileutil holds the file helpers shared by the JSON stores: atomic
// writes, tolerant JSON reads, and advisory file locking.
package fileutil
