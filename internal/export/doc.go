// Package export reads the CSV files of a Letterboxd data export.
package export
