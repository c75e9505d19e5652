// Package report renders reconciliation results for people: a flat row layout shared
// by every format, an XLSX workbook for download or export to object storage, and
// terminal tables for the CLI.
package report
