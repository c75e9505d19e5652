// Package tabular decodes CSV and spreadsheet files into tables.
//
// Files are read through a chunk reader that pulls a bounded number of bytes at a time from
// the source and reports progress after every chunk. CSV rows are parsed directly from the
// chunk stream so a record is never split at a chunk boundary. OOXML workbooks are
// buffered chunk by chunk (the zip directory lives at the end of the file) and then
// streamed row by row from the first worksheet.
//
// # Validation
//
// Validate is pure: it checks the declared size and media type only and never opens the
// file body. Accepted media types are CSV, legacy Excel and OOXML spreadsheets.
//
// # Format detection
//
// The actual format is sniffed from the first bytes of content. A file declared as legacy
// Excel that is really CSV text (as some browsers report .csv uploads) decodes as CSV. Binary
// BIFF workbooks are not supported and fail with a DecodeError.
//
// # Usage
//
//	f, err := tabular.LocalFile("bank.xlsx")
//	if err := tabular.Validate(f, cfg); err != nil { ... }
//	t, err := tabular.Decode(ctx, f, cfg, func(pct float64) { ... })
package tabular
