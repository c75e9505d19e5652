// Package compare implements the comparison feature: inspecting spreadsheets
// (validation, header row, preview) and reconciling two of them in the background.
//
// # Inputs
//
// Files come from multipart uploads or from objects in the configured bucket.
// Uploads destined for a background run are spooled to a temporary directory that
// is removed when the run stops. Decoded tables go through the parsed-table cache
// when the file's modification time is known (the last_modified form field for
// uploads, LastModified for objects).
//
// # Runs
//
// POST /compare and POST /compare/objects validate the files and selection, start a
// run on the shared worker.Host (cancelling the active one) and answer 202 with the
// run id. GET /compare/runs/:id reports state, progress, summary and a page of
// differences; finished runs can be downloaded or exported to the bucket as XLSX.
// POST /compare/batch compares several object pairs synchronously.
//
// # Errors
//
// ValidationError and SelectionError answer 400, DecodeError 422, TimeoutError 504,
// unknown runs 404 and anything else 500. The body is {"error": ..., "kind": ...}.
package compare
