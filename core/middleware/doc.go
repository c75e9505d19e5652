// Package middleware groups the HTTP middleware for the Fiber application.
//
//   - auth: API key validation, via the X-API-Key header or api_key query parameter.
//   - rayid: assigns every request a RayID, stored in fiber locals and echoed in the
//     X-Ray-ID response header for tracing.
//
// Register rayid first so every later log line carries the id.
package middleware
