// Package server holds the HTTP server configuration.
//
// The Config struct defines the HTTP port, the API key and the limits applied to
// uploads: comparison requests carry two spreadsheets of up to 1.5 GiB each, so the
// body limit and read timeout are far above fiber's defaults.
//
// This package is used by core/config to embed server settings and by the start
// command to configure the fiber application.
package server
