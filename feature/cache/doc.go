// Package cache exposes the parsed-table cache over HTTP: counters, stored entries
// and a purge endpoint.
package cache
