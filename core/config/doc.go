// Package config provides configuration management for the reconciler.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults live in `default` struct tags next to each setting.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: HTTP port, API key, upload limits
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Database: backing database for the parsed-table cache (sqlite or MySQL)
//   - Decoder: maximum file size, read chunk size, preview rows
//   - Reconcile: batch size, run timeout, run history
//   - Cache: parsed-table cache budget and persistence
//
// Environment variables map to nested keys by section, e.g. DECODER_CHUNK_SIZE or
// RECONCILE_TIMEOUT_SECONDS.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Reconcile.BatchSize)
package config
