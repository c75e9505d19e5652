// Package database opens the SQL database that backs the durable parsed-table cache.
//
// It wraps GORM and supports two drivers:
//   - sqlite (default): a local file next to the tool, matching the single-user model.
//   - mysql: a shared server, useful when several instances reuse decoded tables.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("cache persistence disabled", zap.Error(err))
//	}
package database
