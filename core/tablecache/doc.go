// Package tablecache keeps decoded tables so the same file is not decoded twice.
//
// Entries are addressed by file identity: the file name plus its last modification time.
// A file that reappears with a different modification time gets a new key and the stale
// entry for that name is dropped.
//
// # Layers
//
//  1. Memory: an LRU list bounded by the estimated byte size of the stored tables.
//  2. Store (optional): a durable table in the configured SQL database, so decoded tables
//     survive restarts within a session. Payloads are JSON compressed with zstd.
//
// Both layers are bounded by the same byte budget. Evicting an entry from memory removes
// it from the store too.
//
// # Stampede protection
//
// GetOrLoad collapses concurrent loads of the same key with singleflight.
//
// # Usage
//
//	store, _ := tablecache.NewGormStore(db)
//	cache := tablecache.New(cfg.Cache, store, logger)
//	t, err := cache.GetOrLoad(ctx, tablecache.Key{Name: f.Name, ModTime: f.ModTime}, decode)
package tablecache
