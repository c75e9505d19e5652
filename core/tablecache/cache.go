package tablecache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reconciler/core/table"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Key identifies a decoded file.
type Key struct {
	Name    string
	ModTime time.Time
}

// String returns the storage identifier, "<name>-<unix millis>".
func (k Key) String() string {
	return fmt.Sprintf("%s-%d", k.Name, k.ModTime.UnixMilli())
}

// Cacheable reports whether the key carries a modification time.
// Without one, two different files with the same name would collide.
func (k Key) Cacheable() bool {
	return k.Name != "" && !k.ModTime.IsZero()
}

// Stats describes the cache state.
type Stats struct {
	Entries   int   `json:"entries"`
	Bytes     int64 `json:"bytes"`
	MaxBytes  int64 `json:"max_bytes"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

type entry struct {
	id    string
	name  string
	table *table.Table
	size  int64
}

// Cache is a byte-bounded LRU of decoded tables with an optional durable store.
type Cache struct {
	mu       sync.Mutex
	maxBytes int64
	used     int64
	ll       *list.List
	items    map[string]*list.Element
	byName   map[string]string
	stats    Stats

	store  Store
	sf     singleflight.Group
	logger *zap.Logger
}

// New creates a cache. store may be nil for a memory-only cache.
func New(cfg Config, store Store, logger *zap.Logger) *Cache {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache{
		maxBytes: maxBytes,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		byName:   make(map[string]string),
		store:    store,
		logger:   logger,
	}
}

// Get returns the cached table for k, consulting the store on a memory miss.
func (c *Cache) Get(ctx context.Context, k Key) (*table.Table, bool, error) {
	id := k.String()

	c.mu.Lock()
	if el, ok := c.items[id]; ok {
		c.ll.MoveToFront(el)
		c.stats.Hits++
		t := el.Value.(*entry).table
		c.mu.Unlock()
		return t, true, nil
	}
	c.mu.Unlock()

	if c.store == nil {
		c.miss()
		return nil, false, nil
	}

	t, ok, err := c.store.Load(ctx, id)
	if err != nil {
		c.miss()
		return nil, false, fmt.Errorf("failed to load cached table %s: %w", id, err)
	}
	if !ok {
		c.miss()
		return nil, false, nil
	}

	c.mu.Lock()
	c.stats.Hits++
	evicted, stale := c.insertLocked(id, k.Name, t)
	c.mu.Unlock()
	c.dropFromStore(ctx, append(evicted, stale...))

	return t, true, nil
}

// Set stores t under k. Tables larger than the whole budget are not cached.
func (c *Cache) Set(ctx context.Context, k Key, t *table.Table) error {
	id := k.String()
	size := t.SizeBytes()
	if size > c.maxBytes {
		c.mu.Lock()
		stale := c.dropStaleLocked(id, k.Name)
		c.mu.Unlock()
		c.dropFromStore(ctx, stale)

		c.logger.Debug("Table too large to cache",
			zap.String("key", id),
			zap.Int64("size_bytes", size),
			zap.Int64("max_bytes", c.maxBytes),
		)
		return nil
	}

	c.mu.Lock()
	evicted, stale := c.insertLocked(id, k.Name, t)
	c.mu.Unlock()
	c.dropFromStore(ctx, append(evicted, stale...))

	if c.store == nil {
		return nil
	}
	if err := c.store.Save(ctx, k, t, size); err != nil {
		return fmt.Errorf("failed to persist table %s: %w", id, err)
	}
	if _, err := c.store.Trim(ctx, c.maxBytes); err != nil {
		return fmt.Errorf("failed to trim table store: %w", err)
	}
	return nil
}

// Delete removes k from both layers.
func (c *Cache) Delete(ctx context.Context, k Key) error {
	id := k.String()

	c.mu.Lock()
	if el, ok := c.items[id]; ok {
		c.removeLocked(el)
	}
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, id)
}

// Purge empties both layers.
func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.byName = make(map[string]string)
	c.used = 0
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Purge(ctx)
}

// GetOrLoad returns the cached table for k or calls load and caches the result.
// Concurrent calls for the same key share a single load. Cache failures are logged and
// never fail the load itself.
func (c *Cache) GetOrLoad(ctx context.Context, k Key, load func(ctx context.Context) (*table.Table, error)) (*table.Table, error) {
	if !k.Cacheable() {
		return load(ctx)
	}

	if t, ok, err := c.Get(ctx, k); err != nil {
		c.logger.Warn("Cache lookup failed", zap.String("key", k.String()), zap.Error(err))
	} else if ok {
		return t, nil
	}

	id := k.String()
	for {
		leader := false
		result, err, _ := c.sf.Do(id, func() (interface{}, error) {
			leader = true
			// Double-check after winning the flight.
			c.mu.Lock()
			if el, ok := c.items[id]; ok {
				c.mu.Unlock()
				return el.Value.(*entry).table, nil
			}
			c.mu.Unlock()

			t, err := load(ctx)
			if err != nil {
				return nil, err
			}
			if err := c.Set(ctx, k, t); err != nil {
				c.logger.Warn("Failed to cache decoded table", zap.String("key", id), zap.Error(err))
			}
			return t, nil
		})
		if err == nil {
			return result.(*table.Table), nil
		}

		// The flight ran under another caller's context. Its cancellation is not ours.
		if !leader && isContextError(err) && ctx.Err() == nil {
			c.sf.Forget(id)
			c.logger.Debug("Shared load was cancelled, loading again", zap.String("key", id))
			continue
		}
		return nil, err
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = c.ll.Len()
	s.Bytes = c.used
	s.MaxBytes = c.maxBytes
	return s
}

// Entries describes the cached tables, most recently used first. With a store the
// durable entries are listed, otherwise the in-memory ones.
func (c *Cache) Entries(ctx context.Context) ([]EntryInfo, error) {
	if c.store != nil {
		return c.store.List(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]EntryInfo, 0, c.ll.Len())
	for el := c.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		out = append(out, EntryInfo{CacheKey: e.id, Name: e.name, SizeBytes: e.size})
	}
	return out, nil
}

func (c *Cache) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

// insertLocked adds or refreshes an entry and returns the ids evicted for space and the
// stale id previously held by the same name.
func (c *Cache) insertLocked(id, name string, t *table.Table) (evicted []string, stale []string) {
	stale = c.dropStaleLocked(id, name)

	size := t.SizeBytes()
	if el, ok := c.items[id]; ok {
		e := el.Value.(*entry)
		c.used += size - e.size
		e.table, e.size = t, size
		c.ll.MoveToFront(el)
	} else {
		el := c.ll.PushFront(&entry{id: id, name: name, table: t, size: size})
		c.items[id] = el
		c.used += size
	}
	c.byName[name] = id

	for c.used > c.maxBytes && c.ll.Len() > 1 {
		oldest := c.ll.Back()
		e := oldest.Value.(*entry)
		c.removeLocked(oldest)
		c.stats.Evictions++
		evicted = append(evicted, e.id)
	}

	return evicted, stale
}

// dropStaleLocked removes the entry held for name under an id other than id and
// returns the removed id.
func (c *Cache) dropStaleLocked(id, name string) []string {
	prev, ok := c.byName[name]
	if !ok || prev == id {
		return nil
	}
	if el, ok := c.items[prev]; ok {
		c.removeLocked(el)
	}
	delete(c.byName, name)
	return []string{prev}
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.ll.Remove(el)
	delete(c.items, e.id)
	if c.byName[e.name] == e.id {
		delete(c.byName, e.name)
	}
	c.used -= e.size
}

func (c *Cache) dropFromStore(ctx context.Context, ids []string) {
	if c.store == nil {
		return
	}
	for _, id := range ids {
		if err := c.store.Delete(ctx, id); err != nil {
			c.logger.Warn("Failed to drop cached table", zap.String("key", id), zap.Error(err))
		}
	}
}
