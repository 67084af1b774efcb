// Package cache provides a size-bounded LRU cache for filtered tables.
// Filtering is deterministic, so a (dataset hash, spec key) pair fully
// identifies a result and entries never need invalidation beyond eviction.
package cache

import (
	"container/list"
	"sync"

	"dataexplorer/app/dataset"
)

// DefaultMaxSize is the default cache size limit (100MB, estimated).
const DefaultMaxSize = 100 * 1024 * 1024

// Logger lets the owner see cache activity without this package choosing
// a logging backend.
type Logger interface {
	Log(level, message string)
}

type entry struct {
	key   string
	table *dataset.Table
	size  int64
}

// Cache is a thread-safe LRU cache of filter results.
type Cache struct {
	mu          sync.Mutex
	entries     map[string]*list.Element
	order       *list.List // front = most recently used
	maxSize     int64
	currentSize int64
	logger      Logger

	hits   int64
	misses int64
}

// New creates a cache with the given size limit in bytes. A non-positive
// limit uses DefaultMaxSize.
func New(maxSize int64, logger Logger) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		logger:  logger,
	}
}

// Get returns the cached table for key, if present.
func (c *Cache) Get(key string) (*dataset.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*entry).table, true
}

// Store caches a table under key, evicting least recently used entries
// until the size estimate fits the limit. Tables larger than the whole
// cache are not stored.
func (c *Cache) Store(key string, t *dataset.Table) {
	size := estimateSize(t)
	if size > c.maxSize {
		if c.logger != nil {
			c.logger.Log("debug", "cache: result too large to cache, skipping")
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.currentSize -= el.Value.(*entry).size
		c.order.Remove(el)
		delete(c.entries, key)
	}

	for c.currentSize+size > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		ev := oldest.Value.(*entry)
		c.currentSize -= ev.size
		c.order.Remove(oldest)
		delete(c.entries, ev.key)
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, table: t, size: size})
	c.currentSize += size
}

// Stats reports hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// estimateSize approximates the in-memory footprint of a table. String
// cells dominate, so fixed-width columns are costed per cell and string
// columns by content length.
func estimateSize(t *dataset.Table) int64 {
	var size int64
	for _, col := range t.Columns() {
		switch {
		case col.Numbers != nil, col.Times != nil:
			size += int64(col.Len()) * 9
		default:
			for _, s := range col.Strings {
				size += int64(len(s)) + 17
			}
		}
	}
	return size
}
