package framecache

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxBytes is the budget used when New is given a non-positive one.
const DefaultMaxBytes = 32 << 20

// Cache is a byte-bounded LRU of encoded frames.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	lru      lruList
	bytes    int64
	maxBytes int64

	group singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry struct {
	data []byte
	node *lruNode
}

// New creates a cache holding at most maxBytes of frame data.
func New(maxBytes int64) *Cache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Cache{
		entries:  make(map[string]*entry),
		maxBytes: maxBytes,
	}
}

// Get returns the data stored under key and marks it recently used.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.lru.MoveToFront(e.node)
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.data, true
}

// Set stores data under key, evicting the least recently used entries
// until the budget holds. Data larger than the whole budget is not
// stored. The slice is kept as-is; callers must not modify it.
func (c *Cache) Set(key string, data []byte) {
	size := int64(len(data))

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.lru.Remove(e.node)
		c.bytes -= e.node.size
		delete(c.entries, key)
	}
	if size > c.maxBytes {
		return
	}
	for c.bytes+size > c.maxBytes {
		oldest := c.lru.RemoveOldest()
		if oldest == nil {
			break
		}
		delete(c.entries, oldest.key)
		c.bytes -= oldest.size
		c.evictions.Add(1)
	}
	c.entries[key] = &entry{data: data, node: c.lru.PushFront(key, size)}
	c.bytes += size
}

// GetOrRender returns the cached data for key, or runs render and caches
// its result. Concurrent callers missing the same key wait for a single
// render. Render errors are returned and not cached. hit reports whether
// the data came from the cache.
func (c *Cache) GetOrRender(key string, render func() ([]byte, error)) (data []byte, hit bool, err error) {
	if data, ok := c.Get(key); ok {
		return data, true, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		// another caller may have filled the entry while we waited
		c.mu.Lock()
		e, ok := c.entries[key]
		c.mu.Unlock()
		if ok {
			return e.data, nil
		}
		data, err := render()
		if err != nil {
			return nil, err
		}
		c.Set(key, data)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// Delete removes key. It reports whether the key was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.lru.Remove(e.node)
	c.bytes -= e.node.size
	delete(c.entries, key)
	return true
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.lru.Clear()
	c.bytes = 0
	c.mu.Unlock()
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Bytes returns the total size of the cached data.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Stats holds cache statistics.
type Stats struct {
	Len       int
	Bytes     int64
	MaxBytes  int64
	Hits      uint64
	Misses    uint64
	HitRate   float64 // 0 to 1
	Evictions uint64
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}

	c.mu.Lock()
	n, b := len(c.entries), c.bytes
	c.mu.Unlock()

	return Stats{
		Len:       n,
		Bytes:     b,
		MaxBytes:  c.maxBytes,
		Hits:      hits,
		Misses:    misses,
		HitRate:   rate,
		Evictions: c.evictions.Load(),
	}
}
