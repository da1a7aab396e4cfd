package datafetcher

import (
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// Cache is a single-writer-multiple-reader TTL cache keyed by
// (capability, inputs). Writers take the exclusive lock; readers share the
// read lock of a sync.RWMutex, so reads do not block each other but do wait
// while a write is in progress.
type Cache struct {
	mu sync.RWMutex
	entries map[string]types.CacheEntry
	maxLRU int // 0 disables the LRU bound
	order []string
}

// NewCache builds a Cache with an optional size bound (0 = TTL-only eviction).
// Past the bound, the key written least recently is evicted; Get does not
// refresh a key's position, so eviction follows write order, not read order.
func NewCache(maxLRU int) *Cache {
	return &Cache{entries: make(map[string]types.CacheEntry), maxLRU: maxLRU}
}

// Get returns the cached payload for key if present and unexpired. A miss
// (absent or expired) is never an error — callers refetch.
func (c *Cache) Get(key string, now time.Time) (types.CacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || entry.Expired(now) {
		return types.CacheEntry{}, false
	}
	return entry, true
}

// Put stores a payload under key with the given TTL. Enforces the freshness
// invariant: fetched_at never moves backwards for the same key.
func (c *Cache) Put(source, key string, value any, ttl time.Duration, fetchedAt time.Time) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok && fetchedAt.Before(existing.FetchedAt) {
		fetchedAt = existing.FetchedAt
	}

	c.entries[key] = types.CacheEntry{
		Source: source,
		Key: key,
		Payload: payload,
		FetchedAt: fetchedAt,
		TTL: ttl,
	}
	c.touch(key)
	c.evictIfNeeded()
	return nil
}

// Decode unmarshals a cache entry's payload into dst.
func Decode(entry types.CacheEntry, dst any) error {
	return msgpack.Unmarshal(entry.Payload, dst)
}

func (c *Cache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}

func (c *Cache) evictIfNeeded() {
	if c.maxLRU <= 0 {
		return
	}
	for len(c.order) > c.maxLRU {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}
