package engine

import (
	"sync"

	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/memo"
)

// DefaultCacheCapacity bounds the memo cache when no capacity is configured.
const DefaultCacheCapacity = 4096

// CacheStats contains cache statistics.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
	Size      int
	MaxSize   int
}

// Cache is a least recently used map from evaluation keys to memoized node
// outputs.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries map[uint64]*cacheEntry
	head    *cacheEntry
	tail    *cacheEntry
	stats   CacheStats
}

type cacheEntry struct {
	key        uint64
	value      memo.Memo[graph.TaggedValue]
	prev, next *cacheEntry
}

// NewCache returns an empty cache holding at most maxSize entries. A
// non-positive size selects DefaultCacheCapacity.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheCapacity
	}
	c := &Cache{
		maxSize: maxSize,
		entries: make(map[uint64]*cacheEntry),
		stats:   CacheStats{MaxSize: maxSize},
	}

	// sentinels
	c.head = &cacheEntry{}
	c.tail = &cacheEntry{}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the value stored under key and marks it most recently used.
func (c *Cache) Get(key uint64) (memo.Memo[graph.TaggedValue], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return memo.Memo[graph.TaggedValue]{}, false
	}
	c.moveToFront(entry)
	c.stats.Hits++
	return entry.value, true
}

// Set stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache) Set(key uint64, value memo.Memo[graph.TaggedValue]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Sets++
	if entry, ok := c.entries[key]; ok {
		entry.value = value
		c.moveToFront(entry)
		return
	}

	entry := &cacheEntry{key: key, value: value}
	c.entries[key] = entry
	c.addToFront(entry)
	c.stats.Size++

	if c.stats.Size > c.maxSize {
		c.evictOldest()
	}
}

// Clear drops every entry. Statistics other than Size are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint64]*cacheEntry)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.stats.Size = 0
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) removeEntry(entry *cacheEntry) {
	delete(c.entries, entry.key)
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.stats.Size--
}

func (c *Cache) moveToFront(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *Cache) addToFront(entry *cacheEntry) {
	entry.next = c.head.next
	entry.prev = c.head
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *Cache) evictOldest() {
	oldest := c.tail.prev
	if oldest != c.head {
		c.removeEntry(oldest)
		c.stats.Evictions++
	}
}
