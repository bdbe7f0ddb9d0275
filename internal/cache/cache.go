// Package cache holds rendered snapshots in memory so repeated requests for the same
// layout and transform skip the rasterizer.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache is a size-bounded in-memory store of rendered artifacts
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	maxSize  int64
	maxAge   time.Duration
	strategy EvictionStrategy
	stats    Stats
	clock    uint64
	now      func() time.Time
}

// Entry represents a single cached artifact
type Entry struct {
	Key         string
	Data        []byte
	Created     time.Time
	AccessCount int

	inserted   uint64
	lastAccess uint64
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	TotalSize  int64 `json:"total_size"`
	EntryCount int   `json:"entry_count"`
}

// HitRate returns hits over lookups, or 0 before the first lookup
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// EvictionStrategy defines how cache entries are removed
type EvictionStrategy int

const (
	// LRU removes least recently used entries
	LRU EvictionStrategy = iota
	// LFU removes least frequently used entries
	LFU
	// FIFO removes oldest entries first
	FIFO
)

// ParseStrategy maps a config string to a strategy; unknown names fall back to LRU
func ParseStrategy(s string) EvictionStrategy {
	switch s {
	case "lfu":
		return LFU
	case "fifo":
		return FIFO
	default:
		return LRU
	}
}

// Config holds cache configuration
type Config struct {
	MaxSize  int64            // Maximum total size in bytes; 0 means unbounded
	MaxAge   time.Duration    // Maximum age for entries; 0 means they never expire
	Strategy EvictionStrategy // Eviction strategy (default: LRU)
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxSize:  64 << 20,
		MaxAge:   10 * time.Minute,
		Strategy: LRU,
	}
}

// New creates a new cache instance
func New(config Config) *Cache {
	return &Cache{
		entries:  make(map[string]*Entry),
		maxSize:  config.MaxSize,
		maxAge:   config.MaxAge,
		strategy: config.Strategy,
		now:      time.Now,
	}
}

// Get retrieves a cached artifact
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return nil, false
	}
	if c.isExpired(entry) {
		c.remove(key, entry)
		c.stats.Misses++
		return nil, false
	}

	c.clock++
	entry.lastAccess = c.clock
	entry.AccessCount++
	c.stats.Hits++
	return entry.Data, true
}

// Put stores data under key, evicting entries until it fits. An artifact larger than the
// whole cache is not stored.
func (c *Cache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(data))
	if c.maxSize > 0 && size > c.maxSize {
		return
	}
	if old, exists := c.entries[key]; exists {
		c.remove(key, old)
	}
	c.ensureSpace(size)

	c.clock++
	c.entries[key] = &Entry{
		Key:        key,
		Data:       data,
		Created:    c.now(),
		inserted:   c.clock,
		lastAccess: c.clock,
	}
	c.stats.TotalSize += size
	c.stats.EntryCount = len(c.entries)
}

// GetOrCompute returns the cached value for key or stores the result of compute
func (c *Cache) GetOrCompute(key string, compute func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}
	data, err := compute()
	if err != nil {
		return nil, err
	}
	c.Put(key, data)
	return data, nil
}

// Delete removes an entry
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.entries[key]; exists {
		c.remove(key, entry)
	}
}

// Clear removes all cached entries
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
	c.stats.TotalSize = 0
	c.stats.EntryCount = 0
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetStats returns cache statistics
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Key generates a cache key from inputs
func Key(inputs ...string) string {
	h := sha256.New()
	for _, input := range inputs {
		h.Write([]byte(input))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Private methods; callers hold c.mu

func (c *Cache) isExpired(entry *Entry) bool {
	if c.maxAge <= 0 {
		return false
	}
	return c.now().Sub(entry.Created) > c.maxAge
}

func (c *Cache) remove(key string, entry *Entry) {
	delete(c.entries, key)
	c.stats.TotalSize -= int64(len(entry.Data))
	c.stats.EntryCount = len(c.entries)
}

func (c *Cache) ensureSpace(needed int64) {
	if c.maxSize <= 0 {
		return
	}

	for c.stats.TotalSize+needed > c.maxSize && len(c.entries) > 0 {
		var evictKey string
		var evictEntry *Entry

		for key, entry := range c.entries {
			if evictEntry == nil || c.before(entry, evictEntry) {
				evictKey = key
				evictEntry = entry
			}
		}

		c.remove(evictKey, evictEntry)
		c.stats.Evictions++
	}
}

// before reports whether a should be evicted ahead of b
func (c *Cache) before(a, b *Entry) bool {
	switch c.strategy {
	case LFU:
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
		return a.inserted < b.inserted
	case FIFO:
		return a.inserted < b.inserted
	default:
		return a.lastAccess < b.lastAccess
	}
}
