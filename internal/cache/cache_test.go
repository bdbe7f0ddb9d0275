package cache

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCache_GetPut(t *testing.T) {
	cache := New(Config{
		MaxSize: 1 << 20, // 1 MB
		MaxAge:  time.Hour,
	})

	key := "test-key"
	data := []byte("test data content")
	cache.Put(key, data)

	retrieved, found := cache.Get(key)
	if !found {
		t.Fatal("Data not found in cache")
	}
	if !bytes.Equal(retrieved, data) {
		t.Errorf("Retrieved data doesn't match: got %s, want %s", retrieved, data)
	}

	stats := cache.GetStats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}

	_, found = cache.Get("non-existent")
	if found {
		t.Error("Found non-existent key")
	}

	stats = cache.GetStats()
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %g", stats.HitRate())
	}
	if stats.TotalSize != int64(len(data)) || stats.EntryCount != 1 {
		t.Errorf("Unexpected size accounting: %+v", stats)
	}
}

func TestCache_Overwrite(t *testing.T) {
	cache := New(Config{MaxSize: 100})
	cache.Put("k", bytes.Repeat([]byte("a"), 40))
	cache.Put("k", bytes.Repeat([]byte("b"), 10))

	stats := cache.GetStats()
	if stats.TotalSize != 10 || stats.EntryCount != 1 {
		t.Errorf("Overwrite left stale accounting: %+v", stats)
	}
}

func TestCache_Delete(t *testing.T) {
	cache := New(Config{})

	key := "delete-test"
	cache.Put(key, []byte("data to delete"))

	if _, found := cache.Get(key); !found {
		t.Fatal("Data not found after put")
	}

	cache.Delete(key)
	if _, found := cache.Get(key); found {
		t.Error("Data found after delete")
	}

	// Delete again is a no-op
	cache.Delete(key)
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", cache.Len())
	}
}

func TestCache_Eviction(t *testing.T) {
	data := func(c byte) []byte { return bytes.Repeat([]byte{c}, 40) }

	tests := []struct {
		name     string
		strategy EvictionStrategy
		touch    func(c *Cache)
		evicted  string
	}{
		{
			name:     "lru evicts least recently used",
			strategy: LRU,
			touch:    func(c *Cache) { c.Get("key1") },
			evicted:  "key2",
		},
		{
			name:     "lfu evicts least frequently used",
			strategy: LFU,
			touch: func(c *Cache) {
				c.Get("key1")
				c.Get("key1")
				c.Get("key1")
				c.Get("key2")
			},
			evicted: "key2",
		},
		{
			name:     "fifo ignores access pattern",
			strategy: FIFO,
			touch: func(c *Cache) {
				c.Get("key1")
				c.Get("key1")
			},
			evicted: "key1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := New(Config{MaxSize: 100, Strategy: tt.strategy})
			cache.Put("key1", data('a'))
			cache.Put("key2", data('b'))
			tt.touch(cache)
			cache.Put("key3", data('c'))

			for _, key := range []string{"key1", "key2", "key3"} {
				_, found := cache.Get(key)
				if key == tt.evicted && found {
					t.Errorf("%s was not evicted", key)
				}
				if key != tt.evicted && !found {
					t.Errorf("%s was evicted", key)
				}
			}
			if ev := cache.GetStats().Evictions; ev != 1 {
				t.Errorf("Expected 1 eviction, got %d", ev)
			}
		})
	}
}

func TestCache_OversizedNotStored(t *testing.T) {
	cache := New(Config{MaxSize: 10})
	cache.Put("small", []byte("abc"))
	cache.Put("big", bytes.Repeat([]byte("x"), 11))

	if _, found := cache.Get("big"); found {
		t.Error("Oversized entry was stored")
	}
	if _, found := cache.Get("small"); !found {
		t.Error("Oversized put evicted an existing entry")
	}
}

func TestCache_Expiration(t *testing.T) {
	cache := New(Config{MaxAge: time.Minute})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Put("expiring-key", []byte("expiring data"))
	if _, found := cache.Get("expiring-key"); !found {
		t.Fatal("Data not found immediately after put")
	}

	now = now.Add(2 * time.Minute)
	if _, found := cache.Get("expiring-key"); found {
		t.Error("Expired data was returned")
	}
	if cache.Len() != 0 {
		t.Error("Expired entry was not dropped")
	}
}

func TestCache_GetOrCompute(t *testing.T) {
	cache := New(Config{})
	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("png"), nil
	}

	for i := 0; i < 3; i++ {
		data, err := cache.GetOrCompute("k", compute)
		if err != nil || string(data) != "png" {
			t.Fatalf("GetOrCompute = %q, %v", data, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := cache.GetOrCompute("other", func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("expected compute error, got %v", err)
	}
	if _, found := cache.Get("other"); found {
		t.Error("failed computation was cached")
	}
}

func TestCache_Clear(t *testing.T) {
	cache := New(Config{})
	for i := 0; i < 5; i++ {
		cache.Put(fmt.Sprintf("key-%d", i), []byte("data"))
	}
	cache.Clear()

	stats := cache.GetStats()
	if stats.EntryCount != 0 || stats.TotalSize != 0 {
		t.Errorf("Clear left %+v", stats)
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := New(Config{MaxSize: 10 << 20})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j)
				data := []byte(fmt.Sprintf("data-%d-%d", id, j))
				cache.Put(key, data)

				retrieved, found := cache.Get(key)
				if !found || !bytes.Equal(retrieved, data) {
					t.Errorf("Data mismatch for key %s", key)
				}
				if j%10 == 0 {
					cache.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()

	stats := cache.GetStats()
	if stats.EntryCount != 900 {
		t.Errorf("Expected 900 entries, got %d", stats.EntryCount)
	}
}

func TestCache_KeyGeneration(t *testing.T) {
	key1 := Key("2x3x4", "scale=1.5")
	key2 := Key("2x3x4", "scale=1.5")
	key3 := Key("2x3x4", "scale=2")

	if key1 != key2 {
		t.Error("Same inputs produced different keys")
	}
	if key1 == key3 {
		t.Error("Different inputs produced same key")
	}
	// Input boundaries matter
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("Key ignores input boundaries")
	}
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]EvictionStrategy{"lru": LRU, "lfu": LFU, "fifo": FIFO, "": LRU, "bogus": LRU}
	for in, want := range tests {
		if got := ParseStrategy(in); got != want {
			t.Errorf("ParseStrategy(%q) = %d, want %d", in, got, want)
		}
	}
}

func BenchmarkCache_Put(b *testing.B) {
	cache := New(Config{MaxSize: 1 << 20})
	data := bytes.Repeat([]byte("x"), 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Put(fmt.Sprintf("key-%d", i%512), data)
	}
}

func BenchmarkCache_Get(b *testing.B) {
	cache := New(Config{})
	cache.Put("key", []byte("data"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get("key")
	}
}
