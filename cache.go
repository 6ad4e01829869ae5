package ucb

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure"
)

// CacheStats summarizes cache contents for observability.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	ExpiredEntries int
	TTL            time.Duration
}

// InMemoryCache is the default Cache: a mutex-guarded map with a fixed TTL.
// Entries expire lazily; an expired entry is evicted on the read that finds
// it. Safe for concurrent use.
type InMemoryCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	store map[string]CacheEntry
}

// NewInMemoryCache creates a cache whose entries live for ttl.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{
		ttl:   ttl,
		store: make(map[string]CacheEntry),
	}
}

// Get returns the stored value iff it has not outlived the TTL, evicting it
// otherwise.
func (c *InMemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}
	if time.Since(entry.StoredAt) > c.ttl {
		delete(c.store, key)
		return nil, false
	}
	return entry.Value, true
}

// Set stores or overwrites a value with the current timestamp.
func (c *InMemoryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = CacheEntry{Value: value, StoredAt: time.Now()}
}

// Delete removes one entry.
func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.store, key)
}

// Clear removes all entries.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]CacheEntry)
}

// Size returns the number of stored entries, expired or not.
func (c *InMemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.store)
}

// Stats counts active versus expired entries without evicting anything.
func (c *InMemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{TotalEntries: len(c.store), TTL: c.ttl}
	for _, entry := range c.store {
		if time.Since(entry.StoredAt) <= c.ttl {
			stats.ActiveEntries++
		} else {
			stats.ExpiredEntries++
		}
	}
	return stats
}

// cacheIdentity is the full request identity a cache key derives from.
// Identical outbound requests must collide on the same key.
type cacheIdentity struct {
	URL     string
	Method  string
	Body    map[string]any
	Headers map[string]string
	Auth    *AuthDescriptor
}

// CacheKey derives a stable digest from the request identity. Map contents
// hash order-independently, so header ordering does not matter.
func CacheKey(req RemoteRequest) string {
	identity := cacheIdentity{
		URL:     req.URL,
		Method:  strings.ToUpper(req.Method),
		Body:    req.Body,
		Headers: req.Headers,
		Auth:    req.Auth,
	}
	hash, err := hashstructure.Hash(identity, nil)
	if err != nil {
		// Hashing plain maps and strings cannot fail; fall back to the URL
		// so a hypothetical failure degrades to coarser keys, not a panic.
		return identity.Method + ":" + identity.URL
	}
	return identity.Method + ":" + strconv.FormatUint(hash, 16)
}
