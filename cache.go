package actian

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the interface for caching catalog reflection results.
// Users may implement this interface with their preferred caching solution
// (e.g., Redis, Memcached); NewMemoryCache provides an in-process one.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies one reflection result. Catalog shape does not change
// within a reflection session, so identical keys may share a result.
type CacheKey struct {
	Conn   string // Connection or session identity.
	Op     string // Reflection operation, e.g. "columns".
	Name   string // Table, view or sequence name.
	Schema string // Optional owner.
}

// keyEscaper escapes the part separator inside delimited identifiers, so
// schema "a:b" with name "c" and schema "a" with name "b:c" stay distinct.
var keyEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return k.Prefix() + keyEscaper.Replace(k.Op) + ":" + keyEscaper.Replace(k.Schema) + ":" + keyEscaper.Replace(k.Name)
}

// Prefix returns the key prefix shared by all entries of the connection.
func (k CacheKey) Prefix() string {
	return keyEscaper.Replace(k.Conn) + ":"
}

// CacheLoad decodes the cached value stored under key into v.
// It reports whether the key was present.
func CacheLoad(ctx context.Context, c Cache, key string, v any) (bool, error) {
	b, err := c.Get(ctx, key)
	if err != nil || b == nil {
		return false, err
	}
	if err := msgpack.Unmarshal(b, v); err != nil {
		return false, err
	}
	return true, nil
}

// CacheStore encodes v and stores it under key.
func CacheStore(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, b, ttl)
}

// MemoryCache is a Cache backed by a map. It is safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	return e.value, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// DeletePrefix implements Cache.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ Cache = (*MemoryCache)(nil)
