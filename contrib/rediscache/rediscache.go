// Package rediscache provides a Redis-backed actian.Cache, letting several
// processes share catalog reflection results.
//
// # Basic Usage
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	insp := d.Inspector(drv,
//	    ingres.WithCache(rediscache.New(rdb)),
//	    ingres.WithConnID("iidbdb@prod"),
//	    ingres.WithCacheTTL(10*time.Minute),
//	)
//
// # Namespacing
//
// All keys are stored under a namespace (default "actian:"), so Clear and
// DeletePrefix never touch keys written by other applications:
//
//	c := rediscache.New(rdb, rediscache.WithNamespace("inspect:"))
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/syssam/actian"
)

// DefaultNamespace prefixes every key written by a Cache.
const DefaultNamespace = "actian:"

// scanCount is the COUNT hint passed to SCAN.
const scanCount = 256

// Cache implements actian.Cache on top of a Redis client.
type Cache struct {
	rdb       redis.UniversalClient
	namespace string
}

// Option configures a Cache.
type Option func(*Cache)

// WithNamespace sets the key namespace.
func WithNamespace(ns string) Option {
	return func(c *Cache) {
		c.namespace = ns
	}
}

// New returns a Cache using the given client. The client is not closed by
// the cache.
func New(rdb redis.UniversalClient, opts ...Option) *Cache {
	c := &Cache{rdb: rdb, namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements actian.Cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, c.namespace+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("rediscache: get %q: %w", key, err)
	}
	return b, nil
}

// Set implements actian.Cache. A zero ttl stores the value without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, c.namespace+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set %q: %w", key, err)
	}
	return nil
}

// Delete implements actian.Cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.namespace+key).Err(); err != nil {
		return fmt.Errorf("rediscache: delete %q: %w", key, err)
	}
	return nil
}

// DeletePrefix implements actian.Cache. Keys are collected with SCAN, so the
// server is never blocked by a KEYS call.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	return c.deleteMatch(ctx, escapeGlob(c.namespace+prefix)+"*")
}

// Clear implements actian.Cache. Only keys under the namespace are removed.
func (c *Cache) Clear(ctx context.Context) error {
	return c.deleteMatch(ctx, escapeGlob(c.namespace)+"*")
}

func (c *Cache) deleteMatch(ctx context.Context, match string) error {
	var (
		keys []string
		iter = c.rdb.Scan(ctx, 0, match, scanCount).Iterator()
	)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanCount {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("rediscache: delete %q: %w", match, err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("rediscache: scan %q: %w", match, err)
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("rediscache: delete %q: %w", match, err)
		}
	}
	return nil
}

// escapeGlob escapes the glob metacharacters of a SCAN MATCH pattern.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ actian.Cache = (*Cache)(nil)
