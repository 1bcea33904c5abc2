// Package cache is the process-wide query result cache.
//
// Entries expire after a freshness window and are dropped wholesale by
// Invalidate. Every entry is stamped with the generation it was loaded
// under; Invalidate bumps the generation, so a load that was already in
// flight when a write landed is handed back to its callers but never
// published for later readers.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Options configures a Cache.
type Options struct {
	// TTL is the freshness window. Zero disables caching: every Get loads.
	TTL time.Duration

	// MaxEntries caps the number of keys; the oldest are evicted first.
	// Zero means unbounded.
	MaxEntries int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// MetricsHooks receive cache events. Any hook may be nil.
type MetricsHooks struct {
	OnHit        func(key string)
	OnMiss       func(key string)
	OnStore      func(key string)
	OnDiscard    func(key string)
	OnInvalidate func()
}

type entry[V any] struct {
	value      V
	generation uint64
	loadedAt   time.Time
	expiresAt  time.Time
}

// Cache memoises loader results per key.
type Cache[V any] struct {
	mu              sync.RWMutex
	items           map[string]*entry[V]
	order           []string
	generation      uint64
	lastInvalidated time.Time

	opts    Options
	metrics MetricsHooks
	sf      singleflight.Group
}

// Loader computes the value for a key on a miss.
type Loader[V any] func(ctx context.Context) (V, error)

// New creates an empty cache.
func New[V any](opts Options, hooks MetricsHooks) *Cache[V] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache[V]{
		items:   make(map[string]*entry[V]),
		order:   make([]string, 0, 16),
		opts:    opts,
		metrics: hooks,
	}
}

// Get returns the cached value for key, loading it on a miss. Concurrent
// misses on one key within one generation share a single load. Load
// errors are returned to every waiting caller and never cached.
func (c *Cache[V]) Get(ctx context.Context, key string, loader Loader[V]) (V, error) {
	now := c.opts.Now()

	c.mu.RLock()
	gen := c.generation
	if e, ok := c.items[key]; ok && e.generation == gen && now.Before(e.expiresAt) {
		c.mu.RUnlock()
		if c.metrics.OnHit != nil {
			c.metrics.OnHit(key)
		}
		return e.value, nil
	}
	c.mu.RUnlock()

	if c.metrics.OnMiss != nil {
		c.metrics.OnMiss(key)
	}

	// The flight key carries the generation so a load started after an
	// invalidation never joins one started before it.
	flight := strconv.FormatUint(gen, 10) + "\x00" + key
	result, err, _ := c.sf.Do(flight, func() (interface{}, error) {
		val, err := loader(ctx)
		if err != nil {
			return val, err
		}
		c.store(key, val, gen)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// store publishes val unless the cache was invalidated since gen.
func (c *Cache[V]) store(key string, val V, gen uint64) {
	if c.opts.TTL <= 0 {
		return
	}
	now := c.opts.Now()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		if c.metrics.OnDiscard != nil {
			c.metrics.OnDiscard(key)
		}
		return
	}
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = &entry[V]{
		value:      val,
		generation: gen,
		loadedAt:   now,
		expiresAt:  now.Add(c.opts.TTL),
	}
	c.evictIfNeeded()
	c.mu.Unlock()

	if c.metrics.OnStore != nil {
		c.metrics.OnStore(key)
	}
}

// Invalidate drops every entry and advances the generation. It is the
// only way cached results are cleared before they expire.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.items = make(map[string]*entry[V])
	c.order = c.order[:0]
	c.lastInvalidated = c.opts.Now()
	c.mu.Unlock()

	if c.metrics.OnInvalidate != nil {
		c.metrics.OnInvalidate()
	}
}

// Peek returns a fresh cached value without loading.
func (c *Cache[V]) Peek(key string) (V, bool) {
	now := c.opts.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || e.generation != c.generation || !now.Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Generation      uint64
	LastInvalidated time.Time
	Keys            int
}

// Stats returns the current generation, last invalidation and key count.
// Expired entries still count until they are replaced or evicted.
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Generation:      c.generation,
		LastInvalidated: c.lastInvalidated,
		Keys:            len(c.items),
	}
}

// TTL returns the freshness window.
func (c *Cache[V]) TTL() time.Duration {
	return c.opts.TTL
}

func (c *Cache[V]) evictIfNeeded() {
	if c.opts.MaxEntries <= 0 || len(c.items) <= c.opts.MaxEntries {
		return
	}
	excess := len(c.items) - c.opts.MaxEntries
	for excess > 0 && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.items, victim)
		excess--
	}
}
