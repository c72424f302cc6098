package cache

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// TTL is an in-memory cache of feed results keyed by feed id. Fallback values
// are stored like live ones, so a failing feed is not retried until its entry
// expires.
type TTL struct {
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]entry
	flight  singleflight.Group
}

type entry struct {
	value     any
	fetchedAt time.Time
}

// New creates an empty cache that reads time from clock.
func New(clock clockwork.Clock, metrics *observability.Metrics) *TTL {
	return &TTL{
		clock:   clock,
		metrics: metrics,
		entries: make(map[string]entry),
	}
}

// GetOrFetch returns the cached value for key if it is younger than ttl.
// Otherwise it calls fetch, stores the result with a fresh timestamp and
// returns it. Concurrent misses on the same key share one fetch. A result
// produced after ctx is done is returned but not stored.
func GetOrFetch[T any](ctx context.Context, c *TTL, key string, ttl time.Duration, fetch func(context.Context) T) T {
	if v, ok := c.lookup(key, ttl); ok {
		if typed, ok := v.(T); ok {
			c.metrics.CacheLookups.WithLabelValues(key, "hit").Inc()
			return typed
		}
	}
	c.metrics.CacheLookups.WithLabelValues(key, "miss").Inc()

	v, _, _ := c.flight.Do(key, func() (any, error) {
		// Another flight may have filled the entry since our lookup.
		if v, ok := c.lookup(key, ttl); ok {
			if _, ok := v.(T); ok {
				return v, nil
			}
		}
		out := fetch(ctx)
		if ctx.Err() == nil {
			c.store(key, out)
		}
		return out, nil
	})

	typed, _ := v.(T)
	return typed
}

// Invalidate drops the entry for key.
func (c *TTL) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired or not.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL) lookup(key string, ttl time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.clock.Since(e.fetchedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

func (c *TTL) store(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: v, fetchedAt: c.clock.Now()}
}
