// Package cache provides an in-memory TTL cache whose cold reads are
// coalesced: concurrent callers asking for the same key share one fetch.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/logger"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/metrics"
)

// FetchFunc loads the value for a key on a cache miss.
type FetchFunc[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache holds values of type V for ttl. A zero or negative ttl disables
// storage, but concurrent fetches are still coalesced.
type Cache[V any] struct {
	name    string
	ttl     time.Duration
	now     func() time.Time
	log     logger.Logger
	metrics metrics.Recorder

	mu         sync.Mutex
	entries    map[string]entry[V]
	generation uint64
	group      singleflight.Group
}

// Option customises a Cache.
type Option func(*options)

type options struct {
	now     func() time.Time
	log     logger.Logger
	metrics metrics.Recorder
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics sets the recorder notified on every lookup.
func WithMetrics(m metrics.Recorder) Option {
	return func(o *options) { o.metrics = m }
}

// New creates an empty cache. name is used in logs and metrics.
func New[V any](name string, ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now, log: logger.NopLogger{}, metrics: metrics.NopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		name:    name,
		ttl:     ttl,
		now:     o.now,
		log:     o.log,
		metrics: o.metrics,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value for key if it is younger than the TTL.
// Otherwise it calls fetch, sharing the call with any concurrent Get for the
// same key. The shared fetch does not observe any one caller's
// cancellation; each caller stops waiting when its own ctx is done. Only
// successful results are stored.
func (c *Cache[V]) Get(ctx context.Context, key string, fetch FetchFunc[V]) (V, error) {
	c.mu.Lock()
	gen := c.generation
	if e, ok := c.entries[key]; ok && c.now().Sub(e.storedAt) < c.ttl {
		c.mu.Unlock()
		c.metrics.CacheLookup(c.name, true)
		return e.value, nil
	}
	c.mu.Unlock()
	c.metrics.CacheLookup(c.name, false)

	flightKey := strconv.FormatUint(gen, 10) + "|" + key
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		c.log.Debugw("cache fetch", map[string]any{"cache": c.name, "key": key})
		v, err := fetch(fetchCtx)
		if err != nil {
			return v, err
		}
		c.store(gen, key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		if res.Shared {
			c.log.Debugw("cache fetch shared", map[string]any{"cache": c.name, "key": key})
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (c *Cache[V]) store(gen uint64, key string, v V) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// A Clear happened while the fetch was in flight.
	if gen != c.generation {
		return
	}
	c.entries[key] = entry[V]{value: v, storedAt: c.now()}
}

// Clear drops every entry. Fetches already in flight do not repopulate it.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.generation++
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
