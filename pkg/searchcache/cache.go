// Package searchcache keeps recent search results for a short time.
//
// Entries are keyed by the normalized query, expire after a fixed TTL and are
// evicted in insertion order once the cache grows past its capacity. Reads do
// not change an entry's position.
package searchcache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 10
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// WithTTL sets the maximum age of a servable entry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCapacity sets the number of entries kept. Zero or less disables the cap.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
}

// Cache is a TTL cache of search results. It is safe for concurrent use.
type Cache[V any] struct {
	opts options

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

// New creates an empty cache.
func New[V any](opts ...Option) *Cache[V] {
	o := options{
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		opts:  o,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

// Normalize returns the cache key for query.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Get returns the value stored for query if it is younger than the TTL.
// A stale entry is dropped and reported as a miss.
func (c *Cache[V]) Get(query string) (V, bool) {
	var zero V
	key := Normalize(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if c.opts.now().Sub(e.storedAt) >= c.opts.ttl {
		c.removeElement(el)
		return zero, false
	}
	return e.value, true
}

// Put stores value for query. Storing an existing query refreshes its
// timestamp and makes it the newest entry. When the cache holds more than its
// capacity, the oldest inserted entries are evicted.
func (c *Cache[V]) Put(query string, value V) {
	key := Normalize(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
	c.items[key] = c.order.PushBack(&entry[V]{
		key:      key,
		value:    value,
		storedAt: c.opts.now(),
	})

	if c.opts.capacity <= 0 {
		return
	}
	for c.order.Len() > c.opts.capacity {
		c.removeElement(c.order.Front())
	}
}

// Delete removes query from the cache.
func (c *Cache[V]) Delete(query string) {
	key := Normalize(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Sweep removes every entry older than the TTL and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.now()
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if now.Sub(el.Value.(*entry[V]).storedAt) > c.opts.ttl {
			c.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the stored keys from oldest to newest insertion.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[V]).key)
	}
	return keys
}

func (c *Cache[V]) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
