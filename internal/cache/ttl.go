package cache

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	appLog "freerooms/internal/log"
	"freerooms/internal/metrics"
)

// DefaultTTL is how long a stored payload counts as fresh.
const DefaultTTL = 60 * time.Minute

// Option customizes a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache applies the TTL contract on top of a Store. Reads never fail: any
// error degrades to a miss, so a broken store costs a refetch, not a stale hit.
type Cache struct {
	name  string
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func newCache(name string, store Store, opts ...Option) *Cache {
	c := &Cache{name: name, store: store, ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the payload if it was stamped at most TTL ago.
func (c *Cache) Get(key string) (string, bool) {
	stamp, err := c.store.ReadStamp(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			appLog.Warn("cache stamp unreadable; treating as stale", "cache", c.name, "key", key, "reason", err.Error())
		}
		stamp = epoch
	}

	if c.now().Sub(stamp) > c.ttl {
		metrics.CacheLookups.WithLabelValues(c.name, "stale").Inc()
		return "", false
	}

	payload, err := c.store.ReadPayload(key)
	if err != nil {
		appLog.Warn("cache payload unreadable", "cache", c.name, "key", key, "reason", err.Error())
		metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()
		return "", false
	}
	metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
	return payload, true
}

// Put stores payload and only then stamps it. A failed payload write leaves
// the previous stamp untouched.
func (c *Cache) Put(key, payload string) error {
	if err := c.store.WritePayload(key, payload); err != nil {
		metrics.CacheWriteErrors.WithLabelValues(c.name).Inc()
		return fmt.Errorf("%s cache: write payload %s: %w", c.name, key, err)
	}
	if err := c.store.WriteStamp(key, c.now()); err != nil {
		metrics.CacheWriteErrors.WithLabelValues(c.name).Inc()
		return fmt.Errorf("%s cache: write stamp %s: %w", c.name, key, err)
	}
	return nil
}

// Init seeds the given keys with the epoch; safe to call on every start.
func (c *Cache) Init(keys []string) error {
	if err := c.store.Seed(keys); err != nil {
		return fmt.Errorf("%s cache: init: %w", c.name, err)
	}
	return nil
}

// ResourceCache holds raw calendar text per upstream room id.
type ResourceCache struct {
	c *Cache
}

func NewResourceCache(store Store, opts ...Option) *ResourceCache {
	return &ResourceCache{c: newCache("resource", store, opts...)}
}

func (r *ResourceCache) Get(id int) (string, bool) {
	return r.c.Get(strconv.Itoa(id))
}

func (r *ResourceCache) Put(id int, payload string) error {
	return r.c.Put(strconv.Itoa(id), payload)
}

func (r *ResourceCache) Init(ids []int) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, strconv.Itoa(id))
	}
	return r.c.Init(keys)
}

// CombinationCache holds computed calendars per room-set key (see model.SetKey).
type CombinationCache struct {
	c *Cache
}

func NewCombinationCache(store Store, opts ...Option) *CombinationCache {
	return &CombinationCache{c: newCache("combination", store, opts...)}
}

func (cc *CombinationCache) Get(key string) (string, bool) {
	return cc.c.Get(key)
}

func (cc *CombinationCache) Put(key, calendar string) error {
	return cc.c.Put(key, calendar)
}

// Init prepares the store; combination keys are not known in advance.
func (cc *CombinationCache) Init() error {
	return cc.c.Init(nil)
}
