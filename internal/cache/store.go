// Package cache implements the freshness-gated caches in front of the
// upstream calendars: one keyed by room, one keyed by room combination.
package cache

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores for keys that have never been written.
var ErrNotFound = errors.New("cache entry not found")

// Store is the durable side of a cache. Payloads and last-update stamps are
// written by separate calls; the TTL layer decides their order.
type Store interface {
	ReadPayload(key string) (string, error)
	WritePayload(key, payload string) error
	ReadStamp(key string) (time.Time, error)
	WriteStamp(key string, t time.Time) error
	// Seed creates the storage location if needed and gives every key that
	// has no stamp yet the epoch. Existing stamps are left alone.
	Seed(keys []string) error
}

var epoch = time.Unix(0, 0).UTC()
