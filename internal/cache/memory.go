package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps payloads and stamps in process memory. Entries never
// expire on their own; freshness is decided by the TTL layer.
type MemoryStore struct {
	items *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, 0)}
}

func (s *MemoryStore) ReadPayload(key string) (string, error) {
	v, ok := s.items.Get("p:" + key)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (s *MemoryStore) WritePayload(key, payload string) error {
	s.items.Set("p:"+key, payload, gocache.NoExpiration)
	return nil
}

func (s *MemoryStore) ReadStamp(key string) (time.Time, error) {
	v, ok := s.items.Get("t:" + key)
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return v.(time.Time), nil
}

func (s *MemoryStore) WriteStamp(key string, t time.Time) error {
	s.items.Set("t:"+key, t, gocache.NoExpiration)
	return nil
}

// Seed relies on Add refusing to overwrite an existing item.
func (s *MemoryStore) Seed(keys []string) error {
	for _, k := range keys {
		_ = s.items.Add("t:"+k, epoch, gocache.NoExpiration)
	}
	return nil
}
