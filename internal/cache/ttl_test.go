package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore wraps a MemoryStore and fails the operations that are switched on.
type failingStore struct {
	*MemoryStore
	failPayloadWrite bool
	failStampRead    bool
	failPayloadRead  bool
}

var errDisk = errors.New("disk unavailable")

func (f *failingStore) WritePayload(key, payload string) error {
	if f.failPayloadWrite {
		return errDisk
	}
	return f.MemoryStore.WritePayload(key, payload)
}

func (f *failingStore) ReadStamp(key string) (time.Time, error) {
	if f.failStampRead {
		return time.Time{}, errDisk
	}
	return f.MemoryStore.ReadStamp(key)
}

func (f *failingStore) ReadPayload(key string) (string, error) {
	if f.failPayloadRead {
		return "", errDisk
	}
	return f.MemoryStore.ReadPayload(key)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestTTLBoundary(t *testing.T) {
	clk := &clock{t: time.Date(2025, 10, 20, 10, 0, 0, 0, time.UTC)}
	rc := NewResourceCache(NewMemoryStore(), WithClock(clk.now))

	require.NoError(t, rc.Put(3260, "BEGIN:VCALENDAR"))

	clk.t = clk.t.Add(60 * time.Minute)
	got, ok := rc.Get(3260)
	assert.True(t, ok, "entry stamped exactly one TTL ago is served")
	assert.Equal(t, "BEGIN:VCALENDAR", got)

	clk.t = clk.t.Add(time.Second)
	_, ok = rc.Get(3260)
	assert.False(t, ok, "entry one second past the TTL is a miss")
}

func TestMissingEntryIsMiss(t *testing.T) {
	rc := NewResourceCache(NewMemoryStore())
	_, ok := rc.Get(3260)
	assert.False(t, ok)
}

func TestFailedPayloadWriteKeepsOldStamp(t *testing.T) {
	clk := &clock{t: time.Date(2025, 10, 20, 10, 0, 0, 0, time.UTC)}
	store := &failingStore{MemoryStore: NewMemoryStore()}
	cc := NewCombinationCache(store, WithClock(clk.now))

	require.NoError(t, cc.Put("TD04TD05", "old"))
	before, err := store.ReadStamp("TD04TD05")
	require.NoError(t, err)

	clk.t = clk.t.Add(30 * time.Minute)
	store.failPayloadWrite = true
	err = cc.Put("TD04TD05", "new")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDisk))

	after, err := store.ReadStamp("TD04TD05")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, ok := cc.Get("TD04TD05")
	require.True(t, ok)
	assert.Equal(t, "old", got)
}

func TestFailedFirstWriteNeverHits(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failPayloadWrite: true}
	rc := NewResourceCache(store)
	require.NoError(t, rc.Init([]int{3260}))

	assert.Error(t, rc.Put(3260, "payload"))
	_, ok := rc.Get(3260)
	assert.False(t, ok)
}

func TestUnreadableStoreDegradesToMiss(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	rc := NewResourceCache(store)
	require.NoError(t, rc.Put(3260, "payload"))

	store.failStampRead = true
	_, ok := rc.Get(3260)
	assert.False(t, ok)

	store.failStampRead = false
	store.failPayloadRead = true
	_, ok = rc.Get(3260)
	assert.False(t, ok)
}

func TestSeededEntryIsStale(t *testing.T) {
	store := NewMemoryStore()
	rc := NewResourceCache(store)
	require.NoError(t, store.WritePayload("3260", "leftover"))
	require.NoError(t, rc.Init([]int{3260, 3259}))

	_, ok := rc.Get(3260)
	assert.False(t, ok)
}

func TestMemorySeedKeepsStamps(t *testing.T) {
	now := time.Now()
	rc := NewResourceCache(NewMemoryStore(), WithClock(func() time.Time { return now }))
	require.NoError(t, rc.Put(3260, "fresh"))
	require.NoError(t, rc.Init([]int{3260}))

	got, ok := rc.Get(3260)
	assert.True(t, ok)
	assert.Equal(t, "fresh", got)
}
