package model

import (
	"strings"
	"time"
)

// Resource is a bookable room. ID is the upstream (ADE) resource id; zero means
// the room has no calendar upstream and can never be fetched.
type Resource struct {
	ID        int
	Label     string
	ShortCode string
}

// Fetchable reports whether the room has an upstream calendar.
func (r Resource) Fetchable() bool {
	return r.ID != 0
}

// Name returns the label, or the short code for rooms without one.
func (r Resource) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return r.ShortCode
}

// SetKey builds the combination cache key: short codes joined in the given
// order. Callers wanting one key per logical set must pass a stable order.
func SetKey(rs []Resource) string {
	var b strings.Builder
	for _, r := range rs {
		b.WriteString(r.ShortCode)
	}
	return b.String()
}

// Event is a flattened calendar event. Start and End are absolute UTC instants.
type Event struct {
	Start time.Time
	End   time.Time

	Summary     string
	Description string
	Location    string
}
