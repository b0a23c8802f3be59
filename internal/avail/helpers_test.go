package avail

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"freerooms/internal/ics"
	"freerooms/internal/model"
)

var (
	roomA = model.Resource{ID: 3260, ShortCode: "TD04", Label: "EA-S101/S102 (TD04)"}
	roomB = model.Resource{ID: 3259, ShortCode: "TD05", Label: "EA-S104/S105 (TD05)"}
	roomC = model.Resource{ID: 3258, ShortCode: "TD06", Label: "EA-S106/S107 (TD06)"}
)

func utc(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2025-10-20 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func ev(start, end string) model.Event {
	return model.Event{Start: utc(start), End: utc(end)}
}

func doc(res model.Resource, events ...model.Event) *ics.Document {
	return ics.NewDocument(res, events)
}

// rawCal renders events as an upstream calendar; pairs are "HH:MM-HH:MM".
func rawCal(location string, spans ...string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//ADE/version 6.0\r\n")
	for i, s := range spans {
		parts := strings.Split(s, "-")
		fmt.Fprintf(&b, "BEGIN:VEVENT\r\nUID:%s-%d\r\nDTSTAMP:20251020T000000Z\r\nDTSTART:%s\r\nDTEND:%s\r\nLOCATION:%s\r\nEND:VEVENT\r\n",
			strings.ReplaceAll(location, " ", ""), i,
			utc(parts[0]).Format("20060102T150405Z"), utc(parts[1]).Format("20060102T150405Z"), location)
	}
	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

// fakeSource serves canned calendars by short code and records calls.
type fakeSource struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	calls   map[string]int
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{bodies: map[string]string{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeSource) Fetch(ctx context.Context, res model.Resource) (string, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[res.ShortCode]++
	if err := f.errs[res.ShortCode]; err != nil {
		return "", err
	}
	if body, ok := f.bodies[res.ShortCode]; ok {
		return body, nil
	}
	return rawCal(res.Label), nil
}

func (f *fakeSource) callCount(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[code]
}
