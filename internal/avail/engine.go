package avail

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"freerooms/internal/cache"
	"freerooms/internal/ics"
	appLog "freerooms/internal/log"
	"freerooms/internal/metrics"
	"freerooms/internal/model"
)

const (
	DefaultFetchConcurrency = 5
	DefaultPassthroughBelow = 3

	freeSummary     = "Salles Libres"
	freeDescription = "Salles Libres:"

	// ActivityLocation is the LOCATION of every activity-mode event.
	ActivityLocation = "Local musique"

	activityKeyPrefix = "ACT"
)

// Option customizes an Engine.
type Option func(*Engine)

// WithFetchConcurrency bounds the number of upstream fetches in flight.
func WithFetchConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.fetchLimit = n
		}
	}
}

// WithPassthroughBelow sets the room count under which FreeRooms returns the
// union of the raw calendars instead of intervals. Zero disables it.
func WithPassthroughBelow(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.passthroughBelow = n
		}
	}
}

// WithLevels sets the room label to activity level table used by Activity.
func WithLevels(t LevelTable) Option {
	return func(e *Engine) { e.levels = t }
}

// WithClock replaces time.Now for the LAST-MODIFIED stamps of generated events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine answers calendar requests from the combination cache when it can,
// and otherwise resolves every room's calendar and recomputes.
type Engine struct {
	source    ics.Source
	resources *cache.ResourceCache
	combos    *cache.CombinationCache

	fetchLimit       int
	passthroughBelow int
	levels           LevelTable
	now              func() time.Time
}

func NewEngine(src ics.Source, resources *cache.ResourceCache, combos *cache.CombinationCache, opts ...Option) *Engine {
	e := &Engine{
		source:           src,
		resources:        resources,
		combos:           combos,
		fetchLimit:       DefaultFetchConcurrency,
		passthroughBelow: DefaultPassthroughBelow,
		levels:           LevelTable{},
		now:              time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// FreeRooms returns a calendar with one event per interval listing the rooms
// of set that are free during it. Below the passthrough size the raw events
// of every room are returned instead. set is not modified.
func (e *Engine) FreeRooms(ctx context.Context, set []model.Resource) (string, error) {
	return e.compute(ctx, "free-rooms", model.SetKey(set), set, func(out *ics.Output, resolved []Resolved) {
		if len(set) < e.passthroughBelow {
			for _, r := range resolved {
				out.AddDocument(r.Doc)
			}
			return
		}
		for _, iv := range Intervals(CutTimes(documents(resolved))) {
			out.AddInterval(iv.Start, iv.End, freeSummary, freeDescription, joinNames(FreeResources(iv, resolved)))
		}
	})
}

// Activity returns a calendar with one event per interval naming the most
// restrictive activity level implied by the busy rooms of set. Rooms absent
// from the level table are not fetched and add no cut times.
func (e *Engine) Activity(ctx context.Context, set []model.Resource) (string, error) {
	mapped := e.levels.Mapped(set)
	if len(mapped) < len(set) {
		appLog.Debug("activity ignores rooms without a level", "requested", len(set), "mapped", len(mapped))
	}
	return e.compute(ctx, "activity", activityKeyPrefix+model.SetKey(mapped), mapped, func(out *ics.Output, resolved []Resolved) {
		for _, iv := range Intervals(CutTimes(documents(resolved))) {
			level := ActivityLevelFor(iv, resolved, e.levels)
			out.AddInterval(iv.Start, iv.End, level.Phrase(), level.Phrase(), ActivityLocation)
		}
	})
}

func (e *Engine) compute(ctx context.Context, mode, key string, set []model.Resource, fill func(*ics.Output, []Resolved)) (string, error) {
	if len(set) == 0 {
		return ics.NewOutput(key, e.now()).String(), nil
	}

	if cal, ok := e.combos.Get(key); ok {
		appLog.Debug("combination cache hit", "mode", mode, "key", key)
		return cal, nil
	}

	started := time.Now()
	resolved := e.Resolve(ctx, set)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out := ics.NewOutput(key, e.now())
	fill(out, resolved)
	cal := out.String()
	metrics.ComputeDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())

	failed := failures(resolved)
	appLog.Info("calendar computed", "mode", mode, "key", key, "rooms", len(set), "events", out.Len(), "failed_rooms", failed)

	// A result built while some rooms were unavailable is served but not
	// stored, so the next request retries those rooms.
	if failed > 0 {
		return cal, nil
	}
	if err := e.combos.Put(key, cal); err != nil {
		appLog.Error("combination cache write failed", err, "key", key)
	}
	return cal, nil
}

// Resolve gets every room's calendar, from the resource cache when fresh and
// from the source otherwise, with at most fetchLimit fetches in flight. The
// result has one entry per room, in order; failures are recorded, not returned.
func (e *Engine) Resolve(ctx context.Context, set []model.Resource) []Resolved {
	return e.resolveAll(ctx, set, true)
}

// Refresh fetches every room of set from the source regardless of cache
// freshness and stores what parses. It is the periodic warm-up path.
func (e *Engine) Refresh(ctx context.Context, set []model.Resource) []Resolved {
	return e.resolveAll(ctx, set, false)
}

func (e *Engine) resolveAll(ctx context.Context, set []model.Resource, useCache bool) []Resolved {
	out := make([]Resolved, len(set))
	var g errgroup.Group
	g.SetLimit(e.fetchLimit)
	for i, res := range set {
		i, res := i, res
		g.Go(func() error {
			out[i] = e.resolveOne(ctx, res, useCache)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) resolveOne(ctx context.Context, res model.Resource, useCache bool) Resolved {
	// Rooms without an upstream calendar have nothing to fetch.
	if !res.Fetchable() {
		return Resolved{Resource: res}
	}

	if useCache {
		if raw, ok := e.resources.Get(res.ID); ok {
			doc, err := ics.Parse(res, raw)
			if err == nil {
				return Resolved{Resource: res, Doc: doc}
			}
			appLog.Warn("cached calendar unreadable; refetching", "room", res.ShortCode, "reason", err.Error())
		}
	}

	started := time.Now()
	raw, err := e.source.Fetch(ctx, res)
	metrics.FetchDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.Fetches.WithLabelValues("error").Inc()
		appLog.Error("room calendar unavailable; counting it as free", err, "room", res.ShortCode)
		return Resolved{Resource: res, Err: err}
	}
	metrics.Fetches.WithLabelValues("ok").Inc()

	doc, err := ics.Parse(res, raw)
	if err != nil {
		appLog.Error("room calendar unparsable; counting it as free", err, "room", res.ShortCode)
		return Resolved{Resource: res, Err: err}
	}

	if err := e.resources.Put(res.ID, raw); err != nil {
		appLog.Error("resource cache write failed", err, "room", res.ShortCode)
	}
	return Resolved{Resource: res, Doc: doc}
}

func documents(resolved []Resolved) []*ics.Document {
	docs := make([]*ics.Document, 0, len(resolved))
	for _, r := range resolved {
		docs = append(docs, r.Doc)
	}
	return docs
}

func failures(resolved []Resolved) int {
	n := 0
	for _, r := range resolved {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func joinNames(rs []model.Resource) string {
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.Name())
	}
	return strings.Join(names, ", ")
}
