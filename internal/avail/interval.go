package avail

import (
	"time"

	"freerooms/internal/ics"
	appLog "freerooms/internal/log"
	"freerooms/internal/model"
)

// Resolved pairs a room with its parsed calendar. Doc is nil when the
// calendar could not be fetched or parsed; Err then says why.
type Resolved struct {
	Resource model.Resource
	Doc      *ics.Document
	Err      error
}

// LevelTable maps room labels to the activity level their occupancy implies.
type LevelTable map[string]model.ActivityLevel

// Overlaps reports whether the event [evStart, evEnd) covers the start of
// the interval or reaches its end. Events strictly inside the interval are
// not detected; intervals are built from event boundaries so that case only
// arises after short-gap merging.
func Overlaps(evStart, evEnd time.Time, iv Interval) bool {
	coversStart := !evStart.After(iv.Start) && iv.Start.Before(evEnd)
	coversEnd := evStart.Before(iv.End) && !iv.End.After(evEnd)
	return coversStart || coversEnd
}

// FreeResources returns, in input order, the rooms with no event overlapping
// iv. A room without a document is always free.
func FreeResources(iv Interval, rooms []Resolved) []model.Resource {
	free := make([]model.Resource, 0, len(rooms))
	for _, r := range rooms {
		if !busy(iv, r.Doc) {
			free = append(free, r.Resource)
		}
	}
	return free
}

func busy(iv Interval, doc *ics.Document) bool {
	if doc == nil {
		return false
	}
	for _, ev := range doc.Events {
		if Overlaps(ev.Start, ev.End, iv) {
			return true
		}
	}
	return false
}

// ActivityLevelFor returns the most restrictive level implied by any event
// overlapping iv, or model.MostPermissive when none does. Each event is
// looked up by its location, then by its room's label and short code;
// events matching none of them are ignored.
func ActivityLevelFor(iv Interval, rooms []Resolved, table LevelTable) model.ActivityLevel {
	level := model.MostPermissive
	for _, r := range rooms {
		if r.Doc == nil {
			continue
		}
		warned := false
		for _, ev := range r.Doc.Events {
			if !Overlaps(ev.Start, ev.End, iv) {
				continue
			}
			l, ok := table.lookup(ev.Location, r.Resource)
			if !ok {
				if !warned {
					appLog.Warn("room has no activity level; ignoring", "room", r.Resource.ShortCode, "location", ev.Location)
					warned = true
				}
				continue
			}
			level = model.MinLevel(level, l)
		}
	}
	return level
}

// Mapped returns, in order, the rooms of set whose label or short code has a
// level.
func (t LevelTable) Mapped(set []model.Resource) []model.Resource {
	out := make([]model.Resource, 0, len(set))
	for _, r := range set {
		if _, ok := t.lookup("", r); ok {
			out = append(out, r)
		}
	}
	return out
}

func (t LevelTable) lookup(location string, res model.Resource) (model.ActivityLevel, bool) {
	for _, k := range []string{location, res.Label, res.ShortCode} {
		if k == "" {
			continue
		}
		if l, ok := t[k]; ok {
			return l, true
		}
	}
	return 0, false
}
