// Package avail partitions time into intervals at event boundaries and
// reports, per interval, which rooms are free or which activity level the
// busy rooms still allow.
package avail

import (
	"sort"
	"time"

	"freerooms/internal/ics"
)

// MergeGap is the largest distance between two cut times that still merges them.
const MergeGap = 20 * time.Minute

// Interval is the half-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// CutTimes returns the sorted, de-duplicated start and end instants of every
// event in docs, after one short-gap pass: for each adjacent pair at most
// MergeGap apart the later instant is dropped if the pair begins at the first
// instant, otherwise the earlier one. The pass looks at the original sorted
// list once and is not repeated, so a run of short gaps may leave some of them.
// Nil documents contribute nothing.
func CutTimes(docs []*ics.Document) []time.Time {
	var all []time.Time
	for _, d := range docs {
		if d == nil {
			continue
		}
		for _, ev := range d.Events {
			all = append(all, ev.Start, ev.End)
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Before(all[j]) })
	uniq := all[:1]
	for _, t := range all[1:] {
		if !t.Equal(uniq[len(uniq)-1]) {
			uniq = append(uniq, t)
		}
	}

	drop := make([]bool, len(uniq))
	for i := 0; i+1 < len(uniq); i++ {
		if uniq[i+1].Sub(uniq[i]) > MergeGap {
			continue
		}
		if i == 0 {
			drop[i+1] = true
		} else {
			drop[i] = true
		}
	}

	out := make([]time.Time, 0, len(uniq))
	for i, t := range uniq {
		if !drop[i] {
			out = append(out, t)
		}
	}
	return out
}

// Intervals pairs consecutive cut times. Fewer than two cut times give none.
func Intervals(cuts []time.Time) []Interval {
	if len(cuts) < 2 {
		return nil
	}
	out := make([]Interval, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		out = append(out, Interval{Start: cuts[i], End: cuts[i+1]})
	}
	return out
}
