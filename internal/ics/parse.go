package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "freerooms/internal/log"
	"freerooms/internal/model"
)

// ErrParse marks a calendar document or a single VEVENT that could not be read.
var ErrParse = errors.New("calendar parse failed")

const utcLayout = "20060102T150405Z"

// Document is one room's calendar: the raw text as fetched and the events
// that carry absolute UTC start and end instants.
type Document struct {
	Resource model.Resource
	Raw      string
	Events   []model.Event

	// vevents keeps the parsed components so the raw union can be re-emitted
	// without loss.
	vevents []*ical.VEvent
}

// NewDocument builds a Document from already flattened events.
func NewDocument(res model.Resource, events []model.Event) *Document {
	return &Document{Resource: res, Events: events}
}

// Parse reads a VCALENDAR payload. Events without a UTC DTSTART/DTEND are
// logged and skipped; only a payload that cannot be read at all is an error.
func Parse(res model.Resource, raw string) (*Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty calendar for %s", ErrParse, res.ShortCode)
	}

	// A body cut off in transit still parses; only a closed calendar is whole.
	if !strings.HasSuffix(strings.TrimSpace(raw), "END:VCALENDAR") {
		return nil, fmt.Errorf("%w: truncated calendar for %s", ErrParse, res.ShortCode)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, res.ShortCode, err)
	}

	doc := &Document{Resource: res, Raw: raw}
	skipped := 0
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			skipped++
			appLog.Warn("ics vevent skipped", "room", res.ShortCode, "reason", perr.Error())
			continue
		}
		doc.Events = append(doc.Events, ev)
		doc.vevents = append(doc.vevents, ve)
	}

	appLog.Debug("ics parse completed", "room", res.ShortCode, "event_count", len(doc.Events), "skipped", skipped)
	return doc, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	start, err := utcProperty(ve, ical.ComponentPropertyDtStart)
	if err != nil {
		return out, err
	}
	end, err := utcProperty(ve, ical.ComponentPropertyDtEnd)
	if err != nil {
		return out, err
	}
	out.Start = start
	out.End = end

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	return out, nil
}

// utcProperty only accepts the DATE-TIME form with a trailing Z; local times,
// TZID-qualified times and all-day dates are rejected.
func utcProperty(ve *ical.VEvent, name ical.ComponentProperty) (time.Time, error) {
	p := ve.GetProperty(name)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return time.Time{}, fmt.Errorf("%w: missing %s", ErrParse, name)
	}
	if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
		return time.Time{}, fmt.Errorf("%w: %s has TZID %s", ErrParse, name, tz[0])
	}
	t, err := time.Parse(utcLayout, strings.TrimSpace(p.Value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a UTC date-time", ErrParse, name, p.Value)
	}
	return t.UTC(), nil
}
