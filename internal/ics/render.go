package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const (
	// ProductID matches what ADE itself emits so subscribed clients treat the
	// generated calendar like the upstream ones.
	ProductID = "-//ADE/version 6.0"

	eventSequence = 2141946518
)

var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://adeapp.bordeaux-inp.fr/freerooms"))

// Output assembles a generated calendar.
type Output struct {
	cal *ical.Calendar
	key string
	now time.Time
	n   int
}

// NewOutput starts an empty calendar. key scopes the event UIDs so that the
// same interval in two different room sets does not collide.
func NewOutput(key string, now time.Time) *Output {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodRequest)
	cal.SetProductId(ProductID)
	cal.SetCalscale("GREGORIAN")
	return &Output{cal: cal, key: key, now: now.UTC()}
}

// AddInterval appends one synthesized event covering [start, end).
func (o *Output) AddInterval(start, end time.Time, summary, description, location string) {
	uid := uuid.NewSHA1(uidNamespace, []byte(o.key+"|"+start.UTC().Format(time.RFC3339))).String()

	ev := o.cal.AddEvent(uid)
	ev.SetStartAt(start.UTC())
	ev.SetEndAt(end.UTC())
	ev.SetSummary(summary)
	ev.SetDescription(description)
	ev.SetLocation(location)
	ev.SetDtStampTime(o.now)
	ev.SetModifiedAt(o.now)
	ev.SetCreatedTime(time.Unix(0, 0).UTC())
	ev.SetSequence(eventSequence)
	o.n++
}

// AddDocument copies every usable event of doc unchanged.
func (o *Output) AddDocument(doc *Document) {
	if doc == nil {
		return
	}
	if len(doc.vevents) > 0 {
		for _, ve := range doc.vevents {
			o.cal.AddVEvent(ve)
			o.n++
		}
		return
	}
	for _, ev := range doc.Events {
		o.AddInterval(ev.Start, ev.End, ev.Summary, ev.Description, ev.Location)
	}
}

// Len is the number of events written so far.
func (o *Output) Len() int {
	return o.n
}

func (o *Output) String() string {
	return o.cal.Serialize()
}
