package model

import (
	"fmt"
	"strings"
)

// ActivityLevel is the noise/activity permitted next to occupied rooms.
// Lower values are more restrictive; the zero value is not a valid level.
type ActivityLevel int

const (
	QuietClosed ActivityLevel = iota + 1
	QuietOpen
	LoudClosed
	LoudOpen
	BatteryClosed
	BatteryOpen
)

// MostPermissive is the level of an interval during which no mapped room is busy.
const MostPermissive = BatteryOpen

var levelNames = map[ActivityLevel]string{
	QuietClosed:   "quiet-closed",
	QuietOpen:     "quiet-open",
	LoudClosed:    "loud-closed",
	LoudOpen:      "loud-open",
	BatteryClosed: "battery-closed",
	BatteryOpen:   "battery-open",
}

var levelPhrases = map[ActivityLevel]string{
	QuietClosed:   "Quiet playing, windows closed",
	QuietOpen:     "Quiet playing, windows open",
	LoudClosed:    "Loud playing, windows closed",
	LoudOpen:      "Loud playing, windows open",
	BatteryClosed: "Loud playing and drums, windows closed",
	BatteryOpen:   "Loud playing and drums, windows open",
}

func (l ActivityLevel) Valid() bool {
	return l >= QuietClosed && l <= BatteryOpen
}

func (l ActivityLevel) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("ActivityLevel(%d)", int(l))
}

// Phrase is the human-readable form used in generated calendars.
func (l ActivityLevel) Phrase() string {
	return levelPhrases[l]
}

// MinLevel returns the more restrictive of a and b.
func MinLevel(a, b ActivityLevel) ActivityLevel {
	if a < b {
		return a
	}
	return b
}

// ParseActivityLevel accepts the names produced by String, case-insensitively,
// with '_' or '-' as separator.
func ParseActivityLevel(s string) (ActivityLevel, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for l, n := range levelNames {
		if n == norm {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown activity level %q", s)
}
