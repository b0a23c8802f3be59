// Package rooms holds the static ENSEIRB room table and the parsing of
// user-supplied room lists.
package rooms

import (
	"strconv"
	"strings"

	appLog "freerooms/internal/log"
	"freerooms/internal/model"
)

var table = []model.Resource{
	{ID: 3224, ShortCode: "TD01"},
	{ID: 3223, ShortCode: "TD02"},
	{ID: 3222, ShortCode: "TD03"},
	{ID: 3260, ShortCode: "TD04", Label: "EA-S101/S102 (TD04)"},
	{ID: 3259, ShortCode: "TD05", Label: "EA-S104/S105 (TD05)"},
	{ID: 3258, ShortCode: "TD06", Label: "EA-S106/S107 (TD06)"},
	{ID: 3254, ShortCode: "TD07", Label: "EA-S108/S109 (TD07)"},
	{ID: 3253, ShortCode: "TD08", Label: "EA-S110/S111 (TD08)"},
	{ID: 3252, ShortCode: "TD09", Label: "EA-S112/S113 (TD09)"},
	{ID: 3251, ShortCode: "TD10", Label: "EA-S114 (TD10)"},
	{ID: 3250, ShortCode: "TD11", Label: "EA-S115/S116 (TD11)"},
	{ID: 3249, ShortCode: "TD12", Label: "EA-S117/S118 (TD12)"},
	{ID: 3248, ShortCode: "TD13", Label: "EA-S119/S120 (TD13)"},
	{ID: 3247, ShortCode: "TD14", Label: "EA-S121/S122 (TD14)"},
	{ID: 3280, ShortCode: "TD15", Label: "EA-S225 (TD15)"},
	{ShortCode: "TD16"},
	{ID: 3230, ShortCode: "TD17", Label: "EA-S008/S009 (TD17)"},
	{ShortCode: "TD18"},
	{ShortCode: "TD19"},
	{ID: 3296, ShortCode: "TD20", Label: "EB-P010/P011 (TD20)"},
	{ID: 3329, ShortCode: "TD21", Label: "EB-P117 (TD21)"},
	{ID: 3330, ShortCode: "TD22", Label: "EB-P118/P119 (TD22)"},
	{ID: 3331, ShortCode: "TD23", Label: "EB-P121 (TD23)"},
	{ID: 3327, ShortCode: "TD24", Label: "EB-P123 (TD24)"},
	{ID: 3314, ShortCode: "TD25", Label: "EB-P145 (TD25)"},
	{ID: 3315, ShortCode: "TD26", Label: "EB-P147 (TD26)"},
	{ID: 3316, ShortCode: "TD27", Label: "EB-P148/P150 (TD27)"},
	{ID: 3318, ShortCode: "TD28", Label: "EB-P153/P156 (TD28)"},
}

// All returns a copy of the whole table.
func All() []model.Resource {
	out := make([]model.Resource, len(table))
	copy(out, table)
	return out
}

// FetchableIDs lists every upstream id, in table order.
func FetchableIDs() []int {
	ids := make([]int, 0, len(table))
	for _, r := range table {
		if r.Fetchable() {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// DefaultFreeSet is the set reported by the free-rooms calendar when the
// request names no rooms: every fetchable room with a label.
func DefaultFreeSet() []model.Resource {
	out := make([]model.Resource, 0, len(table))
	for _, r := range table {
		if r.Fetchable() && r.Label != "" {
			out = append(out, r)
		}
	}
	return out
}

// Lookup resolves "4", "td4", "TD04" and the like to a room.
func Lookup(token string) (model.Resource, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.TrimPrefix(t, "td")
	if t == "" || strings.TrimLeft(t, "0123456789") != "" {
		return model.Resource{}, false
	}
	n, err := strconv.Atoi(t)
	if err != nil || n < 1 || n > len(table) {
		return model.Resource{}, false
	}
	return table[n-1], true
}

// ByLabel finds a room by its label or short code.
func ByLabel(label string) (model.Resource, bool) {
	for _, r := range table {
		if r.Label == label || r.ShortCode == label {
			return r, true
		}
	}
	return model.Resource{}, false
}

// ParseList parses a comma-separated room list. Unknown entries are logged
// and skipped; duplicates keep their first position.
func ParseList(csv string) []model.Resource {
	seen := make(map[string]bool)
	out := make([]model.Resource, 0)
	for _, tok := range strings.Split(csv, ",") {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		r, ok := Lookup(tok)
		if !ok {
			appLog.Warn("unknown room in list", "room", tok)
			continue
		}
		if seen[r.ShortCode] {
			continue
		}
		seen[r.ShortCode] = true
		out = append(out, r)
	}
	return out
}
