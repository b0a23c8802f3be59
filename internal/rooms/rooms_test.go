package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupAcceptsAllSpellings(t *testing.T) {
	for _, tok := range []string{"4", "td4", "TD04", " Td4 "} {
		r, ok := Lookup(tok)
		require.True(t, ok, tok)
		assert.Equal(t, 3260, r.ID)
		assert.Equal(t, "TD04", r.ShortCode)
	}

	_, ok := Lookup("td29")
	assert.False(t, ok)
	_, ok = Lookup("amphi")
	assert.False(t, ok)
}

func TestParseListDedupsAndKeepsOrder(t *testing.T) {
	got := ParseList("td5,TD04,5,nope,,td17")

	codes := make([]string, 0, len(got))
	for _, r := range got {
		codes = append(codes, r.ShortCode)
	}
	assert.Equal(t, []string{"TD05", "TD04", "TD17"}, codes)
}

func TestDefaultFreeSetSkipsUnlabelledRooms(t *testing.T) {
	set := DefaultFreeSet()
	assert.Len(t, set, 22)
	for _, r := range set {
		assert.NotEmpty(t, r.Label)
		assert.NotZero(t, r.ID)
	}
	assert.Len(t, FetchableIDs(), 25)
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Label = "changed"
	assert.Empty(t, All()[0].Label)
}

func TestLookupRejectsSignsAndJunk(t *testing.T) {
	for _, tok := range []string{"+4", "td+4", "-4", "td", "", "4a", "td 4"} {
		_, ok := Lookup(tok)
		assert.False(t, ok, tok)
	}
}
