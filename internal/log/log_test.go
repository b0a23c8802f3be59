package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutputCarriesPairs(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "json", LevelDebug)

	Error("cache write failed", errors.New("disk full"), "key", "TD01TD02", "dangling")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cache write failed", line["message"])
	assert.Equal(t, "disk full", line["error"])
	assert.Equal(t, "TD01TD02", line["key"])
	assert.NotContains(t, line, "dangling")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "json", LevelWarn)

	Info("hidden")
	Warn("shown", "room", "TD04")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "shown"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
}
