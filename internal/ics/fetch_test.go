package ics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freerooms/internal/model"
)

func TestADESourceURL(t *testing.T) {
	src := NewADESource(ADEConfig{WindowDays: 3})
	src.now = func() time.Time { return time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC) }

	u := src.URL(3260)
	assert.Contains(t, u, "resources=3260")
	assert.Contains(t, u, "firstDate=2025-10-20")
	assert.Contains(t, u, "lastDate=2025-10-23")
}

func TestADESourceFetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RawQuery
		if r.URL.Query().Get("resources") == "3259" {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(vcal()))
	}))
	defer srv.Close()

	src := NewADESource(ADEConfig{URLTemplate: srv.URL + "/cal?resources={id}&from={first}&to={last}", Timeout: time.Second})

	body, err := src.Fetch(context.Background(), td04)
	require.NoError(t, err)
	assert.Equal(t, vcal(), body)
	assert.Contains(t, gotPath, "resources=3260")

	_, err = src.Fetch(context.Background(), model.Resource{ID: 3259, ShortCode: "TD05"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))

	_, err = src.Fetch(context.Background(), model.Resource{ShortCode: "TD16"})
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestADESourceTimeoutIsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	src := NewADESource(ADEConfig{URLTemplate: srv.URL + "/{id}", Timeout: 20 * time.Millisecond})
	_, err := src.Fetch(context.Background(), td04)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private.ics?token=abcd"))
	assert.Equal(t, "ics://...(redacted)", redactURL("no scheme"))
}
