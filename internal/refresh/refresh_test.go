package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freerooms/internal/avail"
	"freerooms/internal/model"
)

type stubRefresher struct {
	mu       sync.Mutex
	runs     int
	seen     []string
	failing  map[string]bool
	deadline bool
}

func (s *stubRefresher) Refresh(ctx context.Context, set []model.Resource) []avail.Resolved {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	_, s.deadline = ctx.Deadline()
	out := make([]avail.Resolved, 0, len(set))
	for _, r := range set {
		s.seen = append(s.seen, r.ShortCode)
		res := avail.Resolved{Resource: r}
		if s.failing[r.ShortCode] {
			res.Err = errors.New("upstream down")
		}
		out = append(out, res)
	}
	return out
}

var testRooms = []model.Resource{
	{ID: 3260, ShortCode: "TD04"},
	{ID: 3259, ShortCode: "TD05"},
	{ID: 3258, ShortCode: "TD06"},
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("every half hour", &stubRefresher{}, testRooms, time.Minute)
	assert.Error(t, err)
}

func TestRunOnceCountsFailures(t *testing.T) {
	stub := &stubRefresher{failing: map[string]bool{"TD05": true}}
	s, err := New("*/30 * * * *", stub, testRooms, time.Minute)
	require.NoError(t, err)

	ok, failed := s.RunOnce(context.Background())
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
	assert.True(t, stub.deadline, "runs are bounded by the timeout")
}

func TestStartStopsWithContext(t *testing.T) {
	stub := &stubRefresher{}
	s, err := New("@every 1h", stub, testRooms, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case <-s.cron.Stop().Done():
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestRunOnceSkipsUnfetchableRooms(t *testing.T) {
	stub := &stubRefresher{}
	rooms := append([]model.Resource{{ShortCode: "TD16"}}, testRooms...)
	s, err := New("*/30 * * * *", stub, rooms, time.Minute)
	require.NoError(t, err)

	ok, failed := s.RunOnce(context.Background())
	assert.Equal(t, 3, ok)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []string{"TD04", "TD05", "TD06"}, stub.seen)
}
