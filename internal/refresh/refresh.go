// Package refresh periodically refetches every room calendar so that
// requests are served from a warm per-room cache.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"freerooms/internal/avail"
	appLog "freerooms/internal/log"
	"freerooms/internal/model"
)

// Refresher is the part of the engine a warm-up run needs.
type Refresher interface {
	Refresh(ctx context.Context, set []model.Resource) []avail.Resolved
}

// Scheduler runs warm-up passes on a cron schedule. Overlapping runs are
// skipped rather than queued.
type Scheduler struct {
	cron    *cron.Cron
	target  Refresher
	rooms   []model.Resource
	timeout time.Duration
}

// New validates spec (standard 5-field cron syntax) and prepares a
// scheduler over the fetchable rooms of rooms. Each run is bounded by timeout.
func New(spec string, target Refresher, rooms []model.Resource, timeout time.Duration) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	fetchable := make([]model.Resource, 0, len(rooms))
	for _, r := range rooms {
		if r.Fetchable() {
			fetchable = append(fetchable, r)
		}
	}
	rooms = fetchable
	logger := cronLogger{}
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		target:  target,
		rooms:   rooms,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the schedule until ctx is done, then waits for a running pass
// to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	appLog.Info("cache warm-up scheduled", "rooms", len(s.rooms))
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		appLog.Info("cache warm-up stopped")
	}()
}

// RunOnce refreshes every room once and reports how many failed.
func (s *Scheduler) RunOnce(ctx context.Context) (ok, failed int) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	for _, r := range s.target.Refresh(ctx, s.rooms) {
		if r.Err != nil {
			failed++
			continue
		}
		ok++
	}
	appLog.Info("cache warm-up done", "ok", ok, "failed", failed, "duration_ms", time.Since(started).Milliseconds())
	return ok, failed
}

// cronLogger routes cron's own messages through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}
