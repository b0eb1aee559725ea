// Package scheduler runs the periodic calendar sync on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/log"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

// Syncer is the work a tick performs.
type Syncer interface {
	SyncAll(ctx context.Context) []model.SyncResult
}

// Scheduler triggers Syncer.SyncAll on a cron schedule. A tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	syncer  Syncer
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New parses schedule (five fields, or a descriptor such as "@every 10m") and
// returns a stopped Scheduler. timeout bounds each run; zero means no bound.
func New(schedule string, syncer Syncer, timeout time.Duration) (*Scheduler, error) {
	l := cronLogger{}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	s := &Scheduler{cron: c, syncer: syncer, timeout: timeout}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	if _, err := c.AddFunc(schedule, s.run); err != nil {
		s.cancel()
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info("sync scheduler started", "next", s.Next().Format(time.RFC3339))
}

// Stop cancels any in-flight run and waits for it to return, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports when the next run is due. It is zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	results := s.syncer.SyncAll(ctx)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	log.Info("scheduled sync finished", "calendars", len(results), "failed", failed,
		"duration", time.Since(started).Round(time.Millisecond))
}

// cronLogger adapts cron's logr-style logger onto the package logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	log.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	log.Error("cron: "+msg, err, kv...)
}
