// Package scheduler refreshes the job snapshot on a cron schedule so readers
// rarely pay for an upstream fan-out.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/DeafMist/job-radar/backend/internal/models"
)

// DefaultSpec refreshes once an hour.
const DefaultSpec = "@every 1h"

// Refresher runs one aggregation pass.
type Refresher interface {
	Refresh(ctx context.Context) models.Snapshot
}

// Scheduler wraps robfig/cron around a Refresher.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	spec      string
	log       *slog.Logger
	wg        sync.WaitGroup
}

// New creates a scheduler firing on spec. Overlapping runs are skipped.
func New(refresher Refresher, spec string, log *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelDebug))
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		refresher: refresher,
		spec:      spec,
		log:       log.With(slog.String("component", "scheduler")),
	}
}

// Start registers the refresh job, starts cron and runs one refresh right away
// so the cache is warm before the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", slog.String("spec", s.spec))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	return nil
}

// Stop halts the schedule and waits for running refreshes to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	snap := s.refresher.Refresh(ctx)
	s.log.Info("scheduled refresh complete",
		slog.String("snapshot", snap.ID),
		slog.Int("jobs", len(snap.Jobs)),
	)
}
