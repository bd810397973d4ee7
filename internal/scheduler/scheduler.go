// Package scheduler runs the pipeline on a cron schedule when the job is
// deployed as a long-lived process instead of under an external scheduler.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron expression, never overlapping runs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	expr      string
	job       Job
	logger    *slog.Logger
}

// New returns a scheduler for expr. Five fields use standard cron syntax; six
// fields add a leading seconds field.
func New(expr string, job Job, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		expr:      expr,
		job:       job,
		logger:    logger,
	}
}

// Start registers the job and starts the scheduler in the background. Runs
// receive ctx; cancel it and call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	var sched *gocron.Scheduler
	if len(strings.Fields(s.expr)) == 6 {
		sched = s.scheduler.CronWithSeconds(s.expr)
	} else {
		sched = s.scheduler.Cron(s.expr)
	}

	j, err := sched.SingletonMode().Do(func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		s.logger.Info("scheduled run starting", "schedule", s.expr)
		if err := s.job(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err, "duration", time.Since(start))
			return
		}
		s.logger.Info("scheduled run completed", "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.expr, err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "schedule", s.expr, "next_run", j.NextRun())
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}
