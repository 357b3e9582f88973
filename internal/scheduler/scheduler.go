// Package scheduler runs the periodic background jobs of the daemon.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a named periodic task. An Interval of 0 (or less) disables the
// job; it can still be triggered through the HTTP endpoints.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Scheduler drives a set of jobs on their own tickers.
type Scheduler struct {
	jobs []Job
}

// New returns a scheduler for the given jobs.
func New(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Run starts every enabled job and blocks until the context is
// canceled. Jobs fire first after one full interval, not at startup, so
// a restart does not immediately re-notify.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			slog.Info("Background job disabled", "job", job.Name)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runJob(ctx, job)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	slog.Info("Background job started", "job", job.Name, "interval", job.Interval)
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Background job stopped", "job", job.Name)
			return
		case <-ticker.C:
			start := time.Now()
			job.Run(ctx)
			slog.Debug("Background job ran", "job", job.Name, "duration", time.Since(start))
		}
	}
}
