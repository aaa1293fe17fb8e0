// Package scheduler runs background jobs, such as the anchor sweep, on a
// fixed interval while the server is up.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs each job in its own goroutine. A job never overlaps
// itself: a run that outlasts the interval delays the next tick.
type Scheduler struct {
	logger  *slog.Logger
	entries []entry

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type entry struct {
	job      Job
	interval time.Duration
	atStart  bool
}

// Option tunes a single job.
type Option func(*entry)

// RunAtStart runs the job once as soon as the scheduler starts instead of
// waiting a full interval.
func RunAtStart() Option {
	return func(e *entry) { e.atStart = true }
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// AddJob registers job to run every interval. Jobs with a non-positive
// interval are ignored. AddJob must be called before Start.
func (s *Scheduler) AddJob(job Job, interval time.Duration, opts ...Option) {
	if interval <= 0 {
		s.logger.Warn("ignoring job without interval", "job", job.Name())
		return
	}
	e := entry{job: job, interval: interval}
	for _, opt := range opts {
		opt(&e)
	}
	s.entries = append(s.entries, e)
}

// Start launches the jobs and returns. They stop when ctx is cancelled or
// Stop is called; a second Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.entries {
		s.wg.Add(1)
		go func(e entry) {
			defer s.wg.Done()
			s.loop(ctx, e)
		}(e)
	}
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	name := e.job.Name()
	s.logger.Info("scheduled job started", "job", name, "interval", e.interval)
	defer s.logger.Debug("scheduled job exited", "job", name)

	if e.atStart {
		s.run(ctx, e.job)
	}
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, e.job)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	err := job.Run(ctx)
	took := time.Since(started)
	switch {
	case err == nil:
		s.logger.Debug("scheduled job ran", "job", job.Name(), "took", took)
	case ctx.Err() != nil:
		s.logger.Info("scheduled job interrupted", "job", job.Name(), "error", err)
	default:
		s.logger.Error("scheduled job failed", "job", job.Name(), "took", took, "error", err)
	}
}

// Stop cancels all jobs and waits for any run in progress to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}
