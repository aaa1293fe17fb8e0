package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	runs atomic.Int32
	err  error
	hold time.Duration
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.hold > 0 {
		select {
		case <-time.After(j.hold):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSchedulerRunsPeriodically(t *testing.T) {
	s := NewScheduler(quiet())
	job := &countingJob{err: errors.New("keeps failing")}
	s.AddJob(job, 5*time.Millisecond)
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return job.runs.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()

	after := job.runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load(), "no runs after Stop")
}

func TestSchedulerRunAtStart(t *testing.T) {
	s := NewScheduler(quiet())
	job := &countingJob{}
	s.AddJob(job, time.Hour, RunAtStart())
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)
}

func TestSchedulerStopWaitsForRun(t *testing.T) {
	s := NewScheduler(quiet())
	job := &countingJob{hold: time.Hour}
	s.AddJob(job, time.Hour, RunAtStart())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after cancelling the running job")
	}
}

func TestSchedulerIgnoresZeroInterval(t *testing.T) {
	s := NewScheduler(quiet())
	s.AddJob(&countingJob{}, 0)
	assert.Empty(t, s.entries)

	// Stop before Start is harmless.
	s.Stop()
}

func TestSchedulerContextCancel(t *testing.T) {
	s := NewScheduler(quiet())
	job := &countingJob{}
	s.AddJob(job, 2*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	s.Stop()
}
