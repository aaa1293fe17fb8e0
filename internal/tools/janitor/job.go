package janitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emergent-company/omviews/internal/emergent"
)

// SweepJob runs the anchor sweep on a schedule.
type SweepJob struct {
	sweeper       *Sweeper
	logger        *slog.Logger
	token         string // stdio mode has no request token, so the job carries one
	deleteOrphans bool
}

// NewSweepJob creates a scheduled sweep. An empty token leaves the context as is.
func NewSweepJob(sweeper *Sweeper, logger *slog.Logger, token string, deleteOrphans bool) *SweepJob {
	return &SweepJob{
		sweeper:       sweeper,
		logger:        logger,
		token:         token,
		deleteOrphans: deleteOrphans,
	}
}

func (j *SweepJob) Name() string {
	return "anchor-sweep"
}

// Run sweeps once.
func (j *SweepJob) Run(ctx context.Context) error {
	if j.token != "" {
		ctx = emergent.WithToken(ctx, j.token)
	}

	report, err := j.sweeper.Sweep(ctx, j.deleteOrphans)
	if err != nil {
		return fmt.Errorf("anchor sweep: %w", err)
	}
	if report.IssuesFound > 0 {
		j.logger.Warn("orphaned elements found", "issues", report.IssuesFound, "deleted", report.Deleted)
	}
	return nil
}
