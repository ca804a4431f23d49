package store

import (
	"context"
	"errors"
	"time"

	"github.com/RezaEskandarii/cronfire/types"
)

// ErrJobNotFound is returned when an update matches no row.
var ErrJobNotFound = errors.New("job not found")

// JobStore defines the interface for reading and advancing recurring jobs.
type JobStore interface {
	// FetchDueJobs returns active jobs whose NextRunAt <= now, earliest first.
	FetchDueJobs(ctx context.Context, now time.Time) ([]types.Job, error)

	// UpdateJobRunTimes records a dispatch: LastRunAt and the recomputed NextRunAt.
	UpdateJobRunTimes(ctx context.Context, jobID int64, lastRunAt, nextRunAt time.Time) error

	// Close closes the database
	Close() error
}
