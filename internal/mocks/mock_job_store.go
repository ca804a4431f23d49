package mocks

import (
	"context"
	"time"

	"github.com/RezaEskandarii/cronfire/types"
)

// MockJobStore is a mock implementation of store.JobStore for testing.
type MockJobStore struct {
	FetchDueJobsFunc      func(ctx context.Context, now time.Time) ([]types.Job, error)
	UpdateJobRunTimesFunc func(ctx context.Context, jobID int64, lastRunAt, nextRunAt time.Time) error
	CloseFunc             func() error
}

func (m *MockJobStore) FetchDueJobs(ctx context.Context, now time.Time) ([]types.Job, error) {
	if m.FetchDueJobsFunc != nil {
		return m.FetchDueJobsFunc(ctx, now)
	}
	return []types.Job{}, nil
}

func (m *MockJobStore) UpdateJobRunTimes(ctx context.Context, jobID int64, lastRunAt, nextRunAt time.Time) error {
	if m.UpdateJobRunTimesFunc != nil {
		return m.UpdateJobRunTimesFunc(ctx, jobID, lastRunAt, nextRunAt)
	}
	return nil
}

func (m *MockJobStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
