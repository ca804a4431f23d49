package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RezaEskandarii/cronfire/internal/metrics"
	"github.com/RezaEskandarii/cronfire/internal/mocks"
	"github.com/RezaEskandarii/cronfire/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 10, 10, 0, 30, 0, time.UTC)

type update struct {
	id         int64
	last, next time.Time
}

func newScheduler(s *mocks.MockJobStore, q *mocks.MockQueue, opts ...Option) *Scheduler {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC)}, opts...)
	return New(s, q, zerolog.Nop(), opts...)
}

func job(id int64, schedule, payload string) types.Job {
	return types.Job{
		ID:           id,
		Name:         "job",
		CronSchedule: schedule,
		Payload:      json.RawMessage(payload),
		NextRunAt:    fixedNow.Add(-time.Minute),
		IsActive:     true,
	}
}

func TestPollOnce_DispatchesAndAdvances(t *testing.T) {
	var updates []update
	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(ctx context.Context, now time.Time) ([]types.Job, error) {
			assert.Equal(t, fixedNow, now)
			return []types.Job{
				job(1, "*/5 * * * *", `{"task_name":"send_email","kwargs":{"email":"a@b.c","message":"hi"}}`),
				job(2, "0 * * * *", `{"task_name":"generate_report","args":[1],"kwargs":"{\"report_type\":\"sales\"}"}`),
			}, nil
		},
		UpdateJobRunTimesFunc: func(ctx context.Context, id int64, last, next time.Time) error {
			updates = append(updates, update{id, last, next})
			return nil
		},
	}
	q := &mocks.MockQueue{}

	report, err := newScheduler(st, q).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Due: 2, Dispatched: 2}, report)

	msgs := q.Messages()
	require.Len(t, msgs, 2)
	assert.JSONEq(t, `{"task_name":"send_email","args":[],"kwargs":"{\"email\":\"a@b.c\",\"message\":\"hi\"}"}`, string(msgs[0]))
	assert.JSONEq(t, `{"task_name":"generate_report","args":[1],"kwargs":"{\"report_type\":\"sales\"}"}`, string(msgs[1]))

	require.Len(t, updates, 2)
	assert.Equal(t, update{1, fixedNow, time.Date(2025, 5, 10, 10, 5, 0, 0, time.UTC)}, updates[0])
	assert.Equal(t, update{2, fixedNow, time.Date(2025, 5, 10, 11, 0, 0, 0, time.UTC)}, updates[1])
}

func TestPollOnce_NextRunFollowsLastRun(t *testing.T) {
	last := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	j := job(7, "0 * * * *", `{"task_name":"send_email"}`)
	j.LastRunAt = &last

	var got update
	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) { return []types.Job{j}, nil },
		UpdateJobRunTimesFunc: func(_ context.Context, id int64, l, n time.Time) error {
			got = update{id, l, n}
			return nil
		},
	}

	_, err := newScheduler(st, &mocks.MockQueue{}).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixedNow, got.last)
	assert.Equal(t, time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC), got.next)
}

func TestPollOnce_EvaluatesInConfiguredLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2026, 1, 6, 9, 0, 0, 0, est)
	// Last fired at 10:00 EST, read back from the store in UTC.
	last := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)
	j := job(3, "0 9 * * *", `{"task_name":"send_email"}`)
	j.NextRunAt = now
	j.LastRunAt = &last

	var got update
	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) { return []types.Job{j}, nil },
		UpdateJobRunTimesFunc: func(_ context.Context, id int64, l, n time.Time) error {
			got = update{id, l, n}
			return nil
		},
	}

	s := newScheduler(st, &mocks.MockQueue{}, WithClock(func() time.Time { return now }), WithLocation(est))
	report, err := s.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Dispatched)
	assert.True(t, got.next.Equal(time.Date(2026, 1, 6, 9, 0, 0, 0, est)), "got %s", got.next)
	assert.Equal(t, 9, got.next.In(est).Hour())

	// The following poll references the new last run and stays on 09:00 local.
	prev := got.last
	j.LastRunAt = &prev
	j.NextRunAt = got.next
	later := now.Add(time.Second)
	s = newScheduler(st, &mocks.MockQueue{}, WithClock(func() time.Time { return later }), WithLocation(est))
	_, err = s.PollOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, got.next.Equal(time.Date(2026, 1, 7, 14, 0, 0, 0, time.UTC)), "got %s", got.next)
	assert.True(t, got.next.After(later))
}

func TestPollOnce_IgnoresJobsThatAreNotDue(t *testing.T) {
	inactive := job(1, "* * * * *", `{"task_name":"send_email"}`)
	inactive.IsActive = false
	future := job(2, "* * * * *", `{"task_name":"send_email"}`)
	future.NextRunAt = fixedNow.Add(time.Hour)

	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) {
			return []types.Job{inactive, future}, nil
		},
		UpdateJobRunTimesFunc: func(context.Context, int64, time.Time, time.Time) error {
			t.Fatal("schedule advanced for a job that is not due")
			return nil
		},
	}
	q := &mocks.MockQueue{}

	report, err := newScheduler(st, q).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Due: 2, Skipped: 2}, report)
	assert.Empty(t, q.Messages())
}

func TestPollOnce_PushFailureDoesNotAdvance(t *testing.T) {
	var updated []int64
	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) {
			return []types.Job{
				job(1, "* * * * *", `{"task_name":"a"}`),
				job(2, "* * * * *", `{"task_name":"b"}`),
			}, nil
		},
		UpdateJobRunTimesFunc: func(_ context.Context, id int64, _, _ time.Time) error {
			updated = append(updated, id)
			return nil
		},
	}
	q := &mocks.MockQueue{
		PushFunc: func(_ context.Context, payload []byte) error {
			env, err := types.DecodeEnvelope(payload)
			require.NoError(t, err)
			if env.TaskName == "a" {
				return errors.New("connection refused")
			}
			return nil
		},
	}

	report, err := newScheduler(st, q).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Due: 2, Dispatched: 1, PushFailed: 1}, report)
	assert.Equal(t, []int64{2}, updated)
}

func TestPollOnce_UpdateFailureIsCounted(t *testing.T) {
	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) {
			return []types.Job{job(1, "* * * * *", `{"task_name":"a"}`)}, nil
		},
		UpdateJobRunTimesFunc: func(context.Context, int64, time.Time, time.Time) error {
			return errors.New("db gone")
		},
	}
	q := &mocks.MockQueue{}

	report, err := newScheduler(st, q).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Due: 1, UpdateFailed: 1}, report)
	assert.Len(t, q.Messages(), 1, "message stays pushed")
}

func TestPollOnce_SkipsInvalidJobs(t *testing.T) {
	var updated int
	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) {
			return []types.Job{
				job(1, "not a cron", `{"task_name":"a"}`),
				job(2, "* * * * *", `[1,2]`),
				job(3, "* * * * *", `{"args":[]}`),
				job(4, "* * * * *", `{"task_name":"a","args":"x"}`),
			}, nil
		},
		UpdateJobRunTimesFunc: func(context.Context, int64, time.Time, time.Time) error {
			updated++
			return nil
		},
	}
	q := &mocks.MockQueue{}

	report, err := newScheduler(st, q).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Due: 4, Skipped: 4}, report)
	assert.Empty(t, q.Messages())
	assert.Zero(t, updated)
}

func TestPollOnce_FetchError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) {
			return nil, errors.New("timeout")
		},
	}
	q := &mocks.MockQueue{}

	report, err := newScheduler(st, q, WithMetrics(m)).PollOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, Report{}, report)
	assert.Empty(t, q.Messages())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollErrorsTotal))
}

func TestPollOnce_RecordsDispatchMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) {
			return []types.Job{
				job(1, "* * * * *", `{"task_name":"a"}`),
				job(2, "bad", `{"task_name":"a"}`),
			}, nil
		},
	}

	_, err := newScheduler(st, &mocks.MockQueue{}, WithMetrics(m)).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsDispatchedTotal.WithLabelValues(metrics.DispatchOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsDispatchedTotal.WithLabelValues(metrics.DispatchSkipped)))
}

func TestRun_PollsUntilCancelled(t *testing.T) {
	var polls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) {
			if polls.Add(1) == 3 {
				cancel()
			}
			return nil, errors.New("store down")
		},
	}

	done := make(chan error, 1)
	go func() {
		done <- newScheduler(st, &mocks.MockQueue{}, WithInterval(5*time.Millisecond)).Run(ctx)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(3), polls.Load(), "fetch errors do not end the loop")
}

func TestRun_FinishesInFlightPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var pushed atomic.Bool

	st := &mocks.MockJobStore{
		FetchDueJobsFunc: func(context.Context, time.Time) ([]types.Job, error) {
			cancel()
			return []types.Job{job(1, "* * * * *", `{"task_name":"a"}`)}, nil
		},
	}
	q := &mocks.MockQueue{
		PushFunc: func(ctx context.Context, _ []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			pushed.Store(true)
			return nil
		},
	}

	require.NoError(t, newScheduler(st, q, WithInterval(time.Hour)).Run(ctx))
	assert.True(t, pushed.Load())
}
