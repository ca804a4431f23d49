package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/RezaEskandarii/cronfire/internal/metrics"
	"github.com/RezaEskandarii/cronfire/internal/parser"
	"github.com/RezaEskandarii/cronfire/internal/queue"
	"github.com/RezaEskandarii/cronfire/internal/store"
	"github.com/RezaEskandarii/cronfire/types"
	"github.com/rs/zerolog"
)

var errEmptyTaskName = errors.New("payload has no task_name")

// Report summarizes one poll iteration.
type Report struct {
	Due          int
	Dispatched   int
	Skipped      int
	PushFailed   int
	UpdateFailed int
}

// Scheduler moves due jobs from the job store onto the work queue.
// It must run as a single instance per store.
type Scheduler struct {
	store    store.JobStore
	queue    queue.Queue
	log      zerolog.Logger
	interval time.Duration
	now      func() time.Time
	loc      *time.Location
	metrics  *metrics.Metrics
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithLocation sets the zone cron expressions are evaluated in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func New(jobStore store.JobStore, q queue.Queue, log zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    jobStore,
		queue:    q,
		log:      log,
		interval: 10 * time.Second,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run polls until ctx is cancelled. A poll in progress always completes
// before cancellation is observed.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		_, _ = s.PollOnce(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce dispatches every job that is due now. A fetch error is logged and
// returned with an empty report; per-job failures are logged and counted.
func (s *Scheduler) PollOnce(ctx context.Context) (Report, error) {
	now := s.now()

	jobs, err := s.store.FetchDueJobs(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to fetch due jobs")
		s.metrics.PollFailed()
		return Report{}, err
	}

	report := Report{Due: len(jobs)}
	for _, job := range jobs {
		result := metrics.DispatchSkipped
		if job.IsDue(now) {
			result = s.dispatch(ctx, job, now)
		} else {
			s.log.Warn().Int64("job_id", job.ID).Time("next_run_at", job.NextRunAt).
				Bool("is_active", job.IsActive).Msg("store returned a job that is not due")
		}
		s.metrics.Dispatched(result)

		switch result {
		case metrics.DispatchOK:
			report.Dispatched++
		case metrics.DispatchSkipped:
			report.Skipped++
		case metrics.DispatchPushFailed:
			report.PushFailed++
		case metrics.DispatchUpdateFailed:
			report.UpdateFailed++
		}
	}

	if report.Due > 0 {
		s.log.Info().
			Int("due", report.Due).
			Int("dispatched", report.Dispatched).
			Int("skipped", report.Skipped).
			Int("push_failed", report.PushFailed).
			Int("update_failed", report.UpdateFailed).
			Msg("poll finished")
	}
	return report, nil
}

func (s *Scheduler) dispatch(ctx context.Context, job types.Job, now time.Time) string {
	log := s.log.With().Int64("job_id", job.ID).Str("job_name", job.Name).Logger()

	env, err := types.DecodeEnvelope(job.Payload)
	if err == nil && env.TaskName == "" {
		err = errEmptyTaskName
	}
	if err != nil {
		log.Error().Err(err).Msg("skipping job with invalid payload")
		return metrics.DispatchSkipped
	}

	// Stores return UTC; evaluate both reference points in s.loc.
	ref := now.In(s.loc)
	if job.LastRunAt != nil {
		ref = job.LastRunAt.In(s.loc)
	}
	next, err := parser.NextRun(job.CronSchedule, ref)
	if err != nil {
		log.Error().Err(err).Str("schedule", job.CronSchedule).Msg("skipping job with invalid schedule")
		return metrics.DispatchSkipped
	}

	body, err := env.EncodeLegacy()
	if err != nil {
		log.Error().Err(err).Msg("skipping job with unencodable payload")
		return metrics.DispatchSkipped
	}

	if err := s.queue.Push(ctx, body); err != nil {
		log.Error().Err(err).Msg("failed to enqueue job")
		return metrics.DispatchPushFailed
	}
	log.Info().Str("task", env.TaskName).RawJSON("payload", body).Msg("job enqueued")

	if err := s.store.UpdateJobRunTimes(ctx, job.ID, now, next); err != nil {
		log.Error().Err(err).Msg("failed to advance job schedule")
		return metrics.DispatchUpdateFailed
	}
	log.Debug().Time("last_run_at", now).Time("next_run_at", next).Msg("job schedule advanced")
	return metrics.DispatchOK
}
