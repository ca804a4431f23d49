package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dispatch results.
const (
	DispatchOK           = "ok"
	DispatchPushFailed   = "push_failed"
	DispatchUpdateFailed = "update_failed"
	DispatchSkipped      = "skipped"
)

// Metrics groups the scheduler and worker collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	JobsDispatchedTotal     *prometheus.CounterVec
	PollErrorsTotal         prometheus.Counter
	EnvelopesProcessedTotal *prometheus.CounterVec
	QueueReconnectsTotal    prometheus.Counter
	TaskDurationSeconds     *prometheus.HistogramVec
	WorkerState             *prometheus.GaugeVec
}

// New registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,

		JobsDispatchedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cronfire_jobs_dispatched_total",
				Help: "Due jobs handled by the scheduler, by result",
			},
			[]string{"result"}, // ok, push_failed, update_failed, skipped
		),
		PollErrorsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "cronfire_poll_errors_total",
				Help: "Scheduler polls whose due-job fetch failed",
			},
		),
		EnvelopesProcessedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cronfire_envelopes_processed_total",
				Help: "Envelopes dequeued by workers, by outcome",
			},
			[]string{"outcome"},
		),
		QueueReconnectsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "cronfire_queue_reconnects_total",
				Help: "Queue connections rebuilt after a connection-level failure",
			},
		),
		// Buckets: 10ms .. ~163s
		TaskDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cronfire_task_duration_seconds",
				Help:    "Task handler execution time in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
			},
			[]string{"task"},
		),
		WorkerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cronfire_worker_state",
				Help: "1 for the worker loop's current state, 0 otherwise",
			},
			[]string{"state"},
		),
	}
}

func (m *Metrics) Dispatched(result string) {
	if m == nil {
		return
	}
	m.JobsDispatchedTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) PollFailed() {
	if m == nil {
		return
	}
	m.PollErrorsTotal.Inc()
}

func (m *Metrics) Processed(outcome string) {
	if m == nil {
		return
	}
	m.EnvelopesProcessedTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Reconnected() {
	if m == nil {
		return
	}
	m.QueueReconnectsTotal.Inc()
}

func (m *Metrics) ObserveTask(task string, d time.Duration) {
	if m == nil {
		return
	}
	m.TaskDurationSeconds.WithLabelValues(task).Observe(d.Seconds())
}

// SetState marks current as the active state among all.
func (m *Metrics) SetState(current string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		m.WorkerState.WithLabelValues(s).Set(v)
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, m *Metrics, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
