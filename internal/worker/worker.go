package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/RezaEskandarii/cronfire/internal/metrics"
	"github.com/RezaEskandarii/cronfire/internal/queue"
	"github.com/RezaEskandarii/cronfire/internal/state"
	"github.com/RezaEskandarii/cronfire/internal/task"
	"github.com/RezaEskandarii/cronfire/types"
	"github.com/rs/zerolog"
)

// Worker pops envelopes from the queue and runs the matching task.
// Any number of workers may share one queue.
type Worker struct {
	id         string
	dial       queue.Dialer
	registry   *task.Registry
	log        zerolog.Logger
	metrics    *metrics.Metrics
	popTimeout time.Duration
	backoff    *Backoff
	onState    func(from, to state.WorkerState)

	mu    sync.Mutex
	state state.WorkerState
}

type Option func(*Worker)

func WithID(id string) Option {
	return func(w *Worker) {
		w.id = id
	}
}

func WithPopTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.popTimeout = d
		}
	}
}

func WithBackoff(min, max time.Duration) Option {
	return func(w *Worker) {
		w.backoff = NewBackoff(min, max)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithStateHook registers fn to be called on every state change.
func WithStateHook(fn func(from, to state.WorkerState)) Option {
	return func(w *Worker) {
		w.onState = fn
	}
}

func New(dial queue.Dialer, registry *task.Registry, log zerolog.Logger, opts ...Option) *Worker {
	w := &Worker{
		dial:       dial,
		registry:   registry,
		popTimeout: 5 * time.Second,
		backoff:    NewBackoff(time.Second, 30*time.Second),
		state:      state.StateConnecting,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = log.With().Str("worker_id", w.id).Logger()
	return w
}

// State returns the current lifecycle state.
func (w *Worker) State() state.WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) setState(to state.WorkerState) {
	w.mu.Lock()
	from := w.state
	if from == to {
		w.mu.Unlock()
		return
	}
	w.state = to
	w.mu.Unlock()

	if !state.IsValidTransition(from, to) {
		w.log.Warn().Stringer("from", from).Stringer("to", to).Msg("unexpected state transition")
	}
	w.log.Debug().Stringer("from", from).Stringer("to", to).Msg("state changed")

	all := make([]string, len(state.AllStates))
	for i, s := range state.AllStates {
		all[i] = s.String()
	}
	w.metrics.SetState(to.String(), all)

	if w.onState != nil {
		w.onState(from, to)
	}
}

// Run consumes the queue until ctx is cancelled. A message already popped is
// always processed to completion. The queue connection is closed on return.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Strs("tasks", w.registry.List()).Msg("worker started")

	var q queue.Queue
	defer func() {
		w.setState(state.StateDraining)
		if q != nil {
			if err := q.Close(); err != nil {
				w.log.Warn().Err(err).Msg("failed to close queue connection")
			}
		}
		w.setState(state.StateStopped)
		w.log.Info().Msg("worker stopped")
	}()

	for ctx.Err() == nil {
		if q == nil {
			conn, err := w.dial(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.retryAfter(ctx, err, "failed to connect to queue")
				continue
			}
			q = conn
			w.setState(state.StateConnected)
			w.log.Info().Msg("connected to queue")
		}

		raw, err := q.Pop(ctx, w.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if cerr := q.Close(); cerr != nil {
				w.log.Debug().Err(cerr).Msg("close after connection error")
			}
			q = nil
			w.setState(state.StateConnecting)
			w.metrics.Reconnected()
			w.retryAfter(ctx, err, "queue connection lost")
			continue
		}
		if raw == nil {
			w.setState(state.StateIdle)
			continue
		}

		w.backoff.Reset()
		w.setState(state.StateProcessing)
		w.ProcessEnvelope(context.WithoutCancel(ctx), raw)
		w.setState(state.StateIdle)
	}
	return nil
}

func (w *Worker) retryAfter(ctx context.Context, err error, msg string) {
	d := w.backoff.Next()
	w.log.Warn().Err(err).Dur("retry_in", d).Msg(msg)
	wait(ctx, d)
}

// ProcessEnvelope decodes raw and runs its task. It never panics and never
// returns an error: every failure is logged and classified in the result.
func (w *Worker) ProcessEnvelope(ctx context.Context, raw []byte) (res types.JobResult) {
	log := w.log
	log.Info().Str("envelope", string(raw)).Msg("envelope received")

	defer func() {
		w.metrics.Processed(res.Outcome.String())
	}()

	env, err := types.DecodeEnvelope(raw)
	if err != nil {
		log.Error().Err(err).Msg("dropping malformed envelope")
		return types.JobResult{Outcome: types.OutcomeMalformed, Err: err}
	}

	log = log.With().Str("task", env.TaskName).Logger()
	handler, err := w.registry.Lookup(env.TaskName)
	if err != nil {
		log.Error().Err(err).Msg("dropping envelope for unregistered task")
		return types.JobResult{TaskName: env.TaskName, Outcome: types.OutcomeUnknownTask, Err: err}
	}

	log.Info().Interface("args", env.Args).Interface("kwargs", env.Kwargs).Msg("running task")
	start := time.Now()
	result, err := runHandler(log.WithContext(ctx), handler, env)
	elapsed := time.Since(start)
	w.metrics.ObserveTask(env.TaskName, elapsed)

	if err != nil {
		log.Error().Err(err).Dur("duration", elapsed).Msg("task failed")
		return types.JobResult{TaskName: env.TaskName, Outcome: types.OutcomeFailed, Err: err, Duration: elapsed}
	}
	log.Info().Interface("result", result).Dur("duration", elapsed).Msg("task completed")
	return types.JobResult{TaskName: env.TaskName, Outcome: types.OutcomeSucceeded, Result: result, Duration: elapsed}
}

// ErrTaskPanicked wraps a panic recovered from a task handler.
var ErrTaskPanicked = errors.New("task panicked")

func runHandler(ctx context.Context, h task.Handler, env types.Envelope) (result types.TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Bytes("stack", debug.Stack()).Msg("recovered from task panic")
			result = nil
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return h.Run(ctx, env.Args, env.Kwargs)
}
