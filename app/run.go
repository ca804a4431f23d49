package app

import (
	"context"
	"fmt"

	"github.com/RezaEskandarii/cronfire/internal/logging"
	"github.com/RezaEskandarii/cronfire/internal/metrics"
	"github.com/RezaEskandarii/cronfire/internal/queue"
	"github.com/RezaEskandarii/cronfire/internal/scheduler"
	"github.com/RezaEskandarii/cronfire/internal/worker"
	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"
)

// RunScheduler opens the job store and runs the scheduler loop until ctx is
// cancelled. Startup failures are returned; loop failures never are.
func RunScheduler(ctx context.Context, c *Container) error {
	log := logging.Component(c.Log, "scheduler")

	jobStore, err := c.OpenStore(ctx)
	if err != nil {
		return err
	}

	q := queue.NewRedialingQueue(c.Dialer)
	defer func() {
		if err := q.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close queue connection")
		}
	}()

	s := scheduler.New(jobStore, q, log,
		scheduler.WithInterval(c.Config.Scheduler.Interval),
		scheduler.WithLocation(c.Config.Scheduler.Location()),
		scheduler.WithMetrics(c.Metrics),
	)
	return c.serve(ctx, s.Run)
}

// RunWorker runs the worker loop until ctx is cancelled.
func RunWorker(ctx context.Context, c *Container) error {
	w := c.NewWorker()
	return c.serve(ctx, w.Run)
}

// NewWorker builds a worker from the container configuration.
func (c *Container) NewWorker() *worker.Worker {
	wc := c.Config.Worker
	return worker.New(c.Dialer, c.Registry, logging.Component(c.Log, "worker"),
		worker.WithID(wc.ID),
		worker.WithPopTimeout(wc.PopTimeout),
		worker.WithBackoff(wc.BackoffMin, wc.BackoffMax),
		worker.WithMetrics(c.Metrics),
	)
}

// serve runs loop next to the optional metrics endpoint and reports readiness
// to systemd. If the metrics server fails, the loop is stopped too.
func (c *Container) serve(ctx context.Context, loop func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop(gctx)
	})
	if addr := c.Config.MetricsAddr; addr != "" {
		g.Go(func() error {
			if err := metrics.Serve(gctx, addr, c.Metrics, c.Log); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	c.notify(daemon.SdNotifyReady)
	go func() {
		<-gctx.Done()
		c.notify(daemon.SdNotifyStopping)
	}()

	return g.Wait()
}

// notify is a no-op outside systemd.
func (c *Container) notify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		c.Log.Debug().Err(err).Str("state", state).Msg("sd_notify failed")
	}
}
