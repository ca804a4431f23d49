// Package builtin holds the reference tasks shipped with cronfire.
package builtin

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/RezaEskandarii/cronfire/internal/task"
)

const (
	SendEmailTask      = "send_email"
	GenerateReportTask = "generate_report"

	DefaultReportIterations = 200_000_000
)

// Options tunes the simulated costs of the reference tasks.
type Options struct {
	// EmailDelay returns how long a send takes. Defaults to a random 0.5s..2s.
	EmailDelay func() time.Duration
	// ReportIterations is the default CPU loop length for generate_report.
	ReportIterations int
	// ReportPause returns the simulated write-out time after the loop. Defaults to a random 2s..4s.
	ReportPause func() time.Duration
	// RowCount returns the reported row count. Defaults to a random 100..1000.
	RowCount func() int
}

func (o Options) withDefaults() Options {
	if o.EmailDelay == nil {
		o.EmailDelay = randomDuration(500*time.Millisecond, 2*time.Second)
	}
	if o.ReportIterations <= 0 {
		o.ReportIterations = DefaultReportIterations
	}
	if o.ReportPause == nil {
		o.ReportPause = randomDuration(2*time.Second, 4*time.Second)
	}
	if o.RowCount == nil {
		o.RowCount = func() int { return 100 + rand.IntN(901) }
	}
	return o
}

// Register adds every reference task to r.
func Register(r *task.Registry, opts Options) error {
	opts = opts.withDefaults()
	for _, h := range []task.Handler{SendEmail(opts), GenerateReport(opts)} {
		if err := r.Register(h); err != nil {
			return err
		}
	}
	return nil
}

func randomDuration(lo, hi time.Duration) func() time.Duration {
	return func() time.Duration {
		return lo + rand.N(hi-lo)
	}
}

// sleep waits for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
