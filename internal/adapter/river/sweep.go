package river

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// Sweeper abandons payment sessions that have been pending for too long.
// Implemented by the application service.
type Sweeper interface {
	AbandonStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// SweepArgs is the periodic job that reconciles abandoned payments.
// It carries no data: the worker reads the cutoff from its config.
type SweepArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (SweepArgs) Kind() string { return "payment.sweep" }

// SweepWorker runs the abandonment sweep: PendingPayment registrations
// older than the configured age are failed. Correctness does not depend on
// this job; it only bounds how long an abandoned checkout stays open.
type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]

	sweeper Sweeper
	after   time.Duration
}

// NewSweepWorker creates the sweep worker. after is how long a payment may
// stay pending before it counts as abandoned.
func NewSweepWorker(sweeper Sweeper, after time.Duration) *SweepWorker {
	return &SweepWorker{sweeper: sweeper, after: after}
}

// Work runs one sweep pass.
func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepArgs]) error {
	abandoned, err := w.sweeper.AbandonStale(ctx, w.after)
	if err != nil {
		return err
	}
	if abandoned > 0 {
		slog.InfoContext(ctx, "payment sweep finished",
			"abandoned", abandoned,
			"older_than", w.after,
			"job_id", job.ID,
		)
	}
	return nil
}
