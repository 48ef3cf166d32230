package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
)

// SweepConfig controls the periodic abandonment sweep.
type SweepConfig struct {
	// After is how long a PendingPayment registration may sit before the
	// sweep fails it.
	After time.Duration
	// Every is the sweep interval.
	Every time.Duration
}

// Migrate runs River's internal migrations (creates river_job, river_leader,
// etc.). These are separate from the app's goose migrations. Safe to run
// more than once.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrator, err := rivermigrate.New(riversqlite.New(db), nil)
	if err != nil {
		return fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("running river migrations: %w", err)
	}
	return nil
}

// NewInsertClient creates an insert-only River client on the shared
// database, for enqueuing jobs from the request path. Migrate must have run
// first.
func NewInsertClient(db *sql.DB) (*Client, error) {
	client, err := river.NewClient(riversqlite.New(db), &river.Config{})
	if err != nil {
		return nil, fmt.Errorf("creating insert-only river client: %w", err)
	}
	return client, nil
}

// Setup creates the worker-side River client with the event worker and the
// periodic payment sweep registered, and runs River's internal migrations.
// The caller must call client.Start() to begin processing jobs and
// client.Stop() for graceful shutdown.
func Setup(ctx context.Context, db *sql.DB, sweeper Sweeper, cfg SweepConfig) (*Client, error) {
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &EventWorker{})
	river.AddWorker(workers, NewSweepWorker(sweeper, cfg.After))

	client, err := river.NewClient(riversqlite.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.Every),
				func() (river.JobArgs, *river.InsertOpts) {
					return SweepArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
