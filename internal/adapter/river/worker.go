package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes registration event jobs from the River queue.
// For now it logs the event; future versions will dispatch confirmation
// mail or operator webhooks.
type EventWorker struct {
	river.WorkerDefaults[RegistrationEventArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[RegistrationEventArgs]) error {
	slog.InfoContext(ctx, "processing registration event",
		"event", job.Args.Event,
		"registration_id", job.Args.RegistrationID,
		"game_id", job.Args.GameID,
		"status", job.Args.Status,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
