package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/openbracket/regatta/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// RegistrationEventArgs carries the data needed to process a domain event
// asynchronously. River serializes this as JSON into its job queue table.
// It includes a snapshot of the registration at the time the event was
// published, so the worker never needs to query the database.
type RegistrationEventArgs struct {
	Event          string `json:"event"`
	RegistrationID string `json:"registration_id"`
	EventID        string `json:"tournament_event_id"`
	GameID         string `json:"game_id"`
	TeamName       string `json:"team_name"`
	Status         string `json:"status"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (RegistrationEventArgs) Kind() string { return "registration.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
// An insert-only client (NewInsertClient) is enough.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a domain event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event, reg domain.Registration) error {
	_, err := p.client.Insert(ctx, RegistrationEventArgs{
		Event:          string(event),
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		GameID:         reg.GameID,
		TeamName:       reg.TeamName,
		Status:         string(reg.Status),
		Amount:         reg.Amount,
		Currency:       reg.Currency,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
