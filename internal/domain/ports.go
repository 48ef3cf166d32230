package domain

import (
	"context"
	"time"
)

// RegistrationRepository defines the persistence contract for registrations.
// UpdateStatus and OpenPayment are compare-and-swap primitives: they mutate
// only when the stored status matches the expected prior status, and are
// atomic per registration. They are the sole mutation path after Create.
type RegistrationRepository interface {
	Create(ctx context.Context, reg Registration) error
	GetByID(ctx context.Context, id string) (Registration, error)
	List(ctx context.Context, filter ListFilter) ([]Registration, error)

	// FindActive returns the registrant's most recent non-failed
	// registration for a game, or ErrRegistrationNotFound.
	FindActive(ctx context.Context, email, gameID string) (Registration, error)

	// UpdateStatus swaps status from→to; *ConflictError when the stored
	// status differs, ErrRegistrationNotFound when the row is absent.
	UpdateStatus(ctx context.Context, id string, from, to Status) error

	// OpenPayment moves a Draft or PendingPayment registration to
	// PendingPayment and binds the gateway reference, atomically.
	// Terminal registrations are left untouched and reported as conflict.
	OpenPayment(ctx context.Context, id, ref string) error

	// ListStalePending returns PendingPayment registrations whose last
	// status change is before the cutoff, for the abandonment sweep.
	ListStalePending(ctx context.Context, before time.Time) ([]Registration, error)
}

// ListFilter holds optional criteria for listing registrations.
type ListFilter struct {
	EventID string
	GameID  string
	Status  *Status
	Limit   int
	Offset  int
}

// TransitionValidator checks lifecycle transitions against the domain's
// transition table and returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, reg Registration) error
}

// CheckoutRequest is what the payment gateway needs to open a checkout for
// one session. Amount is in minor currency units.
type CheckoutRequest struct {
	Amount      int64
	Currency    string
	Reference   string
	Receipt     string
	Description string
	Email       string
	Contact     string
}

// PaymentGateway is the opaque checkout provider. OpenCheckout returns a
// handle (typically a URL) the presentation layer forwards the user to; the
// outcome arrives later through a callback.
type PaymentGateway interface {
	OpenCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

// Identity is what the authentication provider exposes about the caller.
type Identity struct {
	Email string
}

// IdentityProvider is the opaque authentication provider. Used only to
// prefill contact details and infer the fee tier; never for authorization.
type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (Identity, bool)
}
