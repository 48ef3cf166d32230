package domain

import "time"

// Status represents the lifecycle state of a registration.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusPendingPayment Status = "pending_payment"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Event represents an action that triggers a state transition.
type Event string

const (
	// EventRegistrationCreated is published when a registration is persisted.
	// It is not part of Transitions: creation sets the initial state.
	EventRegistrationCreated Event = "registration_created"

	EventPaymentOpened    Event = "payment_opened"
	EventPaymentSucceeded Event = "payment_succeeded"
	EventPaymentFailed    Event = "payment_failed"
	EventPaymentAbandoned Event = "payment_abandoned"
)

// Transition defines a valid state change: an event moves a registration from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the registration lifecycle.
// Completed and Failed are terminal: no event leads out of them.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventPaymentOpened, Src: StatusDraft, Dst: StatusPendingPayment},
	{Event: EventPaymentSucceeded, Src: StatusPendingPayment, Dst: StatusCompleted},
	{Event: EventPaymentFailed, Src: StatusPendingPayment, Dst: StatusFailed},
	{Event: EventPaymentAbandoned, Src: StatusPendingPayment, Dst: StatusFailed},
}

// FeeTier determines which price column of a game's fee table applies.
type FeeTier string

const (
	TierHome    FeeTier = "home"
	TierVisitor FeeTier = "visitor"
)

// Player is one roster entry. Entry 0 of a roster is always the team leader.
type Player struct {
	Name          string `json:"name"`
	Handle        string `json:"handle"`
	InstitutionID string `json:"institution_id,omitempty"`
}

// Contact holds the registrant's contact details. Primary and Alternate
// are free-form phone-style strings owned by the team leader.
type Contact struct {
	Email     string `json:"email"`
	Primary   string `json:"primary"`
	Alternate string `json:"alternate"`
}

// Registration is the central aggregate: one team's entry into one game of
// one event, carried through the payment lifecycle.
//
// Amount is a snapshot of the catalog fee taken at creation time, in minor
// currency units. It is never recomputed, so later catalog changes cannot
// alter what an in-flight registration owes.
type Registration struct {
	ID       string
	EventID  string
	GameID   string
	TeamName string
	Contact  Contact
	Roster   []Player
	Tier     FeeTier
	Amount   int64
	Currency string

	// PaymentRef is the gateway reference bound when a payment session is
	// opened. Empty until then. Callbacks must present the same reference.
	PaymentRef string

	Status          Status
	CreatedAt       time.Time
	StatusChangedAt time.Time
}

// NewRegistration creates a registration in the initial Draft state from an
// already validated submission and its snapshotted fee.
func NewRegistration(id string, sub Submission, amount int64, currency string) Registration {
	now := time.Now().UTC()
	return Registration{
		ID:              id,
		EventID:         sub.EventID,
		GameID:          sub.GameID,
		TeamName:        sub.TeamName,
		Contact:         sub.Contact,
		Roster:          sub.Roster,
		Tier:            sub.Tier,
		Amount:          amount,
		Currency:        currency,
		Status:          StatusDraft,
		CreatedAt:       now,
		StatusChangedAt: now,
	}
}

// PaymentSession is the ephemeral handle for one checkout attempt. It is not
// persisted on its own; the reference is bound to the aggregate when the
// session opens so callbacks can be verified after a restart.
type PaymentSession struct {
	RegistrationID string
	Amount         int64
	Currency       string
	Reference      string
	CheckoutURL    string
}

// GatewayOutcome is the payment provider's asynchronous answer for a session.
// It is untrusted input: amount, currency and reference are re-verified
// against the stored aggregate before any state change.
type GatewayOutcome struct {
	Succeeded bool
	Amount    int64
	Currency  string
	Reference string
}
