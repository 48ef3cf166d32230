package domain_test

import (
	"testing"

	"github.com/openbracket/regatta/internal/domain"
)

func TestRosterSizeError_Error(t *testing.T) {
	err := &domain.RosterSizeError{GameID: "bgmi", Expected: 4, Actual: 3}
	want := `game "bgmi" requires exactly 4 players, got 3`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTransitionError_Error(t *testing.T) {
	err := &domain.TransitionError{
		Event:   domain.EventPaymentSucceeded,
		Current: domain.StatusDraft,
	}
	want := `event "payment_succeeded" is not valid from state "draft"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationError_ListsEveryField(t *testing.T) {
	err := &domain.ValidationError{Fields: []domain.FieldError{
		{Field: "team_name", Message: "team name is required"},
		{Field: "roster[1].handle", Message: "in-game name is required"},
	}}
	want := "invalid submission: team_name: team name is required; roster[1].handle: in-game name is required"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConflictError_Error(t *testing.T) {
	err := &domain.ConflictError{
		ID:   "r-1",
		From: domain.StatusPendingPayment,
		To:   domain.StatusCompleted,
	}
	want := `registration r-1 is no longer "pending_payment", cannot move to "completed"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
