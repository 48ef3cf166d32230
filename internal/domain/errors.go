package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrRegistrationNotFound = errors.New("registration not found")
)

// CatalogError is returned when a catalog definition is malformed.
type CatalogError struct {
	GameID string
	Reason string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog entry %q: %s", e.GameID, e.Reason)
}

// UnknownGameError is returned when a game id is not in the catalog.
// A client error: callers must not retry.
type UnknownGameError struct {
	GameID string
}

func (e *UnknownGameError) Error() string {
	return fmt.Sprintf("unknown game %q", e.GameID)
}

// RosterSizeError is returned when a roster does not have exactly the
// player count the game requires.
type RosterSizeError struct {
	GameID   string
	Expected int
	Actual   int
}

func (e *RosterSizeError) Error() string {
	return fmt.Sprintf("game %q requires exactly %d players, got %d", e.GameID, e.Expected, e.Actual)
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries every field-level failure of a submission, in
// field order, so the caller can surface all of them in one round-trip.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// DuplicateRegistrationError is returned when the registrant already has an
// active registration for the same game.
type DuplicateRegistrationError struct {
	Email      string
	GameID     string
	ExistingID string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("%s already has an active registration %s for game %q", e.Email, e.ExistingID, e.GameID)
}

// ConflictError is returned when a compare-and-swap status update finds a
// different stored status than expected. Expected under concurrency:
// callers re-read the current status and proceed.
type ConflictError struct {
	ID   string
	From Status
	To   Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registration %s is no longer %q, cannot move to %q", e.ID, e.From, e.To)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// StaleCallbackError is returned when a gateway outcome does not match the
// stored aggregate (amount, currency or reference). The outcome is rejected
// and never applied; these are logged as security-relevant events.
type StaleCallbackError struct {
	RegistrationID string
	Reason         string
}

func (e *StaleCallbackError) Error() string {
	return fmt.Sprintf("stale gateway callback for registration %s: %s", e.RegistrationID, e.Reason)
}
