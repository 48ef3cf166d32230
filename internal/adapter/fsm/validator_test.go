package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/openbracket/regatta/internal/adapter/fsm"
	"github.com/openbracket/regatta/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// A payment cannot succeed before a session was opened.
	_, err := v.Apply(ctx, domain.StatusDraft, domain.EventPaymentSucceeded)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Event != domain.EventPaymentSucceeded {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventPaymentSucceeded)
	}
	if trErr.Current != domain.StatusDraft {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusDraft)
	}
}

func TestValidator_TerminalStatesHaveNoExit(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	events := []domain.Event{
		domain.EventPaymentOpened,
		domain.EventPaymentSucceeded,
		domain.EventPaymentFailed,
		domain.EventPaymentAbandoned,
	}

	for _, status := range []domain.Status{domain.StatusCompleted, domain.StatusFailed} {
		for _, event := range events {
			_, err := v.Apply(ctx, status, event)
			var trErr *domain.TransitionError
			if !errors.As(err, &trErr) {
				t.Errorf("Apply(%q, %q): expected TransitionError, got %v", status, event, err)
			}
		}
	}
}

func TestValidator_FullLifecycle(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		event domain.Event
		want  domain.Status
	}{
		{domain.EventPaymentOpened, domain.StatusPendingPayment},
		{domain.EventPaymentSucceeded, domain.StatusCompleted},
	}

	current := domain.StatusDraft
	for _, step := range steps {
		next, err := v.Apply(ctx, current, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) failed: %v", current, step.event, err)
		}
		if next != step.want {
			t.Fatalf("Apply(%q, %q) = %q, want %q", current, step.event, next, step.want)
		}
		current = next
	}
}

func TestValidator_AbandonmentPath(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	next, err := v.Apply(ctx, domain.StatusPendingPayment, domain.EventPaymentAbandoned)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if next != domain.StatusFailed {
		t.Errorf("abandonment = %q, want %q", next, domain.StatusFailed)
	}
}
