package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openbracket/regatta/internal/domain"
)

// AbandonStale moves PendingPayment registrations whose last status change
// is older than the given age to Failed. It uses the same compare-and-swap
// as finalize, so a callback racing the sweep resolves to exactly one
// terminal status; the sweep simply skips records it loses. Returns the
// number of registrations abandoned.
func (s *RegistrationService) AbandonStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	stale, err := s.repo.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing stale pending registrations: %w", err)
	}

	abandoned := 0
	for _, reg := range stale {
		dst, err := s.validator.Apply(ctx, reg.Status, domain.EventPaymentAbandoned)
		if err != nil {
			return abandoned, err
		}

		if err := s.repo.UpdateStatus(ctx, reg.ID, reg.Status, dst); err != nil {
			var conflict *domain.ConflictError
			if errors.As(err, &conflict) {
				// A finalize won the race; nothing to abandon.
				continue
			}
			return abandoned, fmt.Errorf("abandoning registration %s: %w", reg.ID, err)
		}

		reg.Status = dst
		if err := s.publisher.Publish(ctx, domain.EventPaymentAbandoned, reg); err != nil {
			return abandoned, fmt.Errorf("publishing abandonment event: %w", err)
		}

		slog.InfoContext(ctx, "abandoned stale payment",
			"registration_id", reg.ID,
			"pending_since", reg.StatusChangedAt,
		)
		abandoned++
	}

	return abandoned, nil
}
