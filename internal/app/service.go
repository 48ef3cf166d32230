package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openbracket/regatta/internal/domain"
)

// Config holds the service's payment settings.
type Config struct {
	// Currency is the settlement currency for every registration (minor
	// units). Multi-currency settlement is out of scope.
	Currency string

	// GatewayTimeout bounds the checkout call. After it expires the
	// session counts as abandoned; the registration stays PendingPayment
	// until a retry or the sweep reconciles it.
	GatewayTimeout time.Duration
}

// RegistrationService orchestrates the registration-to-payment workflow:
// validate a roster, snapshot the fee, persist the aggregate, open payment
// sessions and reconcile gateway outcomes exactly once.
type RegistrationService struct {
	catalog   *domain.Catalog
	repo      domain.RegistrationRepository
	gateway   domain.PaymentGateway
	publisher domain.EventPublisher
	validator domain.TransitionValidator
	identity  domain.IdentityProvider
	cfg       Config
}

// NewRegistrationService creates a service with the given adapters.
func NewRegistrationService(
	catalog *domain.Catalog,
	repo domain.RegistrationRepository,
	gateway domain.PaymentGateway,
	publisher domain.EventPublisher,
	validator domain.TransitionValidator,
	identity domain.IdentityProvider,
	cfg Config,
) *RegistrationService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 30 * time.Second
	}
	return &RegistrationService{
		catalog:   catalog,
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		validator: validator,
		identity:  identity,
		cfg:       cfg,
	}
}

// Submit validates a submission, snapshots the fee and persists a Draft
// registration. On validation failure the caller gets every offending field
// at once and nothing is persisted.
func (s *RegistrationService) Submit(ctx context.Context, sub domain.Submission) (domain.Registration, error) {
	// Prefill from the authentication provider when the caller left the
	// email empty; the tier inference then runs on the identity's address.
	if sub.Contact.Email == "" && s.identity != nil {
		if id, ok := s.identity.CurrentIdentity(ctx); ok {
			sub.Contact.Email = id.Email
		}
	}

	sub, err := domain.ValidateSubmission(s.catalog, sub)
	if err != nil {
		return domain.Registration{}, err
	}

	// Best-effort "one active registration per registrant per game". The
	// read-then-write window is tolerated; duplicates that slip through
	// show up in the operator list view.
	if existing, err := s.repo.FindActive(ctx, sub.Contact.Email, sub.GameID); err == nil {
		return domain.Registration{}, &domain.DuplicateRegistrationError{
			Email:      sub.Contact.Email,
			GameID:     sub.GameID,
			ExistingID: existing.ID,
		}
	} else if !errors.Is(err, domain.ErrRegistrationNotFound) {
		return domain.Registration{}, fmt.Errorf("checking for active registration: %w", err)
	}

	// The single fee computation for this registration; the result lives
	// on the aggregate from here on.
	amount, err := s.catalog.AmountFor(sub.GameID, sub.Tier)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("computing entry fee: %w", err)
	}

	id, err := generateID()
	if err != nil {
		return domain.Registration{}, fmt.Errorf("generating registration id: %w", err)
	}

	reg := domain.NewRegistration(id, sub, amount, s.cfg.Currency)

	if err := s.repo.Create(ctx, reg); err != nil {
		return domain.Registration{}, fmt.Errorf("creating registration: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventRegistrationCreated, reg); err != nil {
		return domain.Registration{}, fmt.Errorf("publishing creation event: %w", err)
	}

	return reg, nil
}

// BeginPayment opens a payment session for a registration. The status moves
// to PendingPayment before the gateway is contacted, so a crash mid-call
// leaves a recoverable PendingPayment record rather than a lost Draft.
// Re-opening from PendingPayment is allowed (new session, same aggregate);
// terminal registrations conflict.
func (s *RegistrationService) BeginPayment(ctx context.Context, id string) (domain.PaymentSession, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.PaymentSession{}, err
	}

	switch reg.Status {
	case domain.StatusDraft:
		if _, err := s.validator.Apply(ctx, reg.Status, domain.EventPaymentOpened); err != nil {
			return domain.PaymentSession{}, err
		}
	case domain.StatusPendingPayment:
		// Retry after an abandoned attempt: a fresh reference replaces
		// the old one, invalidating callbacks for the dead session.
	default:
		return domain.PaymentSession{}, &domain.ConflictError{
			ID:   id,
			From: domain.StatusDraft,
			To:   domain.StatusPendingPayment,
		}
	}

	ref := uuid.NewString()
	if err := s.repo.OpenPayment(ctx, id, ref); err != nil {
		// Lost a race to a finalize or sweep; report the conflict.
		return domain.PaymentSession{}, err
	}

	def, err := s.catalog.Lookup(reg.GameID)
	if err != nil {
		return domain.PaymentSession{}, fmt.Errorf("resolving game for checkout: %w", err)
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	checkoutURL, err := s.gateway.OpenCheckout(gwCtx, domain.CheckoutRequest{
		Amount:      reg.Amount,
		Currency:    reg.Currency,
		Reference:   ref,
		Receipt:     "reg_" + reg.ID,
		Description: fmt.Sprintf("%s registration, team %s", def.Name, reg.TeamName),
		Email:       reg.Contact.Email,
		Contact:     reg.Contact.Primary,
	})
	if err != nil {
		// The record stays PendingPayment on purpose: the caller retries
		// BeginPayment or the sweep fails it after the timeout. Never
		// guess the outcome.
		return domain.PaymentSession{}, fmt.Errorf("opening checkout: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventPaymentOpened, reg); err != nil {
		return domain.PaymentSession{}, fmt.Errorf("publishing payment event: %w", err)
	}

	return domain.PaymentSession{
		RegistrationID: reg.ID,
		Amount:         reg.Amount,
		Currency:       reg.Currency,
		Reference:      ref,
		CheckoutURL:    checkoutURL,
	}, nil
}

// FinalizePayment reconciles a gateway outcome against the stored aggregate
// exactly once. The outcome is untrusted: amount, currency and reference
// must match what was stored when the session opened, otherwise it is a
// StaleCallbackError and no state changes. Replays of an already applied
// outcome return the stored terminal status without mutating.
func (s *RegistrationService) FinalizePayment(ctx context.Context, id string, outcome domain.GatewayOutcome) (domain.Status, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if err := verifyOutcome(reg, outcome); err != nil {
		slog.WarnContext(ctx, "rejecting stale gateway callback",
			"registration_id", id,
			"stored_amount", reg.Amount,
			"callback_amount", outcome.Amount,
			"callback_currency", outcome.Currency,
			"error", err,
		)
		return "", err
	}

	// Idempotent replay: the same outcome delivered again is a no-op.
	if reg.Status.Terminal() {
		return reg.Status, nil
	}

	event := domain.EventPaymentFailed
	if outcome.Succeeded {
		event = domain.EventPaymentSucceeded
	}

	dst, err := s.validator.Apply(ctx, reg.Status, event)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateStatus(ctx, id, reg.Status, dst); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			// Lost the compare-and-swap to a concurrent finalize or the
			// abandonment sweep: answer with the winner's stored status.
			current, getErr := s.repo.GetByID(ctx, id)
			if getErr != nil {
				return "", getErr
			}
			if current.Status.Terminal() {
				return current.Status, nil
			}
		}
		return "", err
	}

	reg.Status = dst
	if err := s.publisher.Publish(ctx, event, reg); err != nil {
		return "", fmt.Errorf("publishing event %q: %w", event, err)
	}

	return dst, nil
}

// verifyOutcome checks the gateway's claims against the aggregate.
func verifyOutcome(reg domain.Registration, outcome domain.GatewayOutcome) error {
	switch {
	case reg.PaymentRef == "":
		return &domain.StaleCallbackError{RegistrationID: reg.ID, Reason: "no payment session was opened"}
	case outcome.Reference != reg.PaymentRef:
		return &domain.StaleCallbackError{RegistrationID: reg.ID, Reason: "reference does not match the open session"}
	case outcome.Amount != reg.Amount:
		return &domain.StaleCallbackError{RegistrationID: reg.ID, Reason: fmt.Sprintf("amount %d does not match stored %d", outcome.Amount, reg.Amount)}
	case outcome.Currency != reg.Currency:
		return &domain.StaleCallbackError{RegistrationID: reg.ID, Reason: fmt.Sprintf("currency %q does not match stored %q", outcome.Currency, reg.Currency)}
	}
	return nil
}

// GetByID returns a registration by its identifier.
func (s *RegistrationService) GetByID(ctx context.Context, id string) (domain.Registration, error) {
	return s.repo.GetByID(ctx, id)
}

// GetStatus returns just the lifecycle status of a registration.
func (s *RegistrationService) GetStatus(ctx context.Context, id string) (domain.Status, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return reg.Status, nil
}

// List returns registrations matching the given filter.
func (s *RegistrationService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Registration, error) {
	return s.repo.List(ctx, filter)
}

// Catalog exposes the game catalog for listing endpoints.
func (s *RegistrationService) Catalog() *domain.Catalog {
	return s.catalog
}
