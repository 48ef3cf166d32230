package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/openbracket/regatta/internal/domain"
)

const tracerName = "github.com/openbracket/regatta/internal/adapter/otel"

// TracingRepository wraps a domain.RegistrationRepository with OpenTelemetry
// tracing. Each method creates a span with semantic attributes and records
// errors. Compare-and-swap conflicts are recorded too: they are expected
// under concurrency but worth seeing in traces.
type TracingRepository struct {
	next   domain.RegistrationRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.RegistrationRepository.
var _ domain.RegistrationRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.RegistrationRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, reg domain.Registration) error {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.Create",
		trace.WithAttributes(
			attribute.String("registration.id", reg.ID),
			attribute.String("registration.game_id", reg.GameID),
			attribute.String("registration.tier", string(reg.Tier)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, reg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (domain.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.GetByID",
		trace.WithAttributes(attribute.String("registration.id", id)),
	)
	defer span.End()

	reg, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return reg, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.List",
		trace.WithAttributes(
			attribute.String("filter.event_id", filter.EventID),
			attribute.String("filter.game_id", filter.GameID),
		),
	)
	defer span.End()

	regs, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("result.count", len(regs)))
	return regs, nil
}

func (r *TracingRepository) FindActive(ctx context.Context, email, gameID string) (domain.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.FindActive",
		trace.WithAttributes(attribute.String("registration.game_id", gameID)),
	)
	defer span.End()

	reg, err := r.next.FindActive(ctx, email, gameID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return reg, err
}

func (r *TracingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.UpdateStatus",
		trace.WithAttributes(
			attribute.String("registration.id", id),
			attribute.String("transition.from", string(from)),
			attribute.String("transition.to", string(to)),
		),
	)
	defer span.End()

	err := r.next.UpdateStatus(ctx, id, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) OpenPayment(ctx context.Context, id, ref string) error {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.OpenPayment",
		trace.WithAttributes(
			attribute.String("registration.id", id),
			attribute.String("payment.reference", ref),
		),
	)
	defer span.End()

	err := r.next.OpenPayment(ctx, id, ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) ListStalePending(ctx context.Context, before time.Time) ([]domain.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.ListStalePending",
		trace.WithAttributes(attribute.String("cutoff", before.Format(time.RFC3339))),
	)
	defer span.End()

	regs, err := r.next.ListStalePending(ctx, before)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("result.count", len(regs)))
	return regs, nil
}
