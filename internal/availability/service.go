package availability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

var availabilityTracer = otel.Tracer("clinic.internal.availability")

// Recorder receives suggestion outcomes. *metrics.SchedulingMetrics satisfies it.
type Recorder interface {
	ObserveSuggestion(outcome string, returned int)
}

// Service runs the engine against the wall clock.
type Service struct {
	policy   Policy
	now      func() time.Time
	recorder Recorder
	logger   *logging.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService constructs a suggestion service for policy.
func NewService(policy Policy, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{policy: policy, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the grid policy the service scans with.
func (s *Service) Policy() Policy {
	return s.policy
}

// Now returns the service clock in the policy's location.
func (s *Service) Now() time.Time {
	return s.now().In(s.policy.location())
}

// Suggest returns the ranked suggestions for the current moment.
func (s *Service) Suggest(ctx context.Context, existing []Interval, durationMinutes int) ([]SuggestedSlot, error) {
	_, span := availabilityTracer.Start(ctx, "availability.suggest")
	defer span.End()

	now := s.now()
	span.SetAttributes(
		attribute.Int("clinic.duration_minutes", durationMinutes),
		attribute.Int("clinic.existing_appointments", len(existing)),
	)

	slots, err := s.policy.Suggest(existing, durationMinutes, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.observe(outcomeFor(err), 0)
		s.logger.Warn("suggestion request rejected", "duration_minutes", durationMinutes, "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("clinic.suggestions", len(slots)))
	outcome := "ok"
	if len(slots) == 0 {
		outcome = "empty"
	}
	s.observe(outcome, len(slots))
	s.logger.Debug("suggestions computed",
		"duration_minutes", durationMinutes,
		"existing", len(existing),
		"returned", len(slots),
		"now", now.Format(time.RFC3339),
	)
	return slots, nil
}

func (s *Service) observe(outcome string, returned int) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveSuggestion(outcome, returned)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrInvalidAppointment):
		return "invalid_appointment"
	default:
		return "error"
	}
}
