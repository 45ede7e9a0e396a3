package appointments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-calendar/internal/availability"
	"github.com/wolfman30/clinic-calendar/internal/notify"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

var bookingTracer = otel.Tracer("clinic.internal.appointments")

// Recorder receives booking outcomes. *metrics.SchedulingMetrics satisfies it.
type Recorder interface {
	ObserveBooking(outcome string)
	SetActiveAppointments(n int)
}

// Patient identifies who a booking is for.
type Patient struct {
	ID    string
	Name  string
	Email string
}

// Details are the descriptive fields of a booking.
type Details struct {
	Title          string
	Notes          string
	PractitionerID string
}

// BookingService turns a selected slot into an appointment and tells the
// patient about it.
type BookingService struct {
	calendar *Calendar
	email    notify.EmailSender
	recorder Recorder
	logger   *logging.Logger
}

// NewBookingService constructs the booking flow. email and recorder may be nil.
func NewBookingService(calendar *Calendar, email notify.EmailSender, recorder Recorder, logger *logging.Logger) *BookingService {
	if calendar == nil {
		panic("appointments: calendar required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingService{calendar: calendar, email: email, recorder: recorder, logger: logger}
}

// BookSlot books slot for patient.
func (s *BookingService) BookSlot(ctx context.Context, patient Patient, slot availability.Interval, details Details) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.patient_id", patient.ID),
		attribute.String("clinic.slot_start", slot.Start.String()),
	)

	appt, err := s.calendar.Book(ctx, BookRequest{
		PatientID:      patient.ID,
		PatientName:    patient.Name,
		PractitionerID: details.PractitionerID,
		Title:          details.Title,
		Notes:          details.Notes,
		Start:          slot.Start,
		End:            slot.End,
	})
	if err != nil {
		span.RecordError(err)
		s.observe(bookingOutcome(err))
		return nil, err
	}
	span.SetAttributes(attribute.String("clinic.appointment_id", appt.ID.String()))
	s.observe("booked")

	s.sendEmail(ctx, patient.Email, notify.BookingConfirmation(notify.Visit{
		PatientName:  patient.Name,
		PatientEmail: patient.Email,
		Title:        appt.Title,
		Start:        appt.Start,
		End:          appt.End,
	}))
	return appt, nil
}

// Cancel cancels an appointment and notifies the patient when an email is given.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, notifyEmail string) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id.String()))

	appt, err := s.calendar.Cancel(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.observe("cancelled")

	s.sendEmail(ctx, notifyEmail, notify.CancellationNotice(notify.Visit{
		PatientName:  appt.PatientName,
		PatientEmail: notifyEmail,
		Title:        appt.Title,
		Start:        appt.Start,
		End:          appt.End,
	}))
	return appt, nil
}

// Confirm approves a pending appointment and tells the patient when an email is given.
func (s *BookingService) Confirm(ctx context.Context, id uuid.UUID, notifyEmail string) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id.String()))

	before, err := s.calendar.Get(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	appt, err := s.calendar.Confirm(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !before.Pending() {
		return appt, nil
	}
	s.observe("confirmed")

	s.sendEmail(ctx, notifyEmail, notify.ApprovalNotice(notify.Visit{
		PatientName:  appt.PatientName,
		PatientEmail: notifyEmail,
		Title:        appt.Title,
		Start:        appt.Start,
		End:          appt.End,
	}))
	return appt, nil
}

func (s *BookingService) sendEmail(ctx context.Context, to string, msg notify.EmailMessage) {
	if s.email == nil || to == "" {
		return
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Warn("booking email failed", "to", to, "subject", msg.Subject, "error", err)
	}
}

func (s *BookingService) observe(outcome string) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveBooking(outcome)
	s.recorder.SetActiveAppointments(len(s.calendar.Active()))
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInterval), errors.Is(err, ErrMissingPatient):
		return "invalid"
	default:
		return "error"
	}
}
