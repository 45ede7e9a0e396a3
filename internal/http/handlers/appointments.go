package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/clinic-calendar/internal/accounts"
	"github.com/wolfman30/clinic-calendar/internal/appointments"
	"github.com/wolfman30/clinic-calendar/internal/availability"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

// UserLookup is satisfied by *accounts.Directory.
type UserLookup interface {
	Lookup(id string) (accounts.User, error)
}

// AppointmentsHandler lists, books and cancels appointments.
type AppointmentsHandler struct {
	calendar *appointments.Calendar
	booking  *appointments.BookingService
	users    UserLookup
	logger   *logging.Logger
}

// NewAppointmentsHandler wires the calendar, booking flow and user directory.
func NewAppointmentsHandler(calendar *appointments.Calendar, booking *appointments.BookingService, users UserLookup, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{calendar: calendar, booking: booking, users: users, logger: logger}
}

type appointmentsResponse struct {
	Appointments []appointments.Appointment `json:"appointments"`
}

type bookRequest struct {
	PatientID      string    `json:"patient_id"`
	PractitionerID string    `json:"practitioner_id"`
	Title          string    `json:"title"`
	Notes          string    `json:"notes"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

// List handles GET /api/appointments. Patients only see their own.
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	var list []appointments.Appointment
	if claims.Role == accounts.RolePatient {
		list = h.calendar.ForPatient(claims.UserID())
	} else {
		list = h.calendar.Active()
	}
	if list == nil {
		list = []appointments.Appointment{}
	}
	writeJSON(w, http.StatusOK, appointmentsResponse{Appointments: list})
}

// Create handles POST /api/appointments.
func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	var req bookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Start.IsZero() || req.End.IsZero() {
		writeError(w, http.StatusBadRequest, "start and end are required")
		return
	}

	patientID := strings.TrimSpace(req.PatientID)
	practitionerID := strings.TrimSpace(req.PractitionerID)
	switch claims.Role {
	case accounts.RolePatient:
		if patientID != "" && patientID != claims.UserID() {
			writeError(w, http.StatusForbidden, "patients may only book for themselves")
			return
		}
		patientID = claims.UserID()
	case accounts.RolePractitioner:
		if patientID == "" {
			writeError(w, http.StatusBadRequest, "patient_id is required")
			return
		}
		if practitionerID == "" {
			practitionerID = claims.UserID()
		}
	}

	appt, err := h.booking.BookSlot(r.Context(),
		h.patient(patientID),
		availability.Interval{Start: req.Start, End: req.End},
		appointments.Details{Title: req.Title, Notes: req.Notes, PractitionerID: practitionerID},
	)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// Cancel handles DELETE /api/appointments/{id}.
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	existing, err := h.calendar.Get(id)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	if claims.Role == accounts.RolePatient && existing.PatientID != claims.UserID() {
		writeError(w, http.StatusForbidden, "patients may only cancel their own appointments")
		return
	}

	appt, err := h.booking.Cancel(r.Context(), id, h.patient(existing.PatientID).Email)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Confirm handles POST /api/appointments/{id}/confirm. The router limits it
// to practitioners; declining uses Cancel.
func (h *AppointmentsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	if claims.Role != accounts.RolePractitioner {
		writeError(w, http.StatusForbidden, "only practitioners may confirm appointments")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	existing, err := h.calendar.Get(id)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	appt, err := h.booking.Confirm(r.Context(), id, h.patient(existing.PatientID).Email)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *AppointmentsHandler) patient(id string) appointments.Patient {
	p := appointments.Patient{ID: id}
	if h.users == nil {
		return p
	}
	if u, err := h.users.Lookup(id); err == nil {
		p.Name = u.Name
		p.Email = u.Email
	}
	return p
}

func (h *AppointmentsHandler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointments.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, appointments.ErrConflict):
		writeError(w, http.StatusConflict, "time overlaps an existing appointment")
	case errors.Is(err, appointments.ErrNotConfirmable):
		writeError(w, http.StatusConflict, "appointment is cancelled")
	case errors.Is(err, appointments.ErrInvalidInterval), errors.Is(err, appointments.ErrMissingPatient):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("appointment request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
