// Package appointments holds the clinic calendar: appointment records, the
// in-process calendar state, its persistence adapters and the booking flow.
package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-calendar/internal/availability"
)

// Status is the lifecycle state of an appointment. A new booking waits in
// StatusBooked until a practitioner confirms or declines it.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Appointment is a booked, confirmed or cancelled visit.
type Appointment struct {
	ID             uuid.UUID `json:"id"`
	PatientID      string    `json:"patient_id"`
	PatientName    string    `json:"patient_name,omitempty"`
	PractitionerID string    `json:"practitioner_id,omitempty"`
	Title          string    `json:"title,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Active reports whether the appointment still blocks its time.
func (a Appointment) Active() bool {
	return a.Status != StatusCancelled
}

// Pending reports whether the appointment still awaits confirmation.
func (a Appointment) Pending() bool {
	return a.Status == StatusBooked
}

// Interval returns the appointment's half-open time span.
func (a Appointment) Interval() availability.Interval {
	return availability.Interval{Start: a.Start, End: a.End}
}

// Minutes returns the appointment length in whole minutes.
func (a Appointment) Minutes() int {
	return int(a.End.Sub(a.Start) / time.Minute)
}

// BookRequest describes an appointment to create.
type BookRequest struct {
	PatientID      string
	PatientName    string
	PractitionerID string
	Title          string
	Notes          string
	Start          time.Time
	End            time.Time
}
