package accounts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wolfman30/clinic-calendar/internal/appointments"
	"github.com/wolfman30/clinic-calendar/internal/availability"
)

// CalendarReader is the read side of *appointments.Calendar.
type CalendarReader interface {
	Active() []appointments.Appointment
	ForPatient(patientID string) []appointments.Appointment
	Busy() []availability.Interval
}

// Suggester is satisfied by *availability.Service.
type Suggester interface {
	Suggest(ctx context.Context, existing []availability.Interval, durationMinutes int) ([]availability.SuggestedSlot, error)
}

// Dashboard is the role-specific landing view. It is implemented only by
// PatientDashboard and PractitionerDashboard.
type Dashboard interface {
	DashboardRole() Role
}

// patientUpcomingLimit caps the visits listed on the patient dashboard.
const patientUpcomingLimit = 3

// PatientDashboard shows a patient's next few visits, soonest first, and the
// next bookable slots.
type PatientDashboard struct {
	Role        Role                         `json:"role"`
	User        User                         `json:"user"`
	Upcoming    []appointments.Appointment   `json:"upcoming"`
	Suggestions []availability.SuggestedSlot `json:"suggestions"`
}

func (PatientDashboard) DashboardRole() Role { return RolePatient }

// PractitionerDashboard shows the clinic schedule for today and beyond.
// Pending counts future appointments still awaiting confirmation.
type PractitionerDashboard struct {
	Role          Role                       `json:"role"`
	User          User                       `json:"user"`
	Today         []appointments.Appointment `json:"today"`
	Upcoming      []appointments.Appointment `json:"upcoming"`
	BookedMinutes int                        `json:"booked_minutes"`
	ThisWeek      int                        `json:"this_week"`
	Pending       int                        `json:"pending"`
}

func (PractitionerDashboard) DashboardRole() Role { return RolePractitioner }

// ComposeDashboard builds the dashboard for user's role. now fixes "today"
// and "upcoming"; its location decides calendar-day boundaries.
func ComposeDashboard(ctx context.Context, user User, cal CalendarReader, suggester Suggester, durationMinutes int, now time.Time) (Dashboard, error) {
	switch user.Role {
	case RolePatient:
		return composePatient(ctx, user, cal, suggester, durationMinutes, now)
	case RolePractitioner:
		return composePractitioner(user, cal, now), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, user.Role)
	}
}

func composePatient(ctx context.Context, user User, cal CalendarReader, suggester Suggester, durationMinutes int, now time.Time) (PatientDashboard, error) {
	dash := PatientDashboard{
		Role:        RolePatient,
		User:        user,
		Upcoming:    []appointments.Appointment{},
		Suggestions: []availability.SuggestedSlot{},
	}
	for _, a := range cal.ForPatient(user.ID) {
		if a.Start.After(now) {
			dash.Upcoming = append(dash.Upcoming, a)
		}
	}
	sort.SliceStable(dash.Upcoming, func(i, j int) bool {
		return dash.Upcoming[i].Start.Before(dash.Upcoming[j].Start)
	})
	if len(dash.Upcoming) > patientUpcomingLimit {
		dash.Upcoming = dash.Upcoming[:patientUpcomingLimit]
	}
	slots, err := suggester.Suggest(ctx, cal.Busy(), durationMinutes)
	if err != nil {
		return PatientDashboard{}, err
	}
	if slots != nil {
		dash.Suggestions = slots
	}
	return dash, nil
}

func composePractitioner(user User, cal CalendarReader, now time.Time) PractitionerDashboard {
	dash := PractitionerDashboard{
		Role:     RolePractitioner,
		User:     user,
		Today:    []appointments.Appointment{},
		Upcoming: []appointments.Appointment{},
	}
	loc := now.Location()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	weekStart := dayStart.AddDate(0, 0, -int(dayStart.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 7)

	for _, a := range cal.Active() {
		start := a.Start.In(loc)
		if !start.Before(dayStart) && start.Before(dayEnd) {
			dash.Today = append(dash.Today, a)
			dash.BookedMinutes += a.Minutes()
		}
		if start.After(now) {
			dash.Upcoming = append(dash.Upcoming, a)
			if a.Pending() {
				dash.Pending++
			}
		}
		if !start.Before(weekStart) && start.Before(weekEnd) {
			dash.ThisWeek++
		}
	}
	return dash
}
