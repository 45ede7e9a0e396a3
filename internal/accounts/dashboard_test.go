package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-calendar/internal/appointments"
	"github.com/wolfman30/clinic-calendar/internal/availability"
)

// Tuesday 9 December 2025, 08:00 UTC.
var dashNow = time.Date(2025, 12, 9, 8, 0, 0, 0, time.UTC)

func bookedCalendar(t *testing.T) *appointments.Calendar {
	t.Helper()
	cal, err := appointments.Open(context.Background(), appointments.NewMemoryPersister(), nil)
	require.NoError(t, err)
	book := func(patient string, start time.Time, minutes int) {
		_, err := cal.Book(context.Background(), appointments.BookRequest{
			PatientID: patient,
			Start:     start,
			End:       start.Add(time.Duration(minutes) * time.Minute),
		})
		require.NoError(t, err)
	}
	book("pat-1", dashNow.Add(-2*time.Hour), 30) // earlier today
	book("pat-1", dashNow.Add(2*time.Hour), 60)  // later today
	book("pat-2", dashNow.Add(26*time.Hour), 90) // tomorrow
	book("pat-2", dashNow.AddDate(0, 0, 6), 30)  // next week
	return cal
}

type fixedSuggester struct {
	err      error
	gotBusy  int
	duration int
}

func (f *fixedSuggester) Suggest(_ context.Context, existing []availability.Interval, durationMinutes int) ([]availability.SuggestedSlot, error) {
	f.gotBusy = len(existing)
	f.duration = durationMinutes
	if f.err != nil {
		return nil, f.err
	}
	return []availability.SuggestedSlot{{
		Start:      dashNow.Add(time.Hour),
		End:        dashNow.Add(2 * time.Hour),
		Confidence: 1,
		Reason:     availability.ReasonToday,
	}}, nil
}

func TestComposePatientDashboard(t *testing.T) {
	cal := bookedCalendar(t)
	sugg := &fixedSuggester{}

	dash, err := ComposeDashboard(context.Background(), User{ID: "pat-1", Role: RolePatient}, cal, sugg, 45, dashNow)
	require.NoError(t, err)

	pd, ok := dash.(PatientDashboard)
	require.True(t, ok)
	assert.Equal(t, RolePatient, pd.DashboardRole())
	require.Len(t, pd.Upcoming, 1, "past appointments are not upcoming")
	assert.Equal(t, dashNow.Add(2*time.Hour), pd.Upcoming[0].Start)
	assert.Len(t, pd.Suggestions, 1)
	assert.Equal(t, 4, sugg.gotBusy, "suggestions consider the whole clinic calendar")
	assert.Equal(t, 45, sugg.duration)
}

func TestComposePatientDashboardPropagatesErrors(t *testing.T) {
	cal := bookedCalendar(t)
	sugg := &fixedSuggester{err: availability.ErrInvalidDuration}

	_, err := ComposeDashboard(context.Background(), User{ID: "pat-1", Role: RolePatient}, cal, sugg, 0, dashNow)
	assert.True(t, errors.Is(err, availability.ErrInvalidDuration))
}

func TestComposePractitionerDashboard(t *testing.T) {
	cal := bookedCalendar(t)

	dash, err := ComposeDashboard(context.Background(), User{ID: "doc-1", Role: RolePractitioner}, cal, nil, 60, dashNow)
	require.NoError(t, err)

	pd, ok := dash.(PractitionerDashboard)
	require.True(t, ok)
	assert.Len(t, pd.Today, 2)
	assert.Equal(t, 90, pd.BookedMinutes)
	assert.Len(t, pd.Upcoming, 3)
	assert.Equal(t, 3, pd.ThisWeek, "week runs Sunday to Saturday")
	assert.Equal(t, 3, pd.Pending, "every future booking awaits confirmation")
}

func TestComposePractitionerDashboardPendingExcludesConfirmed(t *testing.T) {
	cal := bookedCalendar(t)
	for _, a := range cal.Active() {
		if a.Start.Equal(dashNow.Add(26 * time.Hour)) {
			_, err := cal.Confirm(context.Background(), a.ID)
			require.NoError(t, err)
		}
	}

	dash, err := ComposeDashboard(context.Background(), User{ID: "doc-1", Role: RolePractitioner}, cal, nil, 60, dashNow)
	require.NoError(t, err)

	pd := dash.(PractitionerDashboard)
	assert.Equal(t, 2, pd.Pending)
	assert.Len(t, pd.Upcoming, 3, "confirmed visits stay on the schedule")
}

func TestComposePatientDashboardShowsNextThree(t *testing.T) {
	cal, err := appointments.Open(context.Background(), appointments.NewMemoryPersister(), nil)
	require.NoError(t, err)
	for _, offset := range []int{5, 1, 4, 2, 3} {
		start := dashNow.AddDate(0, 0, offset)
		_, err := cal.Book(context.Background(), appointments.BookRequest{PatientID: "pat-1", Start: start, End: start.Add(time.Hour)})
		require.NoError(t, err)
	}

	dash, err := ComposeDashboard(context.Background(), User{ID: "pat-1", Role: RolePatient}, cal, &fixedSuggester{}, 60, dashNow)
	require.NoError(t, err)

	pd := dash.(PatientDashboard)
	require.Len(t, pd.Upcoming, 3)
	for i, a := range pd.Upcoming {
		assert.Equal(t, dashNow.AddDate(0, 0, i+1), a.Start)
	}
}

func TestComposeDashboardUnknownRole(t *testing.T) {
	_, err := ComposeDashboard(context.Background(), User{ID: "x", Role: "admin"}, bookedCalendar(t), nil, 60, dashNow)
	assert.True(t, errors.Is(err, ErrUnknownRole))
}
