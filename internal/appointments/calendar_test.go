package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

var testDay = time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)

func clock(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func openCalendar(t *testing.T, seed ...Appointment) (*Calendar, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister(seed...)
	cal, err := Open(context.Background(), p, logging.New("error"))
	require.NoError(t, err)
	cal.SetClock(func() time.Time { return clock(7, 0) })
	return cal, p
}

type failingPersister struct {
	MemoryPersister
	loadErr error
	saveErr error
}

func (f *failingPersister) Load(ctx context.Context) ([]Appointment, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.MemoryPersister.Load(ctx)
}

func (f *failingPersister) Save(ctx context.Context, appts []Appointment) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryPersister.Save(ctx, appts)
}

func TestOpenLoadsAndSortsAppointments(t *testing.T) {
	later := Appointment{ID: uuid.New(), PatientID: "p1", Start: clock(14, 0), End: clock(15, 0), Status: StatusBooked}
	earlier := Appointment{ID: uuid.New(), PatientID: "p2", Start: clock(9, 0), End: clock(10, 0), Status: StatusBooked}

	cal, _ := openCalendar(t, later, earlier)
	list := cal.List()
	require.Len(t, list, 2)
	assert.Equal(t, earlier.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)
}

func TestOpenRequiresPersister(t *testing.T) {
	_, err := Open(context.Background(), nil, nil)
	require.Error(t, err)

	_, err = Open(context.Background(), &failingPersister{loadErr: errors.New("down")}, nil)
	require.Error(t, err)
}

func TestBookSavesOnChange(t *testing.T) {
	cal, p := openCalendar(t)

	appt, err := cal.Book(context.Background(), BookRequest{
		PatientID: "patient-1",
		Title:     "Checkup",
		Start:     clock(10, 0),
		End:       clock(11, 0),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, appt.ID)
	assert.Equal(t, StatusBooked, appt.Status)
	assert.Equal(t, clock(7, 0), appt.CreatedAt)
	assert.Equal(t, 60, appt.Minutes())

	assert.Equal(t, 1, p.Saves())
	saved, _ := p.Load(context.Background())
	require.Len(t, saved, 1)
	assert.Equal(t, appt.ID, saved[0].ID)
}

func TestBookRejectsOverlapAndInvalidInput(t *testing.T) {
	cal, p := openCalendar(t)
	ctx := context.Background()

	_, err := cal.Book(ctx, BookRequest{PatientID: "a", Start: clock(10, 0), End: clock(11, 0)})
	require.NoError(t, err)

	_, err = cal.Book(ctx, BookRequest{PatientID: "b", Start: clock(10, 30), End: clock(11, 30)})
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = cal.Book(ctx, BookRequest{PatientID: "b", Start: clock(11, 0), End: clock(12, 0)})
	assert.NoError(t, err, "back-to-back bookings do not overlap")

	_, err = cal.Book(ctx, BookRequest{PatientID: "b", Start: clock(13, 0), End: clock(13, 0)})
	assert.True(t, errors.Is(err, ErrInvalidInterval))

	_, err = cal.Book(ctx, BookRequest{Start: clock(14, 0), End: clock(15, 0)})
	assert.True(t, errors.Is(err, ErrMissingPatient))

	assert.Equal(t, 2, p.Saves())
}

func TestBookRollsBackWhenSaveFails(t *testing.T) {
	p := &failingPersister{}
	cal, err := Open(context.Background(), p, nil)
	require.NoError(t, err)

	p.saveErr = errors.New("disk full")
	_, err = cal.Book(context.Background(), BookRequest{PatientID: "a", Start: clock(10, 0), End: clock(11, 0)})
	require.Error(t, err)
	assert.Empty(t, cal.List())
}

func TestCancelFreesTime(t *testing.T) {
	cal, p := openCalendar(t)
	ctx := context.Background()

	appt, err := cal.Book(ctx, BookRequest{PatientID: "a", Start: clock(10, 0), End: clock(11, 0)})
	require.NoError(t, err)

	cancelled, err := cal.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Empty(t, cal.Active())
	assert.Empty(t, cal.Busy())
	assert.Len(t, cal.List(), 1)

	again, err := cal.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, again.Status)
	assert.Equal(t, 2, p.Saves(), "cancelling twice saves once")

	_, err = cal.Book(ctx, BookRequest{PatientID: "b", Start: clock(10, 0), End: clock(11, 0)})
	assert.NoError(t, err)

	_, err = cal.Cancel(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConfirmPendingAppointment(t *testing.T) {
	cal, p := openCalendar(t)
	ctx := context.Background()

	appt, err := cal.Book(ctx, BookRequest{PatientID: "a", Start: clock(10, 0), End: clock(11, 0)})
	require.NoError(t, err)
	assert.True(t, appt.Pending())

	changes, stop := cal.Subscribe()
	defer stop()

	confirmed, err := cal.Confirm(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.False(t, confirmed.Pending())
	assert.Equal(t, 2, p.Saves())

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected change notification after confirm")
	}

	stored, err := cal.Get(appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)
	assert.Len(t, cal.Busy(), 1, "confirmed appointments still block time")

	again, err := cal.Confirm(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, again.Status)
	assert.Equal(t, 2, p.Saves(), "confirming twice saves once")
}

func TestConfirmRejectsMissingAndCancelled(t *testing.T) {
	cal, _ := openCalendar(t)
	ctx := context.Background()

	_, err := cal.Confirm(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))

	appt, err := cal.Book(ctx, BookRequest{PatientID: "a", Start: clock(10, 0), End: clock(11, 0)})
	require.NoError(t, err)
	_, err = cal.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	_, err = cal.Confirm(ctx, appt.ID)
	assert.True(t, errors.Is(err, ErrNotConfirmable))
}

func TestConfirmRollsBackWhenSaveFails(t *testing.T) {
	appt := Appointment{ID: uuid.New(), PatientID: "a", Start: clock(10, 0), End: clock(11, 0), Status: StatusBooked}
	p := &failingPersister{}
	require.NoError(t, p.Save(context.Background(), []Appointment{appt}))
	cal, err := Open(context.Background(), p, logging.New("error"))
	require.NoError(t, err)

	p.saveErr = errors.New("disk full")
	_, err = cal.Confirm(context.Background(), appt.ID)
	require.Error(t, err)

	stored, err := cal.Get(appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, stored.Status)
}

func TestFiltersAndBusy(t *testing.T) {
	cal, _ := openCalendar(t)
	ctx := context.Background()

	a, err := cal.Book(ctx, BookRequest{PatientID: "pat-1", PractitionerID: "doc-1", Start: clock(9, 0), End: clock(9, 30)})
	require.NoError(t, err)
	_, err = cal.Book(ctx, BookRequest{PatientID: "pat-2", PractitionerID: "doc-1", Start: clock(10, 0), End: clock(10, 30)})
	require.NoError(t, err)
	_, err = cal.Book(ctx, BookRequest{PatientID: "pat-1", PractitionerID: "doc-2", Start: clock(11, 0), End: clock(11, 30)})
	require.NoError(t, err)

	assert.Len(t, cal.ForPatient("pat-1"), 2)
	assert.Len(t, cal.ForPractitioner("doc-1"), 2)
	assert.Len(t, cal.Busy(), 3)

	got, err := cal.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "pat-1", got.PatientID)

	_, err = cal.Get(uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSubscribeSignalsChanges(t *testing.T) {
	cal, _ := openCalendar(t)
	changes, stop := cal.Subscribe()
	defer stop()

	_, err := cal.Book(context.Background(), BookRequest{PatientID: "a", Start: clock(10, 0), End: clock(11, 0)})
	require.NoError(t, err)

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected change notification")
	}

	stop()
	_, err = cal.Book(context.Background(), BookRequest{PatientID: "a", Start: clock(12, 0), End: clock(13, 0)})
	require.NoError(t, err)
	select {
	case <-changes:
		t.Fatal("unexpected notification after unsubscribe")
	default:
	}
}
