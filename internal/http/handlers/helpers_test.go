package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-calendar/internal/accounts"
	"github.com/wolfman30/clinic-calendar/internal/appointments"
	"github.com/wolfman30/clinic-calendar/internal/availability"
	"github.com/wolfman30/clinic-calendar/internal/http/middleware"
	"github.com/wolfman30/clinic-calendar/internal/notify"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

// Monday 8 December 2025, 09:00 UTC.
var testNow = time.Date(2025, 12, 8, 9, 0, 0, 0, time.UTC)

type fixture struct {
	calendar *appointments.Calendar
	service  *availability.Service
	users    *accounts.Directory
	email    *notify.StubEmailSender
	router   chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.New("error")

	cal, err := appointments.Open(context.Background(), appointments.NewMemoryPersister(), logger)
	require.NoError(t, err)
	cal.SetClock(func() time.Time { return testNow })

	policy := availability.DefaultPolicy()
	policy.Location = time.UTC
	svc := availability.NewService(policy, logger, availability.WithClock(func() time.Time { return testNow }))

	hash, err := accounts.HashPassword("demo")
	require.NoError(t, err)
	dir, err := accounts.NewDirectory(
		accounts.User{ID: "pat-1", Name: "Sarah Johnson", Email: "sarah@example.com", Role: accounts.RolePatient, PasswordHash: hash},
		accounts.User{ID: "pat-2", Name: "Mike Chen", Email: "mike@example.com", Role: accounts.RolePatient, PasswordHash: hash},
		accounts.User{ID: "doc-1", Name: "Dr. Priya Sharma", Email: "priya@example.com", Role: accounts.RolePractitioner, PasswordHash: hash},
	)
	require.NoError(t, err)

	email := notify.NewStubEmailSender(logger)
	booking := appointments.NewBookingService(cal, email, nil, logger)

	appts := NewAppointmentsHandler(cal, booking, dir, logger)
	suggestions := NewSuggestionsHandler(cal, svc, 60, 0, logger)
	dashboard := NewDashboardHandler(cal, svc, dir, svc.Now, 60, logger)

	r := chi.NewRouter()
	r.Get("/api/appointments", appts.List)
	r.Post("/api/appointments", appts.Create)
	r.Delete("/api/appointments/{id}", appts.Cancel)
	r.Post("/api/appointments/{id}/confirm", appts.Confirm)
	r.Get("/api/suggestions", suggestions.Get)
	r.Get("/api/suggestions/live", suggestions.Live)
	r.Get("/api/dashboard", dashboard.Get)

	return &fixture{calendar: cal, service: svc, users: dir, email: email, router: r}
}

// do sends a request as userID/role; an empty role sends no session.
func (f *fixture) do(t *testing.T, method, target string, body any, userID string, role accounts.Role) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if role != "" {
		claims := &accounts.Claims{Role: role}
		claims.Subject = userID
		req = req.WithContext(middleware.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) book(t *testing.T, patientID string, start time.Time, minutes int) appointments.Appointment {
	t.Helper()
	appt, err := f.calendar.Book(context.Background(), appointments.BookRequest{
		PatientID: patientID,
		Start:     start,
		End:       start.Add(time.Duration(minutes) * time.Minute),
	})
	require.NoError(t, err)
	return *appt
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
