package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/wolfman30/clinic-calendar/internal/accounts"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

// DashboardHandler serves the role-specific landing view.
type DashboardHandler struct {
	calendar       accounts.CalendarReader
	suggester      accounts.Suggester
	users          UserLookup
	now            func() time.Time
	defaultMinutes int
	logger         *logging.Logger
}

// NewDashboardHandler creates the handler. now should return the clinic's
// local time; nil means time.Now.
func NewDashboardHandler(calendar accounts.CalendarReader, suggester accounts.Suggester, users UserLookup, now func() time.Time, defaultMinutes int, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	if defaultMinutes <= 0 {
		defaultMinutes = 60
	}
	return &DashboardHandler{
		calendar:       calendar,
		suggester:      suggester,
		users:          users,
		now:            now,
		defaultMinutes: defaultMinutes,
		logger:         logger,
	}
}

// Get handles GET /api/dashboard?duration=60.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}
	minutes, err := durationParam(r, h.defaultMinutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := accounts.User{ID: claims.UserID(), Name: claims.Name, Role: claims.Role}
	if h.users != nil {
		if u, err := h.users.Lookup(claims.UserID()); err == nil {
			user = u
		}
	}

	dash, err := accounts.ComposeDashboard(r.Context(), user, h.calendar, h.suggester, minutes, h.now())
	if err != nil {
		if errors.Is(err, accounts.ErrUnknownRole) {
			writeError(w, http.StatusForbidden, "unknown role")
			return
		}
		writeSuggestError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
