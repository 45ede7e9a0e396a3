package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/clinic-calendar/internal/availability"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

// CalendarFeed is the part of *appointments.Calendar the suggestion
// endpoints read.
type CalendarFeed interface {
	Busy() []availability.Interval
	Subscribe() (<-chan struct{}, func())
}

// Suggester is satisfied by *availability.Service.
type Suggester interface {
	Suggest(ctx context.Context, existing []availability.Interval, durationMinutes int) ([]availability.SuggestedSlot, error)
}

// SuggestionsHandler serves ranked open slots, once or as a live feed.
type SuggestionsHandler struct {
	calendar       CalendarFeed
	suggester      Suggester
	defaultMinutes int
	refresh        time.Duration
	logger         *logging.Logger
}

// NewSuggestionsHandler creates the handler. refresh is how often the live
// feed recomputes without a calendar change; zero disables it.
func NewSuggestionsHandler(calendar CalendarFeed, suggester Suggester, defaultMinutes int, refresh time.Duration, logger *logging.Logger) *SuggestionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultMinutes <= 0 {
		defaultMinutes = 60
	}
	return &SuggestionsHandler{
		calendar:       calendar,
		suggester:      suggester,
		defaultMinutes: defaultMinutes,
		refresh:        refresh,
		logger:         logger,
	}
}

type suggestionsResponse struct {
	DurationMinutes int                          `json:"duration_minutes"`
	Suggestions     []availability.SuggestedSlot `json:"suggestions"`
}

// Get handles GET /api/suggestions?duration=60.
func (h *SuggestionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	minutes, err := durationParam(r, h.defaultMinutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.compute(r.Context(), minutes)
	if err != nil {
		writeSuggestError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SuggestionsHandler) compute(ctx context.Context, minutes int) (suggestionsResponse, error) {
	slots, err := h.suggester.Suggest(ctx, h.calendar.Busy(), minutes)
	if err != nil {
		return suggestionsResponse{}, err
	}
	if slots == nil {
		slots = []availability.SuggestedSlot{}
	}
	return suggestionsResponse{DurationMinutes: minutes, Suggestions: slots}, nil
}

func writeSuggestError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, availability.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, "duration must be positive")
	case errors.Is(err, availability.ErrInvalidAppointment):
		logger.Error("calendar holds a malformed appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "calendar data is invalid")
	default:
		logger.Error("suggestions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// LiveMessage is pushed to live feed clients.
type LiveMessage struct {
	Type            string                       `json:"type"` // "suggestions", "error", "pong"
	Trigger         string                       `json:"trigger,omitempty"`
	DurationMinutes int                          `json:"duration_minutes,omitempty"`
	Suggestions     []availability.SuggestedSlot `json:"suggestions,omitempty"`
	Error           string                       `json:"error,omitempty"`
}

type liveInbound struct {
	Type string `json:"type"`
}

// Live handles GET /api/suggestions/live, a websocket that pushes fresh
// suggestions on connect and after every calendar change.
func (h *SuggestionsHandler) Live(w http.ResponseWriter, r *http.Request) {
	minutes, err := durationParam(r, h.defaultMinutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if minutes <= 0 {
		writeError(w, http.StatusBadRequest, "duration must be positive")
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveLive(r.Context(), conn, minutes)
	}).ServeHTTP(w, r)
}

func (h *SuggestionsHandler) serveLive(ctx context.Context, conn *websocket.Conn, minutes int) {
	changes, stop := h.calendar.Subscribe()
	defer stop()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg liveInbound
			if err := websocket.JSON.Receive(conn, &msg); err != nil {
				return
			}
			if msg.Type == "ping" {
				_ = websocket.JSON.Send(conn, LiveMessage{Type: "pong"})
			}
		}
	}()

	var tick <-chan time.Time
	if h.refresh > 0 {
		ticker := time.NewTicker(h.refresh)
		defer ticker.Stop()
		tick = ticker.C
	}

	h.logger.Debug("live suggestions: connection opened", "duration_minutes", minutes)
	if !h.push(ctx, conn, minutes, "connected") {
		return
	}
	for {
		select {
		case <-closed:
			h.logger.Debug("live suggestions: connection closed")
			return
		case <-ctx.Done():
			return
		case <-changes:
			if !h.push(ctx, conn, minutes, "calendar_changed") {
				return
			}
		case <-tick:
			if !h.push(ctx, conn, minutes, "refresh") {
				return
			}
		}
	}
}

func (h *SuggestionsHandler) push(ctx context.Context, conn *websocket.Conn, minutes int, trigger string) bool {
	msg := LiveMessage{Type: "suggestions", Trigger: trigger, DurationMinutes: minutes}
	resp, err := h.compute(ctx, minutes)
	if err != nil {
		msg = LiveMessage{Type: "error", Trigger: trigger, Error: err.Error()}
	} else {
		msg.Suggestions = resp.Suggestions
	}
	if err := websocket.JSON.Send(conn, msg); err != nil {
		h.logger.Debug("live suggestions: send failed", "error", err)
		return false
	}
	return true
}
