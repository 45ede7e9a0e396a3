package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/wolfman30/clinic-calendar/internal/accounts"
	"github.com/wolfman30/clinic-calendar/internal/http/middleware"
)

const maxBodyBytes = 1 << 20

var errBadDuration = errors.New("duration must be a whole number of minutes")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// durationParam reads ?duration=, falling back to def when absent.
func durationParam(r *http.Request, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("duration"))
	if raw == "" {
		return def, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errBadDuration
	}
	return minutes, nil
}

func sessionClaims(w http.ResponseWriter, r *http.Request) (*accounts.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return nil, false
	}
	return claims, true
}
