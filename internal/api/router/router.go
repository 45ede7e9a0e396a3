package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-calendar/internal/accounts"
	"github.com/wolfman30/clinic-calendar/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-calendar/internal/http/middleware"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Auth               *handlers.AuthHandler
	Appointments       *handlers.AppointmentsHandler
	Suggestions        *handlers.SuggestionsHandler
	Dashboard          *handlers.DashboardHandler
	Sessions           httpmiddleware.TokenVerifier
	RateLimiter        *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Auth != nil {
			if cfg.RateLimiter != nil {
				public.With(cfg.RateLimiter.Middleware).Post("/auth/login", cfg.Auth.Login)
			} else {
				public.Post("/auth/login", cfg.Auth.Login)
			}
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(cfg.RateLimiter.Middleware)
		}

		// Browsers cannot set headers on websocket upgrades.
		if cfg.Suggestions != nil {
			api.With(httpmiddleware.Session(cfg.Sessions, true)).Get("/suggestions/live", cfg.Suggestions.Live)
		}

		api.Group(func(authed chi.Router) {
			authed.Use(httpmiddleware.Session(cfg.Sessions, false))
			if cfg.Appointments != nil {
				authed.Get("/appointments", cfg.Appointments.List)
				authed.Post("/appointments", cfg.Appointments.Create)
				authed.Delete("/appointments/{id}", cfg.Appointments.Cancel)
				authed.With(httpmiddleware.RequireRole(accounts.RolePractitioner)).
					Post("/appointments/{id}/confirm", cfg.Appointments.Confirm)
			}
			if cfg.Suggestions != nil {
				authed.Get("/suggestions", cfg.Suggestions.Get)
			}
			if cfg.Dashboard != nil {
				authed.Get("/dashboard", cfg.Dashboard.Get)
			}
		})
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
