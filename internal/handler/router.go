package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shivanand-hulikatti/event-checkin/internal/metrics"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
)

// RouterConfig carries what NewRouter wires together.
type RouterConfig struct {
	Services *service.Services
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Auth     TokenValidator
	// AuthDisabled serves every route without a bearer token.
	AuthDisabled bool
	Log          *slog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Nop()
	}
	validator := cfg.Auth
	if validator == nil {
		validator = StubValidator{}
	}

	events := NewEventHandler(cfg.Services.Events, log)
	attendees := NewAttendeeHandler(cfg.Services.Attendees, cfg.Services.CheckIns, log)
	entrances := NewEntranceHandler(cfg.Services.Entrances, log)

	auth := RequireAuth(validator, log)
	if cfg.AuthDisabled {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(Metrics(m))

	r.Get("/health", HealthCheck)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/events", func(r chi.Router) {
		r.Get("/", events.List)
		r.Get("/{id}", events.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/", events.Create)
			r.Put("/{id}", events.Update)
			r.Delete("/{id}", events.Delete)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Route("/attendees", func(r chi.Router) {
			r.Get("/", attendees.List)
			r.Post("/", attendees.BulkRegister)
			r.Post("/register", attendees.Register)
			r.Post("/check-in", attendees.CheckIn)
			r.Get("/event/{id}/stats", attendees.Stats)
			r.Get("/event/{id}/recent-check-ins", attendees.RecentCheckIns)
			r.Get("/badge/{badgeId}", attendees.GetByBadge)
			r.Get("/{id}", attendees.Get)
			r.Delete("/{id}", attendees.Delete)
			r.Get("/{id}/check-ins", attendees.History)
		})

		r.Route("/entrances", func(r chi.Router) {
			r.Get("/", entrances.List)
			r.Post("/", entrances.Create)
			r.Get("/event/{id}/stats", entrances.Stats)
			r.Get("/{id}", entrances.Get)
			r.Put("/{id}", entrances.Update)
			r.Delete("/{id}", entrances.Delete)
			r.Post("/{id}/increment-scan", entrances.IncrementScan)
		})
	})

	return r
}
