// Package router wires the HTTP surface: public scheduling endpoints, the
// JWT-protected admin area, and the health/metrics probes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stillwater-counseling/practice-platform/internal/appointments"
	"github.com/stillwater-counseling/practice-platform/internal/dashboard"
	httpmiddleware "github.com/stillwater-counseling/practice-platform/internal/http/middleware"
	"github.com/stillwater-counseling/practice-platform/internal/reminders"
	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	SchedulingHandler  *appointments.Handler
	RemindersHandler   *reminders.Handler
	DashboardHandler   *dashboard.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// PublicRateLimit caps requests/sec per IP on the scheduling endpoints.
	// Zero disables rate limiting.
	PublicRateLimit float64
	PublicRateBurst int
}

// New creates a new Chi router with all routes configured.
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

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.SchedulingHandler != nil {
		r.Route("/scheduling", func(sr chi.Router) {
			if cfg.PublicRateLimit > 0 {
				sr.Use(httpmiddleware.RateLimit(cfg.PublicRateLimit, cfg.PublicRateBurst))
			}
			sr.Get("/availability", cfg.SchedulingHandler.GetAvailability)
			sr.Post("/appointments", cfg.SchedulingHandler.Propose)
			sr.Post("/appointments/reschedule", cfg.SchedulingHandler.Reschedule)
			sr.Post("/appointments/cancel", cfg.SchedulingHandler.Cancel)
		})
	}

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		if cfg.SchedulingHandler != nil {
			admin.Get("/appointments", cfg.SchedulingHandler.ListUpcoming)
		}
		if cfg.RemindersHandler != nil {
			admin.Get("/reminders/preview", cfg.RemindersHandler.Preview)
			admin.Post("/reminders/run", cfg.RemindersHandler.Run)
		}
		if cfg.DashboardHandler != nil {
			admin.Get("/notifications", cfg.DashboardHandler.ListNotifications)
		}
	})

	return r
}
