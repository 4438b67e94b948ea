package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/availability"
	"github.com/careslot/careslot/internal/booking"
	"github.com/careslot/careslot/internal/directory"
)

type RouterConfig struct {
	Booking      *booking.Service
	Availability *availability.Service
	Directory    *directory.Service
	Tokens       *auth.Manager
	Logger       zerolog.Logger
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware)

	// Health and metrics endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/", rootHandler(cfg.Version))

		// Public directory and availability reads
		r.Get("/specialties", listSpecialtiesHandler())
		r.Get("/doctors", listDoctorsHandler(cfg.Directory))
		r.Get("/doctors/{id}", getDoctorHandler(cfg.Directory))
		r.Get("/doctors/{id}/schedules", listSchedulesHandler(cfg.Availability))
		r.Get("/doctors/{id}/available-slots", freeSlotsHandler(cfg.Availability))

		// Authenticated operations
		r.Group(func(r chi.Router) {
			r.Use(Authenticator(cfg.Tokens))

			r.Get("/auth/me", meHandler(cfg.Directory))
			r.Post("/doctors/profile", createDoctorProfileHandler(cfg.Directory))
			r.Post("/doctors/schedule", publishScheduleHandler(cfg.Availability))

			r.Post("/appointments", createAppointmentHandler(cfg.Booking))
			r.Get("/appointments/my-appointments", myAppointmentsHandler(cfg.Booking))
			r.Patch("/appointments/{id}", updateAppointmentHandler(cfg.Booking))
			r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Booking))
		})
	})

	return r
}

func rootHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Medical Appointment System API",
			"version": version,
		})
	}
}
