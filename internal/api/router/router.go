package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/telehealth-platform/internal/appointments"
	"github.com/wolfman30/telehealth-platform/internal/auth"
	"github.com/wolfman30/telehealth-platform/internal/chat"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	httpmiddleware "github.com/wolfman30/telehealth-platform/internal/http/middleware"
	"github.com/wolfman30/telehealth-platform/internal/reminders"
	"github.com/wolfman30/telehealth-platform/internal/video"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	Verifier            httpmiddleware.Verifier
	AuthHandler         *auth.Handler
	DoctorsHandler      *doctors.Handler
	AppointmentsHandler *appointments.Handler
	RemindersHandler    *reminders.Handler
	VideoHandler        *video.Handler
	ChatHandler         *chat.Handler
	MetricsHandler      http.Handler
	RateLimiter         *httpmiddleware.RateLimiter
	CORSAllowedOrigins  []string
	HealthChecks        map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	authenticate := httpmiddleware.Authenticate(cfg.Verifier)

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.OptionalIdentity(cfg.Verifier))
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}

		if cfg.AuthHandler != nil {
			api.Route("/auth", func(r chi.Router) {
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
				r.Post("/google", cfg.AuthHandler.Google)
				r.Group(func(r chi.Router) {
					r.Use(authenticate)
					r.Post("/logout", cfg.AuthHandler.Logout)
					r.Get("/me", cfg.AuthHandler.Me)
				})
			})
		}

		if cfg.DoctorsHandler != nil {
			api.Get("/doctors", cfg.DoctorsHandler.List)
			api.Get("/doctors/{id}", cfg.DoctorsHandler.Get)
		}

		// Chat resolves its own optional identity from the bearer token.
		if cfg.ChatHandler != nil {
			api.Route("/chatbot", func(r chi.Router) {
				r.Post("/", cfg.ChatHandler.Submit)
				r.Get("/history", cfg.ChatHandler.History)
				r.Get("/ws", cfg.ChatHandler.Stream)
			})
		}

		if cfg.VideoHandler != nil {
			api.Get("/video/health", cfg.VideoHandler.Health)
		}

		api.Group(func(patient chi.Router) {
			patient.Use(authenticate)

			if cfg.AppointmentsHandler != nil {
				patient.Route("/appointments", func(r chi.Router) {
					r.Post("/book", cfg.AppointmentsHandler.Book)
					r.Get("/my", cfg.AppointmentsHandler.ListMine)
					r.Post("/cleanup", cfg.AppointmentsHandler.Cleanup)
					r.Put("/{id}", cfg.AppointmentsHandler.Reschedule)
					r.Delete("/{id}", cfg.AppointmentsHandler.Cancel)
					r.Delete("/{id}/delete", cfg.AppointmentsHandler.Delete)
					if cfg.VideoHandler != nil {
						r.Get("/{id}/video-access", cfg.VideoHandler.PatientAccess)
					}
				})
			}

			if cfg.RemindersHandler != nil {
				patient.Route("/reminders", func(r chi.Router) {
					r.Post("/", cfg.RemindersHandler.Create)
					r.Get("/my", cfg.RemindersHandler.ListMine)
					r.Delete("/{id}", cfg.RemindersHandler.Delete)
				})
			}
		})

		api.Route("/doctor", func(doctor chi.Router) {
			if cfg.DoctorsHandler != nil {
				doctor.Post("/login", cfg.DoctorsHandler.Login)
			}
			doctor.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(httpmiddleware.RequireDoctor)
				if cfg.DoctorsHandler != nil {
					r.Get("/me", cfg.DoctorsHandler.Me)
				}
				if cfg.AppointmentsHandler != nil {
					r.Get("/appointments", cfg.AppointmentsHandler.DoctorAppointments)
					r.Put("/appointments/{id}/complete", cfg.AppointmentsHandler.Complete)
				}
				if cfg.VideoHandler != nil {
					r.Get("/appointments/{id}/video-access", cfg.VideoHandler.DoctorAccess)
				}
			})
		})
	})

	return r
}
