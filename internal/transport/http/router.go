package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/task-tracker-api/internal/config"
	"github.com/task-tracker-api/internal/transport/http/handler"
	appmiddleware "github.com/task-tracker-api/internal/transport/http/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 5 requests/second, burst of 10, per client IP.
const (
	sensitiveRate  = rate.Limit(5)
	sensitiveBurst = 10
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Limiter == nil {
		deps.Limiter = appmiddleware.NewRateLimiter(sensitiveRate, sensitiveBurst)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	healthH := handler.NewHealthHandler(deps.LocalMode)
	otpH := handler.NewOTPHandler(deps.OTP, deps.Auth)
	authH := handler.NewAuthHandler(deps.Auth)
	taskH := handler.NewTaskHandler(deps.Tasks)

	r.Get("/", healthH.Root)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Health)

		// ── Public routes (rate limited) ─────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(deps.Limiter.Limit)

			r.Post("/otp/send", otpH.Send)
			r.Post("/otp/verify", otpH.Verify)
			r.Post("/otp/reset-password", otpH.ResetPassword)
			r.Post("/auth/signup", authH.Signup)
			r.Post("/auth/login", authH.Login)
		})

		r.Get("/auth/me", authH.Me)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.Verifier))

			r.Get("/tasks", taskH.List)
			r.Post("/tasks", taskH.Create)
			r.Put("/tasks/{id}", taskH.Update)
			r.Delete("/tasks/{id}", taskH.Delete)
		})
	})

	return r
}
