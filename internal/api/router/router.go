package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aetheria-app/aetheria/internal/api/handlers"
	"github.com/aetheria-app/aetheria/internal/api/middleware"
	"github.com/aetheria-app/aetheria/internal/config"
	"github.com/aetheria-app/aetheria/internal/pkg/errors"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/metrics"
	"github.com/aetheria-app/aetheria/internal/pkg/utils"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Horoscope   *handlers.HoroscopeHandler
	History     *handlers.HistoryHandler
	Entitlement *handlers.EntitlementHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(50, 100)) // 50 req/sec, burst of 100
	r.Use(metrics.Middleware)
	r.Use(middleware.Locale(cfg.Generation.DefaultLocale))

	// Health and metrics stay up even when setup is incomplete
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Handle("/metrics", metrics.Handler())

	// A deployment missing its mandatory credentials answers every API
	// request with the setup-required terminal state.
	if issues := cfg.SetupIssues(); len(issues) > 0 {
		log.WithFields(map[string]interface{}{
			"issues": issues,
		}).Error("Setup incomplete, serving setup-required state only")
		r.Mount("/api", setupRequired(issues))
		return r
	}

	// Public routes
	r.Group(func(r chi.Router) {
		r.Post("/api/v1/auth/register", h.Auth.Register)
		r.Post("/api/v1/auth/login", h.Auth.Login)
		r.Post("/api/v1/auth/guest", h.Auth.Guest)
	})

	// Session flow: starts anonymous, picks up identity from the token
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.Auth.JWTSecret))

		r.Route("/api/v1/horoscope", func(r chi.Router) {
			r.Post("/session", h.Horoscope.Submit)
			r.Post("/resolve", h.Horoscope.Resolve)
			r.Post("/unlock", h.Horoscope.Unlock)
			r.Post("/retry", h.Horoscope.Retry)
			r.Post("/reset", h.Horoscope.Reset)
			r.Get("/state", h.Horoscope.State)
			r.Post("/history/open", h.Horoscope.OpenHistory)
			r.Post("/history/close", h.Horoscope.CloseHistory)
			r.Post("/history/{id}/select", h.Horoscope.SelectEntry)
		})
	})

	// Protected routes (require a token; guest tokens pass)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth.JWTSecret))

		r.Get("/api/v1/auth/me", h.Auth.Me)

		r.Route("/api/v1/history", func(r chi.Router) {
			r.Get("/", h.History.List)
			r.Get("/{id}", h.History.Get)
		})

		r.Route("/api/v1/entitlement", func(r chi.Router) {
			r.Get("/", h.Entitlement.Get)
			r.Post("/unlock", h.Entitlement.Unlock)
		})
	})

	return r
}

func setupRequired(issues []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appErr := errors.SetupRequired("Service configuration is incomplete").WithDetails(issues)
		utils.WriteError(w, appErr)
	})
}
