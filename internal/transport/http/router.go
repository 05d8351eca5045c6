package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	decisionhandler "verdict/internal/decision/handler"
	"verdict/internal/platform/health"
	"verdict/internal/platform/middleware"
)

// Config controls optional router behavior.
type Config struct {
	// JWTSigningKey enables bearer-token auth on the API routes when set.
	JWTSigningKey string

	// RateLimitRPS throttles per-client request rates when positive.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires all public endpoints with middleware. The transport layer
// stays thin: handlers delegate to domain services and business logic never
// leaks into routing.
func NewRouter(cfg Config, decisions *decisionhandler.Handler, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	healthHandler.Register(r)

	r.Group(func(api chi.Router) {
		if cfg.JWTSigningKey != "" {
			api.Use(middleware.RequireAuth([]byte(cfg.JWTSigningKey), logger))
		}
		decisions.Register(api)
	})

	return r
}
