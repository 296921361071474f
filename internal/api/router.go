package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig lists the handlers mounted by NewRouter. Metrics,
// OperatorFeed and Dashboard are optional.
type RouterConfig struct {
	Webhook      *WebhookHandler
	Health       *HealthHandler
	Metrics      http.Handler
	OperatorFeed http.Handler
	Dashboard    http.Handler
}

// NewRouter builds the HTTP surface with the global middleware chain.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))

	cfg.Health.RegisterHealth(r)
	cfg.Webhook.RegisterRoutes(r)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.OperatorFeed != nil {
		r.Method(http.MethodGet, "/ws/operator", cfg.OperatorFeed)
	}
	if cfg.Dashboard != nil {
		r.Mount("/operator", http.StripPrefix("/operator", cfg.Dashboard))
	}
	return r
}
