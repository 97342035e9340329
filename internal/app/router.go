package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plantops/plantops/internal/observability"
)

// RouteMounter is implemented by every module handler.
type RouteMounter interface {
	MountRoutes(r chi.Router)
}

// RouterConfig carries everything required to assemble the HTTP router.
type RouterConfig struct {
	Middleware []func(http.Handler) http.Handler
	Metrics    *observability.Metrics
	Modules    []RouteMounter
}

// NewRouter builds the chi router with the module routes mounted under /api.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	for _, mw := range cfg.Middleware {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		for _, module := range cfg.Modules {
			if module != nil {
				module.MountRoutes(api)
			}
		}
	})

	return r
}
