package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each component check on /api/v3/health.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w, r, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	if s.telemetry != nil && s.metricsCfg.Enabled {
		r.Handle(s.metricsCfg.Path, s.telemetry.Handler())
	}

	r.Route("/api/v3", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/shells", func(r chi.Router) {
			r.Get("/", s.handleListShells)
			r.Post("/", s.handleCreateShell)
			r.Delete("/", s.handleClearShells)
			r.Post("/$query", s.handleQueryShells)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetShell)
				r.Put("/", s.handleUpdateShell)
				r.Delete("/", s.handleDeleteShell)

				r.Route("/submodel-refs", func(r chi.Router) {
					r.Get("/", s.handleListSubmodelRefs)
					r.Post("/", s.handleAddSubmodelRef)
					r.Delete("/{submodelId}", s.handleRemoveSubmodelRef)
				})
			})
		})
	})

	return r
}

// handleHealth reports the storage backend and every registered component.
// Any failing check turns the response into 503 with status "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string, len(s.healthChecks)+1)
	healthy := true

	check := func(name string, fn func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			components[name] = err.Error()
			healthy = false
			return
		}
		components[name] = "ok"
	}

	check("storage", s.registry.HealthCheck)

	names := make([]string, 0, len(s.healthChecks))
	for name := range s.healthChecks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		check(name, s.healthChecks[name].HealthCheck)
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"backend":    s.registry.Backend(),
		"components": components,
	})
}
