package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the HTTP surface. Permissive CORS is enabled only
// in development.
func SetupRoutes(h *Handlers, devMode bool) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if devMode {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", h.HealthCheck)

	r.Route("/api/optimization", func(r chi.Router) {
		r.Post("/allocate", h.AllocateBudget)
		r.Post("/optimize", h.OptimizeOnce)
		r.Post("/arms", h.FetchArms)
		r.Post("/audit", h.AuditROI)
		r.Post("/signals", h.GenerateSignals)

		r.Get("/performance", h.Performances)
		r.Post("/performance/reset", h.ResetPerformance)

		r.Get("/reports", h.ListReports)
	})

	return r
}
