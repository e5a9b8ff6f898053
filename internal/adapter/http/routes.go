package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the versioned API to a router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/route", h.RouteTask)
		r.Post("/estimate", h.EstimateTask)
		r.Post("/run", h.RunTask)
		r.Get("/runs", h.ListRuns)
		r.Get("/costs/cumulative", h.CumulativeCost)
		r.Get("/models", h.ListModels)
		r.Get("/models/{id}", h.GetModel)
	})
}
