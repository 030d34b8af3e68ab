package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Pipelines
		r.Get("/pipelines", h.ListPipelines)
		r.Post("/pipelines/{name}/start", h.StartPipeline)

		// Processes
		r.Get("/processes", h.ListProcesses)
		r.Get("/processes/{id}", h.GetProcess)
		r.Post("/processes/{id}/pause", h.PauseProcess)
		r.Post("/processes/{id}/resume", h.ResumeProcess)
		r.Post("/processes/{id}/kill", h.KillProcess)
	})
}
