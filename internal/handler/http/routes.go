package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	router.Get("/health", h.health)
	router.Get("/api/version", h.getDaemonVersion)
	router.Get("/api/status", h.getStatus)
	router.Post("/api/sync/run", h.runSyncCycle)
	router.Post("/api/bootstrap/run", h.runBootstrap)

	return router
}
