package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/sync"
	"github.com/MKhiriev/notero-sync/internal/utils"
	"github.com/MKhiriev/notero-sync/models"
)

func (h *Handler) runSyncCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	summary, err := h.poller.RunCycle(ctx)
	if errors.Is(err, sync.ErrCycleInFlight) {
		http.Error(w, "a sync cycle is already running", http.StatusConflict)
		return
	}
	if err != nil {
		log.Err(err).Str("func", "*Handler.runSyncCycle").Msg("sync cycle failed")
		http.Error(w, "sync cycle failed", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, summary, http.StatusOK)
}

func (h *Handler) runBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	// The bootstrap holds the poller's cycle lock for its whole duration so
	// a ticker cycle can never reconcile half-seeded state.
	var summary models.BootstrapSummary
	err := h.poller.RunExclusive(ctx, func(ctx context.Context) error {
		var runErr error
		summary, runErr = h.importer.Run(ctx)
		return runErr
	})
	if errors.Is(err, sync.ErrCycleInFlight) {
		http.Error(w, "a sync cycle is already running", http.StatusConflict)
		return
	}
	if err != nil {
		log.Err(err).Str("func", "*Handler.runBootstrap").Msg("bootstrap import failed")
		http.Error(w, "bootstrap import failed", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, summary, http.StatusOK)
}
