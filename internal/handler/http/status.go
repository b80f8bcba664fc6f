package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/sync"
	"github.com/MKhiriev/notero-sync/internal/utils"
	"github.com/MKhiriev/notero-sync/models"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (h *Handler) getDaemonVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(h.buildInfo.BuildVersion()))
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	pages, notes := h.store.Counts()

	var lastPolled time.Time
	if cursor := h.store.PollCursor(); cursor != "" {
		parsed, err := time.Parse(sync.CursorLayout, cursor)
		if err != nil {
			log.Err(err).Str("func", "*Handler.getStatus").Msg("malformed poll cursor in state")
		} else {
			lastPolled = parsed
		}
	}

	report := models.StatusReport{
		LastPolledAt:  lastPolled,
		TrackedPages:  pages,
		TrackedNotes:  notes,
		CycleRunning:  h.poller.Running(),
		StorageDriver: h.storageDriver,
	}

	utils.WriteJSON(w, report, http.StatusOK)
}
