package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	apperrors "wealthlink/internal/errors"
	"wealthlink/internal/repository"
	syncsvc "wealthlink/internal/sync"
)

// SyncHandler triggers syncs and reports their history.
type SyncHandler struct {
	service     *syncsvc.Service
	historyRepo *repository.SyncHistoryRepository
	log         zerolog.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(service *syncsvc.Service, historyRepo *repository.SyncHistoryRepository, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{service: service, historyRepo: historyRepo, log: log}
}

// Trigger runs a full sync and returns its result. The request blocks until
// the sync finishes; interactive authentication may prompt on the server
// console.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Run(r.Context())
	if err != nil {
		if errors.Is(err, syncsvc.ErrSyncInProgress) {
			respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// History returns recent sync runs, newest first.
func (h *SyncHandler) History(w http.ResponseWriter, r *http.Request) {
	runs, err := h.historyRepo.GetRecent(20)
	if err != nil {
		respondError(w, h.log, apperrors.Internal("loading sync history", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// Health reports service liveness and the latest sync status.
func (h *SyncHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if latest, err := h.historyRepo.GetLatest(); err == nil && latest != nil {
		resp["last_sync"] = latest
	}
	respondJSON(w, http.StatusOK, resp)
}
