package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/internal/memory"
	"github.com/solorpg/chronicle/internal/storage"
)

func errRequired(field string) error {
	return fmt.Errorf("%s is required", field)
}

type MemoryHandler struct {
	store        storage.Storage
	consolidator *memory.Consolidator
	logger       *slog.Logger
}

func NewMemoryHandler(store storage.Storage, consolidator *memory.Consolidator, logger *slog.Logger) *MemoryHandler {
	return &MemoryHandler{
		store:        store,
		consolidator: consolidator,
		logger:       logger,
	}
}

// ServeHTTP routes memory requests.
// Routes:
// GET /v1/memory/{campaignID}              - Read the consolidated snapshot
// POST /v1/memory/{campaignID}/consolidate - Run one consolidation pass now
func (h *MemoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/memory"), "/")
	parts := strings.Split(path, "/")
	if path == "" || len(parts) > 2 {
		writeError(w, h.logger, http.StatusBadRequest, "Campaign ID is required")
		return
	}

	campaignID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid campaign ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid campaign ID format")
		return
	}

	switch {
	case r.Method == http.MethodGet && len(parts) == 1:
		h.handleRead(w, r, campaignID)
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "consolidate":
		h.handleConsolidate(w, r, campaignID)
	default:
		h.logger.Warn("Method not allowed for memory endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *MemoryHandler) handleRead(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	snap, err := h.store.GetMemory(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Failed to load memory", "error", err, "campaign_id", campaignID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load memory")
		return
	}
	if snap == nil {
		writeError(w, h.logger, http.StatusNotFound, "No consolidated memory for this campaign")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, snap)
}

func (h *MemoryHandler) handleConsolidate(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	snap, err := h.consolidator.Consolidate(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Consolidation failed", "error", err, "campaign_id", campaignID)
		writeError(w, h.logger, http.StatusInternalServerError, "Consolidation failed")
		return
	}
	h.logger.Info("Consolidation complete", "campaign_id", campaignID, "entities", len(snap.Entities), "facts", len(snap.Facts))
	writeJSON(w, h.logger, http.StatusOK, snap)
}
