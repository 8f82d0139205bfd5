// Package handlers exposes the engine over HTTP. Each resource gets one
// handler type owning its method routing.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/solorpg/chronicle/internal/engine"
)

// ErrorResponse is the JSON body of every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// engineError maps engine sentinels to HTTP statuses; anything else is a 500.
func engineError(w http.ResponseWriter, logger *slog.Logger, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, engine.ErrCampaignNotFound):
		writeError(w, logger, http.StatusNotFound, "Campaign not found")
	case errors.Is(err, engine.ErrCampaignClosed):
		writeError(w, logger, http.StatusConflict, "Campaign is closed")
	case errors.Is(err, engine.ErrWrongVariant):
		writeError(w, logger, http.StatusBadRequest, "Operation not valid for this campaign variant")
	default:
		logger.Error(fallbackMsg, "error", err)
		writeError(w, logger, http.StatusInternalServerError, fallbackMsg)
	}
}
