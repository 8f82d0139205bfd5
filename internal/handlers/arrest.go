package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/internal/engine"
	"github.com/solorpg/chronicle/pkg/mystery"
)

type ArrestHandler struct {
	engine *engine.Orchestrator
	logger *slog.Logger
}

func NewArrestHandler(eng *engine.Orchestrator, logger *slog.Logger) *ArrestHandler {
	return &ArrestHandler{engine: eng, logger: logger}
}

// ArrestRequest is the body of POST /v1/arrest.
type ArrestRequest struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Criminal   string    `json:"criminal"`
	Weapon     string    `json:"weapon"`
	Motive     string    `json:"motive"`
}

func (req *ArrestRequest) Validate() error {
	if req.CampaignID == uuid.Nil {
		return errRequired("campaign_id")
	}
	if req.Criminal == "" {
		return errRequired("criminal")
	}
	if req.Weapon == "" {
		return errRequired("weapon")
	}
	if req.Motive == "" {
		return errRequired("motive")
	}
	return nil
}

func (h *ArrestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for arrest endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req ArrestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.engine.Arrest(r.Context(), req.CampaignID, mystery.Guess{
		Criminal: req.Criminal,
		Weapon:   req.Weapon,
		Motive:   req.Motive,
	})
	if err != nil {
		engineError(w, h.logger, err, "Failed to resolve arrest")
		return
	}

	h.logger.Info("Arrest resolved", "campaign_id", req.CampaignID, "correct", res.Correct, "state", res.State)
	writeJSON(w, h.logger, http.StatusOK, res)
}
