package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/internal/engine"
	"github.com/solorpg/chronicle/internal/storage"
	"github.com/solorpg/chronicle/pkg/actor"
	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/leader"
)

type CampaignHandler struct {
	store  storage.Storage
	engine *engine.Orchestrator
	logger *slog.Logger
}

func NewCampaignHandler(store storage.Storage, eng *engine.Orchestrator, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		store:  store,
		engine: eng,
		logger: logger,
	}
}

// CreateCampaignRequest is the body of POST /v1/campaigns.
type CreateCampaignRequest struct {
	Title      string `json:"title"`
	Variant    string `json:"variant"`
	Theme      string `json:"theme,omitempty"`
	Tone       string `json:"tone,omitempty"`
	Nation     string `json:"nation,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Language   string `json:"language,omitempty"`
}

// CreateCampaignResponse pairs the persisted campaign with its opening turn.
type CreateCampaignResponse struct {
	Campaign *campaign.Campaign `json:"campaign"`
	Opening  *engine.TurnResult `json:"opening"`
}

// CampaignStateResponse is the variant-specific state for UI display.
type CampaignStateResponse struct {
	Campaign  *campaign.Campaign     `json:"campaign"`
	Leader    *leader.Profile        `json:"leader,omitempty"`
	Timeline  []leader.TimelineEvent `json:"timeline,omitempty"`
	Character *actor.CharacterSpec   `json:"character,omitempty"`
}

// ServeHTTP routes campaign requests.
// Routes:
// POST /v1/campaigns              - Create and start a campaign
// GET /v1/campaigns               - List campaigns
// GET /v1/campaigns/{id}          - Read one campaign
// GET /v1/campaigns/{id}/turns    - Read the transcript
// GET /v1/campaigns/{id}/state    - Read variant state (leader or character)
// DELETE /v1/campaigns/{id}       - Delete a campaign and all its records
func (h *CampaignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/campaigns"), "/")
	parts := []string{}
	if path != "" {
		parts = strings.Split(path, "/")
	}

	var campaignID uuid.UUID
	var sub string
	var err error
	if len(parts) > 0 {
		campaignID, err = uuid.Parse(parts[0])
		if err != nil {
			h.logger.Warn("Invalid campaign ID", "id", parts[0], "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid campaign ID format")
			return
		}
	}
	if len(parts) > 1 {
		sub = parts[1]
	}

	switch {
	case r.Method == http.MethodPost && len(parts) == 0:
		h.handleCreate(w, r)
	case r.Method == http.MethodGet && len(parts) == 0:
		h.handleList(w, r)
	case r.Method == http.MethodGet && sub == "":
		h.handleRead(w, r, campaignID)
	case r.Method == http.MethodGet && sub == "turns":
		h.handleTurns(w, r, campaignID)
	case r.Method == http.MethodGet && sub == "state":
		h.handleState(w, r, campaignID)
	case r.Method == http.MethodDelete && sub == "":
		h.handleDelete(w, r, campaignID)
	default:
		h.logger.Warn("Method not allowed for campaign endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *CampaignHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	c := campaign.New(req.Title, req.Variant)
	c.Theme = req.Theme
	c.Tone = req.Tone
	c.Nation = req.Nation
	c.Difficulty = req.Difficulty
	c.Language = req.Language
	if err := c.Validate(); err != nil {
		h.logger.Warn("Invalid campaign", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	opening, err := h.engine.StartCampaign(r.Context(), c, nil)
	if err != nil {
		engineError(w, h.logger, err, "Failed to start campaign")
		return
	}

	h.logger.Info("Campaign created", "id", c.ID, "variant", c.Variant)
	writeJSON(w, h.logger, http.StatusCreated, CreateCampaignResponse{Campaign: c, Opening: opening})
}

func (h *CampaignHandler) handleList(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.store.ListCampaigns(r.Context())
	if err != nil {
		h.logger.Error("Failed to list campaigns", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list campaigns")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, campaigns)
}

func (h *CampaignHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	c, err := h.store.GetCampaign(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load campaign", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load campaign")
		return
	}
	if c == nil {
		writeError(w, h.logger, http.StatusNotFound, "Campaign not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, c)
}

func (h *CampaignHandler) handleTurns(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	c, err := h.store.GetCampaign(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load campaign", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load campaign")
		return
	}
	if c == nil {
		writeError(w, h.logger, http.StatusNotFound, "Campaign not found")
		return
	}

	turns, err := h.store.ListTurns(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list turns", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list turns")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, turns)
}

func (h *CampaignHandler) handleState(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	c, err := h.store.GetCampaign(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load campaign", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load campaign")
		return
	}
	if c == nil {
		writeError(w, h.logger, http.StatusNotFound, "Campaign not found")
		return
	}

	resp := CampaignStateResponse{Campaign: c}
	switch c.Variant {
	case campaign.VariantLeader:
		if resp.Leader, err = h.store.GetLeader(r.Context(), id); err != nil {
			h.logger.Error("Failed to load leader", "error", err, "id", id)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load leader state")
			return
		}
		if resp.Timeline, err = h.store.ListTimelineEvents(r.Context(), id); err != nil {
			h.logger.Error("Failed to load timeline", "error", err, "id", id)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load timeline")
			return
		}
	case campaign.VariantDetective:
		if resp.Character, err = h.store.GetCharacter(r.Context(), id); err != nil {
			h.logger.Error("Failed to load character", "error", err, "id", id)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load character")
			return
		}
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *CampaignHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.store.DeleteCampaign(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete campaign", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete campaign")
		return
	}
	h.logger.Info("Campaign deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
