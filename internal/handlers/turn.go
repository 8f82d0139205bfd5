package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/internal/engine"
	"github.com/solorpg/chronicle/pkg/chat"
)

type TurnHandler struct {
	engine *engine.Orchestrator
	logger *slog.Logger
}

func NewTurnHandler(eng *engine.Orchestrator, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{engine: eng, logger: logger}
}

// SendTurnRequest is the body of the turn endpoints. Message is ignored
// by /continue. Stream switches the response to server-sent events.
type SendTurnRequest struct {
	chat.TurnRequest
	Stream bool `json:"stream,omitempty"`
}

// ServeHTTP routes turn requests.
// Routes:
// POST /v1/turns          - Send a player turn
// POST /v1/turns/resend   - Discard from a prior player turn and re-run it
// POST /v1/turns/continue - Ask the narrator to continue without input
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		h.logger.Warn("Method not allowed for turn endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req SendTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	sub := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/turns"), "/")
	switch sub {
	case "", "resend":
		if err := req.Validate(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			h.logger.Warn("Invalid turn request", "error", err)
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
	case "continue":
		if req.CampaignID == uuid.Nil {
			w.Header().Set("Content-Type", "application/json")
			writeError(w, h.logger, http.StatusBadRequest, "campaign_id is required")
			return
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusNotFound, "Unknown turn operation")
		return
	}

	if req.Stream {
		h.streamTurn(w, r, sub, req)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	res, err := h.runTurn(w, r, sub, req, nil)
	if err != nil {
		engineError(w, h.logger, err, "Failed to run turn")
		return
	}
	if res == nil {
		// A resend with no matching turn is a no-op.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

func (h *TurnHandler) runTurn(w http.ResponseWriter, r *http.Request, sub string, req SendTurnRequest, onChunk func(string)) (*engine.TurnResult, error) {
	switch sub {
	case "resend":
		return h.engine.Resend(r.Context(), req.CampaignID, req.Message, onChunk)
	case "continue":
		return h.engine.ContinueNarration(r.Context(), req.CampaignID, onChunk)
	default:
		return h.engine.SendTurn(r.Context(), req.CampaignID, req.Message, onChunk)
	}
}

// streamTurn runs the turn with server-sent events: one "chunk" event per
// oracle chunk, then a terminal "result" or "error" event.
func (h *TurnHandler) streamTurn(w http.ResponseWriter, r *http.Request, sub string, req SendTurnRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	onChunk := func(text string) {
		h.writeEvent(w, "chunk", map[string]string{"text": text})
		flusher.Flush()
	}

	res, err := h.runTurn(w, r, sub, req, onChunk)
	if err != nil {
		h.logger.Error("Failed to run streamed turn", "error", err)
		h.writeEvent(w, "error", ErrorResponse{Error: err.Error()})
		flusher.Flush()
		return
	}
	if res == nil {
		h.writeEvent(w, "error", ErrorResponse{Error: "no matching turn to resend"})
		flusher.Flush()
		return
	}
	h.writeEvent(w, "result", res)
	flusher.Flush()
}

func (h *TurnHandler) writeEvent(w http.ResponseWriter, event string, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("Failed to marshal event", "error", err, "event", event)
		return
	}
	if _, err := w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
		h.logger.Error("Failed to write event", "error", err, "event", event)
	}
}
