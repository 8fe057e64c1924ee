package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mynfini/narrative-engine/internal/services/events"
	"github.com/mynfini/narrative-engine/internal/services/queue"
	"github.com/mynfini/narrative-engine/pkg/chat"
	queuePkg "github.com/mynfini/narrative-engine/pkg/queue"
)

// NarrateHandler accepts narration requests and queues them for async
// processing. Clients follow progress on the SSE stream.
type NarrateHandler struct {
	queue       *queue.NarrationQueue
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewNarrateHandler(q *queue.NarrationQueue, b *events.Broadcaster, logger *slog.Logger) *NarrateHandler {
	return &NarrateHandler{
		queue:       q,
		broadcaster: b,
		logger:      logger,
	}
}

// ServeHTTP handles POST /v1/narrate
func (h *NarrateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		h.writeJSON(w, ErrorResponse{Error: "Method not allowed. Only POST is supported."})
		return
	}

	var req chat.NarrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.writeJSON(w, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.writeJSON(w, ErrorResponse{Error: err.Error()})
		return
	}

	queueReq := &queuePkg.Request{
		RequestID:   uuid.NewString(),
		Type:        queuePkg.RequestTypeNarrate,
		CharacterID: req.CharacterID,
		Action:      req.Action,
		EnqueuedAt:  time.Now().UTC(),
	}

	if err := h.queue.Enqueue(r.Context(), queueReq); err != nil {
		h.logger.Error("Failed to enqueue narration request", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		h.writeJSON(w, ErrorResponse{Error: "Failed to queue narration request"})
		return
	}

	if err := h.broadcaster.PublishNarrationQueued(r.Context(), req.CharacterID, queueReq.RequestID); err != nil {
		h.logger.Warn("Failed to publish queued event", "error", err)
	}

	h.logger.Info("Narration request queued",
		"request_id", queueReq.RequestID,
		"character_id", req.CharacterID,
	)

	w.WriteHeader(http.StatusAccepted)
	h.writeJSON(w, map[string]interface{}{
		"request_id":   queueReq.RequestID,
		"character_id": req.CharacterID,
		"status":       "queued",
	})
}

func (h *NarrateHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
