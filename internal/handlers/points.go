package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mynfini/narrative-engine/internal/services/events"
	"github.com/mynfini/narrative-engine/internal/storage"
	"github.com/mynfini/narrative-engine/pkg/ledger"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// EarnRequest is the body for POST /v1/points/earn
type EarnRequest struct {
	CharacterID  string          `json:"character_id"`
	Trigger      string          `json:"trigger"`
	Description  string          `json:"description,omitempty"`
	SceneContext json.RawMessage `json:"scene_context,omitempty"`
}

// SpendRequest is the body for POST /v1/points/spend
type SpendRequest struct {
	CharacterID  string          `json:"character_id"`
	Activity     string          `json:"activity"`
	Description  string          `json:"description,omitempty"`
	SceneContext json.RawMessage `json:"scene_context,omitempty"`
}

// BalanceResponse is the body for GET /v1/points/{character_id}
type BalanceResponse struct {
	CharacterID    string      `json:"character_id"`
	Balance        int         `json:"balance"`
	LifetimeEarned int         `json:"lifetime_earned"`
	LifetimeSpent  int         `json:"lifetime_spent"`
	SessionEarned  int         `json:"session_earned"`
	SessionSpent   int         `json:"session_spent"`
	Pressure       float64     `json:"pressure"`
	PressureBand   ledger.Band `json:"pressure_band"`
}

// OpportunitiesResponse is the body for GET /v1/points/{character_id}/opportunities
type OpportunitiesResponse struct {
	CharacterID   string               `json:"character_id"`
	Opportunities []ledger.Opportunity `json:"opportunities"`
	Suggestions   []string             `json:"suggestions"`
}

// PointsHandler serves the ledger API. Mutations write through to storage
// and publish events after the ledger accepts them.
type PointsHandler struct {
	ledger      *ledger.Ledger
	storage     storage.Storage
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewPointsHandler(l *ledger.Ledger, s storage.Storage, b *events.Broadcaster, logger *slog.Logger) *PointsHandler {
	return &PointsHandler{
		ledger:      l,
		storage:     s,
		broadcaster: b,
		logger:      logger,
	}
}

// ServeHTTP handles HTTP requests for ledger operations
// Routes:
// POST /v1/points/earn                            - Earn points for a trigger
// POST /v1/points/spend                           - Spend points on an activity
// GET  /v1/points/{character_id}                  - Read balance and pressure
// GET  /v1/points/{character_id}/history          - Read transaction history
// GET  /v1/points/{character_id}/opportunities    - Read earn opportunities
// POST /v1/points/{character_id}/reset-session    - Zero session counters
func (h *PointsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/points"), "/")
	parts := strings.Split(path, "/")

	switch {
	case r.Method == http.MethodPost && path == "earn":
		h.handleEarn(w, r)
	case r.Method == http.MethodPost && path == "spend":
		h.handleSpend(w, r)
	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] != "":
		h.handleBalance(w, parts[0])
	case r.Method == http.MethodGet && len(parts) == 2 && parts[1] == "history":
		h.handleHistory(w, r, parts[0])
	case r.Method == http.MethodGet && len(parts) == 2 && parts[1] == "opportunities":
		h.handleOpportunities(w, parts[0])
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "reset-session":
		h.handleResetSession(w, r, parts[0])
	default:
		h.logger.Warn("Unhandled points route", "method", r.Method, "path", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		h.writeJSON(w, ErrorResponse{Error: "Not found"})
	}
}

func (h *PointsHandler) handleEarn(w http.ResponseWriter, r *http.Request) {
	var req EarnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.writeJSON(w, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.CharacterID == "" {
		req.CharacterID = ledger.DefaultCharacterID
	}

	trigger, err := ledger.ParseTrigger(req.Trigger)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.writeJSON(w, ErrorResponse{Error: err.Error()})
		return
	}

	receipt, err := h.ledger.Earn(req.CharacterID, trigger, req.Description, req.SceneContext)
	if err != nil {
		h.logger.Error("Earn failed", "character_id", req.CharacterID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		h.writeJSON(w, ErrorResponse{Error: "Failed to earn points"})
		return
	}

	if !h.persistMutation(w, r, req.CharacterID, &receipt.Transaction) {
		return
	}

	if err := h.broadcaster.PublishPointsEarned(r.Context(), req.CharacterID,
		string(trigger), receipt.Credited, receipt.Bonus, receipt.Balance); err != nil {
		h.logger.Warn("Failed to publish earn event", "error", err)
	}

	h.logger.Info("Points earned",
		"character_id", req.CharacterID,
		"trigger", trigger,
		"credited", receipt.Credited,
		"bonus", receipt.Bonus,
		"balance", receipt.Balance,
	)

	w.WriteHeader(http.StatusOK)
	h.writeJSON(w, receipt)
}

func (h *PointsHandler) handleSpend(w http.ResponseWriter, r *http.Request) {
	var req SpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.writeJSON(w, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.CharacterID == "" {
		req.CharacterID = ledger.DefaultCharacterID
	}

	activity, err := ledger.ParseActivity(req.Activity)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.writeJSON(w, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.ledger.Spend(req.CharacterID, activity, req.Description, req.SceneContext)
	if err != nil {
		h.logger.Error("Spend failed", "character_id", req.CharacterID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		h.writeJSON(w, ErrorResponse{Error: "Failed to spend points"})
		return
	}

	if !result.Success {
		// Rejected spends change nothing, so there is nothing to persist.
		// The event stream carries the only record.
		if err := h.broadcaster.PublishPointsRejected(r.Context(), req.CharacterID,
			string(activity), result.Cost, result.Shortfall, result.Balance); err != nil {
			h.logger.Warn("Failed to publish rejection event", "error", err)
		}

		h.logger.Info("Spend rejected",
			"character_id", req.CharacterID,
			"activity", activity,
			"cost", result.Cost,
			"shortfall", result.Shortfall,
		)

		w.WriteHeader(http.StatusOK)
		h.writeJSON(w, result)
		return
	}

	if !h.persistMutation(w, r, req.CharacterID, result.Transaction) {
		return
	}

	if err := h.broadcaster.PublishPointsSpent(r.Context(), req.CharacterID,
		string(activity), result.Cost, result.Balance); err != nil {
		h.logger.Warn("Failed to publish spend event", "error", err)
	}

	h.logger.Info("Points spent",
		"character_id", req.CharacterID,
		"activity", activity,
		"cost", result.Cost,
		"balance", result.Balance,
	)

	w.WriteHeader(http.StatusOK)
	h.writeJSON(w, result)
}

func (h *PointsHandler) handleBalance(w http.ResponseWriter, characterID string) {
	snap := h.ledger.Snapshot(characterID)

	response := BalanceResponse{
		CharacterID:    characterID,
		Balance:        snap.Balance,
		LifetimeEarned: snap.LifetimeEarned,
		LifetimeSpent:  snap.LifetimeSpent,
		SessionEarned:  snap.SessionEarned,
		SessionSpent:   snap.SessionSpent,
		Pressure:       ledger.PressureForBalance(snap.Balance),
		PressureBand:   ledger.BandForBalance(snap.Balance),
	}

	w.WriteHeader(http.StatusOK)
	h.writeJSON(w, response)
}

func (h *PointsHandler) handleHistory(w http.ResponseWriter, r *http.Request, characterID string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			w.WriteHeader(http.StatusBadRequest)
			h.writeJSON(w, ErrorResponse{Error: "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	history := h.ledger.History(characterID, limit)

	w.WriteHeader(http.StatusOK)
	h.writeJSON(w, map[string]interface{}{
		"character_id": characterID,
		"transactions": history,
	})
}

func (h *PointsHandler) handleOpportunities(w http.ResponseWriter, characterID string) {
	response := OpportunitiesResponse{
		CharacterID:   characterID,
		Opportunities: ledger.Opportunities(),
		Suggestions:   h.ledger.Suggestions(characterID),
	}

	w.WriteHeader(http.StatusOK)
	h.writeJSON(w, response)
}

func (h *PointsHandler) handleResetSession(w http.ResponseWriter, r *http.Request, characterID string) {
	if err := h.ledger.ResetSession(characterID); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.writeJSON(w, ErrorResponse{Error: err.Error()})
		return
	}

	// Persist the zeroed counters so a restart doesn't resurrect them
	snap := h.ledger.Snapshot(characterID)
	if err := h.storage.SaveAccount(r.Context(), snap); err != nil {
		h.logger.Error("Failed to persist session reset", "character_id", characterID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		h.writeJSON(w, ErrorResponse{Error: "Failed to persist session reset"})
		return
	}

	if err := h.broadcaster.PublishSessionReset(r.Context(), characterID); err != nil {
		h.logger.Warn("Failed to publish session reset event", "error", err)
	}

	h.logger.Info("Session reset", "character_id", characterID)

	w.WriteHeader(http.StatusOK)
	h.writeJSON(w, map[string]interface{}{
		"character_id":   characterID,
		"session_earned": 0,
		"session_spent":  0,
	})
}

// persistMutation writes the account snapshot and new transaction through
// to storage. On failure it reports 500; the in-memory ledger has already
// moved, so the operator must restart to rehydrate a consistent view.
func (h *PointsHandler) persistMutation(w http.ResponseWriter, r *http.Request, characterID string, tx *ledger.Transaction) bool {
	snap := h.ledger.Snapshot(characterID)
	if err := h.storage.SaveAccount(r.Context(), snap); err != nil {
		h.logger.Error("Failed to persist account", "character_id", characterID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		h.writeJSON(w, ErrorResponse{Error: "Failed to persist account"})
		return false
	}
	if tx != nil {
		if err := h.storage.AppendTransaction(r.Context(), *tx); err != nil {
			h.logger.Error("Failed to persist transaction", "character_id", characterID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			h.writeJSON(w, ErrorResponse{Error: "Failed to persist transaction"})
			return false
		}
	}
	return true
}

func (h *PointsHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
