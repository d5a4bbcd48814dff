package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/credence-io/credence/internal/domain"
	"github.com/credence-io/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EngagementHandler records the examination signals feeding the stability
// score: reads, evaluations, expert reviews, quality flags, downvotes.
type EngagementHandler struct {
	engagement domain.EngagementStore
	beliefs    domain.BeliefStore
	logger     *zap.Logger
}

func NewEngagementHandler(engagement domain.EngagementStore, beliefs domain.BeliefStore, logger *zap.Logger) *EngagementHandler {
	return &EngagementHandler{engagement: engagement, beliefs: beliefs, logger: logger}
}

type recordEngagementRequest struct {
	Type        string `json:"type"`
	ReaderID    string `json:"reader_id,omitempty"`
	ReadSeconds int64  `json:"read_seconds,omitempty"`
}

func (h *EngagementHandler) Record(w http.ResponseWriter, r *http.Request) {
	beliefID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	var req recordEngagementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidEngagementEventType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid engagement event type")
		return
	}
	if req.ReadSeconds < 0 {
		writeError(w, http.StatusBadRequest, "read_seconds must not be negative")
		return
	}

	if _, err := h.beliefs.GetByID(r.Context(), beliefID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "belief not found")
			return
		}
		h.logger.Error("failed to look up belief", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record engagement")
		return
	}

	event := &domain.EngagementEvent{
		BeliefID:    beliefID,
		Type:        domain.EngagementEventType(req.Type),
		ReaderID:    req.ReaderID,
		ReadSeconds: req.ReadSeconds,
	}
	if err := h.engagement.Record(r.Context(), event); err != nil {
		h.logger.Error("failed to record engagement", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record engagement")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

func (h *EngagementHandler) Stats(w http.ResponseWriter, r *http.Request) {
	beliefID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	stats, err := h.engagement.Stats(r.Context(), beliefID)
	if err != nil {
		h.logger.Error("failed to load engagement stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load engagement stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
