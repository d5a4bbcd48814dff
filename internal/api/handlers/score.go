package handlers

import (
	"errors"
	"net/http"

	"github.com/credence-io/credence/internal/service"
	"github.com/credence-io/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScoreHandler exposes the scoring engine: recompute triggers, score reads,
// explanations and what-if previews.
type ScoreHandler struct {
	engine *service.Engine
	logger *zap.Logger
}

func NewScoreHandler(engine *service.Engine, logger *zap.Logger) *ScoreHandler {
	return &ScoreHandler{engine: engine, logger: logger}
}

// Recompute runs the full pipeline synchronously and returns the breakdown.
func (h *ScoreHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	beliefID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	result, err := h.engine.Recompute(r.Context(), beliefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "belief not found")
			return
		}
		h.logger.Error("recompute failed", zap.String("belief_id", beliefID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "recompute failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Scores returns the persisted headline scores without triggering a run.
func (h *ScoreHandler) Scores(w http.ResponseWriter, r *http.Request) {
	beliefID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	conclusion, err := h.engine.ConclusionScore(r.Context(), beliefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "belief not found")
			return
		}
		h.logger.Error("score read failed", zap.String("belief_id", beliefID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "score read failed")
		return
	}
	stability, err := h.engine.Stability(r.Context(), beliefID)
	if err != nil {
		h.logger.Error("score read failed", zap.String("belief_id", beliefID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "score read failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"belief_id":        beliefID,
		"conclusion_score": conclusion,
		"stability_score":  stability,
	})
}

func (h *ScoreHandler) Explain(w http.ResponseWriter, r *http.Request) {
	beliefID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	explanations, err := h.engine.Explain(r.Context(), beliefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "belief not found")
			return
		}
		h.logger.Error("explain failed", zap.String("belief_id", beliefID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "explain failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"belief_id": beliefID, "contributions": explanations})
}

func (h *ScoreHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	beliefID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	clusters, err := h.engine.Clusters(r.Context(), beliefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "belief not found")
			return
		}
		h.logger.Error("clustering failed", zap.String("belief_id", beliefID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "clustering failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"belief_id": beliefID, "clusters": clusters})
}

// SimulateRetraction previews score impact of an evidence retraction without
// committing anything.
func (h *ScoreHandler) SimulateRetraction(w http.ResponseWriter, r *http.Request) {
	evidenceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid evidence id")
		return
	}

	preview, err := h.engine.SimulateRetraction(r.Context(), evidenceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "evidence not found")
			return
		}
		h.logger.Error("retraction simulation failed", zap.String("evidence_id", evidenceID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "retraction simulation failed")
		return
	}

	writeJSON(w, http.StatusOK, preview)
}
