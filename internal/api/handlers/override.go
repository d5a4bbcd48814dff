package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/credence-io/credence/internal/domain"
	"github.com/credence-io/credence/internal/service"
	"github.com/credence-io/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OverrideHandler manages equivalence sub-debates: community challenges to
// the semantic similarity the embedding layer assigned to a pair of
// arguments.
type OverrideHandler struct {
	overrides domain.SimilarityOverrideStore
	arguments domain.ArgumentStore
	engine    *service.Engine
	logger    *zap.Logger
}

func NewOverrideHandler(overrides domain.SimilarityOverrideStore, arguments domain.ArgumentStore, engine *service.Engine, logger *zap.Logger) *OverrideHandler {
	return &OverrideHandler{overrides: overrides, arguments: arguments, engine: engine, logger: logger}
}

type createOverrideRequest struct {
	ArgumentA string `json:"argument_a"`
	ArgumentB string `json:"argument_b"`
}

func (h *OverrideHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	idA, err := uuid.Parse(req.ArgumentA)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument_a")
		return
	}
	idB, err := uuid.Parse(req.ArgumentB)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument_b")
		return
	}
	if idA == idB {
		writeError(w, http.StatusBadRequest, "cannot open an equivalence dispute between an argument and itself")
		return
	}

	argA, err := h.arguments.GetByID(r.Context(), idA)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "argument_a not found")
			return
		}
		h.logger.Error("failed to look up argument", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create override")
		return
	}
	argB, err := h.arguments.GetByID(r.Context(), idB)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "argument_b not found")
			return
		}
		h.logger.Error("failed to look up argument", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create override")
		return
	}
	if argA.BeliefID != argB.BeliefID {
		writeError(w, http.StatusUnprocessableEntity, domain.ErrWrongBelief.Error())
		return
	}

	o := &domain.EquivalenceOverride{
		BeliefID:  argA.BeliefID,
		ArgumentA: idA,
		ArgumentB: idB,
	}
	if err := h.overrides.Create(r.Context(), o); err != nil {
		h.logger.Error("failed to create override", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create override")
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

type voteRequest struct {
	Equivalent bool    `json:"equivalent"`
	Weight     float64 `json:"weight,omitempty"`
}

func (h *OverrideHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid override id")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Weight == 0 {
		req.Weight = 1
	}
	if req.Weight < 0 {
		writeError(w, http.StatusBadRequest, "weight must be positive")
		return
	}

	if err := h.overrides.Vote(r.Context(), id, req.Equivalent, req.Weight); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "override not found or already resolved")
			return
		}
		h.logger.Error("failed to record vote", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record vote")
		return
	}

	o, err := h.overrides.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload override", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record vote")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// Resolve closes the sub-debate: the pro/con weights collapse into a
// community similarity that henceforth overrides the embedding layer for
// this pair, and the belief rescores.
func (h *OverrideHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid override id")
		return
	}

	o, err := h.overrides.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "override not found")
			return
		}
		h.logger.Error("failed to get override", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to resolve override")
		return
	}
	if o.Resolved {
		writeError(w, http.StatusConflict, "override already resolved")
		return
	}

	now := time.Now().UTC()
	similarity := o.Resolve(now)
	if err := h.overrides.Resolve(r.Context(), id, similarity, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusConflict, "override already resolved")
			return
		}
		h.logger.Error("failed to resolve override", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to resolve override")
		return
	}

	h.engine.Enqueue(o.BeliefID)
	writeJSON(w, http.StatusOK, o)
}
