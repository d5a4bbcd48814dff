package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/credence-io/credence/internal/domain"
	"github.com/credence-io/credence/internal/service"
	"github.com/credence-io/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BeliefHandler struct {
	beliefs   domain.BeliefStore
	arguments domain.ArgumentStore
	engine    *service.Engine
	logger    *zap.Logger
}

func NewBeliefHandler(beliefs domain.BeliefStore, arguments domain.ArgumentStore, engine *service.Engine, logger *zap.Logger) *BeliefHandler {
	return &BeliefHandler{beliefs: beliefs, arguments: arguments, engine: engine, logger: logger}
}

type createBeliefRequest struct {
	Statement string `json:"statement"`
}

func (h *BeliefHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBeliefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Statement = strings.TrimSpace(req.Statement)
	if req.Statement == "" {
		writeError(w, http.StatusBadRequest, "statement is required")
		return
	}

	belief := &domain.Belief{Statement: req.Statement}
	if err := h.beliefs.Create(r.Context(), belief); err != nil {
		h.logger.Error("failed to create belief", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create belief")
		return
	}

	writeJSON(w, http.StatusCreated, belief)
}

func (h *BeliefHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	belief, err := h.beliefs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "belief not found")
			return
		}
		h.logger.Error("failed to get belief", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get belief")
		return
	}

	writeJSON(w, http.StatusOK, belief)
}

func (h *BeliefHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	beliefs, err := h.beliefs.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list beliefs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list beliefs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"beliefs": beliefs})
}

// Delete archives the belief and cascades lifecycle archival over its
// arguments. Nothing is hard-deleted; history remains queryable.
func (h *BeliefHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	if err := h.beliefs.UpdateState(r.Context(), id, domain.BeliefArchived); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "belief not found")
			return
		}
		h.logger.Error("failed to archive belief", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to archive belief")
		return
	}

	archived, err := h.arguments.ArchiveByBelief(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to archive belief arguments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to archive belief arguments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"belief_id":          id,
		"state":              domain.BeliefArchived,
		"arguments_archived": archived,
	})
}

func (h *BeliefHandler) ListArguments(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	args, err := h.arguments.ListByBelief(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list arguments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list arguments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"arguments": args})
}
