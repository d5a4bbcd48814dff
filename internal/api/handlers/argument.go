package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/credence-io/credence/internal/domain"
	"github.com/credence-io/credence/internal/service"
	"github.com/credence-io/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ArgumentHandler struct {
	beliefs   domain.BeliefStore
	arguments domain.ArgumentStore
	engine    *service.Engine
	logger    *zap.Logger
}

func NewArgumentHandler(beliefs domain.BeliefStore, arguments domain.ArgumentStore, engine *service.Engine, logger *zap.Logger) *ArgumentHandler {
	return &ArgumentHandler{beliefs: beliefs, arguments: arguments, engine: engine, logger: logger}
}

type createArgumentRequest struct {
	BeliefID   string   `json:"belief_id"`
	ParentID   string   `json:"parent_id,omitempty"`
	Claim      string   `json:"claim"`
	Inference  string   `json:"inference,omitempty"`
	Conclusion string   `json:"conclusion,omitempty"`
	Polarity   string   `json:"polarity"`
	DependsOn  []string `json:"depends_on,omitempty"`
}

func (h *ArgumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createArgumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	beliefID, err := uuid.Parse(req.BeliefID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief_id")
		return
	}

	req.Claim = strings.TrimSpace(req.Claim)
	if req.Claim == "" {
		writeError(w, http.StatusBadRequest, "claim is required")
		return
	}

	if !domain.ValidPolarity(req.Polarity) {
		writeError(w, http.StatusBadRequest, "polarity must be supporting or opposing")
		return
	}

	if _, err := h.beliefs.GetByID(r.Context(), beliefID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "belief not found")
			return
		}
		h.logger.Error("failed to look up belief", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create argument")
		return
	}

	arg := &domain.Argument{
		BeliefID:   beliefID,
		Claim:      req.Claim,
		Inference:  strings.TrimSpace(req.Inference),
		Conclusion: strings.TrimSpace(req.Conclusion),
		Polarity:   domain.Polarity(req.Polarity),
	}

	if req.ParentID != "" {
		parentID, err := uuid.Parse(req.ParentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid parent_id")
			return
		}
		arg.ParentID = &parentID
	}

	for _, dep := range req.DependsOn {
		depID, err := uuid.Parse(dep)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid depends_on id")
			return
		}
		arg.DependsOn = append(arg.DependsOn, depID)
	}

	// Structural checks run against the belief's current graph before the
	// row exists: the parent must belong to the same belief, and the new
	// edges must not close a cycle.
	siblings, err := h.arguments.ListByBelief(r.Context(), beliefID)
	if err != nil {
		h.logger.Error("failed to load argument graph", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create argument")
		return
	}
	if err := validateArgumentEdges(arg, siblings); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.arguments.Create(r.Context(), arg); err != nil {
		h.logger.Error("failed to create argument", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create argument")
		return
	}

	h.engine.Enqueue(beliefID)
	writeJSON(w, http.StatusCreated, arg)
}

// validateArgumentEdges checks the new argument's parent and dependency
// edges against its belief's existing graph.
func validateArgumentEdges(arg *domain.Argument, siblings []*domain.Argument) error {
	byID := make(map[uuid.UUID]*domain.Argument, len(siblings))
	for _, s := range siblings {
		byID[s.ID] = s
	}

	if arg.ParentID != nil {
		parent, ok := byID[*arg.ParentID]
		if !ok {
			return errors.New("parent argument not found")
		}
		if parent.BeliefID != arg.BeliefID {
			return domain.ErrWrongBelief
		}
	}
	for _, dep := range arg.DependsOn {
		if _, ok := byID[dep]; !ok {
			return errors.New("depends_on argument not found")
		}
	}

	// A node that does not exist yet cannot be anyone's ancestor, so parent
	// and depends-on edges from a new argument never close a cycle. Cycle
	// checks happen on the dependency endpoint, where both ends are real.
	return nil
}

type addDependencyRequest struct {
	DependsOn string `json:"depends_on"`
}

// AddDependency links an existing argument to a prerequisite sibling. The
// edge is rejected when it would make the argument its own ancestor.
func (h *ArgumentHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument id")
		return
	}

	var req addDependencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	depID, err := uuid.Parse(req.DependsOn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid depends_on id")
		return
	}

	arg, err := h.arguments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "argument not found")
			return
		}
		h.logger.Error("failed to get argument", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add dependency")
		return
	}

	siblings, err := h.arguments.ListByBelief(r.Context(), arg.BeliefID)
	if err != nil {
		h.logger.Error("failed to load argument graph", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add dependency")
		return
	}
	graph, err := domain.NewArgumentGraph(arg.BeliefID, siblings)
	if err != nil {
		h.logger.Error("failed to build argument graph", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add dependency")
		return
	}

	// The graph only holds the owning belief's arguments, so a cross-belief
	// dependency surfaces here as a missing node.
	if graph.Get(depID) == nil {
		writeError(w, http.StatusUnprocessableEntity, "depends_on argument not found in this belief")
		return
	}
	if graph.WouldCycle(id, depID) {
		writeError(w, http.StatusUnprocessableEntity, domain.ErrCycleDetected.Error())
		return
	}

	if err := h.arguments.AddDependency(r.Context(), id, depID); err != nil {
		h.logger.Error("failed to add dependency", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add dependency")
		return
	}

	h.engine.Enqueue(arg.BeliefID)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "depends_on": depID})
}

func (h *ArgumentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument id")
		return
	}

	arg, err := h.arguments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "argument not found")
			return
		}
		h.logger.Error("failed to get argument", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get argument")
		return
	}

	writeJSON(w, http.StatusOK, arg)
}

type updateStateRequest struct {
	State string `json:"state"`
}

// UpdateState transitions an argument's lifecycle state and triggers a
// rescore of its belief.
func (h *ArgumentHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument id")
		return
	}

	var req updateStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidArgumentState(req.State) {
		writeError(w, http.StatusBadRequest, "invalid argument state")
		return
	}

	arg, err := h.arguments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "argument not found")
			return
		}
		h.logger.Error("failed to get argument", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update argument")
		return
	}

	if err := h.arguments.UpdateState(r.Context(), id, domain.ArgumentState(req.State)); err != nil {
		h.logger.Error("failed to update argument state", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update argument")
		return
	}

	h.engine.Enqueue(arg.BeliefID)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "state": req.State})
}
