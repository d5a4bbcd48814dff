package handlers

import (
	"context"
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

type EvidenceHandler struct {
	evidence  domain.EvidenceStore
	arguments domain.ArgumentStore
	svc       *service.EvidenceService
	engine    *service.Engine
	logger    *zap.Logger
}

func NewEvidenceHandler(evidence domain.EvidenceStore, arguments domain.ArgumentStore, svc *service.EvidenceService, engine *service.Engine, logger *zap.Logger) *EvidenceHandler {
	return &EvidenceHandler{evidence: evidence, arguments: arguments, svc: svc, engine: engine, logger: logger}
}

type createEvidenceRequest struct {
	ArgumentID string `json:"argument_id"`
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	Tier       int    `json:"tier"`
}

func (h *EvidenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	argumentID, err := uuid.Parse(req.ArgumentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument_id")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	if !domain.ValidEvidenceTier(req.Tier) {
		writeError(w, http.StatusBadRequest, "tier must be between 1 and 4")
		return
	}

	arg, err := h.arguments.GetByID(r.Context(), argumentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "argument not found")
			return
		}
		h.logger.Error("failed to look up argument", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create evidence")
		return
	}

	ev := domain.NewEvidence(argumentID, req.Title, req.URL, domain.EvidenceTier(req.Tier))
	if err := h.evidence.Create(r.Context(), ev); err != nil {
		h.logger.Error("failed to create evidence", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create evidence")
		return
	}

	h.engine.Enqueue(arg.BeliefID)
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EvidenceHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.applyEvent(w, r, h.svc.Verify)
}

func (h *EvidenceHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	h.applyEvent(w, r, h.svc.Dispute)
}

func (h *EvidenceHandler) Retract(w http.ResponseWriter, r *http.Request) {
	h.applyEvent(w, r, h.svc.Retract)
}

func (h *EvidenceHandler) applyEvent(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id uuid.UUID) (*domain.Evidence, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid evidence id")
		return
	}

	ev, err := apply(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEvidenceNotFound) || errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "evidence not found")
			return
		}
		h.logger.Error("failed to apply evidence event", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update evidence")
		return
	}

	if arg, err := h.arguments.GetByID(r.Context(), ev.ArgumentID); err == nil {
		h.engine.Enqueue(arg.BeliefID)
	}
	writeJSON(w, http.StatusOK, ev)
}
