package service

import (
	"context"
	"errors"
	"math"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultNeutralEvidenceStrength applies to arguments with no citations:
	// penalized relative to cited argumentation, but not annihilated.
	DefaultNeutralEvidenceStrength = 0.5

	// Corroboration boost parameters: maxBoost × (1 − e^(−rate × Σ tierWeight)).
	// Each additional independent source adds diminishing marginal value.
	DefaultMaxCorroborationBoost = 0.2
	DefaultCorroborationRate     = 0.5
)

var ErrEvidenceNotFound = errors.New("evidence not found")

// EvidenceService reduces a set of evidence items into one evidence-strength
// signal per argument and applies verification events to credibility.
type EvidenceService struct {
	store  domain.EvidenceStore
	logger *zap.Logger

	NeutralStrength  float64
	MaxBoost         float64
	CorroborationRate float64
}

func NewEvidenceService(store domain.EvidenceStore, logger *zap.Logger) *EvidenceService {
	return &EvidenceService{
		store:             store,
		logger:            logger,
		NeutralStrength:   DefaultNeutralEvidenceStrength,
		MaxBoost:          DefaultMaxCorroborationBoost,
		CorroborationRate: DefaultCorroborationRate,
	}
}

// Strength aggregates evidence into [0,1]: the tier-weighted mean of
// normalized credibility, raised by the corroboration boost. Corroboration
// rewards multiple sources behind one argument node; it is distinct from the
// duplication penalty, which hits duplicate argument nodes.
func (s *EvidenceService) Strength(evidence []*domain.Evidence) float64 {
	if len(evidence) == 0 {
		return s.NeutralStrength
	}

	var weightedSum, weightTotal float64
	for _, e := range evidence {
		w := e.Tier.Weight()
		weightedSum += w * float64(domain.ClampScore(e.Credibility)) / 100.0
		weightTotal += w
	}

	base := weightedSum / weightTotal
	return domain.ClampUnit(base + s.CorroborationBoost(evidence))
}

// CorroborationBoost saturates as tier-weighted source mass grows: the first
// independent source is worth the most, the tenth adds very little.
func (s *EvidenceService) CorroborationBoost(evidence []*domain.Evidence) float64 {
	if len(evidence) == 0 {
		return 0
	}
	var mass float64
	for _, e := range evidence {
		mass += e.Tier.Weight()
	}
	boost := s.MaxBoost * (1 - math.Exp(-s.CorroborationRate*mass))
	if boost > s.MaxBoost {
		boost = s.MaxBoost
	}
	return boost
}

// Verify applies one independent verification event (+10 credibility,
// clamped) and persists the result.
func (s *EvidenceService) Verify(ctx context.Context, id uuid.UUID) (*domain.Evidence, error) {
	return s.applyEvent(ctx, id, func(e *domain.Evidence) { e.Verify() })
}

// Dispute applies one dispute event (−10 credibility, clamped).
func (s *EvidenceService) Dispute(ctx context.Context, id uuid.UUID) (*domain.Evidence, error) {
	return s.applyEvent(ctx, id, func(e *domain.Evidence) { e.Dispute() })
}

// Retract zeroes credibility and marks the item disputed. Used when a source
// is withdrawn; the owning belief must be recomputed afterwards.
func (s *EvidenceService) Retract(ctx context.Context, id uuid.UUID) (*domain.Evidence, error) {
	return s.applyEvent(ctx, id, func(e *domain.Evidence) { e.Retract() })
}

func (s *EvidenceService) applyEvent(ctx context.Context, id uuid.UUID, apply func(*domain.Evidence)) (*domain.Evidence, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apply(e)

	if err := s.store.UpdateCredibility(ctx, e.ID, e.Credibility, e.Verifications, e.Disputes); err != nil {
		return nil, err
	}

	s.logger.Debug("evidence credibility updated",
		zap.String("evidence_id", e.ID.String()),
		zap.Int("credibility", e.Credibility),
		zap.String("status", string(e.Status())))

	return e, nil
}
