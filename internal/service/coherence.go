package service

import (
	"context"

	"github.com/credence-io/credence/internal/domain"
	"go.uber.org/zap"
)

const (
	// DefaultLogicalCoherence is used for an argument that has never been
	// scored when the classifier is unavailable.
	DefaultLogicalCoherence = 0.7

	// fallacyPenaltyFactor scales severity × confidence into a coherence
	// deduction per detected fallacy.
	fallacyPenaltyFactor = 0.5
)

// CoherenceService turns fallacy detections into the logical-coherence
// sub-score. The detector is an external classifier with a narrow contract;
// when it fails, the last known value stands rather than failing the whole
// recompute.
type CoherenceService struct {
	detector domain.FallacyDetector
	logger   *zap.Logger

	PenaltyFactor float64
}

func NewCoherenceService(detector domain.FallacyDetector, logger *zap.Logger) *CoherenceService {
	return &CoherenceService{
		detector:      detector,
		logger:        logger,
		PenaltyFactor: fallacyPenaltyFactor,
	}
}

// Score returns the coherence sub-score for one argument and whether the
// result is degraded (classifier unavailable, previous value reused).
func (s *CoherenceService) Score(ctx context.Context, arg *domain.Argument) (float64, bool) {
	if s.detector == nil {
		return s.lastKnown(arg), true
	}

	fallacies, err := s.detector.DetectFallacies(ctx, arg.TripleText())
	if err != nil {
		s.logger.Warn("fallacy detection failed, keeping last known coherence",
			zap.String("argument_id", arg.ID.String()),
			zap.Error(err))
		return s.lastKnown(arg), true
	}

	coherence := 1.0
	for _, f := range fallacies {
		coherence -= f.Severity * f.Confidence * s.PenaltyFactor
	}
	return domain.ClampUnit(coherence), false
}

func (s *CoherenceService) lastKnown(arg *domain.Argument) float64 {
	if arg.Scores.LogicalCoherence > 0 {
		return arg.Scores.LogicalCoherence
	}
	return DefaultLogicalCoherence
}
