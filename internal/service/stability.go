package service

import (
	"context"
	"math"
	"time"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sub-factor weights: examination depth, score stability, knowability,
// challenge resistance.
const (
	examinationWeight = 0.30
	volatilityWeight  = 0.30
	knowabilityWeight = 0.20
	challengeWeight   = 0.20
)

const (
	// Saturating caps on examination-depth contributions.
	readTimeCap       = 30.0
	readersCap        = 25.0
	evaluationsCap    = 25.0
	expertReviewsCap  = 20.0
	readHoursPerPoint = 0.5 // two points per reading hour
	readersPerPoint   = 2.0
	evalsPerPoint     = 1.0
	reviewsPerPoint   = 0.25 // four points per expert review

	qualityFlagPenalty = 5.0
	downvotePenalty    = 2.0

	// Score-stability window and thresholds.
	historyWindow        = 30 * 24 * time.Hour
	majorChangeThreshold = 10.0
	stdDevPenaltyFactor  = 2.0
	rangePenaltyFactor   = 0.5
	volatilityPenalty    = 10.0
	calmBonusPerDay      = 1.0
	calmBonusCap         = 20.0
	newArgPenaltyPerDay  = 5.0
	newArgPenaltyCap     = 30.0

	// Knowability evidence adjustments.
	highTierBonus  = 10.0
	lowTierPenalty = 10.0

	// Challenge resistance.
	untestedChallengeScore  = 40.0
	challengeNeutral        = 50.0
	redundancyBonusFactor   = 20.0
	lowImpactBonusCap       = 15.0
	quietDaysBonusPerDay    = 0.5
	quietDaysBonusCap       = 15.0
	unresolvedPenalty       = 8.0
	movedScorePenalty       = 5.0
	strongOpposingRankFloor = 60.0
)

// StabilityInputs is everything the estimator needs, assembled by the
// pipeline so each sub-score stays a pure function of its inputs.
type StabilityInputs struct {
	Belief     *domain.Belief
	Graph      *domain.ArgumentGraph
	Dedup      *DedupResult
	Engagement *domain.EngagementStats
	History    []domain.ScoreSnapshot
	Now        time.Time
}

// StabilityBreakdown is the per-factor audit trail for one stability score.
type StabilityBreakdown struct {
	Examination float64           `json:"examination"`
	Volatility  float64           `json:"volatility"`
	Knowability float64           `json:"knowability"`
	Challenge   float64           `json:"challenge"`
	Category    domain.EpistemicCategory `json:"category"`
	Score       int               `json:"score"`
}

// StabilityService estimates how likely a belief's conclusion score is to
// change: a 0-100 confidence signal from examination depth, historical
// volatility, intrinsic knowability, and resistance to challenge. Every
// sub-score is idempotent given the same inputs.
type StabilityService struct {
	classifier domain.StatementClassifier
	evidence   *EvidenceService
	logger     *zap.Logger
}

func NewStabilityService(classifier domain.StatementClassifier, evidence *EvidenceService, logger *zap.Logger) *StabilityService {
	return &StabilityService{classifier: classifier, evidence: evidence, logger: logger}
}

// Score computes the combined stability score. evidenceByArg carries each
// argument's evidence for the knowability adjustment.
func (s *StabilityService) Score(ctx context.Context, in StabilityInputs, evidenceByArg map[uuid.UUID][]*domain.Evidence) StabilityBreakdown {
	category := s.classifyStatement(ctx, in.Belief.Statement)

	b := StabilityBreakdown{
		Examination: s.ExaminationDepth(in),
		Volatility:  s.ScoreStability(in),
		Knowability: s.Knowability(category, evidenceByArg),
		Challenge:   s.ChallengeResistance(in),
		Category:    category,
	}

	combined := examinationWeight*b.Examination +
		volatilityWeight*b.Volatility +
		knowabilityWeight*b.Knowability +
		challengeWeight*b.Challenge

	score := int(math.Round(combined))
	if ceiling := category.StabilityCeiling(); score > ceiling {
		score = ceiling
	}
	b.Score = domain.ClampScore(score)
	return b
}

// ExaminationDepth rewards aggregate reading time, distinct readers,
// evaluated arguments and expert reviews, each saturating at a configured
// cap, minus penalties for unresolved quality flags and low-quality
// downvotes.
func (s *StabilityService) ExaminationDepth(in StabilityInputs) float64 {
	stats := in.Engagement
	if stats == nil {
		stats = &domain.EngagementStats{}
	}

	readHours := float64(stats.TotalReadSeconds) / 3600.0
	depth := saturate(readHours/readHoursPerPoint, readTimeCap) +
		saturate(float64(stats.DistinctReaders)/readersPerPoint, readersCap) +
		saturate(float64(stats.ArgumentsEvaluated)/evalsPerPoint, evaluationsCap) +
		saturate(float64(stats.ExpertReviews)/reviewsPerPoint, expertReviewsCap)

	depth -= float64(stats.OpenQualityFlags) * qualityFlagPenalty
	depth -= float64(stats.LowQualityDownvotes) * downvotePenalty

	return clamp100(depth)
}

// ScoreStability starts at 100 and is penalized by recent standard deviation,
// range, and volatility over the rolling window, with a bonus for calm days
// since the last major change and a penalty for a high rate of newly added
// arguments: an active, unsettled debate is less stable by construction.
func (s *StabilityService) ScoreStability(in StabilityInputs) float64 {
	cutoff := in.Now.Add(-historyWindow)
	var window []float64
	lastMajorChange := time.Time{}

	prev := math.NaN()
	for _, snap := range in.History {
		if snap.RecordedAt.Before(cutoff) {
			prev = float64(snap.ConclusionScore)
			continue
		}
		v := float64(snap.ConclusionScore)
		window = append(window, v)
		if !math.IsNaN(prev) && math.Abs(v-prev) >= majorChangeThreshold {
			lastMajorChange = snap.RecordedAt
		}
		prev = v
	}

	score := 100.0

	if len(window) >= 2 {
		mean := 0.0
		lo, hi := window[0], window[0]
		for _, v := range window {
			mean += v
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		mean /= float64(len(window))

		variance := 0.0
		volatility := 0.0
		for i, v := range window {
			variance += (v - mean) * (v - mean)
			if i > 0 {
				volatility += math.Abs(v - window[i-1])
			}
		}
		variance /= float64(len(window))
		volatility /= float64(len(window) - 1)

		score -= math.Sqrt(variance) * stdDevPenaltyFactor
		score -= (hi - lo) * rangePenaltyFactor
		score -= (volatility / majorChangeThreshold) * volatilityPenalty
	}

	if !lastMajorChange.IsZero() {
		calmDays := in.Now.Sub(lastMajorChange).Hours() / 24.0
		score += saturate(calmDays*calmBonusPerDay, calmBonusCap)
	}

	// Rate of newly added arguments over the window.
	newArgs := 0
	for _, a := range in.Graph.Scorable() {
		if !a.CreatedAt.Before(cutoff) {
			newArgs++
		}
	}
	windowDays := historyWindow.Hours() / 24.0
	score -= saturate(float64(newArgs)/windowDays*newArgPenaltyPerDay, newArgPenaltyCap)

	return clamp100(score)
}

// Knowability starts from the statement's epistemic category and moves up for
// high-tier corroborating evidence, down for low-tier evidence.
func (s *StabilityService) Knowability(category domain.EpistemicCategory, evidenceByArg map[uuid.UUID][]*domain.Evidence) float64 {
	score := category.BaseKnowability()

	var highTier, lowTier, total int
	for _, items := range evidenceByArg {
		for _, e := range items {
			total++
			switch e.Tier {
			case domain.TierGoldStandard, domain.TierReputable:
				highTier++
			case domain.TierAnecdotal:
				lowTier++
			}
		}
	}
	if total > 0 {
		score += highTierBonus * float64(highTier) / float64(total)
		score -= lowTierPenalty * float64(lowTier) / float64(total)
	}

	return clamp100(score)
}

// ChallengeResistance rises when repeated challenges are redundant or fail to
// move the needle, and falls with unresolved high-quality opposition. A
// belief that has never been challenged sits at a fixed moderate value:
// untested, neither robust nor fragile.
func (s *StabilityService) ChallengeResistance(in StabilityInputs) float64 {
	var opposing []*domain.Argument
	for _, a := range in.Graph.Scorable() {
		if a.Polarity == domain.PolarityOpposing {
			opposing = append(opposing, a)
		}
	}
	if len(opposing) == 0 {
		return untestedChallengeScore
	}

	score := challengeNeutral

	// Repeated challenges that restate prior ones signal robustness.
	redundant := 0
	unresolvedStrong := 0
	for _, a := range opposing {
		if d, ok := in.Dedup.Arguments[a.ID]; ok && d.Uniqueness < 0.5 {
			redundant++
		}
		if a.State == domain.ArgumentActive && a.RankScore >= strongOpposingRankFloor {
			unresolvedStrong++
		}
	}
	score += redundancyBonusFactor * float64(redundant) / float64(len(opposing))
	score -= unresolvedPenalty * float64(unresolvedStrong)

	// Score impact of past challenges, read from the history: major drops
	// count as challenges that moved the score.
	moved := 0
	lastMoved := time.Time{}
	var totalImpact float64
	for i := 1; i < len(in.History); i++ {
		delta := float64(in.History[i].ConclusionScore - in.History[i-1].ConclusionScore)
		if delta < 0 {
			totalImpact += -delta
			if -delta >= majorChangeThreshold {
				moved++
				lastMoved = in.History[i].RecordedAt
			}
		}
	}
	score -= movedScorePenalty * float64(moved)

	if len(in.History) > 1 {
		avgImpact := totalImpact / float64(len(in.History)-1)
		score += saturate(lowImpactBonusCap-avgImpact, lowImpactBonusCap)
	}

	if !lastMoved.IsZero() {
		quietDays := in.Now.Sub(lastMoved).Hours() / 24.0
		score += saturate(quietDays*quietDaysBonusPerDay, quietDaysBonusCap)
	}

	return clamp100(score)
}

func (s *StabilityService) classifyStatement(ctx context.Context, statement string) domain.EpistemicCategory {
	if s.classifier == nil {
		return domain.CategoryValue
	}
	category, err := s.classifier.Classify(ctx, statement)
	if err != nil {
		s.logger.Warn("statement classification failed, treating as value judgment", zap.Error(err))
		return domain.CategoryValue
	}
	return category
}

func saturate(v, limit float64) float64 {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
