package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ScoreSnapshot is one point in a belief's conclusion-score history. The
// stability estimator reads a rolling window of these to measure volatility.
// Breakdown carries the per-factor audit trail of the run that produced the
// score, opaque at this layer.
type ScoreSnapshot struct {
	ID              uuid.UUID       `json:"id"`
	BeliefID        uuid.UUID       `json:"belief_id"`
	ConclusionScore int             `json:"conclusion_score"`
	Breakdown       json.RawMessage `json:"breakdown,omitempty"`
	RecordedAt      time.Time       `json:"recorded_at"`
}

// EngagementStats aggregates examination signals for one belief.
type EngagementStats struct {
	BeliefID            uuid.UUID `json:"belief_id"`
	TotalReadSeconds    int64     `json:"total_read_seconds"`
	DistinctReaders     int       `json:"distinct_readers"`
	ArgumentsEvaluated  int       `json:"arguments_evaluated"`
	ExpertReviews       int       `json:"expert_reviews"`
	OpenQualityFlags    int       `json:"open_quality_flags"`
	LowQualityDownvotes int       `json:"low_quality_downvotes"`
}

type EngagementEventType string

const (
	EngagementRead         EngagementEventType = "read"
	EngagementEvaluation   EngagementEventType = "evaluation"
	EngagementExpertReview EngagementEventType = "expert_review"
	EngagementQualityFlag  EngagementEventType = "quality_flag"
	EngagementFlagResolved EngagementEventType = "flag_resolved"
	EngagementDownvote     EngagementEventType = "downvote"
)

func ValidEngagementEventType(t string) bool {
	switch EngagementEventType(t) {
	case EngagementRead, EngagementEvaluation, EngagementExpertReview,
		EngagementQualityFlag, EngagementFlagResolved, EngagementDownvote:
		return true
	}
	return false
}

// EngagementEvent is one raw examination signal, rolled up into
// EngagementStats by the store.
type EngagementEvent struct {
	ID          uuid.UUID           `json:"id"`
	BeliefID    uuid.UUID           `json:"belief_id"`
	Type        EngagementEventType `json:"type"`
	ReaderID    string              `json:"reader_id,omitempty"`
	ReadSeconds int64               `json:"read_seconds,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// EpistemicCategory classifies how knowable a belief's statement is. Each
// category carries a hard ceiling on achievable stability.
type EpistemicCategory string

const (
	CategoryEmpirical   EpistemicCategory = "empirical"
	CategoryForecast    EpistemicCategory = "forecast"
	CategoryValue       EpistemicCategory = "value_judgment"
	CategorySpeculation EpistemicCategory = "speculation"
)

// BaseKnowability is the starting knowability score for the category.
func (c EpistemicCategory) BaseKnowability() float64 {
	switch c {
	case CategoryEmpirical:
		return 80
	case CategoryForecast:
		return 60
	case CategoryValue:
		return 40
	case CategorySpeculation:
		return 20
	default:
		return 40
	}
}

// StabilityCeiling caps the overall stability score regardless of how the
// other sub-factors land. Pure speculation can never read as settled.
func (c EpistemicCategory) StabilityCeiling() int {
	switch c {
	case CategoryEmpirical:
		return 100
	case CategoryForecast:
		return 85
	case CategoryValue:
		return 70
	case CategorySpeculation:
		return 50
	default:
		return 70
	}
}

// BeliefScores is the full write-back payload for one pipeline run.
type BeliefScores struct {
	BeliefID        uuid.UUID                     `json:"belief_id"`
	ConclusionScore int                           `json:"conclusion_score"`
	StabilityScore  int                           `json:"stability_score"`
	ScoreUnstable   bool                          `json:"score_unstable"`
	ArgumentScores  map[uuid.UUID]ArgumentScoring `json:"argument_scores"`
	ComputedAt      time.Time                     `json:"computed_at"`
}

// ArgumentScoring is the per-argument portion of a write-back.
type ArgumentScoring struct {
	Scores    SubScores `json:"scores"`
	RankScore float64   `json:"rank_score"`
}
