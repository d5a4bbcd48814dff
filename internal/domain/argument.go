package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Polarity string

const (
	PolaritySupporting Polarity = "supporting"
	PolarityOpposing   Polarity = "opposing"
)

func ValidPolarity(p string) bool {
	switch Polarity(p) {
	case PolaritySupporting, PolarityOpposing:
		return true
	}
	return false
}

type ArgumentState string

const (
	ArgumentActive      ArgumentState = "active"
	ArgumentConditional ArgumentState = "conditional"
	ArgumentWeakened    ArgumentState = "weakened"
	ArgumentOutdated    ArgumentState = "outdated"
	ArgumentRefuted     ArgumentState = "refuted"
	// ArgumentArchived is reached only via belief-deletion cascade. Archived
	// arguments are kept for audit history and excluded from scoring.
	ArgumentArchived ArgumentState = "archived"
)

func ValidArgumentState(s string) bool {
	switch ArgumentState(s) {
	case ArgumentActive, ArgumentConditional, ArgumentWeakened, ArgumentOutdated, ArgumentRefuted, ArgumentArchived:
		return true
	}
	return false
}

// DecayMultiplier is the fixed lifecycle multiplier applied to an argument's
// contribution before propagation.
func (s ArgumentState) DecayMultiplier() float64 {
	switch s {
	case ArgumentActive:
		return 1.0
	case ArgumentConditional:
		return 0.8
	case ArgumentWeakened:
		return 0.7
	case ArgumentOutdated:
		return 0.3
	case ArgumentRefuted:
		return 0.1
	default:
		return 0.0
	}
}

// SubScores is the per-argument score vector. All fields are in [0,1] except
// LinkageRelevance, which is in [-1,1].
type SubScores struct {
	EvidenceStrength float64 `json:"evidence_strength"`
	LogicalCoherence float64 `json:"logical_coherence"`
	LinkageRelevance float64 `json:"linkage_relevance"`
	Uniqueness       float64 `json:"uniqueness"`
	Importance       float64 `json:"importance"`
}

// ReasonRank is the multi-factor base weight of the argument on a 0-100
// scale. A negative linkage (the argument contradicts its own belief) floors
// the rank at zero; the misclassification is surfaced separately.
func (s SubScores) ReasonRank() float64 {
	rank := s.EvidenceStrength * s.LogicalCoherence * s.LinkageRelevance * s.Uniqueness * s.Importance * 100
	if rank < 0 {
		return 0
	}
	if rank > 100 {
		return 100
	}
	return rank
}

// Argument is a reason for or against exactly one belief. Arguments are
// structured as claim -> inference -> conclusion triples so that the semantic
// duplication layer compares logical content rather than surface wording.
// ParentID forms the sub-argument tree; DependsOn carries cross-reference
// edges. Both are plain ID edges checked for acyclicity on insert.
type Argument struct {
	ID         uuid.UUID     `json:"id"`
	BeliefID   uuid.UUID     `json:"belief_id"`
	ParentID   *uuid.UUID    `json:"parent_id,omitempty"`
	Claim      string        `json:"claim"`
	Inference  string        `json:"inference,omitempty"`
	Conclusion string        `json:"conclusion,omitempty"`
	Polarity   Polarity      `json:"polarity"`
	State      ArgumentState `json:"state"`
	Scores     SubScores     `json:"scores"`
	RankScore  float64       `json:"rank_score"`
	DependsOn  []uuid.UUID   `json:"depends_on,omitempty"`
	Embedding  []float32     `json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Scorable reports whether the argument participates in scoring at all.
func (a *Argument) Scorable() bool {
	return a.State != ArgumentArchived
}

// TripleText composes the claim, inference and conclusion into the single
// string that gets embedded. Rewording one component is not enough to make an
// old argument look new.
func (a *Argument) TripleText() string {
	parts := []string{a.Claim}
	if a.Inference != "" {
		parts = append(parts, a.Inference)
	}
	if a.Conclusion != "" {
		parts = append(parts, a.Conclusion)
	}
	return strings.Join(parts, " ")
}
