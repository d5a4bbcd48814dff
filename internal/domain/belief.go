package domain

import (
	"time"

	"github.com/google/uuid"
)

type BeliefState string

const (
	BeliefActive   BeliefState = "active"
	BeliefArchived BeliefState = "archived"
	BeliefFlagged  BeliefState = "flagged"
)

func ValidBeliefState(s string) bool {
	switch BeliefState(s) {
	case BeliefActive, BeliefArchived, BeliefFlagged:
		return true
	}
	return false
}

const (
	// NeutralConclusionScore is the starting point for a belief with no
	// scored arguments on either side.
	NeutralConclusionScore = 50

	MinScore = 0
	MaxScore = 100
)

// Belief is a claim under debate. ConclusionScore and StabilityScore are
// derived state: they are written only by the scoring engine, never by
// callers.
type Belief struct {
	ID              uuid.UUID   `json:"id"`
	Statement       string      `json:"statement"`
	State           BeliefState `json:"state"`
	ConclusionScore int         `json:"conclusion_score"`
	StabilityScore  int         `json:"stability_score"`
	ScoreUnstable   bool        `json:"score_unstable"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// ClampScore bounds a 0-100 integer score.
func ClampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// ClampUnit bounds a [0,1] sub-score.
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampSigned bounds a [-1,1] value. Linkage scores may be negative when an
// argument contradicts the belief it was filed under.
func ClampSigned(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
