package service

import (
	"math"

	"github.com/credence-io/credence/internal/domain"
)

// SideBreakdown reports one side of the conclusion formula for explain
// output.
type SideBreakdown struct {
	Count      int     `json:"count"`
	DecayedAvg float64 `json:"decayed_avg"`
	Weight     float64 `json:"weight"`
}

// ConclusionBreakdown is the full audit trail for one conclusion score.
type ConclusionBreakdown struct {
	Supporting SideBreakdown `json:"supporting"`
	Opposing   SideBreakdown `json:"opposing"`
	Score      int           `json:"score"`
}

// ConclusionService combines propagated argument scores into a single 0-100
// belief score:
//
//	CS = 50 + supportingAvg × supportWeight − opposingAvg × opposeWeight
//
// where each side's weight is its share of the argument count, so a belief
// with many weak opposing arguments is not penalized as heavily as one with
// few strong ones. Derived state only; recomputed on any upstream mutation,
// never hand-edited.
type ConclusionService struct{}

func NewConclusionService() *ConclusionService {
	return &ConclusionService{}
}

// Score aggregates top-level arguments. Sub-arguments influence the result
// through their parents' propagated ranks, not directly. A belief with no
// arguments on either side keeps the neutral default.
func (s *ConclusionService) Score(graph *domain.ArgumentGraph, propagated *PropagationResult) ConclusionBreakdown {
	var supSum, oppSum float64
	var supCount, oppCount int

	for _, a := range graph.Scorable() {
		if a.ParentID != nil {
			continue
		}
		rank, ok := propagated.Scores[a.ID]
		if !ok {
			rank = a.Scores.ReasonRank()
		}
		decayed := rank * a.State.DecayMultiplier()

		switch a.Polarity {
		case domain.PolaritySupporting:
			supSum += decayed
			supCount++
		case domain.PolarityOpposing:
			oppSum += decayed
			oppCount++
		}
	}

	breakdown := ConclusionBreakdown{Score: domain.NeutralConclusionScore}
	total := supCount + oppCount
	if total == 0 {
		return breakdown
	}

	if supCount > 0 {
		breakdown.Supporting.DecayedAvg = supSum / float64(supCount)
	}
	if oppCount > 0 {
		breakdown.Opposing.DecayedAvg = oppSum / float64(oppCount)
	}
	breakdown.Supporting.Count = supCount
	breakdown.Opposing.Count = oppCount
	breakdown.Supporting.Weight = float64(supCount) / float64(total)
	breakdown.Opposing.Weight = float64(oppCount) / float64(total)

	raw := float64(domain.NeutralConclusionScore) +
		breakdown.Supporting.DecayedAvg*breakdown.Supporting.Weight -
		breakdown.Opposing.DecayedAvg*breakdown.Opposing.Weight

	breakdown.Score = domain.ClampScore(int(math.Round(raw)))
	return breakdown
}
