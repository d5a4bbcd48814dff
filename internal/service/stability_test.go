package service

import (
	"context"
	"testing"
	"time"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func stabilityNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newStabilitySvc(category domain.EpistemicCategory) *StabilityService {
	logger := zap.NewNop()
	return NewStabilityService(&stubClassifier{category: category}, NewEvidenceService(newMockEvidenceStore(), logger), logger)
}

func stabilityInputs(graph *domain.ArgumentGraph) StabilityInputs {
	return StabilityInputs{
		Belief:     &domain.Belief{ID: graph.BeliefID, Statement: "Remote work is beneficial"},
		Graph:      graph,
		Dedup:      &DedupResult{Arguments: make(map[uuid.UUID]*ArgumentDedup)},
		Engagement: &domain.EngagementStats{},
		Now:        stabilityNow(),
	}
}

func TestChallengeResistanceUntested(t *testing.T) {
	beliefID := uuid.New()
	svc := newStabilitySvc(domain.CategoryEmpirical)
	in := stabilityInputs(buildGraph(t, beliefID, rankedArg(beliefID, domain.PolaritySupporting, 70)))

	if got := svc.ChallengeResistance(in); got != untestedChallengeScore {
		t.Fatalf("unchallenged belief resistance = %v, want %v", got, untestedChallengeScore)
	}
}

func TestChallengeResistanceRedundantChallenges(t *testing.T) {
	beliefID := uuid.New()
	opp := rankedArg(beliefID, domain.PolarityOpposing, 50)
	svc := newStabilitySvc(domain.CategoryEmpirical)
	in := stabilityInputs(buildGraph(t, beliefID, opp))
	in.Dedup.Arguments[opp.ID] = &ArgumentDedup{ArgumentID: opp.ID, Uniqueness: 0.2, Novelty: 1.0}

	// One challenge, fully redundant, not strong enough to count as
	// unresolved: neutral plus the full redundancy bonus.
	if got := svc.ChallengeResistance(in); got != challengeNeutral+redundancyBonusFactor {
		t.Fatalf("resistance = %v, want %v", got, challengeNeutral+redundancyBonusFactor)
	}
}

func TestChallengeResistanceUnresolvedStrongOpposition(t *testing.T) {
	beliefID := uuid.New()
	opp := rankedArg(beliefID, domain.PolarityOpposing, 80)
	opp.RankScore = 80
	svc := newStabilitySvc(domain.CategoryEmpirical)
	in := stabilityInputs(buildGraph(t, beliefID, opp))
	in.Dedup.Arguments[opp.ID] = &ArgumentDedup{ArgumentID: opp.ID, Uniqueness: 1.0, Novelty: 1.0}

	if got := svc.ChallengeResistance(in); got != challengeNeutral-unresolvedPenalty {
		t.Fatalf("resistance = %v, want %v", got, challengeNeutral-unresolvedPenalty)
	}
}

func TestExaminationDepth(t *testing.T) {
	svc := newStabilitySvc(domain.CategoryEmpirical)
	beliefID := uuid.New()
	in := stabilityInputs(buildGraph(t, beliefID))

	if got := svc.ExaminationDepth(in); got != 0 {
		t.Fatalf("untouched belief depth = %v, want 0", got)
	}

	// Heavy engagement saturates every cap.
	in.Engagement = &domain.EngagementStats{
		TotalReadSeconds:   1_000_000,
		DistinctReaders:    500,
		ArgumentsEvaluated: 200,
		ExpertReviews:      50,
	}
	if got := svc.ExaminationDepth(in); got != 100 {
		t.Fatalf("saturated depth = %v, want 100", got)
	}

	// Open quality flags pull the score back down.
	in.Engagement.OpenQualityFlags = 4
	if got := svc.ExaminationDepth(in); got != 100-4*qualityFlagPenalty {
		t.Fatalf("flagged depth = %v, want %v", got, 100-4*qualityFlagPenalty)
	}
}

func TestScoreStabilityCalmHistory(t *testing.T) {
	svc := newStabilitySvc(domain.CategoryEmpirical)
	beliefID := uuid.New()
	in := stabilityInputs(buildGraph(t, beliefID))

	if got := svc.ScoreStability(in); got != 100 {
		t.Fatalf("quiet belief stability = %v, want 100", got)
	}
}

func TestScoreStabilityVolatileHistoryPenalized(t *testing.T) {
	svc := newStabilitySvc(domain.CategoryEmpirical)
	beliefID := uuid.New()
	now := stabilityNow()
	in := stabilityInputs(buildGraph(t, beliefID))

	for i, score := range []int{50, 85, 40, 90, 35} {
		in.History = append(in.History, domain.ScoreSnapshot{
			BeliefID:        beliefID,
			ConclusionScore: score,
			RecordedAt:      now.Add(time.Duration(-20+i*4) * 24 * time.Hour),
		})
	}

	if got := svc.ScoreStability(in); got >= 60 {
		t.Fatalf("oscillating history stability = %v, want well below 60", got)
	}
}

func TestScoreStabilityNewArgumentChurnPenalized(t *testing.T) {
	svc := newStabilitySvc(domain.CategoryEmpirical)
	beliefID := uuid.New()
	var args []*domain.Argument
	for i := 0; i < 60; i++ {
		a := rankedArg(beliefID, domain.PolaritySupporting, 50)
		a.CreatedAt = stabilityNow().Add(-time.Duration(i) * time.Hour)
		args = append(args, a)
	}
	in := stabilityInputs(buildGraph(t, beliefID, args...))

	// 60 new arguments over the 30-day window is 2 per day: a 10-point
	// penalty, well under the cap.
	want := 100.0 - 2.0*newArgPenaltyPerDay
	if got := svc.ScoreStability(in); got != want {
		t.Fatalf("high-churn stability = %v, want %v", got, want)
	}
}

func TestKnowabilityEvidenceAdjustments(t *testing.T) {
	svc := newStabilitySvc(domain.CategoryEmpirical)
	argID := uuid.New()

	base := svc.Knowability(domain.CategoryEmpirical, nil)
	if base != domain.CategoryEmpirical.BaseKnowability() {
		t.Fatalf("no-evidence knowability = %v, want category base", base)
	}

	highTier := map[uuid.UUID][]*domain.Evidence{
		argID: {evidenceItem(domain.TierGoldStandard, 80)},
	}
	if got := svc.Knowability(domain.CategoryEmpirical, highTier); got != base+highTierBonus {
		t.Fatalf("gold-standard knowability = %v, want %v", got, base+highTierBonus)
	}

	lowTier := map[uuid.UUID][]*domain.Evidence{
		argID: {evidenceItem(domain.TierAnecdotal, 80)},
	}
	if got := svc.Knowability(domain.CategoryEmpirical, lowTier); got != base-lowTierPenalty {
		t.Fatalf("anecdotal knowability = %v, want %v", got, base-lowTierPenalty)
	}
}

func TestScoreCombinesWeightedFactors(t *testing.T) {
	svc := newStabilitySvc(domain.CategoryEmpirical)
	beliefID := uuid.New()
	in := stabilityInputs(buildGraph(t, beliefID))

	b := svc.Score(context.Background(), in, nil)

	// Examination 0, volatility 100, knowability 80, challenge 40 (untested):
	// 0.30*0 + 0.30*100 + 0.20*80 + 0.20*40 = 54.
	if b.Score != 54 {
		t.Fatalf("score = %d, want 54", b.Score)
	}
	if b.Category != domain.CategoryEmpirical {
		t.Fatalf("category = %s, want empirical", b.Category)
	}
}

func TestScoreSpeculationCeiling(t *testing.T) {
	svc := newStabilitySvc(domain.CategorySpeculation)
	beliefID := uuid.New()
	in := stabilityInputs(buildGraph(t, beliefID))
	in.Engagement = &domain.EngagementStats{
		TotalReadSeconds:   1_000_000,
		DistinctReaders:    500,
		ArgumentsEvaluated: 200,
		ExpertReviews:      50,
	}

	b := svc.Score(context.Background(), in, nil)
	if b.Score > domain.CategorySpeculation.StabilityCeiling() {
		t.Fatalf("score = %d, exceeds speculation ceiling %d", b.Score, domain.CategorySpeculation.StabilityCeiling())
	}
}

func TestScoreClassifierFailureDefaultsToValueJudgment(t *testing.T) {
	logger := zap.NewNop()
	svc := NewStabilityService(&stubClassifier{err: context.DeadlineExceeded},
		NewEvidenceService(newMockEvidenceStore(), logger), logger)
	beliefID := uuid.New()
	in := stabilityInputs(buildGraph(t, beliefID))

	b := svc.Score(context.Background(), in, nil)
	if b.Category != domain.CategoryValue {
		t.Fatalf("category = %s, want value_judgment fallback", b.Category)
	}
	if b.Score > domain.CategoryValue.StabilityCeiling() {
		t.Fatalf("score = %d, exceeds value-judgment ceiling", b.Score)
	}
}
