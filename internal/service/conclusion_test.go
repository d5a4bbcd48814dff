package service

import (
	"testing"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
)

func propagated(graph *domain.ArgumentGraph, ranks map[uuid.UUID]float64) *PropagationResult {
	return &PropagationResult{Scores: ranks, Converged: true}
}

func TestConclusionNeutralWithoutArguments(t *testing.T) {
	graph := buildGraph(t, uuid.New())
	svc := NewConclusionService()
	b := svc.Score(graph, propagated(graph, nil))
	if b.Score != domain.NeutralConclusionScore {
		t.Fatalf("score = %d, want %d", b.Score, domain.NeutralConclusionScore)
	}
}

func TestConclusionCountShareWeighting(t *testing.T) {
	beliefID := uuid.New()
	s1 := rankedArg(beliefID, domain.PolaritySupporting, 90)
	s2 := rankedArg(beliefID, domain.PolaritySupporting, 30)
	o1 := rankedArg(beliefID, domain.PolarityOpposing, 30)
	graph := buildGraph(t, beliefID, s1, s2, o1)

	ranks := map[uuid.UUID]float64{s1.ID: 90, s2.ID: 30, o1.ID: 30}
	svc := NewConclusionService()
	b := svc.Score(graph, propagated(graph, ranks))

	// 50 + avg(90,30) * 2/3 - 30 * 1/3 = 50 + 40 - 10 = 80.
	if b.Score != 80 {
		t.Fatalf("score = %d, want 80", b.Score)
	}
	if b.Supporting.Count != 2 || b.Opposing.Count != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", b.Supporting.Count, b.Opposing.Count)
	}
	if b.Supporting.DecayedAvg != 60 {
		t.Fatalf("supporting avg = %v, want 60", b.Supporting.DecayedAvg)
	}
}

func TestConclusionMixedDebate(t *testing.T) {
	beliefID := uuid.New()
	s1 := rankedArg(beliefID, domain.PolaritySupporting, 85)
	s2 := rankedArg(beliefID, domain.PolaritySupporting, 72)
	s3 := rankedArg(beliefID, domain.PolaritySupporting, 68)
	o1 := rankedArg(beliefID, domain.PolarityOpposing, 45)
	o2 := rankedArg(beliefID, domain.PolarityOpposing, 52)
	o2.State = domain.ArgumentWeakened
	graph := buildGraph(t, beliefID, s1, s2, s3, o1, o2)

	ranks := map[uuid.UUID]float64{s1.ID: 85, s2.ID: 72, s3.ID: 68, o1.ID: 45, o2.ID: 52}
	svc := NewConclusionService()
	b := svc.Score(graph, propagated(graph, ranks))

	// supAvg = 75, oppAvg = (45 + 52*0.7)/2 = 40.7,
	// 50 + 75*0.6 - 40.7*0.4 = 78.72.
	if abs(b.Supporting.DecayedAvg-75) > 1e-9 {
		t.Fatalf("supporting avg = %v, want 75", b.Supporting.DecayedAvg)
	}
	if abs(b.Opposing.DecayedAvg-40.7) > 1e-9 {
		t.Fatalf("opposing avg = %v, want 40.7", b.Opposing.DecayedAvg)
	}
	if b.Score != 79 {
		t.Fatalf("score = %d, want 79", b.Score)
	}
}

func TestConclusionLifecycleDecayInAverages(t *testing.T) {
	beliefID := uuid.New()
	sup := rankedArg(beliefID, domain.PolaritySupporting, 80)
	opp := rankedArg(beliefID, domain.PolarityOpposing, 100)
	opp.State = domain.ArgumentRefuted
	graph := buildGraph(t, beliefID, sup, opp)

	ranks := map[uuid.UUID]float64{sup.ID: 80, opp.ID: 100}
	svc := NewConclusionService()
	b := svc.Score(graph, propagated(graph, ranks))

	// Refuted opposition decays to a tenth: 50 + 80*0.5 - 10*0.5 = 85.
	if b.Score != 85 {
		t.Fatalf("score = %d, want 85", b.Score)
	}
	if b.Opposing.DecayedAvg != 10 {
		t.Fatalf("opposing decayed avg = %v, want 10", b.Opposing.DecayedAvg)
	}
}

func TestConclusionExcludesSubArguments(t *testing.T) {
	beliefID := uuid.New()
	top := rankedArg(beliefID, domain.PolaritySupporting, 60)
	child := rankedArg(beliefID, domain.PolarityOpposing, 95)
	child.ParentID = &top.ID
	graph := buildGraph(t, beliefID, top, child)

	ranks := map[uuid.UUID]float64{top.ID: 60, child.ID: 95}
	svc := NewConclusionService()
	b := svc.Score(graph, propagated(graph, ranks))

	// The child influences the result only through its parent's propagated
	// rank, never as a direct side entry.
	if b.Opposing.Count != 0 {
		t.Fatalf("opposing count = %d, want 0 (sub-argument must not count)", b.Opposing.Count)
	}
	if b.Score != 80 { // 50 + 60*1.0
		t.Fatalf("score = %d, want 80", b.Score)
	}
}

func TestConclusionClampedToBounds(t *testing.T) {
	beliefID := uuid.New()
	var args []*domain.Argument
	ranks := make(map[uuid.UUID]float64)
	for i := 0; i < 3; i++ {
		a := rankedArg(beliefID, domain.PolaritySupporting, 100)
		args = append(args, a)
		ranks[a.ID] = 100
	}
	graph := buildGraph(t, beliefID, args...)

	svc := NewConclusionService()
	if b := svc.Score(graph, propagated(graph, ranks)); b.Score != 100 {
		t.Fatalf("score = %d, want clamped to 100", b.Score)
	}

	opposing := rankedArg(beliefID, domain.PolarityOpposing, 100)
	og := buildGraph(t, beliefID, opposing)
	if b := svc.Score(og, propagated(og, map[uuid.UUID]float64{opposing.ID: 100})); b.Score != 0 {
		t.Fatalf("score = %d, want clamped to 0", b.Score)
	}
}

func TestConclusionFallsBackToReasonRank(t *testing.T) {
	// An argument missing from the propagation map still contributes via its
	// intrinsic rank.
	beliefID := uuid.New()
	sup := rankedArg(beliefID, domain.PolaritySupporting, 70)
	graph := buildGraph(t, beliefID, sup)

	svc := NewConclusionService()
	b := svc.Score(graph, propagated(graph, map[uuid.UUID]float64{}))
	if b.Supporting.DecayedAvg != 70 {
		t.Fatalf("decayed avg = %v, want 70 from intrinsic rank", b.Supporting.DecayedAvg)
	}
	if b.Score != 100 {
		t.Fatalf("score = %d, want 100 (50 + 70 clamped)", b.Score)
	}
}
