package service

import (
	"math"
	"testing"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// rankedArg builds an active argument whose sub-scores multiply out to the
// requested reason rank (importance carries the value, the rest are 1.0).
func rankedArg(beliefID uuid.UUID, polarity domain.Polarity, rank float64) *domain.Argument {
	return &domain.Argument{
		ID:       uuid.New(),
		BeliefID: beliefID,
		Polarity: polarity,
		State:    domain.ArgumentActive,
		Scores: domain.SubScores{
			EvidenceStrength: 1,
			LogicalCoherence: 1,
			LinkageRelevance: 1,
			Uniqueness:       1,
			Importance:       rank / 100.0,
		},
	}
}

func buildGraph(t *testing.T, beliefID uuid.UUID, args ...*domain.Argument) *domain.ArgumentGraph {
	t.Helper()
	graph, err := domain.NewArgumentGraph(beliefID, args)
	if err != nil {
		t.Fatalf("NewArgumentGraph: %v", err)
	}
	return graph
}

func TestPropagateEmptyGraph(t *testing.T) {
	p := NewPropagator(zap.NewNop())
	result := p.Propagate(buildGraph(t, uuid.New()))
	if !result.Converged {
		t.Fatal("empty graph must converge")
	}
	if len(result.Scores) != 0 {
		t.Fatalf("scores = %v, want empty", result.Scores)
	}
}

func TestPropagateLeafKeepsIntrinsicRank(t *testing.T) {
	beliefID := uuid.New()
	leaf := rankedArg(beliefID, domain.PolaritySupporting, 85)

	p := NewPropagator(zap.NewNop())
	result := p.Propagate(buildGraph(t, beliefID, leaf))

	if !result.Converged {
		t.Fatal("single node must converge")
	}
	if got := result.Scores[leaf.ID]; math.Abs(got-85) > 1e-6 {
		t.Fatalf("leaf score = %v, want 85 (no incoming edges, restart value holds)", got)
	}
}

func TestPropagateSupportingChildLiftsParent(t *testing.T) {
	beliefID := uuid.New()
	parent := rankedArg(beliefID, domain.PolaritySupporting, 60)
	child := rankedArg(beliefID, domain.PolaritySupporting, 80)
	child.ParentID = &parent.ID

	p := NewPropagator(zap.NewNop())
	result := p.Propagate(buildGraph(t, beliefID, parent, child))

	if !result.Converged {
		t.Fatal("expected convergence")
	}
	// Fixed point: parent = damping*child + (1-damping)*restart = 0.85*80 + 9.
	if got := result.Scores[parent.ID]; math.Abs(got-77) > 0.01 {
		t.Fatalf("parent score = %v, want ~77", got)
	}
	if got := result.Scores[child.ID]; math.Abs(got-80) > 1e-6 {
		t.Fatalf("child score = %v, want 80", got)
	}
}

func TestPropagateOpposingChildSuppressesParent(t *testing.T) {
	beliefID := uuid.New()
	parent := rankedArg(beliefID, domain.PolaritySupporting, 60)
	child := rankedArg(beliefID, domain.PolarityOpposing, 80)
	child.ParentID = &parent.ID

	p := NewPropagator(zap.NewNop())
	result := p.Propagate(buildGraph(t, beliefID, parent, child))

	// 0.85*(-80) + 9 is far below zero; the node's own score floors at 0.
	if got := result.Scores[parent.ID]; got != 0 {
		t.Fatalf("parent score = %v, want 0", got)
	}
}

func TestPropagateLifecycleDecayWeighsEdges(t *testing.T) {
	beliefID := uuid.New()
	parent := rankedArg(beliefID, domain.PolaritySupporting, 60)
	support := rankedArg(beliefID, domain.PolaritySupporting, 80)
	support.ParentID = &parent.ID
	attack := rankedArg(beliefID, domain.PolarityOpposing, 80)
	attack.ParentID = &parent.ID
	attack.State = domain.ArgumentRefuted

	p := NewPropagator(zap.NewNop())
	result := p.Propagate(buildGraph(t, beliefID, parent, support, attack))

	if !result.Converged {
		t.Fatal("expected convergence")
	}
	// The refuted attack carries a tenth of the active support's edge weight,
	// so the parent lands near the supporting-only fixed point, not near the
	// floor it would hit against an equally live attack.
	got := result.Scores[parent.ID]
	if got < 55 || got > 77 {
		t.Fatalf("parent score = %v, want in (55, 77)", got)
	}
}

func TestPropagateDependsOnFeedsDependent(t *testing.T) {
	beliefID := uuid.New()
	premise := rankedArg(beliefID, domain.PolaritySupporting, 90)
	dependent := rankedArg(beliefID, domain.PolaritySupporting, 40)
	dependent.DependsOn = []uuid.UUID{premise.ID}

	p := NewPropagator(zap.NewNop())
	result := p.Propagate(buildGraph(t, beliefID, premise, dependent))

	if !result.Converged {
		t.Fatal("expected convergence")
	}
	got := result.Scores[dependent.ID]
	if got <= 40 {
		t.Fatalf("dependent score = %v, want above its intrinsic 40", got)
	}
	if got > 90 {
		t.Fatalf("dependent score = %v, cannot exceed its premise", got)
	}
}

func TestPropagateScoresStayBounded(t *testing.T) {
	beliefID := uuid.New()
	args := []*domain.Argument{
		rankedArg(beliefID, domain.PolaritySupporting, 100),
		rankedArg(beliefID, domain.PolarityOpposing, 100),
		rankedArg(beliefID, domain.PolaritySupporting, 0),
	}
	args[1].ParentID = &args[0].ID
	args[2].ParentID = &args[0].ID

	p := NewPropagator(zap.NewNop())
	result := p.Propagate(buildGraph(t, beliefID, args...))

	for id, score := range result.Scores {
		if score < 0 || score > 100 {
			t.Fatalf("score for %s = %v, out of [0,100]", id, score)
		}
	}
}

func TestPropagateConvergesUnderCrossReferenceCycleBudget(t *testing.T) {
	// Damping guarantees the iteration settles well inside the budget even on
	// deeper chains.
	beliefID := uuid.New()
	var args []*domain.Argument
	var prev *domain.Argument
	for i := 0; i < 10; i++ {
		a := rankedArg(beliefID, domain.PolaritySupporting, 50+float64(i*5))
		if prev != nil {
			a.ParentID = &prev.ID
		}
		args = append(args, a)
		prev = a
	}

	p := NewPropagator(zap.NewNop())
	result := p.Propagate(buildGraph(t, beliefID, args...))

	if !result.Converged {
		t.Fatal("chain graph must converge")
	}
	if result.Iterations >= p.Iterations {
		t.Fatalf("iterations = %d, want fewer than the budget %d", result.Iterations, p.Iterations)
	}
}
