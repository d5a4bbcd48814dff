package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestCoherenceCleanArgument(t *testing.T) {
	svc := NewCoherenceService(&stubDetector{}, zap.NewNop())
	arg := &domain.Argument{ID: uuid.New(), Claim: "Commuting time is recovered"}

	got, degraded := svc.Score(context.Background(), arg)
	if got != 1.0 {
		t.Fatalf("coherence = %v, want 1.0", got)
	}
	if degraded {
		t.Fatal("healthy detector must not report degraded")
	}
}

func TestCoherencePenalizesFallacies(t *testing.T) {
	svc := NewCoherenceService(&stubDetector{fallacies: []domain.Fallacy{
		{Type: "ad_hominem", Severity: 0.8, Confidence: 0.8},
		{Type: "overgeneralization", Severity: 0.3, Confidence: 0.4},
	}}, zap.NewNop())
	arg := &domain.Argument{ID: uuid.New(), Claim: "Only a fool disagrees; it always fails"}

	got, _ := svc.Score(context.Background(), arg)
	want := 1.0 - (0.8*0.8+0.3*0.4)*fallacyPenaltyFactor
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("coherence = %v, want %v", got, want)
	}
}

func TestCoherenceFloorsAtZero(t *testing.T) {
	svc := NewCoherenceService(&stubDetector{fallacies: []domain.Fallacy{
		{Severity: 1, Confidence: 1},
		{Severity: 1, Confidence: 1},
		{Severity: 1, Confidence: 1},
	}}, zap.NewNop())
	arg := &domain.Argument{ID: uuid.New(), Claim: "x"}

	if got, _ := svc.Score(context.Background(), arg); got != 0 {
		t.Fatalf("coherence = %v, want 0", got)
	}
}

func TestCoherenceDetectorFailureKeepsLastKnown(t *testing.T) {
	svc := NewCoherenceService(&stubDetector{err: errors.New("classifier down")}, zap.NewNop())

	scored := &domain.Argument{ID: uuid.New(), Scores: domain.SubScores{LogicalCoherence: 0.65}}
	got, degraded := svc.Score(context.Background(), scored)
	if got != 0.65 || !degraded {
		t.Fatalf("got %v degraded=%v, want last known 0.65 degraded", got, degraded)
	}

	fresh := &domain.Argument{ID: uuid.New()}
	got, degraded = svc.Score(context.Background(), fresh)
	if got != DefaultLogicalCoherence || !degraded {
		t.Fatalf("got %v degraded=%v, want default %v degraded", got, degraded, DefaultLogicalCoherence)
	}
}

func TestCoherenceNilDetector(t *testing.T) {
	svc := NewCoherenceService(nil, zap.NewNop())
	arg := &domain.Argument{ID: uuid.New()}

	got, degraded := svc.Score(context.Background(), arg)
	if got != DefaultLogicalCoherence || !degraded {
		t.Fatalf("got %v degraded=%v, want default degraded", got, degraded)
	}
}
