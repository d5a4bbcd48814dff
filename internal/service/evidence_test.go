package service

import (
	"context"
	"math"
	"testing"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func evidenceItem(tier domain.EvidenceTier, credibility int) *domain.Evidence {
	return &domain.Evidence{
		ID:          uuid.New(),
		ArgumentID:  uuid.New(),
		Title:       "source",
		Tier:        tier,
		Credibility: credibility,
	}
}

func TestStrengthNoEvidenceIsNeutral(t *testing.T) {
	svc := NewEvidenceService(newMockEvidenceStore(), zap.NewNop())
	if got := svc.Strength(nil); got != DefaultNeutralEvidenceStrength {
		t.Fatalf("Strength(nil) = %v, want %v", got, DefaultNeutralEvidenceStrength)
	}
}

func TestStrengthTierWeighting(t *testing.T) {
	svc := NewEvidenceService(newMockEvidenceStore(), zap.NewNop())

	// A gold-standard source at full credibility against an anecdote at zero:
	// the weighted mean leans heavily toward the strong source.
	items := []*domain.Evidence{
		evidenceItem(domain.TierGoldStandard, 100),
		evidenceItem(domain.TierAnecdotal, 0),
	}
	base := (1.0*1.0 + 0.25*0.0) / 1.25
	boost := svc.CorroborationBoost(items)
	want := base + boost

	if got := svc.Strength(items); math.Abs(got-want) > 1e-9 {
		t.Fatalf("Strength = %v, want %v", got, want)
	}

	// Flipping which tier carries the credible source must lower the result.
	flipped := []*domain.Evidence{
		evidenceItem(domain.TierGoldStandard, 0),
		evidenceItem(domain.TierAnecdotal, 100),
	}
	if svc.Strength(flipped) >= svc.Strength(items) {
		t.Fatal("anecdotal credibility should count for less than gold-standard credibility")
	}
}

func TestStrengthClampedToUnit(t *testing.T) {
	svc := NewEvidenceService(newMockEvidenceStore(), zap.NewNop())
	items := []*domain.Evidence{
		evidenceItem(domain.TierGoldStandard, 100),
		evidenceItem(domain.TierGoldStandard, 100),
		evidenceItem(domain.TierGoldStandard, 100),
	}
	if got := svc.Strength(items); got > 1.0 {
		t.Fatalf("Strength = %v, want <= 1.0", got)
	}
}

func TestCorroborationBoostDiminishes(t *testing.T) {
	svc := NewEvidenceService(newMockEvidenceStore(), zap.NewNop())

	one := []*domain.Evidence{evidenceItem(domain.TierReputable, 50)}
	two := append([]*domain.Evidence{evidenceItem(domain.TierReputable, 50)}, one...)
	three := append([]*domain.Evidence{evidenceItem(domain.TierReputable, 50)}, two...)

	b1 := svc.CorroborationBoost(one)
	b2 := svc.CorroborationBoost(two)
	b3 := svc.CorroborationBoost(three)

	if !(b1 < b2 && b2 < b3) {
		t.Fatalf("boost not monotone: %v %v %v", b1, b2, b3)
	}
	if (b2 - b1) <= (b3 - b2) {
		t.Fatalf("marginal boost not diminishing: +%v then +%v", b2-b1, b3-b2)
	}
	if b3 > svc.MaxBoost {
		t.Fatalf("boost %v exceeds cap %v", b3, svc.MaxBoost)
	}
	if svc.CorroborationBoost(nil) != 0 {
		t.Fatal("no evidence must mean no boost")
	}
}

func TestVerifyPersistsCredibility(t *testing.T) {
	item := evidenceItem(domain.TierReputable, 50)
	store := newMockEvidenceStore(item)
	svc := NewEvidenceService(store, zap.NewNop())
	ctx := context.Background()

	got, err := svc.Verify(ctx, item.ID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Credibility != 60 || got.Verifications != 1 {
		t.Fatalf("after verify: credibility=%d verifications=%d, want 60/1", got.Credibility, got.Verifications)
	}

	stored, _ := store.GetByID(ctx, item.ID)
	if stored.Credibility != 60 {
		t.Fatalf("stored credibility = %d, want 60", stored.Credibility)
	}

	// Two more verifications cross the status threshold.
	svc.Verify(ctx, item.ID)
	got, err = svc.Verify(ctx, item.ID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Status() != domain.EvidenceVerified {
		t.Fatalf("status = %s, want verified", got.Status())
	}
}

func TestDisputeLowersCredibility(t *testing.T) {
	item := evidenceItem(domain.TierReputable, 5)
	store := newMockEvidenceStore(item)
	svc := NewEvidenceService(store, zap.NewNop())

	got, err := svc.Dispute(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Dispute: %v", err)
	}
	if got.Credibility != 0 {
		t.Fatalf("credibility = %d, want 0 (clamped)", got.Credibility)
	}
}

func TestRetractZeroesAndDisputes(t *testing.T) {
	item := evidenceItem(domain.TierGoldStandard, 90)
	store := newMockEvidenceStore(item)
	svc := NewEvidenceService(store, zap.NewNop())

	got, err := svc.Retract(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Retract: %v", err)
	}
	if got.Credibility != 0 {
		t.Fatalf("credibility = %d, want 0", got.Credibility)
	}
	if got.Status() != domain.EvidenceDisputed {
		t.Fatalf("status = %s, want disputed", got.Status())
	}
}

func TestVerifyUnknownEvidence(t *testing.T) {
	svc := NewEvidenceService(newMockEvidenceStore(), zap.NewNop())
	if _, err := svc.Verify(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error for unknown evidence id")
	}
}
