package domain

import (
	"testing"
	"time"
)

func testNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestEvidenceTierWeights(t *testing.T) {
	cases := []struct {
		tier EvidenceTier
		want float64
	}{
		{TierGoldStandard, 1.0},
		{TierReputable, 0.6},
		{TierSecondary, 0.4},
		{TierAnecdotal, 0.25},
	}
	for _, c := range cases {
		if got := c.tier.Weight(); got != c.want {
			t.Fatalf("tier %d: expected weight %v, got %v", c.tier, c.want, got)
		}
	}
}

func TestEvidence_CredibilityEventsClamp(t *testing.T) {
	e := NewEvidence(testUUID(), "title", "", TierReputable)
	if e.Credibility != 50 {
		t.Fatalf("expected initial credibility 50, got %d", e.Credibility)
	}

	for i := 0; i < 10; i++ {
		e.Verify()
	}
	if e.Credibility != 100 {
		t.Fatalf("expected credibility clamped at 100, got %d", e.Credibility)
	}

	for i := 0; i < 20; i++ {
		e.Dispute()
	}
	if e.Credibility != 0 {
		t.Fatalf("expected credibility clamped at 0, got %d", e.Credibility)
	}
}

func TestEvidence_StatusThresholds(t *testing.T) {
	e := NewEvidence(testUUID(), "title", "", TierGoldStandard)
	if e.Status() != EvidenceUnverified {
		t.Fatalf("expected unverified, got %s", e.Status())
	}

	e.Verifications = 3
	if e.Status() != EvidenceVerified {
		t.Fatalf("expected verified at threshold, got %s", e.Status())
	}

	// Disputes win ties.
	e.Disputes = 3
	if e.Status() != EvidenceDisputed {
		t.Fatalf("expected disputed to win the tie, got %s", e.Status())
	}
}

func TestEvidence_Retract(t *testing.T) {
	e := NewEvidence(testUUID(), "title", "", TierGoldStandard)
	e.Verifications = 5
	e.Credibility = 90

	e.Retract()
	if e.Credibility != 0 {
		t.Fatalf("expected credibility zeroed, got %d", e.Credibility)
	}
	if e.Status() != EvidenceDisputed {
		t.Fatalf("expected retracted evidence to read disputed, got %s", e.Status())
	}
}
