package domain

import (
	"testing"

	"github.com/google/uuid"
)

func testUUID() uuid.UUID {
	return uuid.New()
}

func TestClampScore(t *testing.T) {
	if got := ClampScore(-5); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := ClampScore(150); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := ClampScore(42); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestClampUnitAndSigned(t *testing.T) {
	if got := ClampUnit(1.5); got != 1.0 {
		t.Fatalf("expected 1.0, got %v", got)
	}
	if got := ClampUnit(-0.2); got != 0.0 {
		t.Fatalf("expected 0.0, got %v", got)
	}
	if got := ClampSigned(-1.5); got != -1.0 {
		t.Fatalf("expected -1.0, got %v", got)
	}
	if got := ClampSigned(0.3); got != 0.3 {
		t.Fatalf("expected 0.3, got %v", got)
	}
}

func TestEpistemicCategoryCeilings(t *testing.T) {
	cases := []struct {
		category EpistemicCategory
		base     float64
		ceiling  int
	}{
		{CategoryEmpirical, 80, 100},
		{CategoryForecast, 60, 85},
		{CategoryValue, 40, 70},
		{CategorySpeculation, 20, 50},
	}
	for _, c := range cases {
		if got := c.category.BaseKnowability(); got != c.base {
			t.Fatalf("%s: expected base %v, got %v", c.category, c.base, got)
		}
		if got := c.category.StabilityCeiling(); got != c.ceiling {
			t.Fatalf("%s: expected ceiling %d, got %d", c.category, c.ceiling, got)
		}
	}
}
