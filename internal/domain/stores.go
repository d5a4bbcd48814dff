package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type BeliefStore interface {
	Create(ctx context.Context, b *Belief) error
	GetByID(ctx context.Context, id uuid.UUID) (*Belief, error)
	List(ctx context.Context, limit int) ([]Belief, error)
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateState(ctx context.Context, id uuid.UUID, state BeliefState) error
	// WriteScores persists one pipeline run's output: the belief's conclusion
	// and stability scores plus every argument's sub-score vector and rank.
	WriteScores(ctx context.Context, scores *BeliefScores) error
}

type ArgumentStore interface {
	Create(ctx context.Context, a *Argument) error
	GetByID(ctx context.Context, id uuid.UUID) (*Argument, error)
	ListByBelief(ctx context.Context, beliefID uuid.UUID) ([]*Argument, error)
	UpdateState(ctx context.Context, id uuid.UUID, state ArgumentState) error
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
	// AddDependency records a depends-on edge between two existing arguments.
	// Callers check acyclicity against the in-memory graph first.
	AddDependency(ctx context.Context, argumentID, dependsOnID uuid.UUID) error
	// ArchiveByBelief cascades lifecycle archival (not hard deletion) over a
	// deleted belief's arguments, preserving audit history.
	ArchiveByBelief(ctx context.Context, beliefID uuid.UUID) (int64, error)
}

type EvidenceStore interface {
	Create(ctx context.Context, e *Evidence) error
	GetByID(ctx context.Context, id uuid.UUID) (*Evidence, error)
	ListByArgument(ctx context.Context, argumentID uuid.UUID) ([]*Evidence, error)
	UpdateCredibility(ctx context.Context, id uuid.UUID, credibility, verifications, disputes int) error
}

type SimilarityOverrideStore interface {
	Create(ctx context.Context, o *EquivalenceOverride) error
	GetByID(ctx context.Context, id uuid.UUID) (*EquivalenceOverride, error)
	ListByBelief(ctx context.Context, beliefID uuid.UUID) ([]*EquivalenceOverride, error)
	ListByArgument(ctx context.Context, argumentID uuid.UUID) ([]*EquivalenceOverride, error)
	// Vote adds weight to the pro (equivalent) or con (distinct) side of an
	// unresolved override.
	Vote(ctx context.Context, id uuid.UUID, pro bool, weight float64) error
	Resolve(ctx context.Context, id uuid.UUID, similarity float64, resolvedAt time.Time) error
}

type ScoreHistoryStore interface {
	Append(ctx context.Context, s *ScoreSnapshot) error
	ListSince(ctx context.Context, beliefID uuid.UUID, since time.Time) ([]ScoreSnapshot, error)
}

type EngagementStore interface {
	Record(ctx context.Context, e *EngagementEvent) error
	Stats(ctx context.Context, beliefID uuid.UUID) (*EngagementStats, error)
}

// EmbeddingClient produces the vectors used by the semantic duplication
// layer. Failures degrade to mechanical-only scoring, they never fail a
// recompute.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Fallacy is one detection result from the external text classifier.
type Fallacy struct {
	Type       string  `json:"type"`
	Severity   float64 `json:"severity"`
	Confidence float64 `json:"confidence"`
}

// FallacyDetector is a narrow capability interface over whatever classifier
// backs it (keyword heuristics today, a learned model later). Its output
// feeds only the logical-coherence sub-score.
type FallacyDetector interface {
	DetectFallacies(ctx context.Context, text string) ([]Fallacy, error)
}

// StatementClassifier assigns an epistemic category to a belief statement.
type StatementClassifier interface {
	Classify(ctx context.Context, statement string) (EpistemicCategory, error)
}
