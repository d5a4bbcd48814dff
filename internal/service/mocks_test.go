package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
)

var errMockNotFound = errors.New("not found")

type mockBeliefStore struct {
	mu      sync.Mutex
	beliefs map[uuid.UUID]*domain.Belief

	written    []*domain.BeliefScores
	failWrites int
}

func newMockBeliefStore(beliefs ...*domain.Belief) *mockBeliefStore {
	s := &mockBeliefStore{beliefs: make(map[uuid.UUID]*domain.Belief)}
	for _, b := range beliefs {
		s.beliefs[b.ID] = b
	}
	return s
}

func (s *mockBeliefStore) Create(_ context.Context, b *domain.Belief) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beliefs[b.ID] = b
	return nil
}

func (s *mockBeliefStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Belief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.beliefs[id]
	if !ok {
		return nil, errMockNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *mockBeliefStore) List(_ context.Context, _ int) ([]domain.Belief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Belief, 0, len(s.beliefs))
	for _, b := range s.beliefs {
		out = append(out, *b)
	}
	return out, nil
}

func (s *mockBeliefStore) ListActiveIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for id, b := range s.beliefs {
		if b.State == domain.BeliefActive {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *mockBeliefStore) UpdateState(_ context.Context, id uuid.UUID, state domain.BeliefState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.beliefs[id]
	if !ok {
		return errMockNotFound
	}
	b.State = state
	return nil
}

func (s *mockBeliefStore) WriteScores(_ context.Context, scores *domain.BeliefScores) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites > 0 {
		s.failWrites--
		return errors.New("transient write failure")
	}
	s.written = append(s.written, scores)
	if b, ok := s.beliefs[scores.BeliefID]; ok {
		b.ConclusionScore = scores.ConclusionScore
		b.StabilityScore = scores.StabilityScore
		b.ScoreUnstable = scores.ScoreUnstable
	}
	return nil
}

func (s *mockBeliefStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written)
}

type mockArgumentStore struct {
	mu   sync.Mutex
	args map[uuid.UUID]*domain.Argument
}

func newMockArgumentStore(args ...*domain.Argument) *mockArgumentStore {
	s := &mockArgumentStore{args: make(map[uuid.UUID]*domain.Argument)}
	for _, a := range args {
		s.args[a.ID] = a
	}
	return s
}

func (s *mockArgumentStore) Create(_ context.Context, a *domain.Argument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.args[a.ID] = a
	return nil
}

func (s *mockArgumentStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Argument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.args[id]
	if !ok {
		return nil, errMockNotFound
	}
	copied := *a
	return &copied, nil
}

// ListByBelief returns fresh copies ordered by creation time, matching the
// backing store: the pipeline mutates sub-scores on its working set and a
// refetch must hand back a clean base.
func (s *mockArgumentStore) ListByBelief(_ context.Context, beliefID uuid.UUID) ([]*domain.Argument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Argument
	for _, a := range s.args {
		if a.BeliefID == beliefID {
			copied := *a
			out = append(out, &copied)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.Before(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *mockArgumentStore) UpdateState(_ context.Context, id uuid.UUID, state domain.ArgumentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.args[id]
	if !ok {
		return errMockNotFound
	}
	a.State = state
	return nil
}

func (s *mockArgumentStore) UpdateEmbedding(_ context.Context, id uuid.UUID, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.args[id]
	if !ok {
		return errMockNotFound
	}
	a.Embedding = embedding
	return nil
}

func (s *mockArgumentStore) AddDependency(_ context.Context, argumentID, dependsOnID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.args[argumentID]
	if !ok {
		return errMockNotFound
	}
	for _, dep := range a.DependsOn {
		if dep == dependsOnID {
			return nil
		}
	}
	a.DependsOn = append(a.DependsOn, dependsOnID)
	return nil
}

func (s *mockArgumentStore) ArchiveByBelief(_ context.Context, beliefID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.args {
		if a.BeliefID == beliefID && a.State != domain.ArgumentArchived {
			a.State = domain.ArgumentArchived
			n++
		}
	}
	return n, nil
}

type mockEvidenceStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Evidence

	getErr    error
	updateErr error
	updates   int
}

func newMockEvidenceStore(items ...*domain.Evidence) *mockEvidenceStore {
	s := &mockEvidenceStore{items: make(map[uuid.UUID]*domain.Evidence)}
	for _, e := range items {
		s.items[e.ID] = e
	}
	return s
}

func (s *mockEvidenceStore) Create(_ context.Context, e *domain.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.ID] = e
	return nil
}

func (s *mockEvidenceStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	e, ok := s.items[id]
	if !ok {
		return nil, errMockNotFound
	}
	copied := *e
	return &copied, nil
}

func (s *mockEvidenceStore) ListByArgument(_ context.Context, argumentID uuid.UUID) ([]*domain.Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Evidence
	for _, e := range s.items {
		if e.ArgumentID == argumentID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *mockEvidenceStore) UpdateCredibility(_ context.Context, id uuid.UUID, credibility, verifications, disputes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	e, ok := s.items[id]
	if !ok {
		return errMockNotFound
	}
	e.Credibility = credibility
	e.Verifications = verifications
	e.Disputes = disputes
	s.updates++
	return nil
}

type mockOverrideStore struct {
	mu        sync.Mutex
	overrides map[uuid.UUID]*domain.EquivalenceOverride
}

func newMockOverrideStore(overrides ...*domain.EquivalenceOverride) *mockOverrideStore {
	s := &mockOverrideStore{overrides: make(map[uuid.UUID]*domain.EquivalenceOverride)}
	for _, o := range overrides {
		s.overrides[o.ID] = o
	}
	return s
}

func (s *mockOverrideStore) Create(_ context.Context, o *domain.EquivalenceOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[o.ID] = o
	return nil
}

func (s *mockOverrideStore) GetByID(_ context.Context, id uuid.UUID) (*domain.EquivalenceOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overrides[id]
	if !ok {
		return nil, errMockNotFound
	}
	copied := *o
	return &copied, nil
}

func (s *mockOverrideStore) ListByBelief(_ context.Context, beliefID uuid.UUID) ([]*domain.EquivalenceOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.EquivalenceOverride
	for _, o := range s.overrides {
		if o.BeliefID == beliefID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *mockOverrideStore) ListByArgument(_ context.Context, argumentID uuid.UUID) ([]*domain.EquivalenceOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.EquivalenceOverride
	for _, o := range s.overrides {
		if o.ArgumentA == argumentID || o.ArgumentB == argumentID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *mockOverrideStore) Vote(_ context.Context, id uuid.UUID, pro bool, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overrides[id]
	if !ok {
		return errMockNotFound
	}
	if pro {
		o.ProScore += weight
	} else {
		o.ConScore += weight
	}
	return nil
}

func (s *mockOverrideStore) Resolve(_ context.Context, id uuid.UUID, similarity float64, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overrides[id]
	if !ok {
		return errMockNotFound
	}
	o.Resolved = true
	o.Similarity = &similarity
	o.ResolvedAt = &resolvedAt
	return nil
}

type mockHistoryStore struct {
	mu        sync.Mutex
	snapshots []domain.ScoreSnapshot
}

func (s *mockHistoryStore) Append(_ context.Context, snap *domain.ScoreSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, *snap)
	return nil
}

func (s *mockHistoryStore) ListSince(_ context.Context, beliefID uuid.UUID, since time.Time) ([]domain.ScoreSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ScoreSnapshot
	for _, snap := range s.snapshots {
		if snap.BeliefID == beliefID && !snap.RecordedAt.Before(since) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *mockHistoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

type mockEngagementStore struct {
	stats map[uuid.UUID]*domain.EngagementStats
}

func (s *mockEngagementStore) Record(_ context.Context, _ *domain.EngagementEvent) error {
	return nil
}

func (s *mockEngagementStore) Stats(_ context.Context, beliefID uuid.UUID) (*domain.EngagementStats, error) {
	if st, ok := s.stats[beliefID]; ok {
		return st, nil
	}
	return &domain.EngagementStats{BeliefID: beliefID}, nil
}

// stubEmbedder serves fixed vectors keyed by the embedded text. Texts without
// an entry fall back to a shared default so every call succeeds.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

// countingEmbedder returns a deterministic vector per text and tallies calls,
// to observe how often the provider is actually consulted.
type countingEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return []float32{float32(len(text)), 1, 0}, nil
}

func (e *countingEmbedder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embedding provider unavailable")
}

type stubDetector struct {
	fallacies []domain.Fallacy
	err       error
}

func (d *stubDetector) DetectFallacies(_ context.Context, _ string) ([]domain.Fallacy, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.fallacies, nil
}

type stubClassifier struct {
	category domain.EpistemicCategory
	err      error
}

func (c *stubClassifier) Classify(_ context.Context, _ string) (domain.EpistemicCategory, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.category, nil
}
