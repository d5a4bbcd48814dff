package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultImportance applies to arguments whose importance has not been
	// assessed yet.
	DefaultImportance = 0.5

	defaultWorkers        = 4
	defaultQueueSize      = 256
	defaultWriteRetries   = 3
	defaultRetryBackoff   = 100 * time.Millisecond
	defaultHistoryHorizon = 90 * 24 * time.Hour

	// defaultRescoreInterval drives the periodic full pass that lets novelty
	// premiums and calm-day bonuses decay even without new writes.
	defaultRescoreInterval = 1 * time.Hour
)

var ErrBeliefNotFound = errors.New("belief not found")

// snapshot is one belief's full subgraph, fetched once per run so the
// pipeline stays a pure function of graph state. Re-running over the same
// snapshot always produces the same output.
type snapshot struct {
	belief     *domain.Belief
	graph      *domain.ArgumentGraph
	evidence   map[uuid.UUID][]*domain.Evidence
	overrides  []*domain.EquivalenceOverride
	engagement *domain.EngagementStats
	history    []domain.ScoreSnapshot
}

// PipelineResult is the output of one full scoring run.
type PipelineResult struct {
	BeliefID    uuid.UUID                    `json:"belief_id"`
	Conclusion  ConclusionBreakdown          `json:"conclusion"`
	Stability   StabilityBreakdown           `json:"stability"`
	Propagation *PropagationResult           `json:"propagation"`
	Linkage     map[uuid.UUID]LinkageScore   `json:"linkage"`
	Dedup       *DedupResult                 `json:"-"`
	Scores      *domain.BeliefScores         `json:"scores"`
	Warnings    []string                     `json:"warnings,omitempty"`
	ComputedAt  time.Time                    `json:"computed_at"`
}

// breakdownJSON packs the run's per-factor audit trail for the history row.
func (r *PipelineResult) breakdownJSON(logger *zap.Logger) json.RawMessage {
	payload := struct {
		Conclusion ConclusionBreakdown `json:"conclusion"`
		Stability  StabilityBreakdown  `json:"stability"`
	}{r.Conclusion, r.Stability}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("failed to encode score breakdown", zap.Error(err))
		return nil
	}
	return raw
}

// Explanation is one entry of the auditability surface: how much one argument
// moved the conclusion and why.
type Explanation struct {
	ArgumentID   uuid.UUID `json:"argument_id"`
	Contribution float64   `json:"contribution"`
	Reason       string    `json:"reason"`
}

// RetractionPreview is the what-if result of retracting one evidence item,
// computed without committing any writes.
type RetractionPreview struct {
	EvidenceID       uuid.UUID `json:"evidence_id"`
	BeliefID         uuid.UUID `json:"belief_id"`
	ConclusionBefore int       `json:"conclusion_before"`
	ConclusionAfter  int       `json:"conclusion_after"`
	ConclusionDelta  int       `json:"conclusion_delta"`
	StabilityBefore  int       `json:"stability_before"`
	StabilityAfter   int       `json:"stability_after"`
}

// recomputeTask tracks coalescing state for one belief: at most one run in
// flight, with the latest pending request superseding stale ones.
type recomputeTask struct {
	inFlight bool
	pending  bool
	// cancel aborts the in-flight run, honored only while cancellable is
	// still set (before the embedding-similarity layer completes). A run
	// that is past that point finishes rather than being interrupted
	// mid-write.
	cancel      context.CancelFunc
	cancellable atomic.Bool
}

// Engine owns the scoring pipeline and its trigger model. Mutations enqueue
// recompute tasks; tasks for the same belief coalesce; unrelated beliefs
// recompute in parallel under per-belief locks.
type Engine struct {
	beliefs    domain.BeliefStore
	arguments  domain.ArgumentStore
	evidence   domain.EvidenceStore
	overrides  domain.SimilarityOverrideStore
	history    domain.ScoreHistoryStore
	engagement domain.EngagementStore

	dedup       *DuplicationService
	linkage     *LinkageService
	coherence   *CoherenceService
	evidenceSvc *EvidenceService
	propagator  *Propagator
	conclusion  *ConclusionService
	stability   *StabilityService
	logger      *zap.Logger

	Workers         int
	WriteRetries    int
	RetryBackoff    time.Duration
	HistoryHorizon  time.Duration
	RescoreInterval time.Duration

	// clock supplies the single "now" each run is computed against, so two
	// runs over the same graph state can be compared bit for bit.
	clock func() time.Time

	mu    sync.Mutex
	tasks map[uuid.UUID]*recomputeTask
	locks map[uuid.UUID]*sync.Mutex

	queue  chan uuid.UUID
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewEngine(
	beliefs domain.BeliefStore,
	arguments domain.ArgumentStore,
	evidence domain.EvidenceStore,
	overrides domain.SimilarityOverrideStore,
	history domain.ScoreHistoryStore,
	engagement domain.EngagementStore,
	dedup *DuplicationService,
	linkage *LinkageService,
	coherence *CoherenceService,
	evidenceSvc *EvidenceService,
	propagator *Propagator,
	conclusion *ConclusionService,
	stability *StabilityService,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		beliefs:         beliefs,
		arguments:       arguments,
		evidence:        evidence,
		overrides:       overrides,
		history:         history,
		engagement:      engagement,
		dedup:           dedup,
		linkage:         linkage,
		coherence:       coherence,
		evidenceSvc:     evidenceSvc,
		propagator:      propagator,
		conclusion:      conclusion,
		stability:       stability,
		logger:          logger,
		Workers:         defaultWorkers,
		WriteRetries:    defaultWriteRetries,
		RetryBackoff:    defaultRetryBackoff,
		HistoryHorizon:  defaultHistoryHorizon,
		RescoreInterval: defaultRescoreInterval,
		clock:           func() time.Time { return time.Now().UTC() },
		tasks:           make(map[uuid.UUID]*recomputeTask),
		locks:           make(map[uuid.UUID]*sync.Mutex),
		queue:           make(chan uuid.UUID, defaultQueueSize),
		stopCh:          make(chan struct{}),
	}
}

// Start launches the recompute workers and the periodic rescore pass.
func (e *Engine) Start() {
	for i := 0; i < e.Workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case id := <-e.queue:
					e.runQueued(id)
				case <-e.stopCh:
					return
				}
			}
		}()
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.RescoreInterval)
		defer ticker.Stop()

		e.logger.Info("scoring engine started",
			zap.Int("workers", e.Workers),
			zap.Duration("rescore_interval", e.RescoreInterval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := e.RecomputeAll(ctx); err != nil {
					e.logger.Error("periodic rescore failed", zap.Error(err))
				}
				cancel()
			case <-e.stopCh:
				e.logger.Info("scoring engine stopped")
				return
			}
		}
	}()
}

func (e *Engine) Stop() {
	close(e.stopCh)
	e.wg.Wait()
}

// Enqueue registers that a qualifying mutation touched the belief. If a
// recompute is already queued the request coalesces; if one is in flight and
// still cancellable (before the embedding layer) it is superseded and
// restarted with fresh state.
func (e *Engine) Enqueue(beliefID uuid.UUID) {
	e.mu.Lock()
	t, ok := e.tasks[beliefID]
	if !ok {
		e.tasks[beliefID] = &recomputeTask{}
		e.mu.Unlock()
		select {
		case e.queue <- beliefID:
		case <-e.stopCh:
		}
		return
	}
	if t.inFlight {
		t.pending = true
		if t.cancellable.Load() && t.cancel != nil {
			t.cancel()
		}
	}
	// Queued but not started: the existing entry covers this request.
	e.mu.Unlock()
}

func (e *Engine) runQueued(beliefID uuid.UUID) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.mu.Lock()
	t := e.tasks[beliefID]
	if t == nil {
		t = &recomputeTask{}
		e.tasks[beliefID] = t
	}
	t.inFlight = true
	t.pending = false
	t.cancel = cancel
	t.cancellable.Store(true)
	e.mu.Unlock()

	_, err := e.recomputeLocked(ctx, beliefID, t)
	if err != nil && !errors.Is(err, context.Canceled) {
		e.logger.Error("recompute failed",
			zap.String("belief_id", beliefID.String()),
			zap.Error(err))
	}

	e.mu.Lock()
	t.inFlight = false
	t.cancel = nil
	requeue := t.pending || errors.Is(err, context.Canceled)
	if requeue {
		t.pending = false
	} else {
		delete(e.tasks, beliefID)
	}
	e.mu.Unlock()

	if requeue {
		select {
		case e.queue <- beliefID:
		case <-e.stopCh:
		}
	}
}

// Recompute runs the full pipeline for one belief and writes the scores
// back. Idempotent: two runs with no intervening mutation produce identical
// output.
func (e *Engine) Recompute(ctx context.Context, beliefID uuid.UUID) (*PipelineResult, error) {
	return e.recomputeLocked(ctx, beliefID, nil)
}

func (e *Engine) recomputeLocked(ctx context.Context, beliefID uuid.UUID, t *recomputeTask) (*PipelineResult, error) {
	lock := e.beliefLock(beliefID)
	lock.Lock()
	defer lock.Unlock()

	snap, err := e.fetchSnapshot(ctx, beliefID)
	if err != nil {
		return nil, err
	}

	result, err := e.compute(ctx, snap, e.clock(), t)
	if err != nil {
		return nil, err
	}

	// Past this point the run is committed: write-back proceeds even if the
	// triggering context is cancelled, so scores are never half-applied.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := e.writeBack(writeCtx, result); err != nil {
		return nil, err
	}

	// Vectors embedded this run are saved back so the next run reads them
	// from the row instead of calling the provider again. Best effort: a
	// failed save only costs a re-embed later.
	for id, emb := range result.Dedup.FreshEmbeddings {
		if err := e.arguments.UpdateEmbedding(writeCtx, id, emb); err != nil {
			e.logger.Warn("failed to persist argument embedding",
				zap.String("argument_id", id.String()),
				zap.Error(err))
		}
	}

	if snap.belief.ConclusionScore != result.Conclusion.Score {
		snapEntry := &domain.ScoreSnapshot{
			BeliefID:        beliefID,
			ConclusionScore: result.Conclusion.Score,
			Breakdown:       result.breakdownJSON(e.logger),
			RecordedAt:      result.ComputedAt,
		}
		if err := e.history.Append(writeCtx, snapEntry); err != nil {
			e.logger.Warn("failed to append score history", zap.Error(err))
		}
	}

	e.logger.Info("belief rescored",
		zap.String("belief_id", beliefID.String()),
		zap.Int("conclusion", result.Conclusion.Score),
		zap.Int("stability", result.Stability.Score),
		zap.Bool("converged", result.Propagation.Converged))

	return result, nil
}

// RecomputeAll rescoring pass over every active belief. Unrelated beliefs
// proceed in parallel; each run still holds its own belief lock.
func (e *Engine) RecomputeAll(ctx context.Context) error {
	ids, err := e.beliefs.ListActiveIDs(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if _, err := e.Recompute(ctx, id); err != nil {
				e.logger.Warn("rescore failed for belief",
					zap.String("belief_id", id.String()),
					zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) beliefLock(beliefID uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[beliefID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[beliefID] = lock
	}
	return lock
}

func (e *Engine) fetchSnapshot(ctx context.Context, beliefID uuid.UUID) (*snapshot, error) {
	belief, err := e.beliefs.GetByID(ctx, beliefID)
	if err != nil {
		return nil, err
	}

	args, err := e.arguments.ListByBelief(ctx, beliefID)
	if err != nil {
		return nil, err
	}

	graph, err := domain.NewArgumentGraph(beliefID, args)
	if err != nil {
		return nil, err
	}

	evidence := make(map[uuid.UUID][]*domain.Evidence, len(args))
	for _, a := range args {
		items, err := e.evidence.ListByArgument(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		evidence[a.ID] = items
	}

	overrides, err := e.overrides.ListByBelief(ctx, beliefID)
	if err != nil {
		return nil, err
	}

	stats, err := e.engagement.Stats(ctx, beliefID)
	if err != nil {
		return nil, err
	}

	history, err := e.history.ListSince(ctx, beliefID, e.clock().Add(-e.HistoryHorizon))
	if err != nil {
		return nil, err
	}

	return &snapshot{
		belief:     belief,
		graph:      graph,
		evidence:   evidence,
		overrides:  overrides,
		engagement: stats,
		history:    history,
	}, nil
}

// compute runs the pipeline stages in their fixed order over one snapshot:
// duplication, linkage and evidence scoring, propagation, conclusion,
// stability. Pure given the snapshot and now.
func (e *Engine) compute(ctx context.Context, snap *snapshot, now time.Time, t *recomputeTask) (*PipelineResult, error) {
	result := &PipelineResult{
		BeliefID:   snap.belief.ID,
		Linkage:    make(map[uuid.UUID]LinkageScore),
		ComputedAt: now,
	}

	dedup, err := e.dedup.ScoreSiblings(ctx, snap.graph.Arguments(), snap.overrides, now)
	if err != nil {
		return nil, err
	}
	result.Dedup = dedup
	if dedup.ReducedConfidence {
		result.Warnings = append(result.Warnings, "duplication scoring degraded to mechanical layer (embedding unavailable)")
	}

	// The expensive embedding layer is behind us; from here the run finishes
	// rather than being interrupted mid-write.
	if t != nil {
		t.cancellable.Store(false)
	}

	for _, a := range snap.graph.Scorable() {
		a.Scores.EvidenceStrength = e.evidenceSvc.Strength(snap.evidence[a.ID])

		coherence, degraded := e.coherence.Score(ctx, a)
		a.Scores.LogicalCoherence = coherence
		if degraded {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("logical coherence for argument %s reused last known value", a.ID))
		}

		if a.Scores.Importance == 0 {
			a.Scores.Importance = DefaultImportance
		}

		d := dedup.Arguments[a.ID]
		if d != nil {
			a.Scores.Uniqueness = domain.ClampUnit(d.Uniqueness * d.Novelty)
		} else {
			a.Scores.Uniqueness = 1.0
		}
	}

	// Linkage runs after evidence and coherence so the structural signals
	// see current strengths.
	for _, a := range snap.graph.Scorable() {
		ls := e.linkage.Score(snap.belief, a, snap.graph)
		a.Scores.LinkageRelevance = ls.Score
		result.Linkage[a.ID] = ls
		if ls.Misclassified {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("argument %s filed as %s but its content contradicts the belief", a.ID, a.Polarity))
		}
	}

	propagated := e.propagator.Propagate(snap.graph)
	result.Propagation = propagated
	if !propagated.Converged {
		result.Warnings = append(result.Warnings, "propagation exhausted its iteration budget; scores are the best partial result")
	}
	for _, a := range snap.graph.Scorable() {
		a.RankScore = propagated.Scores[a.ID]
	}

	result.Conclusion = e.conclusion.Score(snap.graph, propagated)

	result.Stability = e.stability.Score(ctx, StabilityInputs{
		Belief:     snap.belief,
		Graph:      snap.graph,
		Dedup:      dedup,
		Engagement: snap.engagement,
		History:    snap.history,
		Now:        now,
	}, snap.evidence)

	scores := &domain.BeliefScores{
		BeliefID:        snap.belief.ID,
		ConclusionScore: result.Conclusion.Score,
		StabilityScore:  result.Stability.Score,
		ScoreUnstable:   !propagated.Converged,
		ArgumentScores:  make(map[uuid.UUID]domain.ArgumentScoring, snap.graph.Len()),
		ComputedAt:      now,
	}
	for _, a := range snap.graph.Scorable() {
		scores.ArgumentScores[a.ID] = domain.ArgumentScoring{Scores: a.Scores, RankScore: a.RankScore}
	}
	result.Scores = scores

	return result, nil
}

// writeBack persists one run's scores with bounded backoff. The pipeline is
// pure, so retries never double-apply side effects.
func (e *Engine) writeBack(ctx context.Context, result *PipelineResult) error {
	backoff := e.RetryBackoff
	var err error
	for attempt := 0; attempt < e.WriteRetries; attempt++ {
		if err = e.beliefs.WriteScores(ctx, result.Scores); err == nil {
			return nil
		}
		e.logger.Warn("score write-back failed",
			zap.String("belief_id", result.BeliefID.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("write scores for belief %s: %w", result.BeliefID, err)
}

// ConclusionScore returns the persisted conclusion score for a belief.
func (e *Engine) ConclusionScore(ctx context.Context, beliefID uuid.UUID) (int, error) {
	b, err := e.beliefs.GetByID(ctx, beliefID)
	if err != nil {
		return 0, err
	}
	return domain.ClampScore(b.ConclusionScore), nil
}

// Stability returns the persisted stability score for a belief.
func (e *Engine) Stability(ctx context.Context, beliefID uuid.UUID) (int, error) {
	b, err := e.beliefs.GetByID(ctx, beliefID)
	if err != nil {
		return 0, err
	}
	return domain.ClampScore(b.StabilityScore), nil
}

// Clusters groups the belief's current sibling arguments by substantial
// similarity, for display alongside the scores.
func (e *Engine) Clusters(ctx context.Context, beliefID uuid.UUID) ([]domain.ArgumentCluster, error) {
	snap, err := e.fetchSnapshot(ctx, beliefID)
	if err != nil {
		return nil, err
	}
	dedup, err := e.dedup.ScoreSiblings(ctx, snap.graph.Arguments(), snap.overrides, e.clock())
	if err != nil {
		return nil, err
	}
	return Clusters(snap.graph.Scorable(), dedup, DefaultClusterThreshold), nil
}

// Explain recomputes the belief without writing back and returns per-argument
// contributions ordered by absolute impact.
func (e *Engine) Explain(ctx context.Context, beliefID uuid.UUID) ([]Explanation, error) {
	snap, err := e.fetchSnapshot(ctx, beliefID)
	if err != nil {
		return nil, err
	}
	result, err := e.compute(ctx, snap, e.clock(), nil)
	if err != nil {
		return nil, err
	}

	var out []Explanation
	for _, a := range snap.graph.Scorable() {
		if a.ParentID != nil {
			continue
		}

		side := result.Conclusion.Supporting
		sign := 1.0
		if a.Polarity == domain.PolarityOpposing {
			side = result.Conclusion.Opposing
			sign = -1.0
		}
		if side.Count == 0 {
			continue
		}

		contribution := sign * a.RankScore * a.State.DecayMultiplier() * side.Weight / float64(side.Count)

		d := result.Dedup.Arguments[a.ID]
		reason := fmt.Sprintf("%s, rank %.1f, lifecycle %s", a.Polarity, a.RankScore, a.State)
		if d != nil && d.MechanicalDuplicate {
			reason += ", mechanical duplicate"
		} else if d != nil && d.Uniqueness < 0.5 {
			reason += fmt.Sprintf(", largely redundant (uniqueness %.2f)", d.Uniqueness)
		}
		if ls, ok := result.Linkage[a.ID]; ok && ls.Misclassified {
			reason += ", content contradicts the belief"
		}

		out = append(out, Explanation{ArgumentID: a.ID, Contribution: contribution, Reason: reason})
	}

	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].Contribution, out[j].Contribution
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		return ai > aj
	})
	return out, nil
}

// SimulateRetraction previews the score impact of retracting one evidence
// item. No writes are committed; the pipeline runs twice over the same
// snapshot, once as-is and once with the item's credibility zeroed.
func (e *Engine) SimulateRetraction(ctx context.Context, evidenceID uuid.UUID) (*RetractionPreview, error) {
	item, err := e.evidence.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	arg, err := e.arguments.GetByID(ctx, item.ArgumentID)
	if err != nil {
		return nil, err
	}

	snap, err := e.fetchSnapshot(ctx, arg.BeliefID)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	before, err := e.compute(ctx, snap, now, nil)
	if err != nil {
		return nil, err
	}

	// Rebuild the snapshot with the evidence item retracted. Arguments carry
	// mutated sub-scores after a compute pass, so refetch for a clean base.
	snap, err = e.fetchSnapshot(ctx, arg.BeliefID)
	if err != nil {
		return nil, err
	}
	for _, items := range snap.evidence {
		for i, ev := range items {
			if ev.ID == evidenceID {
				retracted := *ev
				retracted.Retract()
				items[i] = &retracted
			}
		}
	}

	after, err := e.compute(ctx, snap, now, nil)
	if err != nil {
		return nil, err
	}

	return &RetractionPreview{
		EvidenceID:       evidenceID,
		BeliefID:         arg.BeliefID,
		ConclusionBefore: before.Conclusion.Score,
		ConclusionAfter:  after.Conclusion.Score,
		ConclusionDelta:  after.Conclusion.Score - before.Conclusion.Score,
		StabilityBefore:  before.Stability.Score,
		StabilityAfter:   after.Stability.Score,
	}, nil
}
