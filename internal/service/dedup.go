package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultMechanicalThreshold is the layer-1 Jaccard score above which an
	// argument is an outright mechanical duplicate and the semantic layer is
	// skipped.
	DefaultMechanicalThreshold = 0.85

	// Layer blend weights when both mechanical and semantic signals exist.
	DefaultMechanicalBlendWeight = 0.4
	DefaultSemanticBlendWeight   = 0.6

	// DefaultCommunityBlendWeight controls how much a resolved equivalence
	// sub-debate overrides the semantic estimate. 1.0 = full override.
	DefaultCommunityBlendWeight = 1.0

	// Novelty premium: 1 + peak * 0.5^(ageHours/halflife), decaying to 1.0
	// over roughly two days. Detected duplicates get no boost.
	DefaultNoveltyPeakBoost     = 0.25
	DefaultNoveltyHalfLifeHours = 24.0
	DefaultNoveltyThreshold     = 0.5

	// DefaultClusterThreshold groups siblings whose combined similarity is at
	// least this value.
	DefaultClusterThreshold = 0.70
)

// ArgumentDedup is the per-argument output of duplication scoring.
type ArgumentDedup struct {
	ArgumentID uuid.UUID `json:"argument_id"`
	// Uniqueness is 1 minus the maximum combined similarity to any earlier
	// sibling. The first to make a point keeps 1.0; restatements pay the
	// penalty.
	Uniqueness float64 `json:"uniqueness"`
	// Novelty is the time-decaying premium multiplier, >= 1.0.
	Novelty float64 `json:"novelty"`
	// MechanicalDuplicate means layer 1 alone flagged this argument.
	MechanicalDuplicate bool `json:"mechanical_duplicate"`
	Pairs               []domain.SimilarityPair `json:"pairs,omitempty"`
}

// DedupResult covers one belief's sibling set.
type DedupResult struct {
	Arguments map[uuid.UUID]*ArgumentDedup
	// FreshEmbeddings holds vectors fetched from the provider this run for
	// arguments that had none stored. The engine persists them so later runs
	// read instead of re-embed.
	FreshEmbeddings map[uuid.UUID][]float32
	// ReducedConfidence is set when the embedding provider was unavailable
	// and scoring fell back to the mechanical layer only.
	ReducedConfidence bool
}

// DuplicationService computes uniqueness factors so that volume cannot
// substitute for quality. Three escalating layers over the full
// claim/inference/conclusion triple: mechanical token overlap, semantic
// embedding similarity, and community-adjudicated equivalence sub-debates.
type DuplicationService struct {
	embedder domain.EmbeddingClient
	logger   *zap.Logger

	MechanicalThreshold  float64
	MechanicalWeight     float64
	SemanticWeight       float64
	CommunityBlendWeight float64
	NoveltyPeakBoost     float64
	NoveltyHalfLifeHours float64
	NoveltyThreshold     float64
}

func NewDuplicationService(embedder domain.EmbeddingClient, logger *zap.Logger) *DuplicationService {
	return &DuplicationService{
		embedder:             embedder,
		logger:               logger,
		MechanicalThreshold:  DefaultMechanicalThreshold,
		MechanicalWeight:     DefaultMechanicalBlendWeight,
		SemanticWeight:       DefaultSemanticBlendWeight,
		CommunityBlendWeight: DefaultCommunityBlendWeight,
		NoveltyPeakBoost:     DefaultNoveltyPeakBoost,
		NoveltyHalfLifeHours: DefaultNoveltyHalfLifeHours,
		NoveltyThreshold:     DefaultNoveltyThreshold,
	}
}

// ScoreSiblings scores every scorable argument in args against the siblings
// submitted before it. Deterministic given the sibling set, the overrides and
// now. The context is observed between arguments so a superseded recompute
// can stop before burning embedding calls.
func (s *DuplicationService) ScoreSiblings(
	ctx context.Context,
	args []*domain.Argument,
	overrides []*domain.EquivalenceOverride,
	now time.Time,
) (*DedupResult, error) {
	ordered := make([]*domain.Argument, 0, len(args))
	for _, a := range args {
		if a.Scorable() {
			ordered = append(ordered, a)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	result := &DedupResult{Arguments: make(map[uuid.UUID]*ArgumentDedup, len(ordered))}
	embeddings := make(map[uuid.UUID][]float32, len(ordered))

	for i, arg := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dedup := &ArgumentDedup{ArgumentID: arg.ID, Uniqueness: 1.0, Novelty: 1.0}
		prior := ordered[:i]

		// Layer 1: mechanical, over the same claim/inference/conclusion
		// triple the semantic layer embeds. A max similarity at or above the
		// threshold is an outright duplicate; uniqueness is fixed and no
		// further layers run.
		maxMech := 0.0
		mech := make([]float64, len(prior))
		for j, p := range prior {
			mech[j] = mechanicalSimilarity(arg.TripleText(), p.TripleText())
			if mech[j] > maxMech {
				maxMech = mech[j]
			}
		}
		if maxMech >= s.MechanicalThreshold {
			dedup.MechanicalDuplicate = true
			dedup.Uniqueness = domain.ClampUnit(1.0 - maxMech)
			for j, p := range prior {
				dedup.Pairs = append(dedup.Pairs, domain.SimilarityPair{
					ArgumentA:           arg.ID,
					ArgumentB:           p.ID,
					Mechanical:          mech[j],
					Combined:            mech[j],
					MechanicalDuplicate: mech[j] >= s.MechanicalThreshold,
				})
			}
			dedup.Novelty = s.noveltyMultiplier(arg.CreatedAt, dedup.Uniqueness, now)
			result.Arguments[arg.ID] = dedup
			continue
		}

		// Layer 2: semantic, over the structured triple rather than raw text.
		// Embedding failure degrades to mechanical-only with a flagged
		// reduced-confidence result.
		maxCombined := 0.0
		for j, p := range prior {
			pair := domain.SimilarityPair{
				ArgumentA:  arg.ID,
				ArgumentB:  p.ID,
				Mechanical: mech[j],
				Combined:   mech[j],
			}

			embA, okA := s.embeddingFor(ctx, arg, embeddings, result)
			embB, okB := s.embeddingFor(ctx, p, embeddings, result)
			if okA && okB {
				sem := cosineSimilarity(embA, embB)
				pair.Semantic = &sem
				pair.Combined = s.MechanicalWeight*mech[j] + s.SemanticWeight*sem
			}

			// Layer 3: a resolved equivalence sub-debate overrides (or
			// blends with) the computed estimate.
			if ov := findOverride(overrides, arg.ID, p.ID); ov != nil && ov.Resolved && ov.Similarity != nil {
				community := *ov.Similarity
				pair.Community = &community
				pair.Combined = s.CommunityBlendWeight*community + (1-s.CommunityBlendWeight)*pair.Combined
			}

			pair.Combined = domain.ClampUnit(pair.Combined)
			dedup.Pairs = append(dedup.Pairs, pair)
			if pair.Combined > maxCombined {
				maxCombined = pair.Combined
			}
		}

		// One near-identical prior argument is enough to mark this one
		// redundant, so the maximum similarity drives uniqueness, not the
		// average.
		dedup.Uniqueness = domain.ClampUnit(1.0 - maxCombined)
		dedup.Novelty = s.noveltyMultiplier(arg.CreatedAt, dedup.Uniqueness, now)
		result.Arguments[arg.ID] = dedup
	}

	return result, nil
}

func (s *DuplicationService) embeddingFor(
	ctx context.Context,
	arg *domain.Argument,
	cache map[uuid.UUID][]float32,
	result *DedupResult,
) ([]float32, bool) {
	if emb, ok := cache[arg.ID]; ok {
		return emb, len(emb) > 0
	}
	if len(arg.Embedding) > 0 {
		cache[arg.ID] = arg.Embedding
		return arg.Embedding, true
	}
	if s.embedder == nil {
		cache[arg.ID] = nil
		result.ReducedConfidence = true
		return nil, false
	}
	emb, err := s.embedder.Embed(ctx, arg.TripleText())
	if err != nil || len(emb) == 0 {
		if err != nil {
			s.logger.Warn("embedding unavailable, falling back to mechanical layer",
				zap.String("argument_id", arg.ID.String()),
				zap.Error(err))
		}
		cache[arg.ID] = nil
		result.ReducedConfidence = true
		return nil, false
	}
	arg.Embedding = emb
	cache[arg.ID] = emb
	if result.FreshEmbeddings == nil {
		result.FreshEmbeddings = make(map[uuid.UUID][]float32)
	}
	result.FreshEmbeddings[arg.ID] = emb
	return emb, true
}

// noveltyMultiplier gives a fresh argument temporary visibility before the
// community has evaluated it. Detected duplicates are never boosted.
func (s *DuplicationService) noveltyMultiplier(submittedAt time.Time, uniqueness float64, now time.Time) float64 {
	if uniqueness < s.NoveltyThreshold {
		return 1.0
	}
	ageHours := now.Sub(submittedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return 1.0 + s.NoveltyPeakBoost*math.Pow(0.5, ageHours/s.NoveltyHalfLifeHours)
}

func findOverride(overrides []*domain.EquivalenceOverride, a, b uuid.UUID) *domain.EquivalenceOverride {
	for _, o := range overrides {
		if o.Matches(a, b) {
			return o
		}
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Cosine can be slightly negative for unrelated texts; similarity floors
	// at zero.
	if sim < 0 {
		return 0
	}
	return sim
}

// Clusters groups scored siblings whose combined similarity meets the
// threshold. The representative is the member with the highest rank score;
// the cluster score sums deduplicated contributions.
func Clusters(args []*domain.Argument, result *DedupResult, threshold float64) []domain.ArgumentCluster {
	if threshold <= 0 {
		threshold = DefaultClusterThreshold
	}

	similarity := make(map[[2]uuid.UUID]float64)
	for _, d := range result.Arguments {
		for _, p := range d.Pairs {
			similarity[[2]uuid.UUID{p.ArgumentA, p.ArgumentB}] = p.Combined
			similarity[[2]uuid.UUID{p.ArgumentB, p.ArgumentA}] = p.Combined
		}
	}

	byID := make(map[uuid.UUID]*domain.Argument, len(args))
	for _, arg := range args {
		byID[arg.ID] = arg
	}

	assigned := make(map[uuid.UUID]bool)
	var clusters []domain.ArgumentCluster

	for _, a := range args {
		if assigned[a.ID] {
			continue
		}
		if _, ok := result.Arguments[a.ID]; !ok {
			continue
		}
		members := []uuid.UUID{a.ID}
		assigned[a.ID] = true

		for _, b := range args {
			if assigned[b.ID] {
				continue
			}
			if similarity[[2]uuid.UUID{a.ID, b.ID}] >= threshold {
				members = append(members, b.ID)
				assigned[b.ID] = true
			}
		}

		rep := members[0]
		var repRank, score float64
		for _, id := range members {
			arg := byID[id]
			d := result.Arguments[id]
			if arg == nil || d == nil {
				continue
			}
			if arg.RankScore > repRank {
				repRank = arg.RankScore
				rep = id
			}
			score += arg.RankScore * d.Uniqueness * d.Novelty
		}

		clusters = append(clusters, domain.ArgumentCluster{
			Representative: rep,
			Members:        members,
			Score:          score,
		})
	}

	return clusters
}
