package service

import (
	"math"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultPropagationIterations bounds the iterative pass. Damping
	// guarantees convergence well inside this budget for any graph the write
	// path admits, including cross-reference cycles.
	DefaultPropagationIterations = 100

	DefaultDamping = 0.85

	// DefaultConvergenceDelta is the max per-node score change below which
	// the iteration is considered settled.
	DefaultConvergenceDelta = 1e-4
)

// PropagationResult carries per-node scores plus convergence diagnostics.
type PropagationResult struct {
	Scores     map[uuid.UUID]float64 `json:"scores"`
	Iterations int                   `json:"iterations"`
	// Converged is false when the iteration budget ran out before the score
	// delta threshold was met. The scores are still the best available
	// partial result; callers flag the belief as score-unstable rather than
	// erroring.
	Converged bool `json:"converged"`
}

type propagationEdge struct {
	from   int
	sign   float64
	weight float64
}

// Propagator runs the signed, damped score propagation over one belief's
// argument graph. A supporting edge carries +reasonRank × lifecycleDecay, an
// opposing edge the negative. The loop is plain synchronous iteration over
// fixed-size slices; suspension only happens at the store boundary, never
// here.
type Propagator struct {
	logger *zap.Logger

	Iterations       int
	Damping          float64
	ConvergenceDelta float64
}

func NewPropagator(logger *zap.Logger) *Propagator {
	return &Propagator{
		logger:           logger,
		Iterations:       DefaultPropagationIterations,
		Damping:          DefaultDamping,
		ConvergenceDelta: DefaultConvergenceDelta,
	}
}

// Propagate computes a 0-100 score per argument node. Restart mass is each
// node's own decayed reason rank, so a node with no incoming edges keeps its
// intrinsic value rather than decaying to zero.
func (p *Propagator) Propagate(graph *domain.ArgumentGraph) *PropagationResult {
	args := graph.Scorable()
	n := len(args)
	result := &PropagationResult{Scores: make(map[uuid.UUID]float64, n), Converged: true}
	if n == 0 {
		return result
	}

	index := make(map[uuid.UUID]int, n)
	for i, a := range args {
		index[a.ID] = i
	}

	// Restart mass is the node's undecayed multi-factor rank; lifecycle decay
	// is folded into edge weights here and into side averages downstream, not
	// into the node's own displayed score.
	restart := make([]float64, n)
	decayedWeight := make([]float64, n)
	for i, a := range args {
		restart[i] = a.Scores.ReasonRank()
		decayedWeight[i] = restart[i] * a.State.DecayMultiplier() / 100.0
	}

	// Incoming edges per node: a child argument feeds its parent with the
	// child's polarity sign; a depends-on reference feeds the dependent
	// positively from its dependency.
	incoming := make([][]propagationEdge, n)
	for i, a := range args {
		if a.ParentID != nil {
			if pi, ok := index[*a.ParentID]; ok {
				sign := 1.0
				if a.Polarity == domain.PolarityOpposing {
					sign = -1.0
				}
				incoming[pi] = append(incoming[pi], propagationEdge{from: i, sign: sign, weight: decayedWeight[i]})
			}
		}
		for _, dep := range a.DependsOn {
			if di, ok := index[dep]; ok {
				incoming[i] = append(incoming[i], propagationEdge{from: di, sign: 1.0, weight: decayedWeight[di]})
			}
		}
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = domain.NeutralConclusionScore
	}

	iterations := 0
	converged := false
	for iter := 0; iter < p.Iterations; iter++ {
		iterations = iter + 1
		maxDelta := 0.0

		for i := range args {
			edges := incoming[i]
			var mass, norm float64
			for _, e := range edges {
				mass += e.sign * e.weight * scores[e.from]
				norm += e.weight
			}
			if norm == 0 {
				// No effective incoming weight: the node keeps its restart
				// value rather than decaying toward zero.
				next[i] = restart[i]
			} else {
				next[i] = p.Damping*(mass/norm) + (1-p.Damping)*restart[i]
			}

			// Opposition may reduce a node's rank weight, but a node's own
			// displayed score is never negative.
			if next[i] < 0 {
				next[i] = 0
			}
			if next[i] > 100 {
				next[i] = 100
			}

			if d := math.Abs(next[i] - scores[i]); d > maxDelta {
				maxDelta = d
			}
		}

		scores, next = next, scores

		if maxDelta < p.ConvergenceDelta {
			converged = true
			break
		}
	}

	if !converged {
		result.Converged = false
		p.logger.Warn("propagation did not converge within iteration budget",
			zap.String("belief_id", graph.BeliefID.String()),
			zap.Int("iterations", iterations))
	}
	result.Iterations = iterations

	for i, a := range args {
		result.Scores[a.ID] = scores[i]
	}
	return result
}
