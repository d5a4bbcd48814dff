package service

import (
	"math"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fixed diagnostic weights: would disproving this argument hurt the
// conclusion (necessity), does it alone justify the conclusion (sufficiency),
// and how many inferential steps separate it from the belief (directness).
const (
	necessityWeight   = 0.4
	sufficiencyWeight = 0.3
	directnessWeight  = 0.3
)

// LinkageScore is the result of scoring one argument's relevance to its
// belief, independent of whether the argument is true.
type LinkageScore struct {
	ArgumentID  uuid.UUID `json:"argument_id"`
	Necessity   float64   `json:"necessity"`
	Sufficiency float64   `json:"sufficiency"`
	Directness  float64   `json:"directness"`
	// Score is the clamped weighted sum in [-1,1]. Negative means the
	// argument, if true, actually contradicts the belief it was filed under.
	Score float64 `json:"score"`
	// Misclassified flags a supporting argument whose content reads as
	// opposing (or vice versa). Surfaced, never silently dropped.
	Misclassified bool `json:"misclassified"`
}

// LinkageService measures how much an argument, if true, forces its
// conclusion.
type LinkageService struct {
	logger *zap.Logger
}

func NewLinkageService(logger *zap.Logger) *LinkageService {
	return &LinkageService{logger: logger}
}

// Score computes linkage for one argument against its belief, given the full
// sibling graph for the structural signals.
func (s *LinkageService) Score(belief *domain.Belief, arg *domain.Argument, graph *domain.ArgumentGraph) LinkageScore {
	siblings := sameSideSiblings(arg, graph)

	necessity := s.necessity(arg, siblings)
	sufficiency := s.sufficiency(arg)
	directness := s.directness(arg, graph)

	score := necessityWeight*necessity + sufficiencyWeight*sufficiency + directnessWeight*directness
	score = domain.ClampSigned(score)

	// A supporting argument whose own conclusion reads as the polarity flip
	// of the belief statement is misfiled; its linkage goes negative and the
	// condition is surfaced to callers.
	misclassified := false
	target := arg.Conclusion
	if target == "" {
		target = arg.Claim
	}
	if opposes(target, belief.Statement) {
		misclassified = true
		score = domain.ClampSigned(-score)
		s.logger.Warn("argument content contradicts its own belief",
			zap.String("argument_id", arg.ID.String()),
			zap.String("belief_id", belief.ID.String()),
			zap.String("polarity", string(arg.Polarity)))
	}

	return LinkageScore{
		ArgumentID:    arg.ID,
		Necessity:     necessity,
		Sufficiency:   sufficiency,
		Directness:    directness,
		Score:         score,
		Misclassified: misclassified,
	}
}

// necessity estimates how much the conclusion leans on this argument: the
// argument's share of its side's total intrinsic strength. Disproving a
// dominant argument hurts the conclusion most.
func (s *LinkageService) necessity(arg *domain.Argument, siblings []*domain.Argument) float64 {
	own := intrinsicStrength(arg)
	total := own
	for _, sib := range siblings {
		total += intrinsicStrength(sib)
	}
	if total == 0 {
		return 0.5
	}
	return domain.ClampUnit(own / total)
}

// sufficiency estimates whether the argument alone carries the conclusion:
// its own evidence-backed strength, independent of siblings.
func (s *LinkageService) sufficiency(arg *domain.Argument) float64 {
	return domain.ClampUnit(intrinsicStrength(arg))
}

// directness is the inverse of the number of inferential steps between the
// argument and the belief: tree depth plus cross-reference hops.
func (s *LinkageService) directness(arg *domain.Argument, graph *domain.ArgumentGraph) float64 {
	steps := treeDepth(arg, graph) + len(arg.DependsOn)
	return 1.0 / (1.0 + float64(steps))
}

// intrinsicStrength is the evidence-and-coherence product used by the
// structural signals. Unscored arguments read as neutral.
func intrinsicStrength(arg *domain.Argument) float64 {
	es := arg.Scores.EvidenceStrength
	lc := arg.Scores.LogicalCoherence
	if es == 0 && lc == 0 {
		return 0.5
	}
	if es == 0 {
		es = 0.5
	}
	if lc == 0 {
		lc = 0.5
	}
	return math.Sqrt(es * lc)
}

func sameSideSiblings(arg *domain.Argument, graph *domain.ArgumentGraph) []*domain.Argument {
	var out []*domain.Argument
	for _, a := range graph.Scorable() {
		if a.ID == arg.ID || a.Polarity != arg.Polarity {
			continue
		}
		if equalParent(a.ParentID, arg.ParentID) {
			out = append(out, a)
		}
	}
	return out
}

func equalParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func treeDepth(arg *domain.Argument, graph *domain.ArgumentGraph) int {
	depth := 0
	cur := arg
	for cur.ParentID != nil {
		parent := graph.Get(*cur.ParentID)
		if parent == nil {
			break
		}
		depth++
		cur = parent
	}
	return depth
}
