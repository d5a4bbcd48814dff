package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrCycleDetected is returned when a parent or depends-on edge would make an
// argument its own ancestor. Cycles are rejected at write time; the engine
// never silently breaks them.
var ErrCycleDetected = errors.New("argument dependency cycle detected")

// ErrWrongBelief is returned when an edge would cross belief boundaries.
var ErrWrongBelief = errors.New("argument belongs to a different belief")

// ArgumentGraph is an arena of argument nodes addressed by ID. Parent and
// depends-on relations are plain edges, not structural ownership, so
// acyclicity is a property we can check rather than a lifetime problem.
type ArgumentGraph struct {
	BeliefID uuid.UUID
	nodes    map[uuid.UUID]*Argument
	order    []uuid.UUID
}

// NewArgumentGraph builds the arena for one belief's arguments. Arguments
// from other beliefs are rejected.
func NewArgumentGraph(beliefID uuid.UUID, args []*Argument) (*ArgumentGraph, error) {
	g := &ArgumentGraph{
		BeliefID: beliefID,
		nodes:    make(map[uuid.UUID]*Argument, len(args)),
		order:    make([]uuid.UUID, 0, len(args)),
	}
	for _, a := range args {
		if a.BeliefID != beliefID {
			return nil, ErrWrongBelief
		}
		g.nodes[a.ID] = a
		g.order = append(g.order, a.ID)
	}
	for _, a := range args {
		if err := g.CheckAcyclic(a.ID); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *ArgumentGraph) Get(id uuid.UUID) *Argument {
	return g.nodes[id]
}

func (g *ArgumentGraph) Len() int {
	return len(g.order)
}

// Arguments returns the nodes in insertion order.
func (g *ArgumentGraph) Arguments() []*Argument {
	out := make([]*Argument, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Scorable returns non-archived arguments in insertion order.
func (g *ArgumentGraph) Scorable() []*Argument {
	out := make([]*Argument, 0, len(g.order))
	for _, id := range g.order {
		if a := g.nodes[id]; a.Scorable() {
			out = append(out, a)
		}
	}
	return out
}

// ancestors walks parent and depends-on edges from id, invoking visit for
// each reachable node. Returns ErrCycleDetected if id is reachable from
// itself.
func (g *ArgumentGraph) walk(start uuid.UUID, seen map[uuid.UUID]bool) error {
	a := g.nodes[start]
	if a == nil {
		return nil
	}
	next := make([]uuid.UUID, 0, len(a.DependsOn)+1)
	if a.ParentID != nil {
		next = append(next, *a.ParentID)
	}
	next = append(next, a.DependsOn...)

	for _, id := range next {
		if seen[id] {
			return ErrCycleDetected
		}
		seen[id] = true
		if err := g.walk(id, seen); err != nil {
			return err
		}
		delete(seen, id)
	}
	return nil
}

// CheckAcyclic verifies that no parent/depends-on chain from id leads back to
// id.
func (g *ArgumentGraph) CheckAcyclic(id uuid.UUID) error {
	return g.walk(id, map[uuid.UUID]bool{id: true})
}

// WouldCycle reports whether adding an edge from child to parent (either a
// sub-argument relation or a depends-on reference) would create a cycle.
func (g *ArgumentGraph) WouldCycle(childID, parentID uuid.UUID) bool {
	if childID == parentID {
		return true
	}
	seen := map[uuid.UUID]bool{parentID: true}
	if err := g.walk(parentID, seen); err != nil {
		// Existing cycle upstream; adding more edges cannot make it legal.
		return true
	}
	// The edge cycles iff child is an ancestor of parent.
	seen = map[uuid.UUID]bool{childID: true}
	return g.walk(parentID, seen) != nil
}

// SimilarityPair is the computed overlap between two sibling arguments. It is
// derived state, recomputable on demand, not a persisted first-class entity.
type SimilarityPair struct {
	ArgumentA uuid.UUID `json:"argument_a"`
	ArgumentB uuid.UUID `json:"argument_b"`
	// Mechanical is the layer-1 token Jaccard score.
	Mechanical float64 `json:"mechanical"`
	// Semantic is the layer-2 embedding cosine score, nil when embeddings
	// were unavailable.
	Semantic *float64 `json:"semantic,omitempty"`
	// Community is the resolved equivalence sub-debate score, nil until
	// resolved.
	Community *float64 `json:"community,omitempty"`
	Combined  float64  `json:"combined"`
	// MechanicalDuplicate is set when layer 1 alone flags the pair.
	MechanicalDuplicate bool `json:"mechanical_duplicate"`
}

// EquivalenceOverride is a community sub-debate on whether two arguments say
// the same thing. Once resolved, its score overrides the semantic layer's
// similarity estimate for the pair.
type EquivalenceOverride struct {
	ID         uuid.UUID `json:"id"`
	BeliefID   uuid.UUID `json:"belief_id"`
	ArgumentA  uuid.UUID `json:"argument_a"`
	ArgumentB  uuid.UUID `json:"argument_b"`
	ProScore   float64   `json:"pro_score"`
	ConScore   float64   `json:"con_score"`
	Resolved   bool      `json:"resolved"`
	Similarity *float64  `json:"similarity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Resolve computes the community similarity from pro/con weights. Equal
// weights resolve to 0.5; no votes at all also resolve neutral.
func (o *EquivalenceOverride) Resolve(now time.Time) float64 {
	var sim float64
	total := o.ProScore + o.ConScore
	if total == 0 {
		sim = 0.5
	} else {
		sim = o.ProScore / total
	}
	o.Similarity = &sim
	o.Resolved = true
	o.ResolvedAt = &now
	return sim
}

// Matches reports whether the override covers the given unordered pair.
func (o *EquivalenceOverride) Matches(a, b uuid.UUID) bool {
	return (o.ArgumentA == a && o.ArgumentB == b) || (o.ArgumentA == b && o.ArgumentB == a)
}

// ArgumentCluster groups substantially similar sibling arguments for display.
// The cluster score sums deduplication-adjusted contributions, so it cannot
// exceed what a single fully novel argument would score.
type ArgumentCluster struct {
	Representative uuid.UUID   `json:"representative"`
	Members        []uuid.UUID `json:"members"`
	Score          float64     `json:"score"`
}
