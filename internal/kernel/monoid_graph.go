package kernel

import (
	"fmt"

	"github.com/sunholo/queryc/internal/symbol"
)

// axisBound tracks the permitted range of a single boolean axis
// (commutative or idempotent) for a monoid variable: min is forced
// true by a lower bound that requires it, max is forced false by an
// upper bound that forbids it. min > max (true > false) is a
// contradiction (spec §3.2 invariant).
type axisBound struct {
	min bool
	max bool
}

func newAxisBound() axisBound { return axisBound{min: false, max: true} }

func (a axisBound) valid() bool { return !a.min || a.max }

// MonoidGraph is the union-find-backed monoid variable bound tracker
// of spec §3.2/§9: one root per equivalence class, leqMonoids/geqMonoids
// bound sets recorded per root.
type MonoidGraph struct {
	parent   map[uint64]uint64
	leq      map[uint64][]Monoid // monoids known <= this variable
	geq      map[uint64][]Monoid // monoids known >= this variable
	commut   map[uint64]axisBound
	idemp    map[uint64]axisBound
	resolved map[uint64]MonoidTag // root -> concrete tag, once pinned
}

// NewMonoidGraph creates an empty monoid graph.
func NewMonoidGraph() *MonoidGraph {
	return &MonoidGraph{
		parent:   map[uint64]uint64{},
		leq:      map[uint64][]Monoid{},
		geq:      map[uint64][]Monoid{},
		commut:   map[uint64]axisBound{},
		idemp:    map[uint64]axisBound{},
		resolved: map[uint64]MonoidTag{},
	}
}

func (g *MonoidGraph) ensure(id uint64) {
	if _, ok := g.parent[id]; !ok {
		g.parent[id] = id
		g.commut[id] = newAxisBound()
		g.idemp[id] = newAxisBound()
	}
}

// Find returns the representative ID for a monoid variable, compressing paths.
func (g *MonoidGraph) Find(id uint64) uint64 {
	g.ensure(id)
	if g.parent[id] != id {
		g.parent[id] = g.Find(g.parent[id])
	}
	return g.parent[id]
}

// AddLowerBound records that m <= v (m constrains v from below), per
// the MaxOfMonoids constraint of spec §4.2: a generator's monoid must
// be <= its comprehension's monoid.
func (g *MonoidGraph) AddLowerBound(v symbol.Symbol, m Monoid) error {
	root := g.Find(v.ID)
	g.leq[root] = append(g.leq[root], m)
	if !m.IsVar {
		c, i := Properties(m.Tag)
		b := g.commut[root]
		if c {
			b.min = true
		}
		g.commut[root] = b
		b2 := g.idemp[root]
		if i {
			b2.min = true
		}
		g.idemp[root] = b2
	}
	return g.checkValid(root, m)
}

// AddUpperBound records that v <= m.
func (g *MonoidGraph) AddUpperBound(v symbol.Symbol, m Monoid) error {
	root := g.Find(v.ID)
	g.geq[root] = append(g.geq[root], m)
	if !m.IsVar {
		c, i := Properties(m.Tag)
		b := g.commut[root]
		if !c {
			b.max = false
		}
		g.commut[root] = b
		b2 := g.idemp[root]
		if !i {
			b2.max = false
		}
		g.idemp[root] = b2
	}
	return g.checkValid(root, m)
}

func (g *MonoidGraph) checkValid(root uint64, offending Monoid) error {
	if !g.commut[root].valid() || !g.idemp[root].valid() {
		return &MonoidError{Got: offending, Reason: "commutative/idempotent bounds are contradictory"}
	}
	return nil
}

// Merge unifies two monoid variables' equivalence classes, per spec
// §4.1 "two variables merge their leq/geq sets and propagate to
// neighbours".
func (g *MonoidGraph) Merge(a, b symbol.Symbol) error {
	ra, rb := g.Find(a.ID), g.Find(b.ID)
	if ra == rb {
		return nil
	}
	g.parent[rb] = ra
	g.leq[ra] = append(g.leq[ra], g.leq[rb]...)
	g.geq[ra] = append(g.geq[ra], g.geq[rb]...)

	ca, cb := g.commut[ra], g.commut[rb]
	merged := axisBound{min: ca.min || cb.min, max: ca.max && cb.max}
	g.commut[ra] = merged

	ia, ib := g.idemp[ra], g.idemp[rb]
	mergedI := axisBound{min: ia.min || ib.min, max: ia.max && ib.max}
	g.idemp[ra] = mergedI

	if !merged.valid() || !mergedI.valid() {
		return fmt.Errorf("incompatible monoid variables %s and %s", a, b)
	}

	ta, aOK := g.resolved[ra]
	tb, bOK := g.resolved[rb]
	switch {
	case aOK && bOK && ta != tb:
		return &MonoidError{Monoid: ta, Got: Concrete(tb), Reason: "merged variables resolved to different monoids"}
	case bOK:
		g.resolved[ra] = tb
	}
	return nil
}

// Resolve pins a monoid variable's equivalence class to a concrete
// tag, the kernel-level counterpart of bindType/bindAtts for type and
// attribute variables (spec §4.1 invariant 4: once a variable is
// unified with a concrete monoid, it resolves to that monoid). It
// fails if the tag violates the class's current bounds or conflicts
// with an earlier resolution.
func (g *MonoidGraph) Resolve(v symbol.Symbol, t MonoidTag) error {
	root := g.Find(v.ID)
	if existing, ok := g.resolved[root]; ok {
		if existing != t {
			return &MonoidError{Monoid: existing, Got: Concrete(t), Reason: "variable already resolved to a different monoid"}
		}
		return nil
	}
	if !g.Permits(v, t) {
		return &MonoidError{Got: Concrete(t), Reason: "tag violates commutative/idempotent bounds"}
	}
	g.resolved[root] = t
	return nil
}

// ResolvedTag reports the concrete tag a variable's equivalence class
// has been pinned to, if any.
func (g *MonoidGraph) ResolvedTag(v symbol.Symbol) (MonoidTag, bool) {
	root := g.Find(v.ID)
	t, ok := g.resolved[root]
	return t, ok
}

// Permits reports whether a concrete tag satisfies a variable's
// current bounds (used when resolving the variable to that tag).
func (g *MonoidGraph) Permits(v symbol.Symbol, t MonoidTag) bool {
	root := g.Find(v.ID)
	c, i := Properties(t)
	cb, ib := g.commut[root], g.idemp[root]
	if cb.min && !c {
		return false
	}
	if !cb.max && c {
		return false
	}
	if ib.min && !i {
		return false
	}
	if !ib.max && i {
		return false
	}
	return true
}
