// Package analyzer implements the semantic analyzer of spec §4.2: for
// a calculus tree and a catalog World it resolves every identifier to
// an entity, infers a type for every expression, and accumulates
// structured errors rather than aborting on the first failure.
package analyzer

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/catalog"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/errors"
	"github.com/sunholo/queryc/internal/kernel"
	"github.com/sunholo/queryc/internal/symbol"
)

// Result is the output of Analyze: side tables keyed by node identity
// rather than fields mutated onto the tree (spec §9 "from memoized
// tree attributes to explicit analysis results").
type Result struct {
	State    *kernel.State
	Entities map[ast.Node]entity.Entity
	Types    map[ast.Expr]kernel.Type
	Errors   []*errors.Report
}

// analyzer carries the mutable state threaded through a single
// Analyze call: the kernel state, the catalog, and the side tables of
// Result under construction.
type analyzer struct {
	state    *kernel.State
	world    *catalog.World
	entities map[ast.Node]entity.Entity
	types    map[ast.Expr]kernel.Type
	errs     []*errors.Report
}

// Analyze runs the semantic analyzer over tree against world.
func Analyze(tree ast.Expr, world *catalog.World) *Result {
	a := &analyzer{
		state:    kernel.NewState(symbol.NewTable()),
		world:    world,
		entities: map[ast.Node]entity.Entity{},
		types:    map[ast.Expr]kernel.Type{},
	}
	chains := entity.NewChains()
	a.infer(tree, chains)
	if len(a.errs) == 0 {
		a.propagateNullability(tree)
	}
	return &Result{State: a.state, Entities: a.entities, Types: a.types, Errors: a.errs}
}

func (a *analyzer) report(r *errors.Report) {
	a.errs = append(a.errs, r)
}

// unify wraps State.Unify, converting a failure into an accumulated
// Report and substituting AnyType for t1 so downstream constraints can
// still be attempted (spec §7 "propagation policy").
func (a *analyzer) unify(t1, t2 kernel.Type, pos1, pos2 ast.Pos) kernel.Type {
	if err := a.state.Unify(t1, t2, pos1.String(), pos2.String()); err != nil {
		a.report(errors.FromUnifyError(err, errors.PhaseAnalyzer, pos1))
		return kernel.NewAnyType()
	}
	return t1
}

func (a *analyzer) unifyMonoidLE(m1, m2 kernel.Monoid, pos ast.Pos) {
	if err := a.state.UnifyMonoidLE(m1, m2); err != nil {
		a.report(errors.FromUnifyError(err, errors.PhaseAnalyzer, pos))
	}
}

// setType records the inferred type for an expression node and
// returns it, so inference methods can both annotate and return in
// one call.
func (a *analyzer) setType(e ast.Expr, t kernel.Type) kernel.Type {
	a.types[e] = t
	return t
}

func (a *analyzer) typeOf(e ast.Expr) kernel.Type {
	if t, ok := a.types[e]; ok {
		return t
	}
	return kernel.NewAnyType()
}

// monoidTag converts a surface MonoidKind into a kernel Monoid,
// allocating a fresh monoid variable for MonoidVariable (and for any
// kind not listed), so the conversion is total.
func (a *analyzer) monoidTag(m ast.MonoidKind) kernel.Monoid {
	switch m {
	case ast.SumMonoid:
		return kernel.Concrete(kernel.SumMonoid)
	case ast.MultiplyMonoid:
		return kernel.Concrete(kernel.MultiplyMonoid)
	case ast.MaxMonoid:
		return kernel.Concrete(kernel.MaxMonoid)
	case ast.MinMonoid:
		return kernel.Concrete(kernel.MinMonoid)
	case ast.AndMonoid:
		return kernel.Concrete(kernel.AndMonoid)
	case ast.OrMonoid:
		return kernel.Concrete(kernel.OrMonoid)
	case ast.SetMonoid:
		return kernel.Concrete(kernel.SetMonoid)
	case ast.BagMonoid:
		return kernel.Concrete(kernel.BagMonoid)
	case ast.ListMonoid:
		return kernel.Concrete(kernel.ListMonoid)
	default:
		return a.state.FreshMonoidVar()
	}
}
