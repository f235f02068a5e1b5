// Package unnest implements the unnesting algorithm of spec §4.5: the
// driver T(e, u, w, E) that rewrites one canonical comprehension into
// the flat algebra of internal/algebra, plus the supporting Pattern
// bookkeeping, predicate split, and expression/path translation it
// depends on.
package unnest

import (
	"fmt"

	"github.com/sunholo/queryc/internal/algebra"
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/canon"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/errors"
	"github.com/sunholo/queryc/internal/kernel"
)

// state threads the side tables the canonicalizer produced, extended
// with a fresh-symbol counter for C11/C12's hoisted variables.
type state struct {
	types    map[ast.Expr]kernel.Type
	entities map[ast.Node]entity.Entity
	counter  int
	errs     []*errors.Report
}

// Unnest is the unnesting algorithm's entry point: root = T(tree,
// Empty, Empty, Empty), applied to the root comprehension the
// canonicalizer produced.
func Unnest(tree ast.Expr, types map[ast.Expr]kernel.Type, entities map[ast.Node]entity.Entity) (algebra.Node, []*errors.Report) {
	s := &state{types: types, entities: entities}
	comp, ok := tree.(*ast.Comp)
	if !ok {
		s.internal(tree.Position(), "unnester root must be a canonical comprehension, got %T", tree)
		return &algebra.Empty{T: s.typeOf(tree)}, s.errs
	}
	root := s.unnestComp(comp, EmptyPattern{}, EmptyPattern{}, &algebra.Empty{})
	return root, s.errs
}

func (s *state) unnestComp(comp *ast.Comp, u, w Pattern, E algebra.Node) algebra.Node {
	gens, pred := splitQuals(comp.Quals)
	return s.t(gens, pred, comp.Yield, s.monoidOf(comp), u, w, E)
}

// monoidOf resolves a Comp's monoid to its kernel form. The
// authoritative source is the comprehension's own solved Collection
// type (every monoid variable the analyzer introduced has already been
// walked to a concrete tag by the time canonicalization finishes); the
// raw ast.MonoidKind is a fallback for a tree missing that entry.
func (s *state) monoidOf(comp *ast.Comp) kernel.Monoid {
	if t, ok := s.types[comp]; ok {
		if coll, ok := t.(*kernel.Collection); ok {
			return coll.Monoid
		}
	}
	switch comp.Monoid {
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
	case ast.ListMonoid:
		return kernel.Concrete(kernel.ListMonoid)
	default:
		return kernel.Concrete(kernel.BagMonoid)
	}
}

func splitQuals(quals []ast.Qualifier) ([]*ast.Gen, ast.Expr) {
	var gens []*ast.Gen
	var pred ast.Expr
	for _, q := range quals {
		switch n := q.(type) {
		case *ast.Gen:
			gens = append(gens, n)
		case *ast.BoolQualifier:
			pred = n.Exp
		}
	}
	return gens, pred
}

func (s *state) internal(pos ast.Pos, format string, args ...interface{}) {
	s.errs = append(s.errs, errors.Internal(errors.PhaseUnnest, pos, fmt.Sprintf(format, args...)))
}

func (s *state) typeOf(e ast.Expr) kernel.Type {
	if t, ok := s.types[e]; ok {
		return t
	}
	return kernel.NewAnyType()
}

func (s *state) fresh() string {
	s.counter++
	return fmt.Sprintf("$hoist%d", s.counter)
}

// t is the driver, spec §4.5's T(e, u, w, E): e is represented here as
// its three decomposed parts (the not-yet-processed generators, the
// single CNF predicate, and the yield expression) since canonical form
// guarantees every comprehension has exactly that shape.
func (s *state) t(gens []*ast.Gen, pred, yield ast.Expr, monoid kernel.Monoid, u, w Pattern, E algebra.Node) algebra.Node {
	// C11: hoist an independent nested comprehension out of the predicate.
	if pred != nil {
		if inner, ok := s.findIndependentComp(pred, w); ok {
			v := s.fresh()
			vT := s.typeOf(inner)
			newPred := replaceExpr(pred, inner, s.hoistRef(v, vT, inner.Position()))
			childAlgebra := s.unnestComp(inner, w, w, E)
			return s.t(gens, newPred, yield, monoid, u, PairPattern{Left: w, Right: VariablePattern{Var: Variable{Name: v, T: vT}}}, childAlgebra)
		}
	}
	// C12: hoist an independent nested comprehension out of the yield.
	if yield != nil {
		if inner, ok := s.findIndependentComp(yield, w); ok {
			v := s.fresh()
			vT := s.typeOf(inner)
			newYield := replaceExpr(yield, inner, s.hoistRef(v, vT, inner.Position()))
			childAlgebra := s.unnestComp(inner, w, w, E)
			return s.t(gens, pred, newYield, monoid, u, PairPattern{Left: w, Right: VariablePattern{Var: Variable{Name: v, T: vT}}}, childAlgebra)
		}
	}

	if len(gens) == 0 {
		if isEmptyPattern(u) {
			// C5: base case, no outer pattern.
			return &algebra.Reduce{
				Monoid: monoid,
				Elem:   s.translateExpr(yield, w),
				Pred:   s.translateConjunction(flattenConjuncts(pred), w),
				Child:  E,
				T:      kernel.NewCollection(monoid, s.typeOf(yield)),
			}
		}
		// C8: base case, outer pattern present.
		g := reducePattern(w, u)
		return &algebra.Nest{
			Monoid: monoid,
			Elem:   s.translateExpr(yield, w),
			Key:    s.patternExpr(u, w),
			Pred:   s.translateConjunction(flattenConjuncts(pred), w),
			Group:  s.patternExpr(g, w),
			Child:  E,
			T:      kernel.NewCollection(monoid, s.typeOf(yield)),
		}
	}

	gen, rest := gens[0], gens[1:]
	path, ok := canon.PathOf(gen.Src, s.types, s.entities)
	if !ok {
		s.internal(gen.Pos, "generator source is not a canonical path")
		return E
	}
	varName := firstPatternName(gen.Pattern)
	v := Variable{Name: varName, T: s.innerType(s.typeOf(gen.Src))}
	p1, p2, p3 := s.splitPredicate(pred, w, v)
	restPred := rejoin(p3)
	combinedW := PairPattern{Left: w, Right: VariablePattern{Var: v}}

	if vp, ok := path.(*canon.VariablePath); ok {
		if _, isSource := vp.Entity.(*entity.DataSourceEntity); isSource {
			base := &algebra.Select{
				Pred:  s.translateConjunction(p1, VariablePattern{Var: v}),
				Child: &algebra.Scan{Name: vp.Name, T: s.typeOf(gen.Src)},
				T:     s.typeOf(gen.Src),
			}
			if isEmptyNode(E) && isEmptyPattern(w) && isEmptyPattern(u) {
				// C4: first generator, nothing scanned yet.
				return s.t(rest, restPred, yield, monoid, u, VariablePattern{Var: v}, base)
			}
			// C6 / C9: a fresh scan joined against the rows built so far.
			joinPred := s.translateConjunction(p2, combinedW)
			var joined algebra.Node
			if isEmptyPattern(u) {
				joined = &algebra.Join{Pred: joinPred, Left: E, Right: base, T: s.pairType(w, v)}
			} else {
				joined = &algebra.OuterJoin{Pred: joinPred, Left: E, Right: base, T: s.pairTypeRightNullable(w, v)}
			}
			return s.t(rest, restPred, yield, monoid, u, combinedW, joined)
		}
	}

	// C7 / C10: the generator's source is a path off an already bound
	// row (an inner record projection, or a bare reference to a
	// previously bound collection-valued variable) — unnest it.
	pathExpr := s.pathToAlgebraExpr(path, w)
	unnestPred := s.translateConjunction(append(append([]ast.Expr{}, p1...), p2...), combinedW)
	var unnested algebra.Node
	if isEmptyPattern(u) {
		unnested = &algebra.Unnest{Path: pathExpr, Pred: unnestPred, Child: E, T: s.pairType(w, v)}
	} else {
		unnested = &algebra.OuterUnnest{Path: pathExpr, Pred: unnestPred, Child: E, T: s.pairTypeRightNullable(w, v)}
	}
	return s.t(rest, restPred, yield, monoid, u, combinedW, unnested)
}

func rejoin(conjuncts []ast.Expr) ast.Expr {
	if len(conjuncts) == 0 {
		return nil
	}
	out := conjuncts[0]
	for _, c := range conjuncts[1:] {
		out = &ast.BinaryExp{Op: ast.OpAnd, Left: out, Right: c, Pos: out.Position()}
	}
	return out
}

func isEmptyNode(n algebra.Node) bool {
	_, ok := n.(*algebra.Empty)
	return ok
}

func firstPatternName(p ast.Pattern) string {
	names := ast.PatternNames(p)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func (s *state) innerType(t kernel.Type) kernel.Type {
	if coll, ok := t.(*kernel.Collection); ok {
		return coll.Inner
	}
	return kernel.NewAnyType()
}

// pairType builds the record type of the pattern (w, v) together, used
// as a Join/Unnest node's own output type.
func (s *state) pairType(w Pattern, v Variable) kernel.Type {
	vars := append(append([]Variable{}, patternVariables(w)...), v)
	if len(vars) == 1 {
		return vars[0].T
	}
	atts := make([]kernel.Att, len(vars))
	for i, vv := range vars {
		atts[i] = kernel.Att{Idn: fmt.Sprintf("_%d", i+1), Type: vv.T}
	}
	return kernel.NewRecord(&kernel.Attributes{Atts: atts})
}

// pairTypeRightNullable is pairType, but with v (the newly introduced
// right-hand side of an OuterJoin/OuterUnnest) forced nullable: an
// outer join/unnest may produce no match on the right, per spec §4.2.
func (s *state) pairTypeRightNullable(w Pattern, v Variable) kernel.Type {
	return s.pairType(w, Variable{Name: v.Name, T: v.T.SetNullable(true)})
}

// hoistRef builds the IdnExp/entity pair a C11/C12-introduced variable
// is referenced by within the rewritten predicate/yield.
func (s *state) hoistRef(name string, t kernel.Type, pos ast.Pos) ast.Expr {
	idn := &ast.IdnDef{Name: name, Pos: pos}
	use := &ast.IdnUse{Name: name, Pos: pos}
	ent := &entity.VariableEntity{Idn: idn, Type: t}
	s.entities[use] = ent
	e := &ast.IdnExp{Idn: use, Pos: pos}
	s.types[e] = t
	return e
}

// findIndependentComp locates the first nested comprehension in e
// whose free variables are already bound by w — i.e. it does not
// depend on any generator not yet processed, so it can be evaluated as
// a correlated subquery right now (spec §4.5 rules C11/C12).
func (s *state) findIndependentComp(e ast.Expr, w Pattern) (*ast.Comp, bool) {
	wNames := make(map[string]bool)
	for _, v := range patternVariables(w) {
		wNames[v.Name] = true
	}
	var found *ast.Comp
	ast.Walk(e, func(n ast.Node) {
		if found != nil {
			return
		}
		comp, ok := n.(*ast.Comp)
		if !ok || comp == e {
			return
		}
		free := s.freeVarNames(comp)
		for name := range free {
			if !wNames[name] {
				return
			}
		}
		found = comp
	})
	if found == nil {
		return nil, false
	}
	return found, true
}

// replaceExpr rebuilds e with every pointer-identical occurrence of
// target replaced by replacement. Unlike ast.Substitute this matches by
// node identity, not by name, since the thing being replaced is a
// specific nested-comprehension instance rather than a free variable.
func replaceExpr(e, target, replacement ast.Expr) ast.Expr {
	if e == target {
		return replacement
	}
	switch n := e.(type) {
	case *ast.RecordCons:
		atts := make([]ast.RecordAtt, len(n.Atts))
		changed := false
		for i, a := range n.Atts {
			atts[i] = ast.RecordAtt{Idn: a.Idn, Exp: replaceExpr(a.Exp, target, replacement)}
			changed = changed || atts[i].Exp != a.Exp
		}
		if !changed {
			return e
		}
		return &ast.RecordCons{Atts: atts, Pos: n.Pos}
	case *ast.RecordProj:
		exp := replaceExpr(n.Exp, target, replacement)
		if exp == n.Exp {
			return e
		}
		return &ast.RecordProj{Exp: exp, Idn: n.Idn, Pos: n.Pos}
	case *ast.IfThenElse:
		cond, then, els := replaceExpr(n.Cond, target, replacement), replaceExpr(n.Then, target, replacement), replaceExpr(n.Else, target, replacement)
		if cond == n.Cond && then == n.Then && els == n.Else {
			return e
		}
		return &ast.IfThenElse{Cond: cond, Then: then, Else: els, Pos: n.Pos}
	case *ast.BinaryExp:
		l, r := replaceExpr(n.Left, target, replacement), replaceExpr(n.Right, target, replacement)
		if l == n.Left && r == n.Right {
			return e
		}
		return &ast.BinaryExp{Op: n.Op, Left: l, Right: r, Pos: n.Pos}
	case *ast.UnaryExp:
		exp := replaceExpr(n.Exp, target, replacement)
		if exp == n.Exp {
			return e
		}
		return &ast.UnaryExp{Op: n.Op, Exp: exp, Pos: n.Pos}
	case *ast.MergeMonoid:
		l, r := replaceExpr(n.Left, target, replacement), replaceExpr(n.Right, target, replacement)
		if l == n.Left && r == n.Right {
			return e
		}
		return &ast.MergeMonoid{Monoid: n.Monoid, Left: l, Right: r, Pos: n.Pos}
	case *ast.ConsCollectionMonoid:
		h, t := replaceExpr(n.Head, target, replacement), replaceExpr(n.Tail, target, replacement)
		if h == n.Head && t == n.Tail {
			return e
		}
		return &ast.ConsCollectionMonoid{Monoid: n.Monoid, Head: h, Tail: t, Pos: n.Pos}
	case *ast.MultiCons:
		elems := make([]ast.Expr, len(n.Elems))
		changed := false
		for i, el := range n.Elems {
			elems[i] = replaceExpr(el, target, replacement)
			changed = changed || elems[i] != el
		}
		if !changed {
			return e
		}
		return &ast.MultiCons{Monoid: n.Monoid, Elems: elems, Pos: n.Pos}
	default:
		// Comp and every other node kind is either the hoisted target
		// itself (already handled above) or opaque to this rewrite —
		// predicates/yields past canonicalization don't nest
		// FunApp/ExpBlock/Select.
		return e
	}
}
