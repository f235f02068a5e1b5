package unnest

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
)

// flattenConjuncts splits a CNF predicate's top-level AND chain into
// its conjuncts; a predicate with no top-level AND is its own single
// conjunct (possibly itself a disjunction, which CNF guarantees holds
// no further AND inside it).
func flattenConjuncts(e ast.Expr) []ast.Expr {
	if e == nil {
		return nil
	}
	if b, ok := e.(*ast.BinaryExp); ok && b.Op == ast.OpAnd {
		return append(flattenConjuncts(b.Left), flattenConjuncts(b.Right)...)
	}
	return []ast.Expr{e}
}

// splitPredicate implements spec §4.5 "predicate split": for the
// comprehension's newest generator variable v (over a pattern already
// holding w), partitions pred's conjuncts into p1 (only v), p2 (v and
// w), and p3 (everything else — touches variables not yet bound, or
// contains a nested comprehension — pushed down to the recursive
// call).
func (s *state) splitPredicate(pred ast.Expr, w Pattern, v Variable) (p1, p2, p3 []ast.Expr) {
	wNames := make(map[string]bool)
	for _, vv := range patternVariables(w) {
		wNames[vv.Name] = true
	}

	for _, c := range flattenConjuncts(pred) {
		if containsNestedComp(c) {
			p3 = append(p3, c)
			continue
		}
		free := s.freeVarNames(c)
		onlyV, touchesW, touchesOther := true, false, false
		for name := range free {
			if name == v.Name {
				continue
			}
			onlyV = false
			if wNames[name] {
				touchesW = true
			} else {
				touchesOther = true
			}
		}
		switch {
		case touchesOther:
			p3 = append(p3, c)
		case onlyV:
			p1 = append(p1, c)
		case touchesW:
			p2 = append(p2, c)
		default:
			// references neither v nor w (a closed predicate): safe to
			// evaluate as soon as v is bound, same as p1.
			p1 = append(p1, c)
		}
	}
	return p1, p2, p3
}

func containsNestedComp(e ast.Expr) bool {
	found := false
	ast.Walk(e, func(n ast.Node) {
		if _, ok := n.(*ast.Comp); ok {
			found = true
		}
	})
	return found
}

// freeVarNames collects every identifier referenced in e that resolves
// to an ordinary bound variable (as opposed to a catalog source).
func (s *state) freeVarNames(e ast.Expr) map[string]bool {
	out := map[string]bool{}
	ast.Walk(e, func(n ast.Node) {
		idn, ok := n.(*ast.IdnExp)
		if !ok {
			return
		}
		ent, ok := s.entities[idn.Idn]
		if !ok {
			return
		}
		if _, ok := ent.(*entity.VariableEntity); ok {
			out[idn.Idn.Name] = true
		}
	})
	return out
}
