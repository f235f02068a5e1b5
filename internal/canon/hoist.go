package canon

import "github.com/sunholo/queryc/internal/ast"

// hoistNested implements spec §4.4 "nested comprehension hoisting":
// `Comp(m1, qs1, for (...) yield m2 e2)` where the inner monoid is the
// same collection monoid as the outer folds the inner generators and
// predicates into the outer qualifier list — the standard
// normalization-by-monoid-laws flattening of a comprehension of
// comprehensions.
func (c *Canonicalizer) hoistNested(e ast.Expr) (ast.Expr, bool) {
	outer, ok := e.(*ast.Comp)
	if !ok {
		return e, false
	}
	inner, ok := outer.Yield.(*ast.Comp)
	if !ok || inner.Monoid != outer.Monoid {
		return e, false
	}

	quals := make([]ast.Qualifier, 0, len(outer.Quals)+len(inner.Quals))
	quals = append(quals, outer.Quals...)
	quals = append(quals, inner.Quals...)

	merged := &ast.Comp{Monoid: outer.Monoid, Quals: quals, Yield: inner.Yield, Pos: outer.Pos}
	return c.setSameType(merged, e), true
}
