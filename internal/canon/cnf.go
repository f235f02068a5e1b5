package canon

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/kernel"
)

func boolType() kernel.Type { return kernel.NewPrimitive(kernel.TBool) }

// collapsePredicate implements spec §4.4 "predicate CNF": every
// boolean qualifier of a comprehension is AND-joined, converted to
// CNF, and stored as the single trailing qualifier. A comprehension
// with no boolean qualifier gets a trailing `BoolConst(true)`.
func (c *Canonicalizer) collapsePredicate(e ast.Expr) (ast.Expr, bool) {
	n, ok := e.(*ast.Comp)
	if !ok {
		return e, false
	}
	boolCount, lastIsBool := 0, false
	for i, q := range n.Quals {
		if _, ok := q.(*ast.BoolQualifier); ok {
			boolCount++
			lastIsBool = i == len(n.Quals)-1
		}
	}
	if boolCount == 1 && lastIsBool {
		return e, false
	}

	gens := make([]ast.Qualifier, 0, len(n.Quals))
	var conjuncts []ast.Expr
	for _, q := range n.Quals {
		if bq, ok := q.(*ast.BoolQualifier); ok {
			conjuncts = append(conjuncts, bq.Exp)
			continue
		}
		gens = append(gens, q)
	}

	var pred ast.Expr
	if len(conjuncts) == 0 {
		pred = &ast.BoolConst{Value: true, Pos: n.Pos}
		c.types[pred] = boolType()
	} else {
		combined := conjuncts[0]
		for _, conj := range conjuncts[1:] {
			combined = c.and(combined, conj, n.Pos)
		}
		pred = c.toCNF(combined)
	}

	quals := append(gens, &ast.BoolQualifier{Exp: pred, Pos: n.Pos})
	return c.setSameType(&ast.Comp{Monoid: n.Monoid, Quals: quals, Yield: n.Yield, Pos: n.Pos}, e), true
}

func (c *Canonicalizer) and(l, r ast.Expr, pos ast.Pos) ast.Expr {
	out := &ast.BinaryExp{Op: ast.OpAnd, Left: l, Right: r, Pos: pos}
	c.types[out] = boolType()
	return out
}

func (c *Canonicalizer) or(l, r ast.Expr, pos ast.Pos) ast.Expr {
	out := &ast.BinaryExp{Op: ast.OpOr, Left: l, Right: r, Pos: pos}
	c.types[out] = boolType()
	return out
}

// toCNF recursively pushes OR inside AND (distributivity) so the
// result is a conjunction of disjunctions of literals. NOT is pushed
// to the leaves first via De Morgan's laws.
func (c *Canonicalizer) toCNF(e ast.Expr) ast.Expr {
	e = c.pushNotIn(e)
	return c.distribute(e)
}

func (c *Canonicalizer) pushNotIn(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.BinaryExp:
		if n.Op == ast.OpAnd || n.Op == ast.OpOr {
			l, r := c.pushNotIn(n.Left), c.pushNotIn(n.Right)
			if l == n.Left && r == n.Right {
				return e
			}
			out := &ast.BinaryExp{Op: n.Op, Left: l, Right: r, Pos: n.Pos}
			c.types[out] = boolType()
			return out
		}
		return e
	case *ast.UnaryExp:
		if n.Op != ast.OpNot {
			return e
		}
		switch inner := n.Exp.(type) {
		case *ast.UnaryExp:
			if inner.Op == ast.OpNot {
				return c.pushNotIn(inner.Exp)
			}
		case *ast.BinaryExp:
			if inner.Op == ast.OpAnd {
				return c.distribute(c.or(c.negate(inner.Left, n.Pos), c.negate(inner.Right, n.Pos), n.Pos))
			}
			if inner.Op == ast.OpOr {
				return c.and(c.negate(inner.Left, n.Pos), c.negate(inner.Right, n.Pos), n.Pos)
			}
		}
		return e
	default:
		return e
	}
}

func (c *Canonicalizer) negate(e ast.Expr, pos ast.Pos) ast.Expr {
	n := c.pushNotIn(&ast.UnaryExp{Op: ast.OpNot, Exp: e, Pos: pos})
	c.types[n] = boolType()
	return n
}

// distribute applies `a or (b and c) == (a or b) and (a or c)` (and
// the symmetric case) until no OR node has an AND child.
func (c *Canonicalizer) distribute(e ast.Expr) ast.Expr {
	n, ok := e.(*ast.BinaryExp)
	if !ok {
		return e
	}
	l, r := c.distribute(n.Left), c.distribute(n.Right)

	if n.Op == ast.OpAnd {
		if l == n.Left && r == n.Right {
			return e
		}
		return c.and(l, r, n.Pos)
	}
	if n.Op != ast.OpOr {
		return e
	}
	if rAnd, ok := r.(*ast.BinaryExp); ok && rAnd.Op == ast.OpAnd {
		return c.distribute(c.and(c.or(l, rAnd.Left, n.Pos), c.or(l, rAnd.Right, n.Pos), n.Pos))
	}
	if lAnd, ok := l.(*ast.BinaryExp); ok && lAnd.Op == ast.OpAnd {
		return c.distribute(c.and(c.or(lAnd.Left, r, n.Pos), c.or(lAnd.Right, r, n.Pos), n.Pos))
	}
	if l == n.Left && r == n.Right {
		return e
	}
	return c.or(l, r, n.Pos)
}
