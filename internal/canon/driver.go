package canon

import "github.com/sunholo/queryc/internal/ast"

// stepChildren recurses into e's immediate children, rewriting each
// with step, and only reconstructs e if a child actually changed (so
// unchanged subtrees keep their node identity and side-table entries).
func (c *Canonicalizer) stepChildren(e ast.Expr) (ast.Expr, bool) {
	switch n := e.(type) {
	case *ast.BoolConst, *ast.IntConst, *ast.FloatConst, *ast.StringConst, *ast.IdnExp,
		*ast.Partition, *ast.Star, *ast.ZeroCollectionMonoid:
		return e, false

	case *ast.RecordCons:
		changed := false
		atts := make([]ast.RecordAtt, len(n.Atts))
		for i, a := range n.Atts {
			ne, ch := c.step(a.Exp)
			atts[i] = ast.RecordAtt{Idn: a.Idn, Exp: ne}
			changed = changed || ch
		}
		if !changed {
			return e, false
		}
		return c.setSameType(&ast.RecordCons{Atts: atts, Pos: n.Pos}, e), true

	case *ast.RecordProj:
		ne, ch := c.step(n.Exp)
		if !ch {
			return e, false
		}
		return c.setSameType(&ast.RecordProj{Exp: ne, Idn: n.Idn, Pos: n.Pos}, e), true

	case *ast.IfThenElse:
		cond, c1 := c.step(n.Cond)
		then, c2 := c.step(n.Then)
		els, c3 := c.step(n.Else)
		if !c1 && !c2 && !c3 {
			return e, false
		}
		return c.setSameType(&ast.IfThenElse{Cond: cond, Then: then, Else: els, Pos: n.Pos}, e), true

	case *ast.BinaryExp:
		l, c1 := c.step(n.Left)
		r, c2 := c.step(n.Right)
		if !c1 && !c2 {
			return e, false
		}
		return c.setSameType(&ast.BinaryExp{Op: n.Op, Left: l, Right: r, Pos: n.Pos}, e), true

	case *ast.UnaryExp:
		x, ch := c.step(n.Exp)
		if !ch {
			return e, false
		}
		return c.setSameType(&ast.UnaryExp{Op: n.Op, Exp: x, Pos: n.Pos}, e), true

	case *ast.MergeMonoid:
		l, c1 := c.step(n.Left)
		r, c2 := c.step(n.Right)
		if !c1 && !c2 {
			return e, false
		}
		return c.setSameType(&ast.MergeMonoid{Monoid: n.Monoid, Left: l, Right: r, Pos: n.Pos}, e), true

	case *ast.ConsCollectionMonoid:
		h, c1 := c.step(n.Head)
		t, c2 := c.step(n.Tail)
		if !c1 && !c2 {
			return e, false
		}
		return c.setSameType(&ast.ConsCollectionMonoid{Monoid: n.Monoid, Head: h, Tail: t, Pos: n.Pos}, e), true

	case *ast.MultiCons:
		changed := false
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			ne, ch := c.step(el)
			elems[i] = ne
			changed = changed || ch
		}
		if !changed {
			return e, false
		}
		return c.setSameType(&ast.MultiCons{Monoid: n.Monoid, Elems: elems, Pos: n.Pos}, e), true

	case *ast.Comp:
		changed := false
		quals := make([]ast.Qualifier, len(n.Quals))
		for i, q := range n.Quals {
			nq, ch := c.stepQualifier(q)
			quals[i] = nq
			changed = changed || ch
		}
		yield, ch := c.step(n.Yield)
		changed = changed || ch
		if !changed {
			return e, false
		}
		return c.setSameType(&ast.Comp{Monoid: n.Monoid, Quals: quals, Yield: yield, Pos: n.Pos}, e), true

	case *ast.FunAbs:
		body, ch := c.step(n.Body)
		if !ch {
			return e, false
		}
		return c.setSameType(&ast.FunAbs{Pattern: n.Pattern, Body: body, Pos: n.Pos}, e), true

	case *ast.FunApp:
		f, c1 := c.step(n.Fun)
		a, c2 := c.step(n.Arg)
		if !c1 && !c2 {
			return e, false
		}
		return c.setSameType(&ast.FunApp{Fun: f, Arg: a, Pos: n.Pos}, e), true

	case *ast.ExpBlock:
		changed := false
		binds := make([]ast.Qualifier, len(n.Binds))
		for i, b := range n.Binds {
			nb, ch := c.stepQualifier(b)
			binds[i] = nb
			changed = changed || ch
		}
		body, ch := c.step(n.Exp)
		changed = changed || ch
		if !changed {
			return e, false
		}
		return c.setSameType(&ast.ExpBlock{Binds: binds, Exp: body, Pos: n.Pos}, e), true

	case *ast.Into:
		e1, c1 := c.step(n.E1)
		e2, c2 := c.step(n.E2)
		if !c1 && !c2 {
			return e, false
		}
		return c.setSameType(&ast.Into{E1: e1, E2: e2, Pos: n.Pos}, e), true

	default:
		return e, false
	}
}

func (c *Canonicalizer) stepQualifier(q ast.Qualifier) (ast.Qualifier, bool) {
	switch n := q.(type) {
	case *ast.Gen:
		src, ch := c.step(n.Src)
		if !ch {
			return q, false
		}
		return &ast.Gen{Pattern: n.Pattern, Src: src, Pos: n.Pos}, true
	case *ast.Bind:
		src, ch := c.step(n.Src)
		if !ch {
			return q, false
		}
		return &ast.Bind{Pattern: n.Pattern, Src: src, Pos: n.Pos}, true
	case *ast.BoolQualifier:
		exp, ch := c.step(n.Exp)
		if !ch {
			return q, false
		}
		return &ast.BoolQualifier{Exp: exp, Pos: n.Pos}, true
	default:
		return q, false
	}
}
