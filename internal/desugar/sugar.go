package desugar

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/kernel"
)

// desugarSugar rewrites the Sum/Max/Min/Avg/Count/Exists/InExp sugar
// operators of spec §4.3 into plain comprehensions. Avg is rewritten
// into a division of Sum by Count rather than directly into a
// comprehension; the fixed-point driver then reduces each of those in
// a later step.
func (d *Desugarer) desugarSugar(e ast.Expr) (ast.Expr, bool) {
	switch n := e.(type) {
	case *ast.Sum:
		return d.aggregateComp(ast.SumMonoid, n.Exp, n.Pos, e), true
	case *ast.Max:
		return d.aggregateComp(ast.MaxMonoid, n.Exp, n.Pos, e), true
	case *ast.Min:
		return d.aggregateComp(ast.MinMonoid, n.Exp, n.Pos, e), true
	case *ast.Avg:
		sum := &ast.Sum{Exp: n.Exp, Pos: n.Pos}
		count := &ast.Count{Exp: n.Exp, Pos: n.Pos}
		d.types[sum] = innerType(d.typeOf(n.Exp))
		d.types[count] = kernel.NewPrimitive(kernel.TInt)
		out := &ast.BinaryExp{Op: ast.OpDiv, Left: sum, Right: count, Pos: n.Pos}
		d.types[out] = kernel.NewPrimitive(kernel.TFloat)
		return out, true
	case *ast.Count:
		fresh := d.fresh("cnt")
		d.declareVar(fresh, innerType(d.typeOf(n.Exp)))
		gen := &ast.Gen{Pattern: &ast.PatternIdn{Idn: fresh}, Src: d.genSource(n.Exp), Pos: n.Pos}
		one := &ast.IntConst{Value: 1, Pos: n.Pos}
		comp := &ast.Comp{Monoid: ast.SumMonoid, Quals: []ast.Qualifier{gen}, Yield: one, Pos: n.Pos}
		d.types[comp] = kernel.NewPrimitive(kernel.TInt)
		return comp, true
	case *ast.Exists:
		fresh := d.fresh("ex")
		d.declareVar(fresh, innerType(d.typeOf(n.Exp)))
		gen := &ast.Gen{Pattern: &ast.PatternIdn{Idn: fresh}, Src: d.genSource(n.Exp), Pos: n.Pos}
		tru := &ast.BoolConst{Value: true, Pos: n.Pos}
		comp := &ast.Comp{Monoid: ast.OrMonoid, Quals: []ast.Qualifier{gen}, Yield: tru, Pos: n.Pos}
		d.types[comp] = kernel.NewPrimitive(kernel.TBool)
		return comp, true
	case *ast.InExp:
		fresh := d.fresh("in")
		elemT := innerType(d.typeOf(n.E2))
		ent := d.declareVar(fresh, elemT)
		gen := &ast.Gen{Pattern: &ast.PatternIdn{Idn: fresh}, Src: d.genSource(n.E2), Pos: n.Pos}
		use := d.useVar(fresh, n.Pos, ent, elemT)
		eq := &ast.BinaryExp{Op: ast.OpEq, Left: use, Right: n.E1, Pos: n.Pos}
		d.types[eq] = kernel.NewPrimitive(kernel.TBool)
		comp := &ast.Comp{Monoid: ast.OrMonoid, Quals: []ast.Qualifier{gen}, Yield: eq, Pos: n.Pos}
		d.types[comp] = kernel.NewPrimitive(kernel.TBool)
		return comp, true
	default:
		return e, false
	}
}

// aggregateComp builds `for (x <- src) yield m x` for Sum/Max/Min,
// converting a set-typed source to a bag first so duplicates count
// (spec §4.3).
func (d *Desugarer) aggregateComp(m ast.MonoidKind, src ast.Expr, pos ast.Pos, orig ast.Expr) ast.Expr {
	elemT := innerType(d.typeOf(src))
	fresh := d.fresh("agg")
	ent := d.declareVar(fresh, elemT)
	gen := &ast.Gen{Pattern: &ast.PatternIdn{Idn: fresh}, Src: d.genSource(src), Pos: pos}
	use := d.useVar(fresh, pos, ent, elemT)
	comp := &ast.Comp{Monoid: m, Quals: []ast.Qualifier{gen}, Yield: use, Pos: pos}
	d.types[comp] = elemT
	return comp
}

// genSource wraps src in a to_bag conversion when its type is known to
// be a set, per spec §4.3's ToBag-before-Sum rule.
func (d *Desugarer) genSource(src ast.Expr) ast.Expr {
	t := d.typeOf(src)
	if !isSetTyped(t) {
		return src
	}
	coll := t.(*kernel.Collection)
	wrapped := &ast.UnaryExp{Op: ast.OpToBag, Exp: src, Pos: src.Position()}
	d.types[wrapped] = kernel.NewCollection(kernel.Concrete(kernel.BagMonoid), coll.Inner)
	return wrapped
}
