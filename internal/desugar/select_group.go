package desugar

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/kernel"
)

// desugarSelectGroup implements spec §4.3 "SELECT with group-by": every
// `partition` occurrence in the projection is replaced by an
// independently-built clone of a sub-query scanning the same FROM
// items, correlated to the enclosing row by an equality predicate on
// the GROUP BY key, and the Select's own GroupBy is then dropped so a
// later rule can flatten it like an ungrouped SELECT.
func (d *Desugarer) desugarSelectGroup(e ast.Expr) (ast.Expr, bool) {
	n, ok := e.(*ast.Select)
	if !ok || n.GroupBy == nil {
		return e, false
	}
	newProj, _ := d.replacePartitions(n.Proj, n)
	out := &ast.Select{
		From: n.From, Distinct: n.Distinct, GroupBy: nil, Proj: newProj,
		Where: n.Where, OrderBy: n.OrderBy, Having: n.Having, Pos: n.Pos,
	}
	return d.setSameType(out, e), true
}

// replacePartitions walks e looking for *ast.Partition leaves,
// replacing each with a freshly built partition sub-query (spec:
// "Substitute every Partition occurrence ... by a deep clone of this
// sub-query" — building fresh each time is equivalent to cloning,
// since every identifier it introduces is already drawn fresh).
func (d *Desugarer) replacePartitions(e ast.Expr, sel *ast.Select) (ast.Expr, bool) {
	switch n := e.(type) {
	case *ast.Partition:
		return d.buildPartitionQuery(sel), true

	case *ast.BoolConst, *ast.IntConst, *ast.FloatConst, *ast.StringConst, *ast.IdnExp, *ast.Star:
		return e, false

	case *ast.RecordCons:
		changed := false
		atts := make([]ast.RecordAtt, len(n.Atts))
		for i, a := range n.Atts {
			ne, c := d.replacePartitions(a.Exp, sel)
			atts[i] = ast.RecordAtt{Idn: a.Idn, Exp: ne}
			changed = changed || c
		}
		if !changed {
			return e, false
		}
		return d.setSameType(&ast.RecordCons{Atts: atts, Pos: n.Pos}, e), true

	case *ast.RecordProj:
		ne, c := d.replacePartitions(n.Exp, sel)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.RecordProj{Exp: ne, Idn: n.Idn, Pos: n.Pos}, e), true

	case *ast.IfThenElse:
		cond, c1 := d.replacePartitions(n.Cond, sel)
		then, c2 := d.replacePartitions(n.Then, sel)
		els, c3 := d.replacePartitions(n.Else, sel)
		if !c1 && !c2 && !c3 {
			return e, false
		}
		return d.setSameType(&ast.IfThenElse{Cond: cond, Then: then, Else: els, Pos: n.Pos}, e), true

	case *ast.BinaryExp:
		l, c1 := d.replacePartitions(n.Left, sel)
		r, c2 := d.replacePartitions(n.Right, sel)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.BinaryExp{Op: n.Op, Left: l, Right: r, Pos: n.Pos}, e), true

	case *ast.UnaryExp:
		x, c := d.replacePartitions(n.Exp, sel)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.UnaryExp{Op: n.Op, Exp: x, Pos: n.Pos}, e), true

	case *ast.MergeMonoid:
		l, c1 := d.replacePartitions(n.Left, sel)
		r, c2 := d.replacePartitions(n.Right, sel)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.MergeMonoid{Monoid: n.Monoid, Left: l, Right: r, Pos: n.Pos}, e), true

	case *ast.ConsCollectionMonoid:
		h, c1 := d.replacePartitions(n.Head, sel)
		t, c2 := d.replacePartitions(n.Tail, sel)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.ConsCollectionMonoid{Monoid: n.Monoid, Head: h, Tail: t, Pos: n.Pos}, e), true

	case *ast.MultiCons:
		changed := false
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			ne, c := d.replacePartitions(el, sel)
			elems[i] = ne
			changed = changed || c
		}
		if !changed {
			return e, false
		}
		return d.setSameType(&ast.MultiCons{Monoid: n.Monoid, Elems: elems, Pos: n.Pos}, e), true

	case *ast.Comp:
		changed := false
		quals := make([]ast.Qualifier, len(n.Quals))
		for i, q := range n.Quals {
			nq, c := d.replacePartitionsQual(q, sel)
			quals[i] = nq
			changed = changed || c
		}
		yield, c := d.replacePartitions(n.Yield, sel)
		changed = changed || c
		if !changed {
			return e, false
		}
		return d.setSameType(&ast.Comp{Monoid: n.Monoid, Quals: quals, Yield: yield, Pos: n.Pos}, e), true

	case *ast.FunApp:
		f, c1 := d.replacePartitions(n.Fun, sel)
		a, c2 := d.replacePartitions(n.Arg, sel)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.FunApp{Fun: f, Arg: a, Pos: n.Pos}, e), true

	case *ast.Into:
		e1, c1 := d.replacePartitions(n.E1, sel)
		e2, c2 := d.replacePartitions(n.E2, sel)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.Into{E1: e1, E2: e2, Pos: n.Pos}, e), true

	default:
		return e, false
	}
}

func (d *Desugarer) replacePartitionsQual(q ast.Qualifier, sel *ast.Select) (ast.Qualifier, bool) {
	switch n := q.(type) {
	case *ast.Gen:
		ne, c := d.replacePartitions(n.Src, sel)
		if !c {
			return q, false
		}
		return &ast.Gen{Pattern: n.Pattern, Src: ne, Pos: n.Pos}, true
	case *ast.Bind:
		ne, c := d.replacePartitions(n.Src, sel)
		if !c {
			return q, false
		}
		return &ast.Bind{Pattern: n.Pattern, Src: ne, Pos: n.Pos}, true
	case *ast.BoolQualifier:
		ne, c := d.replacePartitions(n.Exp, sel)
		if !c {
			return q, false
		}
		return &ast.BoolQualifier{Exp: ne, Pos: n.Pos}, true
	default:
		return q, false
	}
}

// buildPartitionQuery constructs one fresh instance of the partition
// sub-query for sel: a scan over fresh copies of every FROM item,
// restricted by sel's own WHERE and by equality between the
// sub-query's own GROUP BY key and the enclosing row's (spec §4.3).
func (d *Desugarer) buildPartitionQuery(sel *ast.Select) ast.Expr {
	cp := d.copyFn()
	quals := make([]ast.Qualifier, 0, len(sel.From)+2)
	rowAtts := make([]ast.RecordAtt, 0, len(sel.From))
	var singleUse ast.Expr
	var singleT kernel.Type

	var keySubst ast.Expr = sel.GroupBy
	var whereSubst ast.Expr = sel.Where

	for _, item := range sel.From {
		innerT := innerType(d.typeOf(item.Src))
		fresh := d.fresh("pg")
		ent := d.declareVar(fresh, innerT)
		quals = append(quals, &ast.Gen{Pattern: &ast.PatternIdn{Idn: fresh}, Src: item.Src, Pos: sel.Pos})
		use := d.useVar(fresh, sel.Pos, ent, innerT)

		singleUse, singleT = use, innerT
		rowAtts = append(rowAtts, ast.RecordAtt{Idn: fresh.Name, Exp: use})

		if item.Alias != nil {
			if keySubst != nil {
				keySubst = ast.Substitute(keySubst, item.Alias.Name, use, cp)
			}
			if whereSubst != nil {
				whereSubst = ast.Substitute(whereSubst, item.Alias.Name, use, cp)
			}
		}
	}

	if whereSubst != nil {
		quals = append(quals, &ast.BoolQualifier{Exp: whereSubst, Pos: sel.Pos})
	}
	if keySubst != nil {
		pred := &ast.BinaryExp{Op: ast.OpEq, Left: keySubst, Right: sel.GroupBy, Pos: sel.Pos}
		d.types[pred] = kernel.NewPrimitive(kernel.TBool)
		quals = append(quals, &ast.BoolQualifier{Exp: pred, Pos: sel.Pos})
	}

	var yield ast.Expr
	var rowType kernel.Type
	if len(sel.From) == 1 {
		yield, rowType = singleUse, singleT
	} else {
		atts := make([]kernel.Att, len(rowAtts))
		for i, a := range rowAtts {
			atts[i] = kernel.Att{Idn: a.Idn, Type: d.typeOf(a.Exp)}
		}
		yield = &ast.RecordCons{Atts: rowAtts, Pos: sel.Pos}
		rowType = kernel.NewRecord(&kernel.Attributes{Atts: atts})
		d.types[yield] = rowType
	}

	comp := &ast.Comp{Monoid: ast.BagMonoid, Quals: quals, Yield: yield, Pos: sel.Pos}
	d.types[comp] = kernel.NewCollection(kernel.Concrete(kernel.BagMonoid), rowType)
	return comp
}
