package analyzer

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/kernel"
)

// propagateNullability is the second pass of spec §4.2: once base
// inference has produced a type for every node, a node's type is
// nullable if any operand it is built from is itself nullable. It runs
// once, bottom-up, after inference finishes — nullability only ever
// flows from an expression's children to the expression itself, so no
// fixpoint is needed the way unification's constraint solving needs
// one.
//
// It returns whether e's (possibly just-updated) type is nullable, so
// a caller higher up the tree can fold it into its own decision
// without re-reading the types table.
func (a *analyzer) propagateNullability(e ast.Expr) bool {
	if e == nil {
		return false
	}

	childNullable := false
	switch n := e.(type) {
	case *ast.BoolConst, *ast.IntConst, *ast.FloatConst, *ast.StringConst,
		*ast.IdnExp, *ast.Partition, *ast.Star, *ast.ZeroCollectionMonoid:
		// Leaves: a literal is never nullable; IdnExp/Partition/Star
		// already carry whatever nullability their resolved entity's
		// type has (catalog fields, generator inner types), with no
		// further operand to fold in.

	case *ast.RecordCons:
		childNullable = a.rebuildRecord(e, n.Atts)
	case *ast.RecordProj:
		childNullable = a.propagateNullability(n.Exp)
	case *ast.IfThenElse:
		cond := a.propagateNullability(n.Cond)
		then := a.propagateNullability(n.Then)
		els := a.propagateNullability(n.Else)
		childNullable = cond || then || els
	case *ast.BinaryExp:
		l := a.propagateNullability(n.Left)
		r := a.propagateNullability(n.Right)
		childNullable = l || r
	case *ast.UnaryExp:
		childNullable = a.propagateNullability(n.Exp)
	case *ast.MergeMonoid:
		l := a.propagateNullability(n.Left)
		r := a.propagateNullability(n.Right)
		childNullable = l || r
	case *ast.ConsCollectionMonoid:
		h := a.propagateNullability(n.Head)
		tl := a.propagateNullability(n.Tail)
		childNullable = h || tl
	case *ast.MultiCons:
		for _, el := range n.Elems {
			childNullable = a.propagateNullability(el) || childNullable
		}

	case *ast.Comp:
		for _, q := range n.Quals {
			a.propagateQualifierNullability(q)
		}
		childNullable = a.rebuildCollectionInner(e, n.Yield)
	case *ast.Select:
		for i := range n.From {
			a.propagateNullability(n.From[i].Src)
		}
		if n.Where != nil {
			a.propagateNullability(n.Where)
		}
		if n.Having != nil {
			a.propagateNullability(n.Having)
		}
		for _, ob := range n.OrderBy {
			a.propagateNullability(ob.Exp)
		}
		childNullable = a.rebuildCollectionInner(e, n.Proj)

	case *ast.FunAbs:
		childNullable = a.propagateNullability(n.Body)
	case *ast.FunApp:
		f := a.propagateNullability(n.Fun)
		arg := a.propagateNullability(n.Arg)
		childNullable = f || arg
	case *ast.ExpBlock:
		for _, b := range n.Binds {
			a.propagateQualifierNullability(b)
		}
		childNullable = a.propagateNullability(n.Exp)
	case *ast.Into:
		e1 := a.propagateNullability(n.E1)
		e2 := a.propagateNullability(n.E2)
		childNullable = e1 || e2

	case *ast.Sum:
		childNullable = a.propagateNullability(n.Exp)
	case *ast.Max:
		childNullable = a.propagateNullability(n.Exp)
	case *ast.Min:
		childNullable = a.propagateNullability(n.Exp)
	case *ast.Avg:
		childNullable = a.propagateNullability(n.Exp)
	case *ast.Count:
		// Count's own type is an aggregate count, not a pass-through
		// of its source's element value — it is never nullable itself,
		// but its argument still needs visiting so nested expressions
		// get their own nullability recorded.
		a.propagateNullability(n.Exp)
	case *ast.Exists:
		a.propagateNullability(n.Exp)
	case *ast.InExp:
		e1 := a.propagateNullability(n.E1)
		e2 := a.propagateNullability(n.E2)
		childNullable = e1 || e2
	}

	t, ok := a.types[e]
	if !ok {
		return childNullable
	}
	if childNullable && !t.Nullable() {
		t = t.SetNullable(true)
		a.types[e] = t
	}
	return t.Nullable()
}

// rebuildRecord folds each attribute's post-pass nullability into a
// freshly constructed Record, since RecordCons's own stored type
// embeds each attribute's Type object by value at inference time —
// flipping the nullable bit on an attribute after the fact wouldn't
// reach the copy the Record already holds.
func (a *analyzer) rebuildRecord(e ast.Expr, atts []ast.RecordAtt) bool {
	any := false
	newAtts := make([]kernel.Att, len(atts))
	for i, ra := range atts {
		if a.propagateNullability(ra.Exp) {
			any = true
		}
		newAtts[i] = kernel.Att{Idn: ra.Idn, Type: a.types[ra.Exp]}
	}
	if cur, ok := a.types[e].(*kernel.Record); ok {
		var rebuilt kernel.Type = kernel.NewRecord(&kernel.Attributes{Atts: newAtts})
		if cur.Nullable() {
			rebuilt = rebuilt.SetNullable(true)
		}
		a.types[e] = rebuilt
	}
	return any
}

// rebuildCollectionInner visits innerExpr and, if e's own type is a
// Collection, rebuilds it around innerExpr's post-pass type. Comp and
// Select both store their element type by embedding the yield/proj
// expression's Type object at inference time, so a later nullable flip
// on that child's separate types-table entry otherwise never becomes
// visible through the parent's Inner field.
func (a *analyzer) rebuildCollectionInner(e ast.Expr, innerExpr ast.Expr) bool {
	innerNullable := a.propagateNullability(innerExpr)
	cur, ok := a.types[e].(*kernel.Collection)
	if !ok {
		return innerNullable
	}
	var rebuilt kernel.Type = kernel.NewCollection(cur.Monoid, a.types[innerExpr])
	if cur.Nullable() {
		rebuilt = rebuilt.SetNullable(true)
	}
	a.types[e] = rebuilt
	return innerNullable
}

// propagateQualifierNullability visits a qualifier's own source/
// predicate expression so every nested type gets folded in, without
// feeding a generator's or bind's nullability into the comprehension's
// own result (only the Yield does that, per spec §4.2).
func (a *analyzer) propagateQualifierNullability(q ast.Qualifier) {
	switch n := q.(type) {
	case *ast.Gen:
		a.propagateNullability(n.Src)
	case *ast.Bind:
		a.propagateNullability(n.Src)
	case *ast.BoolQualifier:
		a.propagateNullability(n.Exp)
	}
}
