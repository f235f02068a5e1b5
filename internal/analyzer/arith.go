package analyzer

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/kernel"
)

// inferBinary types a binary operator application per spec §4.1: the
// comparison operators take two unifiable operands and yield bool; the
// boolean connectives take/yield bool; the arithmetic operators
// constrain both operands to a shared numeric variable.
func (a *analyzer) inferBinary(n *ast.BinaryExp, chains *entity.Chains) kernel.Type {
	leftT := a.infer(n.Left, chains)
	rightT := a.infer(n.Right, chains)

	switch n.Op {
	case ast.OpAnd, ast.OpOr:
		a.unify(leftT, kernel.NewPrimitive(kernel.TBool), n.Left.Position(), n.Pos)
		a.unify(rightT, kernel.NewPrimitive(kernel.TBool), n.Right.Position(), n.Pos)
		return kernel.NewPrimitive(kernel.TBool)

	case ast.OpEq, ast.OpNeq:
		a.unify(leftT, rightT, n.Left.Position(), n.Right.Position())
		return kernel.NewPrimitive(kernel.TBool)

	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		a.unify(leftT, rightT, n.Left.Position(), n.Right.Position())
		return kernel.NewPrimitive(kernel.TBool)

	default: // arithmetic: +, -, *, /
		num := a.state.FreshNumberVar()
		a.unify(leftT, num, n.Left.Position(), n.Pos)
		a.unify(rightT, num, n.Right.Position(), n.Pos)
		return num
	}
}

// inferUnary types a unary operator application. The to_bag/to_list/
// to_set conversions re-tag a collection's monoid without touching its
// inner type.
func (a *analyzer) inferUnary(n *ast.UnaryExp, chains *entity.Chains) kernel.Type {
	srcT := a.infer(n.Exp, chains)
	switch n.Op {
	case ast.OpNot:
		a.unify(srcT, kernel.NewPrimitive(kernel.TBool), n.Exp.Position(), n.Pos)
		return kernel.NewPrimitive(kernel.TBool)
	case ast.OpNeg:
		num := a.state.FreshNumberVar()
		a.unify(srcT, num, n.Exp.Position(), n.Pos)
		return num
	default: // OpToBag, OpToList, OpToSet
		inner := a.state.FreshTypeVar()
		a.unify(srcT, kernel.NewCollection(a.state.FreshMonoidVar(), inner), n.Exp.Position(), n.Pos)
		tag := kernel.BagMonoid
		switch n.Op {
		case ast.OpToList:
			tag = kernel.ListMonoid
		case ast.OpToSet:
			tag = kernel.SetMonoid
		}
		return kernel.NewCollection(kernel.Concrete(tag), inner)
	}
}

// inferMergeMonoid types `merge(monoid, l, r)`: both operands and the
// result share one type, constrained to be a valid carrier of monoid.
func (a *analyzer) inferMergeMonoid(n *ast.MergeMonoid, chains *entity.Chains) kernel.Type {
	leftT := a.infer(n.Left, chains)
	rightT := a.infer(n.Right, chains)
	result := a.unify(leftT, rightT, n.Left.Position(), n.Right.Position())
	if n.Monoid.IsCollection() {
		inner := a.state.FreshTypeVar()
		a.unify(result, kernel.NewCollection(a.monoidTag(n.Monoid), inner), n.Pos, n.Pos)
		return result
	}
	num := a.state.FreshNumberVar()
	switch n.Monoid {
	case ast.AndMonoid, ast.OrMonoid:
		a.unify(result, kernel.NewPrimitive(kernel.TBool), n.Pos, n.Pos)
	default:
		a.unify(result, num, n.Pos, n.Pos)
	}
	return result
}

// inferConsCollectionMonoid types `cons(monoid, head, tail)`: tail is a
// collection of monoid whose inner type unifies with head's type.
func (a *analyzer) inferConsCollectionMonoid(n *ast.ConsCollectionMonoid, chains *entity.Chains) kernel.Type {
	headT := a.infer(n.Head, chains)
	tailT := a.infer(n.Tail, chains)
	result := kernel.NewCollection(a.monoidTag(n.Monoid), headT)
	return a.unify(result, tailT, n.Pos, n.Tail.Position())
}

// inferMultiCons types an explicit collection literal: every element's
// type unifies into one shared inner type.
func (a *analyzer) inferMultiCons(n *ast.MultiCons, chains *entity.Chains) kernel.Type {
	inner := a.state.FreshTypeVar()
	var innerT kernel.Type = inner
	for _, el := range n.Elems {
		elT := a.infer(el, chains)
		innerT = a.unify(innerT, elT, n.Pos, el.Position())
	}
	return kernel.NewCollection(a.monoidTag(n.Monoid), innerT)
}

// inferFunAbs types a lambda: the pattern gets a fresh type bound in a
// child scope, the body is inferred in that scope, and the function
// type closes over param/result.
func (a *analyzer) inferFunAbs(n *ast.FunAbs, chains *entity.Chains) kernel.Type {
	child := chains.Extend()
	paramT := a.state.FreshTypeVar()
	a.bindPattern(n.Pattern, paramT, child)
	bodyT := a.infer(n.Body, child)
	return kernel.NewFun(paramT, bodyT)
}

// inferExpBlock types `{ binds...; e }`: each Bind is let-polymorphic,
// generalized over variables allocated since its own snapshot, exactly
// as a comprehension's Bind qualifier (spec §4.2 let-polymorphism).
func (a *analyzer) inferExpBlock(n *ast.ExpBlock, chains *entity.Chains) kernel.Type {
	scope := chains.Extend()
	for _, q := range n.Binds {
		bind, ok := q.(*ast.Bind)
		if !ok {
			continue
		}
		a.inferBind(bind, scope)
	}
	return a.infer(n.Exp, scope)
}

// inferInto types `e1 into e2`: e1 must be record-valued, and its
// fields become implicit alias-chain entries visible while typing e2.
func (a *analyzer) inferInto(n *ast.Into, chains *entity.Chains) kernel.Type {
	e1T := a.infer(n.E1, chains)
	av := a.state.FreshAttVar()
	e1Rec := kernel.NewRecord(av)
	a.unify(e1T, e1Rec, n.E1.Position(), n.Pos)

	scope := chains.Extend()
	if walked, ok := a.state.Walk(e1T).(*kernel.Record); ok {
		for i, att := range resolvedAtts(walked.Atts) {
			ent := &entity.IntoAttributeEntity{Attr: att.Idn, Into: n, Index: i, Type: att.Type}
			scope.Alias.Bind(att.Idn, ent, func(string) {})
		}
	}
	return a.infer(n.E2, scope)
}

// resolvedAtts extracts a concrete Att slice out of whichever
// RecordAttributes variant is currently known, returning nothing for
// an attribute variable with no fields discovered yet.
func resolvedAtts(a kernel.RecordAttributes) []kernel.Att {
	switch v := a.(type) {
	case *kernel.Attributes:
		return v.Atts
	case *kernel.AttributesVariable:
		return v.Atts
	default:
		return nil
	}
}
