package analyzer

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/kernel"
)

// inferComp types the universal comprehension `for (quals) yield m e`
// (spec §3.3, §4.2): qualifiers extend a child scope left to right,
// the comprehension's own monoid bounds every generator's source
// monoid from above, and the result is a Collection of that monoid
// wrapping the yield's type.
func (a *analyzer) inferComp(n *ast.Comp, chains *entity.Chains) kernel.Type {
	scope := chains.Extend()
	resultMonoid := a.monoidTag(n.Monoid)

	for _, q := range n.Quals {
		switch qual := q.(type) {
		case *ast.Gen:
			a.inferGen(qual, resultMonoid, scope)
		case *ast.Bind:
			a.inferBind(qual, scope)
		case *ast.BoolQualifier:
			predT := a.infer(qual.Exp, scope)
			a.unify(predT, kernel.NewPrimitive(kernel.TBool), qual.Exp.Position(), qual.Pos)
		}
	}

	yieldT := a.infer(n.Yield, scope)
	return kernel.NewCollection(resultMonoid, yieldT)
}

// inferGen types a generator qualifier: its source must be a
// collection, and the generator's own monoid must sit below the
// enclosing comprehension's monoid (spec §4.1 invariant "generator
// monoid <= comprehension monoid"). An anonymous generator over a
// record-inner collection splices each field into the alias chain
// instead of binding a single pattern.
func (a *analyzer) inferGen(g *ast.Gen, resultMonoid kernel.Monoid, scope *entity.Chains) {
	srcT := a.infer(g.Src, scope)
	genMonoid := a.state.FreshMonoidVar()
	inner := a.state.FreshTypeVar()
	a.unify(srcT, kernel.NewCollection(genMonoid, inner), g.Src.Position(), g.Pos)
	a.unifyMonoidLE(genMonoid, resultMonoid, g.Pos)

	if g.Pattern != nil {
		a.bindPattern(g.Pattern, inner, scope)
		return
	}
	if walked, ok := a.state.Walk(inner).(*kernel.Record); ok {
		for i, att := range resolvedAtts(walked.Atts) {
			ent := &entity.GenAttributeEntity{Attr: att.Idn, Gen: g, Index: i, Type: att.Type}
			scope.Alias.Bind(att.Idn, ent, func(string) {})
		}
	}
}

// inferBind types a Bind qualifier/statement with let-polymorphism
// (spec §4.2): the source is inferred and generalized against a
// snapshot taken before inference, so only variables introduced by
// this binding's own inference are closed over, never ones already
// free in an enclosing scope.
func (a *analyzer) inferBind(b *ast.Bind, scope *entity.Chains) {
	snap := a.state.TakeSnapshot()
	srcT := a.infer(b.Src, scope)
	scheme := a.state.Generalize(snap, srcT)

	if idnPat, ok := b.Pattern.(*ast.PatternIdn); ok {
		ent := a.declareVariable(idnPat.Idn, scheme.Type, scope)
		if v, ok := ent.(*entity.VariableEntity); ok {
			v.Scheme = scheme
		}
		return
	}
	a.bindPattern(b.Pattern, srcT, scope)
}
