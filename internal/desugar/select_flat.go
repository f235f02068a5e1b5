package desugar

import (
	"github.com/sunholo/queryc/internal/ast"
)

// desugarSelectFlat implements spec §4.3 "SELECT without group-by":
// once GroupBy is gone (desugarSelectGroup strips it, firing its own
// fixed-point step first), a Select becomes a plain Comp — one Gen per
// FROM item (named or anonymous), WHERE/HAVING folded into boolean
// qualifiers, ORDER BY dropped (ordering is not part of the calculus's
// value, per spec §4.1 "collections are unordered"), and Proj as the
// yield.
func (d *Desugarer) desugarSelectFlat(e ast.Expr) (ast.Expr, bool) {
	n, ok := e.(*ast.Select)
	if !ok || n.GroupBy != nil {
		return e, false
	}

	quals := make([]ast.Qualifier, 0, len(n.From)+2)
	for i := range n.From {
		item := &n.From[i]
		quals = append(quals, &ast.Gen{Pattern: d.fromPattern(item), Src: item.Src, Pos: n.Pos})
	}
	if n.Where != nil {
		quals = append(quals, &ast.BoolQualifier{Exp: n.Where, Pos: n.Pos})
	}
	if n.Having != nil {
		quals = append(quals, &ast.BoolQualifier{Exp: n.Having, Pos: n.Pos})
	}

	monoidTag := ast.BagMonoid
	if n.Distinct {
		monoidTag = ast.SetMonoid
	}
	comp := &ast.Comp{Monoid: monoidTag, Quals: quals, Yield: n.Proj, Pos: n.Pos}
	d.types[comp] = d.typeOf(e)
	return comp, true
}

// fromPattern returns the Gen pattern for a FROM item: a named item
// binds its alias directly, an anonymous one binds the synthetic
// identifier assignAnonSyms already gave it so GenAttributeEntity uses
// can later be rewritten against the same binder (desugarAnonGenUse).
func (d *Desugarer) fromPattern(item *ast.FromItem) ast.Pattern {
	if item.Alias != nil {
		return &ast.PatternIdn{Idn: item.Alias}
	}
	return &ast.PatternIdn{Idn: d.fromSym[item]}
}
