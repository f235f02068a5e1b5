package desugar

import (
	"fmt"

	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/kernel"
)

// desugarExpBlock implements spec §4.3 "Blocks & patterns": pattern
// generators and pattern binds expand into one fresh-identifier Gen
// plus per-field Binds, an empty ExpBlock collapses to its body, and a
// PatternIdn-headed Bind is inlined by substitution everywhere in the
// rest of the block.
func (d *Desugarer) desugarExpBlock(e ast.Expr) (ast.Expr, bool) {
	switch n := e.(type) {
	case *ast.Comp:
		if quals, changed := d.expandQualList(n.Quals); changed {
			return d.setSameType(&ast.Comp{Monoid: n.Monoid, Quals: quals, Yield: n.Yield, Pos: n.Pos}, e), true
		}
		return e, false

	case *ast.ExpBlock:
		if len(n.Binds) == 0 {
			return n.Exp, true
		}
		if binds, changed := d.expandQualList(n.Binds); changed {
			return d.setSameType(&ast.ExpBlock{Binds: binds, Exp: n.Exp, Pos: n.Pos}, e), true
		}
		first, ok := n.Binds[0].(*ast.Bind)
		if !ok {
			return e, false
		}
		idnPat, ok := first.Pattern.(*ast.PatternIdn)
		if !ok {
			return e, false
		}
		cp := d.copyFn()
		rest := n.Binds[1:]
		newRest := make([]ast.Qualifier, len(rest))
		for i, b := range rest {
			newRest[i] = ast.SubstituteQualifier(b, idnPat.Idn.Name, first.Src, cp)
		}
		newBody := ast.Substitute(n.Exp, idnPat.Idn.Name, first.Src, cp)
		if len(newRest) == 0 {
			return newBody, true
		}
		return d.setSameType(&ast.ExpBlock{Binds: newRest, Exp: newBody, Pos: n.Pos}, e), true

	default:
		return e, false
	}
}

// expandQualList rewrites every Gen/Bind in quals whose pattern is a
// PatternProd into the fresh-identifier-plus-projections form of spec
// §4.3, leaving PatternIdn-headed and boolean qualifiers untouched.
func (d *Desugarer) expandQualList(quals []ast.Qualifier) ([]ast.Qualifier, bool) {
	var out []ast.Qualifier
	changed := false
	for _, q := range quals {
		switch n := q.(type) {
		case *ast.Gen:
			pp, ok := n.Pattern.(*ast.PatternProd)
			if !ok {
				out = append(out, q)
				continue
			}
			changed = true
			elemT := innerType(d.typeOf(n.Src))
			fresh := d.fresh("gp")
			ent := d.declareVar(fresh, elemT)
			out = append(out, &ast.Gen{Pattern: &ast.PatternIdn{Idn: fresh}, Src: n.Src, Pos: n.Pos})
			use := d.useVar(fresh, n.Pos, ent, elemT)
			out = append(out, d.expandPatternBind(pp, use, n.Pos)...)

		case *ast.Bind:
			pp, ok := n.Pattern.(*ast.PatternProd)
			if !ok {
				out = append(out, q)
				continue
			}
			changed = true
			out = append(out, d.expandPatternBind(pp, n.Src, n.Pos)...)

		default:
			out = append(out, q)
		}
	}
	return out, changed
}

// expandPatternBind destructures a tuple-shaped src positionally via
// `_1`, `_2`, ... projections, recursing into nested PatternProds.
func (d *Desugarer) expandPatternBind(pp *ast.PatternProd, src ast.Expr, pos ast.Pos) []ast.Qualifier {
	srcT := d.typeOf(src)
	out := make([]ast.Qualifier, 0, len(pp.Patterns))
	for i, sub := range pp.Patterns {
		field := fmt.Sprintf("_%d", i+1)
		proj := &ast.RecordProj{Exp: src, Idn: field, Pos: pos}
		d.types[proj] = projFieldType(srcT, field)
		if innerPP, ok := sub.(*ast.PatternProd); ok {
			out = append(out, d.expandPatternBind(innerPP, proj, pos)...)
			continue
		}
		out = append(out, &ast.Bind{Pattern: sub, Src: proj, Pos: pos})
	}
	return out
}

// projFieldType looks up field's type in t's known record attributes,
// falling back to AnyType for an attribute variable that hasn't
// resolved the field yet.
func projFieldType(t kernel.Type, field string) kernel.Type {
	rec, ok := t.(*kernel.Record)
	if !ok {
		return kernel.NewAnyType()
	}
	switch atts := rec.Atts.(type) {
	case *kernel.Attributes:
		if ft, ok := atts.Lookup(field); ok {
			return ft
		}
	case *kernel.AttributesVariable:
		if ft, ok := atts.Lookup(field); ok {
			return ft
		}
	}
	return kernel.NewAnyType()
}
