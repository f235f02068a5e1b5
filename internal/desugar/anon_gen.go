package desugar

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/kernel"
)

// assignAnonSyms walks tree once, before the fixed-point loop starts,
// giving every anonymous generator (a Comp's Gen with a nil Pattern,
// or a Select's unaliased FROM item) a synthetic binder name. Later
// passes (canonicalization's Path construction, unnesting) need every
// generator to have a real identifier; desugarAnonGenUse then rewrites
// the implicit attribute uses the analyzer bound against these
// generators into explicit projections off that identifier.
func (d *Desugarer) assignAnonSyms(tree ast.Expr) {
	ast.Walk(tree, func(n ast.Node) {
		switch g := n.(type) {
		case *ast.Gen:
			if g.Pattern == nil {
				d.anonSym[g] = d.fresh("anon")
			}
		case *ast.Select:
			for i := range g.From {
				item := &g.From[i]
				if item.Alias == nil {
					d.fromSym[item] = d.fresh("anon")
				}
			}
		}
	})
}

// desugarAnonGenUse rewrites every IdnExp bound to a GenAttributeEntity
// into a RecordProj off the synthesized binder assignAnonSyms already
// gave its generator (stepQualifier installs that binder as the Gen's
// own Pattern once its Src has stabilized) — spec §4.3 "anonymous
// generators gain real names".
func (d *Desugarer) desugarAnonGenUse(e ast.Expr) (ast.Expr, bool) {
	switch n := e.(type) {
	case *ast.IdnExp:
		ent, ok := d.entities[n.Idn]
		if !ok {
			return e, false
		}
		ga, ok := ent.(*entity.GenAttributeEntity)
		if !ok {
			return e, false
		}
		sym, binderT := d.anonBinder(ga)
		if sym == nil {
			return e, false
		}
		use := d.useVar(sym, n.Pos, d.entities[sym], binderT)
		proj := &ast.RecordProj{Exp: use, Idn: ga.Attr, Pos: n.Pos}
		d.types[proj] = ga.Type
		return proj, true

	default:
		return e, false
	}
}

// anonBinder resolves the fresh identifier standing in for ga's
// originating anonymous generator, declaring its VariableEntity lazily
// on first use (a Gen's own element type is its Src's inner type), and
// returns that type alongside it.
func (d *Desugarer) anonBinder(ga *entity.GenAttributeEntity) (*ast.IdnDef, kernel.Type) {
	var sym *ast.IdnDef
	var elemT kernel.Type
	switch {
	case ga.Gen != nil:
		sym = d.anonSym[ga.Gen]
		elemT = innerType(d.typeOf(ga.Gen.Src))
	case ga.From != nil:
		sym = d.fromSym[ga.From]
		elemT = innerType(d.typeOf(ga.From.Src))
	}
	if sym == nil {
		return nil, nil
	}
	if ent, ok := d.entities[sym].(*entity.VariableEntity); ok {
		return sym, ent.Type
	}
	d.declareVar(sym, elemT)
	return sym, elemT
}
