// Package desugar rewrites a type-checked calculus tree into the
// reduced node set the normalizer/canonicalizer expects (spec §4.3):
// blocks and patterns expand, sugar operators become comprehensions,
// SELECT becomes Comp, and anonymous generators gain real names. Every
// pass is a tree-rewrite-returning-new-tree transform in the teacher's
// `internal/elaborate` style, applied bottom-up to a fixed point.
package desugar

import (
	"fmt"

	"github.com/sunholo/queryc/internal/analyzer"
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/kernel"
)

// Desugarer carries the side tables threaded through the rewrite:
// fresh nodes created along the way get entries copied forward or
// synthesized, so the canonicalizer never loses a node's type.
type Desugarer struct {
	entities map[ast.Node]entity.Entity
	types    map[ast.Expr]kernel.Type
	counter  int
	anonSym  map[*ast.Gen]*ast.IdnDef      // anonymous Comp-qualifier Gens -> synthetic binder
	fromSym  map[*ast.FromItem]*ast.IdnDef // anonymous Select FROM items -> synthetic binder
}

// Desugar runs the ordered desugaring pipeline over tree to a fixed
// point, returning the rewritten tree and its updated side tables.
func Desugar(tree ast.Expr, result *analyzer.Result) (ast.Expr, map[ast.Node]entity.Entity, map[ast.Expr]kernel.Type) {
	d := &Desugarer{
		entities: copyEntities(result.Entities),
		types:    copyTypes(result.Types),
		anonSym:  map[*ast.Gen]*ast.IdnDef{},
		fromSym:  map[*ast.FromItem]*ast.IdnDef{},
	}
	d.assignAnonSyms(tree)

	current := tree
	for {
		next, changed := d.step(current)
		if !changed {
			return next, d.entities, d.types
		}
		current = next
	}
}

func copyEntities(m map[ast.Node]entity.Entity) map[ast.Node]entity.Entity {
	out := make(map[ast.Node]entity.Entity, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyTypes(m map[ast.Expr]kernel.Type) map[ast.Expr]kernel.Type {
	out := make(map[ast.Expr]kernel.Type, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *Desugarer) fresh(prefix string) *ast.IdnDef {
	d.counter++
	return &ast.IdnDef{Name: fmt.Sprintf("$%s%d", prefix, d.counter)}
}

func (d *Desugarer) typeOf(e ast.Expr) kernel.Type {
	if t, ok := d.types[e]; ok {
		return t
	}
	return kernel.NewAnyType()
}

// copyFn returns an ast.Substitute onCopy callback that threads this
// Desugarer's own type table through a substitution, so substituted
// subtrees keep the type their pre-substitution position had.
func (d *Desugarer) copyFn() func(newE, oldE ast.Expr) {
	return func(newE, oldE ast.Expr) {
		d.setSameType(newE, oldE)
	}
}

// declareVar installs a fresh VariableEntity for a desugaring-introduced
// binder, so later passes (canonicalization's path construction) see
// the same entity discipline the analyzer produces for user code.
func (d *Desugarer) declareVar(idn *ast.IdnDef, t kernel.Type) *entity.VariableEntity {
	ent := &entity.VariableEntity{Idn: idn, Type: t}
	d.entities[idn] = ent
	return ent
}

// useVar builds an IdnExp referencing a declareVar-installed binder,
// recording both its entity and its type.
func (d *Desugarer) useVar(idn *ast.IdnDef, pos ast.Pos, ent entity.Entity, t kernel.Type) *ast.IdnExp {
	use := &ast.IdnUse{Name: idn.Name, Pos: pos}
	d.entities[use] = ent
	e := &ast.IdnExp{Idn: use, Pos: pos}
	d.types[e] = t
	return e
}

// innerType extracts a Collection's element type, or AnyType if t
// isn't (yet) known to be one.
func innerType(t kernel.Type) kernel.Type {
	if c, ok := t.(*kernel.Collection); ok {
		return c.Inner
	}
	return kernel.NewAnyType()
}

// isSetTyped reports whether t is a Collection resolved to the
// concrete Set monoid (used by the Sum/Max/Min/Avg/Count desugaring to
// decide whether the argument needs a ToBag conversion first, per spec
// §4.3: "applying ToBag first if e is a set, so the sum counts
// duplicates").
func isSetTyped(t kernel.Type) bool {
	c, ok := t.(*kernel.Collection)
	return ok && !c.Monoid.IsVar && c.Monoid.Tag == kernel.SetMonoid
}

// setSameType registers newE as having the same type as oldE, for a
// node created by pure restructuring (a rewrite rule that doesn't
// change what the expression denotes, only its shape).
func (d *Desugarer) setSameType(newE, oldE ast.Expr) ast.Expr {
	if t, ok := d.types[oldE]; ok {
		d.types[newE] = t
	}
	return newE
}

// step applies one full bottom-up rewrite over e: children first,
// then every node-level rule in pipeline order. It returns the
// rewritten tree and whether anything changed, so Desugar can iterate
// to a fixed point (a single rule firing can expose another).
func (d *Desugarer) step(e ast.Expr) (ast.Expr, bool) {
	e, childChanged := d.stepChildren(e)
	e2, ruleChanged := d.applyRules(e)
	return e2, childChanged || ruleChanged
}

func (d *Desugarer) applyRules(e ast.Expr) (ast.Expr, bool) {
	if out, ok := d.desugarSugar(e); ok {
		return out, true
	}
	if out, ok := d.desugarExpBlock(e); ok {
		return out, true
	}
	if out, ok := d.desugarSelectGroup(e); ok {
		return out, true
	}
	if out, ok := d.desugarSelectFlat(e); ok {
		return out, true
	}
	if out, ok := d.desugarAnonGenUse(e); ok {
		return out, true
	}
	return e, false
}

// stepChildren recurses into e's immediate children, rewriting each
// with step, and reconstructs e only if at least one child actually
// changed (so unchanged subtrees keep their original node identity and
// side-table entries).
func (d *Desugarer) stepChildren(e ast.Expr) (ast.Expr, bool) {
	switch n := e.(type) {
	case *ast.BoolConst, *ast.IntConst, *ast.FloatConst, *ast.StringConst, *ast.IdnExp,
		*ast.Partition, *ast.Star:
		return e, false

	case *ast.RecordCons:
		changed := false
		atts := make([]ast.RecordAtt, len(n.Atts))
		for i, a := range n.Atts {
			ne, c := d.step(a.Exp)
			atts[i] = ast.RecordAtt{Idn: a.Idn, Exp: ne}
			changed = changed || c
		}
		if !changed {
			return e, false
		}
		return d.setSameType(&ast.RecordCons{Atts: atts, Pos: n.Pos}, e), true

	case *ast.RecordProj:
		ne, c := d.step(n.Exp)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.RecordProj{Exp: ne, Idn: n.Idn, Pos: n.Pos}, e), true

	case *ast.IfThenElse:
		cond, c1 := d.step(n.Cond)
		then, c2 := d.step(n.Then)
		els, c3 := d.step(n.Else)
		if !c1 && !c2 && !c3 {
			return e, false
		}
		return d.setSameType(&ast.IfThenElse{Cond: cond, Then: then, Else: els, Pos: n.Pos}, e), true

	case *ast.BinaryExp:
		l, c1 := d.step(n.Left)
		r, c2 := d.step(n.Right)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.BinaryExp{Op: n.Op, Left: l, Right: r, Pos: n.Pos}, e), true

	case *ast.UnaryExp:
		x, c := d.step(n.Exp)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.UnaryExp{Op: n.Op, Exp: x, Pos: n.Pos}, e), true

	case *ast.MergeMonoid:
		l, c1 := d.step(n.Left)
		r, c2 := d.step(n.Right)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.MergeMonoid{Monoid: n.Monoid, Left: l, Right: r, Pos: n.Pos}, e), true

	case *ast.ZeroCollectionMonoid:
		return e, false

	case *ast.ConsCollectionMonoid:
		h, c1 := d.step(n.Head)
		t, c2 := d.step(n.Tail)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.ConsCollectionMonoid{Monoid: n.Monoid, Head: h, Tail: t, Pos: n.Pos}, e), true

	case *ast.MultiCons:
		changed := false
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			ne, c := d.step(el)
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
			nq, c := d.stepQualifier(q)
			quals[i] = nq
			changed = changed || c
		}
		yield, c := d.step(n.Yield)
		changed = changed || c
		if !changed {
			return e, false
		}
		return d.setSameType(&ast.Comp{Monoid: n.Monoid, Quals: quals, Yield: yield, Pos: n.Pos}, e), true

	case *ast.Select:
		return d.stepSelectChildren(n, e)

	case *ast.FunAbs:
		body, c := d.step(n.Body)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.FunAbs{Pattern: n.Pattern, Body: body, Pos: n.Pos}, e), true

	case *ast.FunApp:
		f, c1 := d.step(n.Fun)
		a, c2 := d.step(n.Arg)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.FunApp{Fun: f, Arg: a, Pos: n.Pos}, e), true

	case *ast.ExpBlock:
		changed := false
		binds := make([]ast.Qualifier, len(n.Binds))
		for i, b := range n.Binds {
			nb, c := d.stepQualifier(b)
			binds[i] = nb
			changed = changed || c
		}
		body, c := d.step(n.Exp)
		changed = changed || c
		if !changed {
			return e, false
		}
		return d.setSameType(&ast.ExpBlock{Binds: binds, Exp: body, Pos: n.Pos}, e), true

	case *ast.Into:
		e1, c1 := d.step(n.E1)
		e2, c2 := d.step(n.E2)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.Into{E1: e1, E2: e2, Pos: n.Pos}, e), true

	case *ast.Sum:
		x, c := d.step(n.Exp)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.Sum{Exp: x, Pos: n.Pos}, e), true
	case *ast.Max:
		x, c := d.step(n.Exp)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.Max{Exp: x, Pos: n.Pos}, e), true
	case *ast.Min:
		x, c := d.step(n.Exp)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.Min{Exp: x, Pos: n.Pos}, e), true
	case *ast.Avg:
		x, c := d.step(n.Exp)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.Avg{Exp: x, Pos: n.Pos}, e), true
	case *ast.Count:
		x, c := d.step(n.Exp)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.Count{Exp: x, Pos: n.Pos}, e), true
	case *ast.Exists:
		x, c := d.step(n.Exp)
		if !c {
			return e, false
		}
		return d.setSameType(&ast.Exists{Exp: x, Pos: n.Pos}, e), true
	case *ast.InExp:
		e1, c1 := d.step(n.E1)
		e2, c2 := d.step(n.E2)
		if !c1 && !c2 {
			return e, false
		}
		return d.setSameType(&ast.InExp{E1: e1, E2: e2, Pos: n.Pos}, e), true

	default:
		return e, false
	}
}

func (d *Desugarer) stepSelectChildren(n *ast.Select, orig ast.Expr) (ast.Expr, bool) {
	changed := false
	from := make([]ast.FromItem, len(n.From))
	for i, item := range n.From {
		ne, c := d.step(item.Src)
		from[i] = ast.FromItem{Alias: item.Alias, Src: ne}
		changed = changed || c
	}
	var groupBy ast.Expr
	if n.GroupBy != nil {
		var c bool
		groupBy, c = d.step(n.GroupBy)
		changed = changed || c
	}
	proj, c := d.step(n.Proj)
	changed = changed || c
	var where ast.Expr
	if n.Where != nil {
		var c2 bool
		where, c2 = d.step(n.Where)
		changed = changed || c2
	}
	var having ast.Expr
	if n.Having != nil {
		var c3 bool
		having, c3 = d.step(n.Having)
		changed = changed || c3
	}
	orderBy := make([]ast.OrderItem, len(n.OrderBy))
	for i, ob := range n.OrderBy {
		ne, c4 := d.step(ob.Exp)
		orderBy[i] = ast.OrderItem{Exp: ne, Desc: ob.Desc}
		changed = changed || c4
	}
	if !changed {
		return orig, false
	}
	return d.setSameType(&ast.Select{
		From: from, Distinct: n.Distinct, GroupBy: groupBy, Proj: proj,
		Where: where, OrderBy: orderBy, Having: having, Pos: n.Pos,
	}, orig), true
}

// stepQualifier rewrites a Gen/Bind/BoolQualifier's own sub-expression(s).
func (d *Desugarer) stepQualifier(q ast.Qualifier) (ast.Qualifier, bool) {
	switch n := q.(type) {
	case *ast.Gen:
		src, srcChanged := d.step(n.Src)
		pattern := n.Pattern
		changed := srcChanged
		if pattern == nil {
			if sym, ok := d.anonSym[n]; ok {
				pattern = &ast.PatternIdn{Idn: sym}
				changed = true
			}
		}
		if !changed {
			return q, false
		}
		return &ast.Gen{Pattern: pattern, Src: src, Pos: n.Pos}, true
	case *ast.Bind:
		src, c := d.step(n.Src)
		if !c {
			return q, false
		}
		return &ast.Bind{Pattern: n.Pattern, Src: src, Pos: n.Pos}, true
	case *ast.BoolQualifier:
		exp, c := d.step(n.Exp)
		if !c {
			return q, false
		}
		return &ast.BoolQualifier{Exp: exp, Pos: n.Pos}, true
	default:
		return q, false
	}
}
