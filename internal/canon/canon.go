// Package canon flattens a desugared calculus tree into canonical
// form (spec §4.4): beta-normalization and bind inlining remove every
// FunApp/Bind, nested-comprehension hoisting folds same-monoid
// sub-comprehensions into their parent's qualifier list, predicate
// qualifiers collapse into one CNF-converted boolean expression, and
// every generator's source is checked to already be a path (a bound
// variable or a chain of record projections off one). The output
// invariant the unnester relies on: every Comp's Quals end in exactly
// one BoolQualifier holding the whole predicate, preceded only by
// Gen qualifiers over path-shaped sources.
package canon

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/errors"
	"github.com/sunholo/queryc/internal/kernel"
)

// Canonicalizer threads the same side tables the desugarer produced,
// extended as beta-reduction and CNF conversion allocate fresh nodes.
type Canonicalizer struct {
	entities map[ast.Node]entity.Entity
	types    map[ast.Expr]kernel.Type
	counter  int
	errs     []*errors.Report
}

// Canonicalize runs beta-normalization, bind inlining, nested-
// comprehension hoisting and CNF predicate conversion to a fixed
// point, then validates every generator's source is path-shaped.
func Canonicalize(tree ast.Expr, entities map[ast.Node]entity.Entity, types map[ast.Expr]kernel.Type) (ast.Expr, map[ast.Node]entity.Entity, map[ast.Expr]kernel.Type, []*errors.Report) {
	c := &Canonicalizer{entities: copyEntities(entities), types: copyTypes(types)}

	current := tree
	for {
		next, changed := c.step(current)
		if !changed {
			break
		}
		current = next
	}

	c.validatePaths(current)
	return current, c.entities, c.types, c.errs
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

func (c *Canonicalizer) fresh(prefix string) *ast.IdnDef {
	c.counter++
	return &ast.IdnDef{Name: symPrefix(prefix, c.counter)}
}

func symPrefix(prefix string, n int) string {
	return "$" + prefix + itoa(n)
}

// itoa avoids pulling in strconv for the package's two use sites
// (symPrefix and beta.go's indexField), handled by hand the way the
// teacher's own small packages do.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

func (c *Canonicalizer) typeOf(e ast.Expr) kernel.Type {
	if t, ok := c.types[e]; ok {
		return t
	}
	return kernel.NewAnyType()
}

func (c *Canonicalizer) setSameType(newE, oldE ast.Expr) ast.Expr {
	if t, ok := c.types[oldE]; ok {
		c.types[newE] = t
	}
	return newE
}

func (c *Canonicalizer) copyFn() func(newE, oldE ast.Expr) {
	return func(newE, oldE ast.Expr) {
		c.setSameType(newE, oldE)
	}
}

// declareVar installs a fresh VariableEntity, mirroring the
// desugarer's own helper so fresh binders introduced by beta-reduction
// carry the same entity discipline as user code.
func (c *Canonicalizer) declareVar(idn *ast.IdnDef, t kernel.Type) *entity.VariableEntity {
	ent := &entity.VariableEntity{Idn: idn, Type: t}
	c.entities[idn] = ent
	return ent
}

func (c *Canonicalizer) useVar(idn *ast.IdnDef, pos ast.Pos, ent entity.Entity, t kernel.Type) *ast.IdnExp {
	use := &ast.IdnUse{Name: idn.Name, Pos: pos}
	c.entities[use] = ent
	e := &ast.IdnExp{Idn: use, Pos: pos}
	c.types[e] = t
	return e
}

func innerType(t kernel.Type) kernel.Type {
	if coll, ok := t.(*kernel.Collection); ok {
		return coll.Inner
	}
	return kernel.NewAnyType()
}

// projFieldType looks up field's type in t's known record attributes,
// falling back to AnyType for an attribute variable that hasn't
// resolved the field yet (mirrors desugar's own helper of the same
// name — both exist to keep their packages independent).
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

// step applies one bottom-up rewrite pass: children first, then every
// node-level canonicalization rule in order, to a fixed point driven
// by Canonicalize's outer loop.
func (c *Canonicalizer) step(e ast.Expr) (ast.Expr, bool) {
	e, childChanged := c.stepChildren(e)
	e2, ruleChanged := c.applyRules(e)
	return e2, childChanged || ruleChanged
}

func (c *Canonicalizer) applyRules(e ast.Expr) (ast.Expr, bool) {
	if out, ok := c.betaReduce(e); ok {
		return out, true
	}
	if out, ok := c.inlineBind(e); ok {
		return out, true
	}
	if out, ok := c.hoistNested(e); ok {
		return out, true
	}
	if out, ok := c.collapsePredicate(e); ok {
		return out, true
	}
	return e, false
}
