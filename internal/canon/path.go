package canon

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/errors"
	"github.com/sunholo/queryc/internal/kernel"
)

// Path is spec §4.4's canonical generator source: a bound variable, or
// a chain of record projections off one. The unnester consumes Paths
// (via PathOf) rather than raw expressions, since only these two
// shapes survive canonicalization.
type Path interface {
	isPath()
	Type() kernel.Type
}

// VariablePath is a direct reference to a bound identifier: either a
// generator/let variable or a catalog data source. The unnester tells
// the two apart by inspecting Entity (a *entity.DataSourceEntity path
// becomes a Scan; anything else is a reference into the pattern
// already bound by a prior generator).
type VariablePath struct {
	Name   string
	Entity entity.Entity
	T      kernel.Type
}

func (*VariablePath) isPath()          {}
func (p *VariablePath) Type() kernel.Type { return p.T }

// InnerPath is one record-field step off an enclosing Path.
type InnerPath struct {
	Prefix Path
	Field  string
	T      kernel.Type
}

func (*InnerPath) isPath()          {}
func (p *InnerPath) Type() kernel.Type { return p.T }

// PathOf converts a canonical-form expression into a Path, or reports
// failure for anything else (a sign the canonicalizer's invariant was
// violated upstream).
func PathOf(e ast.Expr, types map[ast.Expr]kernel.Type, entities map[ast.Node]entity.Entity) (Path, bool) {
	switch n := e.(type) {
	case *ast.IdnExp:
		ent, ok := entities[n.Idn]
		if !ok {
			return nil, false
		}
		switch ent.(type) {
		case *entity.VariableEntity, *entity.DataSourceEntity:
			return &VariablePath{Name: n.Idn.Name, Entity: ent, T: typeOfOrAny(types, e)}, true
		default:
			return nil, false
		}
	case *ast.RecordProj:
		prefix, ok := PathOf(n.Exp, types, entities)
		if !ok {
			return nil, false
		}
		return &InnerPath{Prefix: prefix, Field: n.Idn, T: typeOfOrAny(types, e)}, true
	default:
		return nil, false
	}
}

func typeOfOrAny(types map[ast.Expr]kernel.Type, e ast.Expr) kernel.Type {
	if t, ok := types[e]; ok {
		return t
	}
	return kernel.NewAnyType()
}

// validatePaths walks the fully canonicalized tree and confirms every
// generator's source converts to a Path — spec §4.4: "malformed paths
// are fatal". A violation here means an earlier pass failed to fully
// reduce a generator's source (a compiler bug, not a user error).
func (c *Canonicalizer) validatePaths(tree ast.Expr) {
	ast.Walk(tree, func(n ast.Node) {
		g, ok := n.(*ast.Gen)
		if !ok {
			return
		}
		if _, ok := PathOf(g.Src, c.types, c.entities); !ok {
			c.errs = append(c.errs, errors.Internal(errors.PhaseCanon, g.Pos,
				"generator source is not a canonical path after canonicalization"))
		}
	})
}
