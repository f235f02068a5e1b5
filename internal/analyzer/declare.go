package analyzer

import (
	"fmt"

	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/errors"
	"github.com/sunholo/queryc/internal/kernel"
)

// declareVariable binds idn to t in chains' idn environment, per spec
// §4.2's shadowing rule: a duplicate declaration in the same scope
// marks both the earlier and the new IdnDef as MultipleEntity and is
// reported exactly once.
func (a *analyzer) declareVariable(idn *ast.IdnDef, t kernel.Type, chains *entity.Chains) entity.Entity {
	if prior, exists := chains.Idn.LookupLocal(idn.Name); exists {
		if priorVar, ok := prior.(*entity.VariableEntity); ok && priorVar.Idn != nil {
			a.entities[priorVar.Idn] = &entity.MultipleEntity{Name: idn.Name}
		}
	}
	ent := &entity.VariableEntity{Idn: idn, Type: t}
	chains.Idn.Bind(idn.Name, ent, func(name string) {
		a.report(errors.New(errors.CodeMultipleDecl, errors.PhaseAnalyzer, idn.Pos,
			fmt.Sprintf("identifier %q declared more than once in this scope", name)))
	})
	final, _ := chains.Idn.LookupLocal(idn.Name)
	a.entities[idn] = final
	return final
}

// bindPattern destructures t according to p, declaring every leaf
// identifier in chains. PatternProd against a non-PatternType t
// allocates fresh element variables and unifies, per spec §4.2
// "GenPatternHasType".
func (a *analyzer) bindPattern(p ast.Pattern, t kernel.Type, chains *entity.Chains) {
	switch pt := p.(type) {
	case *ast.PatternIdn:
		a.declareVariable(pt.Idn, t, chains)
	case *ast.PatternProd:
		elems := make([]kernel.Type, len(pt.Patterns))
		for i := range elems {
			elems[i] = a.state.FreshTypeVar()
		}
		a.unify(kernel.NewPatternType(elems), t, pt.Pos, pt.Pos)
		for i, sub := range pt.Patterns {
			a.bindPattern(sub, elems[i], chains)
		}
	}
}

// resolveIdn resolves a user identifier against the idn chain, falling
// back to the catalog's data sources, then UnknownEntity (spec §4.2
// "idn environment").
func (a *analyzer) resolveIdn(use *ast.IdnUse, chains *entity.Chains) entity.Entity {
	if ent, ok := chains.Idn.Lookup(use.Name); ok {
		a.entities[use] = ent
		return ent
	}
	if ent, ok := chains.Alias.Lookup(use.Name); ok {
		a.entities[use] = ent
		return ent
	}
	if t, ok := a.world.LookupSource(use.Name); ok {
		ent := &entity.DataSourceEntity{Sym: use.Name, Type: t}
		a.entities[use] = ent
		return ent
	}
	a.report(errors.New(errors.CodeUnknownDecl, errors.PhaseAnalyzer, use.Pos,
		fmt.Sprintf("unknown identifier %q", use.Name)))
	ent := &entity.UnknownEntity{Name: use.Name}
	a.entities[use] = ent
	return ent
}

// entityType extracts the declared/inferred type out of an entity
// value, for use as an IdnExp's type. A VariableEntity with a Scheme
// instantiates a fresh copy per spec §4.2 let-polymorphism; everything
// else carries a fixed Type (or AnyType for error-recovery kinds).
func (a *analyzer) entityType(ent entity.Entity) kernel.Type {
	switch e := ent.(type) {
	case *entity.VariableEntity:
		if e.Scheme != nil {
			return a.state.Instantiate(e.Scheme)
		}
		return e.Type
	case *entity.DataSourceEntity:
		return e.Type
	case *entity.PartitionEntity:
		return e.Type
	case *entity.StarEntity:
		return e.Type
	case *entity.GenAttributeEntity:
		return e.Type
	case *entity.IntoAttributeEntity:
		return e.Type
	default: // MultipleEntity, UnknownEntity
		return kernel.NewAnyType()
	}
}
