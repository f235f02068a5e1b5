package analyzer

import (
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/errors"
	"github.com/sunholo/queryc/internal/kernel"
)

// inferSelect types the SQL-shaped surface form of spec §4.3, prior to
// its desugaring into a Comp: every FROM item behaves like a
// generator, `*` and (when grouped) `partition` become available in
// the projection, and the result is a Collection of set/bag monoid
// depending on DISTINCT.
func (a *analyzer) inferSelect(n *ast.Select, chains *entity.Chains) kernel.Type {
	scope := chains.Extend()
	fromMonoid := a.state.FreshMonoidVar()

	for i := range n.From {
		a.inferFromItem(&n.From[i], fromMonoid, scope)
	}

	starType := a.selectStarType(n, scope)
	scope = scope.WithStar(&entity.StarEntity{Select: n, Type: starType})

	if n.GroupBy != nil {
		groupInner := a.state.FreshTypeVar()
		partitionT := kernel.NewCollection(kernel.Concrete(kernel.BagMonoid), groupInner)
		scope = scope.WithPartition(&entity.PartitionEntity{Select: n, Type: partitionT})
		a.infer(n.GroupBy, scope)
	}

	if n.Where != nil {
		whereT := a.infer(n.Where, scope)
		a.unify(whereT, kernel.NewPrimitive(kernel.TBool), n.Where.Position(), n.Pos)
	}
	if n.Having != nil {
		havingT := a.infer(n.Having, scope)
		a.unify(havingT, kernel.NewPrimitive(kernel.TBool), n.Having.Position(), n.Pos)
	}
	for _, item := range n.OrderBy {
		a.infer(item.Exp, scope)
	}

	if n.GroupBy == nil {
		if _, bare := n.Proj.(*ast.Star); !bare && containsStar(n.Proj) {
			a.report(errors.New(errors.CodeIllegalStar, errors.PhaseAnalyzer, n.Proj.Position(),
				"`*` cannot be combined with other projections without GROUP BY"))
		}
	}

	projT := a.infer(n.Proj, scope)

	monoidTag := kernel.BagMonoid
	if n.Distinct {
		monoidTag = kernel.SetMonoid
	}
	return kernel.NewCollection(kernel.Concrete(monoidTag), projT)
}

// inferFromItem types one FROM entry like an implicit generator: an
// aliased item binds a single name, an anonymous one splices a
// record-inner source's fields into the alias chain.
func (a *analyzer) inferFromItem(item *ast.FromItem, fromMonoid kernel.Monoid, scope *entity.Chains) {
	srcT := a.infer(item.Src, scope)
	genMonoid := a.state.FreshMonoidVar()
	inner := a.state.FreshTypeVar()
	a.unify(srcT, kernel.NewCollection(genMonoid, inner), item.Src.Position(), item.Src.Position())
	a.unifyMonoidLE(genMonoid, fromMonoid, item.Src.Position())

	if item.Alias != nil {
		a.declareVariable(item.Alias, inner, scope)
		return
	}
	if walked, ok := a.state.Walk(inner).(*kernel.Record); ok {
		for i, att := range resolvedAtts(walked.Atts) {
			ent := &entity.GenAttributeEntity{Attr: att.Idn, From: item, Index: i, Type: att.Type}
			scope.Alias.Bind(att.Idn, ent, func(string) {})
		}
	}
}

// selectStarType computes the type of `*` in n's projection, per spec
// §4.2: a single generator with no GROUP BY yields that generator's
// inner type directly; a single generator with GROUP BY yields a
// collection of that inner type (the grouped rows, not one row); two
// or more FROM items splice their record types together into one row,
// the same shape regardless of grouping.
func (a *analyzer) selectStarType(n *ast.Select, scope *entity.Chains) kernel.Type {
	if len(n.From) == 1 {
		inner := a.fromItemInnerType(&n.From[0], scope, n.Pos)
		if n.GroupBy != nil {
			return kernel.NewCollection(a.state.FreshMonoidVar(), inner)
		}
		return inner
	}

	slots := make([]kernel.ConcatSlot, 0, len(n.From))
	for i := range n.From {
		item := &n.From[i]
		if item.Alias != nil {
			ent, ok := scope.Idn.Lookup(item.Alias.Name)
			if !ok {
				continue
			}
			slots = append(slots, kernel.ConcatSlot{Prefix: item.Alias.Name, Type: a.entityType(ent)})
			continue
		}
		slots = append(slots, kernel.ConcatSlot{Type: a.fromItemInnerType(item, scope, n.Pos)})
	}
	concat := &kernel.ConcatAttributes{Slots: slots, Sym: a.state.Symbols.Fresh("r")}
	if resolved, ok := concat.Resolve(); ok {
		return kernel.NewRecord(resolved)
	}
	return kernel.NewRecord(concat)
}

// fromItemInnerType resolves one FROM item's element type: an aliased
// item's already-bound variable type, or a fresh type variable unified
// against an anonymous item's source.
func (a *analyzer) fromItemInnerType(item *ast.FromItem, scope *entity.Chains, pos ast.Pos) kernel.Type {
	if item.Alias != nil {
		ent, ok := scope.Idn.Lookup(item.Alias.Name)
		if !ok {
			return kernel.NewAnyType()
		}
		return a.entityType(ent)
	}
	srcT := a.infer(item.Src, scope)
	inner := a.state.FreshTypeVar()
	a.unify(srcT, kernel.NewCollection(a.state.FreshMonoidVar(), inner), item.Src.Position(), pos)
	return a.state.Walk(inner)
}

// containsStar reports whether e has a `*` anywhere within it, used to
// reject `*` mixed with other projections outside a GROUP BY.
func containsStar(e ast.Expr) bool {
	found := false
	ast.Walk(e, func(node ast.Node) {
		if _, ok := node.(*ast.Star); ok {
			found = true
		}
	})
	return found
}
