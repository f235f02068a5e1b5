package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/catalog"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/kernel"
)

func ordersWorld(t *testing.T) *catalog.World {
	t.Helper()
	w, err := catalog.LoadFile("../catalog/testdata/orders.yaml")
	require.NoError(t, err)
	return w
}

func idn(name string) *ast.IdnDef { return &ast.IdnDef{Name: name} }
func use(name string) *ast.IdnUse { return &ast.IdnUse{Name: name} }

// TestSimpleFilterComprehension types `for (o <- orders; o.total > 100.0)
// yield bag o.customer` (spec §8 scenario 1).
func TestSimpleFilterComprehension(t *testing.T) {
	world := ordersWorld(t)
	tree := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals: []ast.Qualifier{
			&ast.Gen{Pattern: &ast.PatternIdn{Idn: idn("o")}, Src: &ast.IdnExp{Idn: use("orders")}},
			&ast.BoolQualifier{Exp: &ast.BinaryExp{
				Op:    ast.OpGt,
				Left:  &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "total"},
				Right: &ast.FloatConst{Value: 100.0},
			}},
		},
		Yield: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "customer"},
	}

	result := Analyze(tree, world)
	require.Empty(t, result.Errors)

	resultT := result.State.Walk(result.Types[tree])
	coll, ok := resultT.(*kernel.Collection)
	require.True(t, ok)
	assert.Equal(t, kernel.BagMonoid, coll.Monoid.Tag)
	prim, ok := coll.Inner.(*kernel.Primitive)
	require.True(t, ok)
	assert.Equal(t, kernel.TString, prim.Kind)
}

// TestJoinComprehension types two independent generators over the
// same source, confirming each `o` binding resolves to its own entity
// (spec §8 invariant 1: entity resolution uniqueness).
func TestJoinComprehension(t *testing.T) {
	world := ordersWorld(t)
	o1 := idn("o1")
	o2 := idn("o2")
	gen1 := &ast.Gen{Pattern: &ast.PatternIdn{Idn: o1}, Src: &ast.IdnExp{Idn: use("orders")}}
	gen2 := &ast.Gen{Pattern: &ast.PatternIdn{Idn: o2}, Src: &ast.IdnExp{Idn: use("orders")}}
	useO1 := &ast.IdnExp{Idn: use("o1")}
	useO2 := &ast.IdnExp{Idn: use("o2")}
	tree := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals: []ast.Qualifier{
			gen1, gen2,
			&ast.BoolQualifier{Exp: &ast.BinaryExp{
				Op:    ast.OpEq,
				Left:  &ast.RecordProj{Exp: useO1, Idn: "customer"},
				Right: &ast.RecordProj{Exp: useO2, Idn: "customer"},
			}},
		},
		Yield: &ast.RecordCons{Atts: []ast.RecordAtt{
			{Idn: "a", Exp: &ast.RecordProj{Exp: useO1, Idn: "orderId"}},
			{Idn: "b", Exp: &ast.RecordProj{Exp: useO2, Idn: "orderId"}},
		}},
	}

	result := Analyze(tree, world)
	require.Empty(t, result.Errors)

	ent1 := result.Entities[useO1.Idn]
	ent2 := result.Entities[useO2.Idn]
	require.NotNil(t, ent1)
	require.NotNil(t, ent2)
	v1, ok1 := ent1.(*entity.VariableEntity)
	v2, ok2 := ent2.(*entity.VariableEntity)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.NotSame(t, v1, v2)
	assert.Same(t, o1, v1.Idn)
	assert.Same(t, o2, v2.Idn)
}

// TestGroupByPartitionAvailable types a grouped Select and checks that
// `partition` resolves inside the projection.
func TestGroupByPartitionAvailable(t *testing.T) {
	world := ordersWorld(t)
	sel := &ast.Select{
		From: []ast.FromItem{{Alias: idn("o"), Src: &ast.IdnExp{Idn: use("orders")}}},
		GroupBy: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "customer"},
		Proj: &ast.Count{Exp: &ast.Partition{}},
	}

	result := Analyze(sel, world)
	require.Empty(t, result.Errors)
	resultT := result.State.Walk(result.Types[sel])
	coll, ok := resultT.(*kernel.Collection)
	require.True(t, ok)
	prim, ok := coll.Inner.(*kernel.Primitive)
	require.True(t, ok)
	assert.Equal(t, kernel.TInt, prim.Kind)
}

// TestPartitionOutsideGroupByReports checks that `partition` used
// without a GROUP BY produces SHP001 instead of a panic.
func TestPartitionOutsideGroupByReports(t *testing.T) {
	world := ordersWorld(t)
	sel := &ast.Select{
		From: []ast.FromItem{{Alias: idn("o"), Src: &ast.IdnExp{Idn: use("orders")}}},
		Proj: &ast.Partition{},
	}

	result := Analyze(sel, world)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "SHP001", string(result.Errors[0].Code))
}

// TestNestedComprehensionsAreIndependent confirms two structurally
// identical, lexically nested comprehensions each get their own
// generator entity rather than sharing one (spec §8 scenario 4).
func TestNestedComprehensionsAreIndependent(t *testing.T) {
	world := ordersWorld(t)
	innerX := idn("x")
	outerX := idn("x")
	innerUse := &ast.IdnExp{Idn: use("x")}
	outerUse := &ast.IdnExp{Idn: use("x")}

	inner := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals:  []ast.Qualifier{&ast.Gen{Pattern: &ast.PatternIdn{Idn: innerX}, Src: &ast.IdnExp{Idn: use("orders")}}},
		Yield:  innerUse,
	}
	outer := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals:  []ast.Qualifier{&ast.Gen{Pattern: &ast.PatternIdn{Idn: outerX}, Src: inner}},
		Yield:  outerUse,
	}

	result := Analyze(outer, world)
	require.Empty(t, result.Errors)

	innerEnt := result.Entities[innerUse.Idn].(*entity.VariableEntity)
	outerEnt := result.Entities[outerUse.Idn].(*entity.VariableEntity)
	assert.Same(t, innerX, innerEnt.Idn)
	assert.Same(t, outerX, outerEnt.Idn)
	assert.NotSame(t, innerEnt, outerEnt)
}

// TestUnknownIdentifierReports checks scenario 6: an identifier that
// resolves to nothing produces ENT001 rather than a panic.
func TestUnknownIdentifierReports(t *testing.T) {
	world := ordersWorld(t)
	tree := &ast.IdnExp{Idn: use("nonexistent")}

	result := Analyze(tree, world)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "ENT001", string(result.Errors[0].Code))
	_, isAny := result.State.Walk(result.Types[tree]).(*kernel.AnyType)
	assert.True(t, isAny)
}

// TestBadMonoidReports checks scenario 5: unifying two collections
// whose concrete monoids differ (unification requires identical tags,
// even though list <= set in the partial order) is reported rather
// than panicking.
func TestBadMonoidReports(t *testing.T) {
	world := ordersWorld(t)
	tree := &ast.IfThenElse{
		Cond: &ast.BoolConst{Value: true},
		Then: &ast.MultiCons{Monoid: ast.ListMonoid, Elems: []ast.Expr{&ast.IntConst{Value: 1}}},
		Else: &ast.MultiCons{Monoid: ast.SetMonoid, Elems: []ast.Expr{&ast.IntConst{Value: 1}}},
	}

	result := Analyze(tree, world)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "MON001", string(result.Errors[0].Code))
}

// TestDuplicateDeclarationReportsOnceAndMarksBoth exercises the
// shadowing rule end to end: both the earlier and later IdnDef for the
// same name in one scope become MultipleEntity.
func TestDuplicateDeclarationReportsOnceAndMarksBoth(t *testing.T) {
	world := ordersWorld(t)
	first := idn("x")
	second := idn("x")
	tree := &ast.ExpBlock{
		Binds: []ast.Qualifier{
			&ast.Bind{Pattern: &ast.PatternIdn{Idn: first}, Src: &ast.IntConst{Value: 1}},
			&ast.Bind{Pattern: &ast.PatternIdn{Idn: second}, Src: &ast.IntConst{Value: 2}},
		},
		Exp: &ast.IdnExp{Idn: use("x")},
	}

	result := Analyze(tree, world)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "ENT002", string(result.Errors[0].Code))

	_, firstIsMultiple := result.Entities[first].(*entity.MultipleEntity)
	_, secondIsMultiple := result.Entities[second].(*entity.MultipleEntity)
	assert.True(t, firstIsMultiple)
	assert.True(t, secondIsMultiple)
}

// TestLetPolymorphismInstantiatesIndependently checks that a
// polymorphic identity function bound via Bind can be applied to two
// different types without one use constraining the other (spec §8
// invariant 5).
func TestLetPolymorphismInstantiatesIndependently(t *testing.T) {
	world := ordersWorld(t)
	idFn := &ast.FunAbs{Pattern: &ast.PatternIdn{Idn: idn("v")}, Body: &ast.IdnExp{Idn: use("v")}}
	useInt := &ast.FunApp{Fun: &ast.IdnExp{Idn: use("id")}, Arg: &ast.IntConst{Value: 1}}
	useStr := &ast.FunApp{Fun: &ast.IdnExp{Idn: use("id")}, Arg: &ast.StringConst{Value: "s"}}
	tree := &ast.ExpBlock{
		Binds: []ast.Qualifier{
			&ast.Bind{Pattern: &ast.PatternIdn{Idn: idn("id")}, Src: idFn},
		},
		Exp: &ast.RecordCons{Atts: []ast.RecordAtt{
			{Idn: "a", Exp: useInt},
			{Idn: "b", Exp: useStr},
		}},
	}

	result := Analyze(tree, world)
	require.Empty(t, result.Errors)

	intT := result.State.Walk(result.Types[useInt])
	strT := result.State.Walk(result.Types[useStr])
	_, intIsPrim := intT.(*kernel.Primitive)
	_, strIsPrim := strT.(*kernel.Primitive)
	assert.True(t, intIsPrim)
	assert.True(t, strIsPrim)
	assert.Equal(t, kernel.TInt, intT.(*kernel.Primitive).Kind)
	assert.Equal(t, kernel.TString, strT.(*kernel.Primitive).Kind)
}
