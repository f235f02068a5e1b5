package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/kernel"
)

// TestNullabilityPropagatesThroughProjection checks spec §4.2's
// nullability pass: orders.shipped is declared nullable in the catalog
// fixture, so projecting it should mark both the projection and the
// enclosing comprehension's element type nullable.
func TestNullabilityPropagatesThroughProjection(t *testing.T) {
	world := ordersWorld(t)
	o := idn("o")
	proj := &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "shipped"}
	tree := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals: []ast.Qualifier{
			&ast.Gen{Pattern: &ast.PatternIdn{Idn: o}, Src: &ast.IdnExp{Idn: use("orders")}},
		},
		Yield: proj,
	}

	result := Analyze(tree, world)
	require.Empty(t, result.Errors)

	assert.True(t, result.Types[proj].Nullable(), "o.shipped should be nullable")

	coll, ok := result.State.Walk(result.Types[tree]).(*kernel.Collection)
	require.True(t, ok)
	assert.True(t, coll.Inner.Nullable(), "comprehension element type should inherit the yield's nullability")
}

// TestNullabilityPropagatesThroughBinaryExp checks that a non-nullable
// construct (here, an equality comparison) becomes nullable once one of
// its operands does.
func TestNullabilityPropagatesThroughBinaryExp(t *testing.T) {
	world := ordersWorld(t)
	o := idn("o")
	cmp := &ast.BinaryExp{
		Op:    ast.OpEq,
		Left:  &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "shipped"},
		Right: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "shipped"},
	}
	tree := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals: []ast.Qualifier{
			&ast.Gen{Pattern: &ast.PatternIdn{Idn: o}, Src: &ast.IdnExp{Idn: use("orders")}},
		},
		Yield: cmp,
	}

	result := Analyze(tree, world)
	require.Empty(t, result.Errors)
	assert.True(t, result.Types[cmp].Nullable())

	// cmp's type is a freshly allocated Bool at inference time, long
	// before the pass runs, and the comprehension's Collection embeds
	// that exact object as its Inner — this only holds if the pass
	// rebuilds the Collection around cmp's updated type rather than
	// leaving the comprehension holding the stale pre-pass object.
	coll, ok := result.State.Walk(result.Types[tree]).(*kernel.Collection)
	require.True(t, ok)
	assert.True(t, coll.Inner.Nullable(), "comprehension element type should inherit the comparison's nullability")
}

// TestNullabilityLeavesNonNullableUntouched confirms the pass doesn't
// mark every node nullable by default: a comprehension over a
// non-nullable field stays non-nullable throughout.
func TestNullabilityLeavesNonNullableUntouched(t *testing.T) {
	world := ordersWorld(t)
	o := idn("o")
	proj := &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "customer"}
	tree := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals: []ast.Qualifier{
			&ast.Gen{Pattern: &ast.PatternIdn{Idn: o}, Src: &ast.IdnExp{Idn: use("orders")}},
		},
		Yield: proj,
	}

	result := Analyze(tree, world)
	require.Empty(t, result.Errors)
	assert.False(t, result.Types[proj].Nullable())
}
