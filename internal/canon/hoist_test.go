package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/kernel"
)

// TestHoistNestedFlattensSameMonoid confirms a same-monoid nested
// comprehension yield folds its generators/predicate into the outer
// qualifier list (spec §4.4).
func TestHoistNestedFlattensSameMonoid(t *testing.T) {
	outerGen := &ast.Gen{Pattern: &ast.PatternIdn{Idn: idn("d")}, Src: &ast.IdnExp{Idn: use("depts")}}
	innerGen := &ast.Gen{Pattern: &ast.PatternIdn{Idn: idn("s")}, Src: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("d")}, Idn: "students"}}
	innerPred := &ast.BoolQualifier{Exp: &ast.BoolConst{Value: true}}
	inner := &ast.Comp{Monoid: ast.SetMonoid, Quals: []ast.Qualifier{innerGen, innerPred}, Yield: &ast.IdnExp{Idn: use("s")}}
	outer := &ast.Comp{Monoid: ast.SetMonoid, Quals: []ast.Qualifier{outerGen}, Yield: inner}

	c := &Canonicalizer{entities: map[ast.Node]entity.Entity{}, types: map[ast.Expr]kernel.Type{}}
	out, ok := c.hoistNested(outer)
	require.True(t, ok)

	merged, ok := out.(*ast.Comp)
	require.True(t, ok)
	require.Len(t, merged.Quals, 3)
	assert.Same(t, outerGen, merged.Quals[0])
	assert.Same(t, innerGen, merged.Quals[1])
	assert.Same(t, innerPred, merged.Quals[2])

	yieldIdn, ok := merged.Yield.(*ast.IdnExp)
	require.True(t, ok)
	assert.Equal(t, "s", yieldIdn.Idn.Name)
}

// TestHoistNestedSkipsDifferentMonoid confirms a nested comprehension
// of a different monoid is left alone — hoisting only applies when
// the inner and outer monoids match (spec §4.4).
func TestHoistNestedSkipsDifferentMonoid(t *testing.T) {
	inner := &ast.Comp{Monoid: ast.ListMonoid, Yield: &ast.IdnExp{Idn: use("s")}}
	outer := &ast.Comp{Monoid: ast.SetMonoid, Yield: inner}

	c := &Canonicalizer{entities: map[ast.Node]entity.Entity{}, types: map[ast.Expr]kernel.Type{}}
	_, changed := c.hoistNested(outer)
	assert.False(t, changed)
}

// TestHoistNestedSkipsNonCompYield confirms an ordinary (non-Comp)
// yield is a no-op for this rule.
func TestHoistNestedSkipsNonCompYield(t *testing.T) {
	outer := &ast.Comp{Monoid: ast.SetMonoid, Yield: &ast.IdnExp{Idn: use("s")}}
	c := &Canonicalizer{entities: map[ast.Node]entity.Entity{}, types: map[ast.Expr]kernel.Type{}}
	_, changed := c.hoistNested(outer)
	assert.False(t, changed)
}
