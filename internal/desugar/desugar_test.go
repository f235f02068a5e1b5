package desugar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/queryc/internal/analyzer"
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/kernel"
)

func idn(name string) *ast.IdnDef { return &ast.IdnDef{Name: name} }
func use(name string) *ast.IdnUse { return &ast.IdnUse{Name: name} }

// TestDesugarSelectFlatBecomesComp confirms a GROUP-BY-less Select
// becomes a plain bag comprehension, WHERE folded into a trailing
// BoolQualifier (spec §4.3).
func TestDesugarSelectFlatBecomesComp(t *testing.T) {
	o := idn("o")
	sel := &ast.Select{
		From:  []ast.FromItem{{Alias: o, Src: &ast.IdnExp{Idn: use("orders")}}},
		Where: &ast.BinaryExp{Op: ast.OpGt, Left: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "total"}, Right: &ast.FloatConst{Value: 100}},
		Proj:  &ast.IdnExp{Idn: use("o")},
	}

	d := &Desugarer{entities: map[ast.Node]entity.Entity{}, types: map[ast.Expr]kernel.Type{}, anonSym: map[*ast.Gen]*ast.IdnDef{}, fromSym: map[*ast.FromItem]*ast.IdnDef{}}
	out, ok := d.desugarSelectFlat(sel)
	require.True(t, ok)

	comp, ok := out.(*ast.Comp)
	require.True(t, ok)
	assert.Equal(t, ast.BagMonoid, comp.Monoid)
	require.Len(t, comp.Quals, 2)
	gen, ok := comp.Quals[0].(*ast.Gen)
	require.True(t, ok)
	pat, ok := gen.Pattern.(*ast.PatternIdn)
	require.True(t, ok)
	assert.Equal(t, "o", pat.Idn.Name)
	_, isBool := comp.Quals[1].(*ast.BoolQualifier)
	assert.True(t, isBool)
}

// TestDesugarSelectFlatDistinctBecomesSet confirms SELECT DISTINCT
// desugars to the set monoid rather than bag.
func TestDesugarSelectFlatDistinctBecomesSet(t *testing.T) {
	sel := &ast.Select{
		From:     []ast.FromItem{{Alias: idn("o"), Src: &ast.IdnExp{Idn: use("orders")}}},
		Distinct: true,
		Proj:     &ast.IdnExp{Idn: use("o")},
	}
	d := &Desugarer{entities: map[ast.Node]entity.Entity{}, types: map[ast.Expr]kernel.Type{}, anonSym: map[*ast.Gen]*ast.IdnDef{}, fromSym: map[*ast.FromItem]*ast.IdnDef{}}
	out, ok := d.desugarSelectFlat(sel)
	require.True(t, ok)
	comp := out.(*ast.Comp)
	assert.Equal(t, ast.SetMonoid, comp.Monoid)
}

// TestDesugarSelectFlatSkipsGroupBy confirms a Select with a GroupBy
// is left for desugarSelectGroup to handle first.
func TestDesugarSelectFlatSkipsGroupBy(t *testing.T) {
	sel := &ast.Select{
		From:    []ast.FromItem{{Alias: idn("o"), Src: &ast.IdnExp{Idn: use("orders")}}},
		GroupBy: &ast.IdnExp{Idn: use("o")},
		Proj:    &ast.IdnExp{Idn: use("o")},
	}
	d := &Desugarer{entities: map[ast.Node]entity.Entity{}, types: map[ast.Expr]kernel.Type{}, anonSym: map[*ast.Gen]*ast.IdnDef{}, fromSym: map[*ast.FromItem]*ast.IdnDef{}}
	_, changed := d.desugarSelectFlat(sel)
	assert.False(t, changed)
}

// TestAssignAnonSymsAndRewrite confirms an anonymous Comp generator
// gets a synthetic binder, and a GenAttributeEntity use of its
// attribute rewrites to a RecordProj off that binder (spec §4.3
// "anonymous generators gain real names").
func TestAssignAnonSymsAndRewrite(t *testing.T) {
	gen := &ast.Gen{Pattern: nil, Src: &ast.IdnExp{Idn: use("students")}}
	attrUse := &ast.IdnExp{Idn: use("age")}
	comp := &ast.Comp{Monoid: ast.SetMonoid, Quals: []ast.Qualifier{gen}, Yield: attrUse}

	studentT := kernel.NewCollection(kernel.Concrete(kernel.SetMonoid), kernel.NewRecord(&kernel.Attributes{
		Atts: []kernel.Att{{Idn: "age", Type: kernel.NewPrimitive(kernel.TInt)}},
	}))

	entities := map[ast.Node]entity.Entity{
		attrUse.Idn: &entity.GenAttributeEntity{Attr: "age", Gen: gen, Type: kernel.NewPrimitive(kernel.TInt)},
	}
	types := map[ast.Expr]kernel.Type{gen.Src: studentT}

	d := &Desugarer{entities: entities, types: types, anonSym: map[*ast.Gen]*ast.IdnDef{}, fromSym: map[*ast.FromItem]*ast.IdnDef{}}
	d.assignAnonSyms(comp)
	require.Contains(t, d.anonSym, gen)

	out, ok := d.desugarAnonGenUse(attrUse)
	require.True(t, ok)
	proj, ok := out.(*ast.RecordProj)
	require.True(t, ok)
	assert.Equal(t, "age", proj.Idn)
	inner, ok := proj.Exp.(*ast.IdnExp)
	require.True(t, ok)
	assert.Equal(t, d.anonSym[gen].Name, inner.Idn.Name)
}

// TestDesugarEndToEnd exercises the full fixed-point Desugar entry
// point over a Select with a WHERE clause, confirming it reaches a
// stable Comp with no Select nodes remaining.
func TestDesugarEndToEnd(t *testing.T) {
	o := idn("o")
	sel := &ast.Select{
		From:  []ast.FromItem{{Alias: o, Src: &ast.IdnExp{Idn: use("orders")}}},
		Where: &ast.BinaryExp{Op: ast.OpGt, Left: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "total"}, Right: &ast.FloatConst{Value: 100}},
		Proj:  &ast.IdnExp{Idn: use("o")},
	}

	result := &analyzer.Result{
		Entities: map[ast.Node]entity.Entity{},
		Types:    map[ast.Expr]kernel.Type{},
	}

	out, _, _ := Desugar(sel, result)
	comp, ok := out.(*ast.Comp)
	require.True(t, ok)
	assert.Equal(t, ast.BagMonoid, comp.Monoid)
	for _, q := range comp.Quals {
		_, isGen := q.(*ast.Gen)
		_, isBool := q.(*ast.BoolQualifier)
		assert.True(t, isGen || isBool)
	}
}
