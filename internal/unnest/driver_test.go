package unnest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/queryc/internal/algebra"
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/kernel"
)

func uidn(name string) *ast.IdnDef { return &ast.IdnDef{Name: name} }
func uuse(name string) *ast.IdnUse { return &ast.IdnUse{Name: name} }

func intType() kernel.Type { return kernel.NewPrimitive(kernel.TInt) }

// TestUnnestSimpleFilter covers rules C4/C5: a single generator over a
// catalog source with a predicate referencing only its own variable
// compiles to Reduce over a Select over a Scan.
func TestUnnestSimpleFilter(t *testing.T) {
	sSrc := &ast.IdnExp{Idn: uuse("students")}
	sUse := &ast.IdnExp{Idn: uuse("s")}
	pred := &ast.BinaryExp{Op: ast.OpGt, Left: &ast.RecordProj{Exp: &ast.IdnExp{Idn: uuse("s")}, Idn: "age"}, Right: &ast.IntConst{Value: 20}}
	gen := &ast.Gen{Pattern: &ast.PatternIdn{Idn: uidn("s")}, Src: sSrc}
	comp := &ast.Comp{Monoid: ast.SetMonoid, Quals: []ast.Qualifier{gen, &ast.BoolQualifier{Exp: pred}}, Yield: sUse}

	entities := map[ast.Node]entity.Entity{
		sSrc.Idn: &entity.DataSourceEntity{Sym: "students", Type: kernel.NewCollection(kernel.Concrete(kernel.SetMonoid), intType())},
	}
	ast.Walk(comp, func(n ast.Node) {
		if e, ok := n.(*ast.IdnExp); ok && e.Idn.Name == "s" {
			entities[e.Idn] = &entity.VariableEntity{Idn: uidn("s"), Type: intType()}
		}
	})
	types := map[ast.Expr]kernel.Type{}

	alg, errs := Unnest(comp, types, entities)
	require.Empty(t, errs)

	reduce, ok := alg.(*algebra.Reduce)
	require.True(t, ok, "expected *algebra.Reduce, got %T", alg)
	assert.Equal(t, kernel.SetMonoid, reduce.Monoid.Tag)
	_, isArg := reduce.Elem.(*algebra.Argument)
	assert.True(t, isArg)

	sel, ok := reduce.Child.(*algebra.Select)
	require.True(t, ok, "expected *algebra.Select child, got %T", reduce.Child)
	scan, ok := sel.Child.(*algebra.Scan)
	require.True(t, ok)
	assert.Equal(t, "students", scan.Name)
}

// TestUnnestJoin covers rules C4/C6: two generators over catalog
// sources with a predicate referencing both compile to a Join of two
// Selects.
func TestUnnestJoin(t *testing.T) {
	sSrc := &ast.IdnExp{Idn: uuse("students")}
	pSrc := &ast.IdnExp{Idn: uuse("professors")}
	pred := &ast.BinaryExp{
		Op:   ast.OpEq,
		Left: &ast.RecordProj{Exp: &ast.IdnExp{Idn: uuse("s")}, Idn: "age"},
		Right: &ast.RecordProj{Exp: &ast.IdnExp{Idn: uuse("p")}, Idn: "age"},
	}
	genS := &ast.Gen{Pattern: &ast.PatternIdn{Idn: uidn("s")}, Src: sSrc}
	genP := &ast.Gen{Pattern: &ast.PatternIdn{Idn: uidn("p")}, Src: pSrc}
	yield := &ast.RecordCons{Atts: []ast.RecordAtt{
		{Idn: "_1", Exp: &ast.RecordProj{Exp: &ast.IdnExp{Idn: uuse("s")}, Idn: "name"}},
		{Idn: "_2", Exp: &ast.RecordProj{Exp: &ast.IdnExp{Idn: uuse("p")}, Idn: "name"}},
	}}
	comp := &ast.Comp{Monoid: ast.ListMonoid, Quals: []ast.Qualifier{genS, genP, &ast.BoolQualifier{Exp: pred}}, Yield: yield}

	entities := map[ast.Node]entity.Entity{
		sSrc.Idn: &entity.DataSourceEntity{Sym: "students", Type: kernel.NewCollection(kernel.Concrete(kernel.SetMonoid), intType())},
		pSrc.Idn: &entity.DataSourceEntity{Sym: "professors", Type: kernel.NewCollection(kernel.Concrete(kernel.SetMonoid), intType())},
	}
	ast.Walk(comp, func(n ast.Node) {
		if e, ok := n.(*ast.IdnExp); ok {
			switch e.Idn.Name {
			case "s":
				entities[e.Idn] = &entity.VariableEntity{Idn: uidn("s"), Type: intType()}
			case "p":
				entities[e.Idn] = &entity.VariableEntity{Idn: uidn("p"), Type: intType()}
			}
		}
	})
	types := map[ast.Expr]kernel.Type{}

	alg, errs := Unnest(comp, types, entities)
	require.Empty(t, errs)

	reduce, ok := alg.(*algebra.Reduce)
	require.True(t, ok, "expected *algebra.Reduce, got %T", alg)
	join, ok := reduce.Child.(*algebra.Join)
	require.True(t, ok, "expected *algebra.Join, got %T", reduce.Child)
	leftSel, ok := join.Left.(*algebra.Select)
	require.True(t, ok)
	rightSel, ok := join.Right.(*algebra.Select)
	require.True(t, ok)
	leftScan, ok := leftSel.Child.(*algebra.Scan)
	require.True(t, ok)
	assert.Equal(t, "students", leftScan.Name)
	rightScan, ok := rightSel.Child.(*algebra.Scan)
	require.True(t, ok)
	assert.Equal(t, "professors", rightScan.Name)
}

// TestPairTypeRightNullableForcesRightSide checks spec §4.2's "outer
// join/unnest forces the right side nullable": pairType on its own
// leaves v's type untouched, but pairTypeRightNullable must return a
// type where v's contribution is nullable even when v.T started out
// non-nullable.
func TestPairTypeRightNullableForcesRightSide(t *testing.T) {
	s := &state{}
	w := VariablePattern{Var: Variable{Name: "s", T: intType()}}
	v := Variable{Name: "p", T: intType()}

	plain := s.pairType(w, v)
	rec, ok := plain.(*kernel.Record)
	require.True(t, ok)
	right, ok := rec.Atts.(*kernel.Attributes)
	require.True(t, ok)
	assert.False(t, right.Atts[1].Type.Nullable())

	forced := s.pairTypeRightNullable(w, v)
	rec2, ok := forced.(*kernel.Record)
	require.True(t, ok)
	atts2, ok := rec2.Atts.(*kernel.Attributes)
	require.True(t, ok)
	assert.True(t, atts2.Atts[1].Type.Nullable())
}

// TestUnnestRejectsNonComp confirms a non-comprehension root reports
// an internal error rather than panicking.
func TestUnnestRejectsNonComp(t *testing.T) {
	notComp := &ast.IntConst{Value: 1}
	_, errs := Unnest(notComp, map[ast.Expr]kernel.Type{}, map[ast.Node]entity.Entity{})
	assert.NotEmpty(t, errs)
}
