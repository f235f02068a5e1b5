package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/kernel"
)

func idn(name string) *ast.IdnDef { return &ast.IdnDef{Name: name} }
func use(name string) *ast.IdnUse { return &ast.IdnUse{Name: name} }

// TestBetaReduceInlinesIdnPattern confirms `(fun x -> x.age)(s)` beta-
// reduces to `s.age` by direct substitution (spec §4.4).
func TestBetaReduceInlinesIdnPattern(t *testing.T) {
	x := idn("x")
	sIdn := &ast.IdnExp{Idn: use("s")}
	body := &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("x")}, Idn: "age"}
	app := &ast.FunApp{Fun: &ast.FunAbs{Pattern: &ast.PatternIdn{Idn: x}, Body: body}, Arg: sIdn}

	entities := map[ast.Node]entity.Entity{}
	types := map[ast.Expr]kernel.Type{sIdn: kernel.NewPrimitive(kernel.TInt)}

	c := &Canonicalizer{entities: entities, types: types}
	out, ok := c.betaReduce(app)
	require.True(t, ok)

	proj, ok := out.(*ast.RecordProj)
	require.True(t, ok)
	inner, ok := proj.Exp.(*ast.IdnExp)
	require.True(t, ok)
	assert.Equal(t, "s", inner.Idn.Name)
}

// TestInlineBindRemovesBindQualifier confirms `for (x := e; P(x)) yield
// x` collapses to `for (P(e)) yield e`.
func TestInlineBindRemovesBindQualifier(t *testing.T) {
	e := &ast.IdnExp{Idn: use("total")}
	x := idn("x")
	pred := &ast.BoolQualifier{Exp: &ast.BinaryExp{Op: ast.OpGt, Left: &ast.IdnExp{Idn: use("x")}, Right: &ast.IntConst{Value: 0}}}
	comp := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals: []ast.Qualifier{
			&ast.Bind{Pattern: &ast.PatternIdn{Idn: x}, Src: e},
			pred,
		},
		Yield: &ast.IdnExp{Idn: use("x")},
	}

	c := &Canonicalizer{entities: map[ast.Node]entity.Entity{}, types: map[ast.Expr]kernel.Type{}}
	out, ok := c.inlineBind(comp)
	require.True(t, ok)

	newComp, ok := out.(*ast.Comp)
	require.True(t, ok)
	require.Len(t, newComp.Quals, 1)
	bq, ok := newComp.Quals[0].(*ast.BoolQualifier)
	require.True(t, ok)
	bin, ok := bq.Exp.(*ast.BinaryExp)
	require.True(t, ok)
	leftIdn, ok := bin.Left.(*ast.IdnExp)
	require.True(t, ok)
	assert.Equal(t, "total", leftIdn.Idn.Name)

	yieldIdn, ok := newComp.Yield.(*ast.IdnExp)
	require.True(t, ok)
	assert.Equal(t, "total", yieldIdn.Idn.Name)
}

// TestCollapsePredicateMergesMultipleBoolQualifiers confirms several
// BoolQualifiers fold into one trailing AND-joined qualifier.
func TestCollapsePredicateMergesMultipleBoolQualifiers(t *testing.T) {
	g := &ast.Gen{Pattern: &ast.PatternIdn{Idn: idn("s")}, Src: &ast.IdnExp{Idn: use("students")}}
	p1 := &ast.BoolQualifier{Exp: &ast.BinaryExp{Op: ast.OpGt, Left: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("s")}, Idn: "age"}, Right: &ast.IntConst{Value: 18}}}
	p2 := &ast.BoolQualifier{Exp: &ast.BinaryExp{Op: ast.OpLt, Left: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("s")}, Idn: "age"}, Right: &ast.IntConst{Value: 30}}}
	comp := &ast.Comp{Monoid: ast.SetMonoid, Quals: []ast.Qualifier{g, p1, p2}, Yield: &ast.IdnExp{Idn: use("s")}}

	c := &Canonicalizer{entities: map[ast.Node]entity.Entity{}, types: map[ast.Expr]kernel.Type{}}
	out, ok := c.collapsePredicate(comp)
	require.True(t, ok)

	newComp := out.(*ast.Comp)
	require.Len(t, newComp.Quals, 2)
	_, isGen := newComp.Quals[0].(*ast.Gen)
	assert.True(t, isGen)
	bq, ok := newComp.Quals[1].(*ast.BoolQualifier)
	require.True(t, ok)
	bin, ok := bq.Exp.(*ast.BinaryExp)
	require.True(t, ok)
	assert.Equal(t, ast.OpAnd, bin.Op)
}

// TestCollapsePredicateNoOpWhenAlreadyCanonical confirms a comp whose
// single trailing BoolQualifier is already canonical is left alone
// (so the fixed-point loop in Canonicalize terminates).
func TestCollapsePredicateNoOpWhenAlreadyCanonical(t *testing.T) {
	g := &ast.Gen{Pattern: &ast.PatternIdn{Idn: idn("s")}, Src: &ast.IdnExp{Idn: use("students")}}
	p := &ast.BoolQualifier{Exp: &ast.BoolConst{Value: true}}
	comp := &ast.Comp{Monoid: ast.SetMonoid, Quals: []ast.Qualifier{g, p}, Yield: &ast.IdnExp{Idn: use("s")}}

	c := &Canonicalizer{entities: map[ast.Node]entity.Entity{}, types: map[ast.Expr]kernel.Type{}}
	_, changed := c.collapsePredicate(comp)
	assert.False(t, changed)
}

// TestPathOfVariableAndDataSource confirms PathOf recognizes both a
// bound variable and a catalog data source as a VariablePath (the fix
// that lets a top-level generator's source validate as path-shaped).
func TestPathOfVariableAndDataSource(t *testing.T) {
	sIdn := &ast.IdnExp{Idn: use("s")}
	srcIdn := &ast.IdnExp{Idn: use("students")}
	entities := map[ast.Node]entity.Entity{
		sIdn.Idn:   &entity.VariableEntity{Idn: idn("s"), Type: kernel.NewAnyType()},
		srcIdn.Idn: &entity.DataSourceEntity{Sym: "students", Type: kernel.NewAnyType()},
	}
	types := map[ast.Expr]kernel.Type{}

	p1, ok := PathOf(sIdn, types, entities)
	require.True(t, ok)
	vp1, ok := p1.(*VariablePath)
	require.True(t, ok)
	assert.Equal(t, "s", vp1.Name)

	p2, ok := PathOf(srcIdn, types, entities)
	require.True(t, ok)
	vp2, ok := p2.(*VariablePath)
	require.True(t, ok)
	assert.Equal(t, "students", vp2.Name)
}

// TestPathOfRecordProjChain confirms a chain of projections off a
// bound variable is an InnerPath wrapping a VariablePath.
func TestPathOfRecordProjChain(t *testing.T) {
	sIdn := &ast.IdnExp{Idn: use("s")}
	proj := &ast.RecordProj{Exp: sIdn, Idn: "address"}
	proj2 := &ast.RecordProj{Exp: proj, Idn: "city"}
	entities := map[ast.Node]entity.Entity{sIdn.Idn: &entity.VariableEntity{Idn: idn("s"), Type: kernel.NewAnyType()}}

	p, ok := PathOf(proj2, map[ast.Expr]kernel.Type{}, entities)
	require.True(t, ok)
	ip, ok := p.(*InnerPath)
	require.True(t, ok)
	assert.Equal(t, "city", ip.Field)
	inner, ok := ip.Prefix.(*InnerPath)
	require.True(t, ok)
	assert.Equal(t, "address", inner.Field)
}

// TestPathOfRejectsNonPathExpr confirms an arbitrary computation (not
// a variable or chain of projections) is not path-shaped.
func TestPathOfRejectsNonPathExpr(t *testing.T) {
	e := &ast.BinaryExp{Op: ast.OpPlus, Left: &ast.IntConst{Value: 1}, Right: &ast.IntConst{Value: 2}}
	_, ok := PathOf(e, map[ast.Expr]kernel.Type{}, map[ast.Node]entity.Entity{})
	assert.False(t, ok)
}

// TestCanonicalizeEndToEnd exercises the full fixed-point loop: a
// FunApp-wrapped filter collapses through beta-reduction and predicate
// collapse into one canonical comprehension with a path-shaped
// generator.
func TestCanonicalizeEndToEnd(t *testing.T) {
	s := idn("s")
	srcIdn := &ast.IdnExp{Idn: use("students")}
	x := idn("x")
	predFn := &ast.FunApp{
		Fun: &ast.FunAbs{Pattern: &ast.PatternIdn{Idn: x}, Body: &ast.BinaryExp{
			Op:   ast.OpGt,
			Left: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("x")}, Idn: "age"},
			Right: &ast.IntConst{Value: 18},
		}},
		Arg: &ast.IdnExp{Idn: use("s")},
	}
	comp := &ast.Comp{
		Monoid: ast.SetMonoid,
		Quals: []ast.Qualifier{
			&ast.Gen{Pattern: &ast.PatternIdn{Idn: s}, Src: srcIdn},
			&ast.BoolQualifier{Exp: predFn},
		},
		Yield: &ast.IdnExp{Idn: use("s")},
	}

	entities := map[ast.Node]entity.Entity{
		srcIdn.Idn: &entity.DataSourceEntity{Sym: "students", Type: kernel.NewAnyType()},
	}
	// Register every IdnUse referencing s or x as a VariableEntity so
	// PathOf and substitution both resolve them consistently.
	ast.Walk(comp, func(n ast.Node) {
		if idnExp, ok := n.(*ast.IdnExp); ok {
			switch idnExp.Idn.Name {
			case "s":
				entities[idnExp.Idn] = &entity.VariableEntity{Idn: s, Type: kernel.NewAnyType()}
			case "x":
				entities[idnExp.Idn] = &entity.VariableEntity{Idn: x, Type: kernel.NewAnyType()}
			}
		}
	})
	types := map[ast.Expr]kernel.Type{}

	out, _, _, errs := Canonicalize(comp, entities, types)
	require.Empty(t, errs)

	newComp, ok := out.(*ast.Comp)
	require.True(t, ok)
	require.Len(t, newComp.Quals, 2)
	_, isGen := newComp.Quals[0].(*ast.Gen)
	assert.True(t, isGen)
	bq, ok := newComp.Quals[1].(*ast.BoolQualifier)
	require.True(t, ok)
	_, isBinary := bq.Exp.(*ast.BinaryExp)
	assert.True(t, isBinary)
}
