package unnest

import (
	"fmt"

	"github.com/sunholo/queryc/internal/algebra"
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/canon"
	"github.com/sunholo/queryc/internal/kernel"
)

// translateExpr implements spec §4.5 "expression translation": every
// IdnExp becomes an Argument positioned by p, every other node
// survives structurally, and anything the canonical invariant rules
// out (nested comprehensions, collection monoids in arithmetic
// position) is an internal error.
func (s *state) translateExpr(e ast.Expr, p Pattern) algebra.Expr {
	switch n := e.(type) {
	case *ast.BoolConst:
		return &algebra.Const{T: s.typeOf(e), Value: n.Value}
	case *ast.IntConst:
		return &algebra.Const{T: s.typeOf(e), Value: n.Value}
	case *ast.FloatConst:
		return &algebra.Const{T: s.typeOf(e), Value: n.Value}
	case *ast.StringConst:
		return &algebra.Const{T: s.typeOf(e), Value: n.Value}
	case *ast.IdnExp:
		idx, ok := indexOfVar(patternVariables(p), n.Idn.Name)
		if !ok {
			s.internal(n.Pos, "free variable %q has no Argument binding in the current pattern", n.Idn.Name)
			return &algebra.Const{T: s.typeOf(e)}
		}
		return &algebra.Argument{T: s.typeOf(e), Index: idx}
	case *ast.RecordCons:
		atts := make([]algebra.Att, len(n.Atts))
		for i, a := range n.Atts {
			atts[i] = algebra.Att{Name: a.Idn, Exp: s.translateExpr(a.Exp, p)}
		}
		return &algebra.RecordCons{Atts: atts, T: s.typeOf(e)}
	case *ast.RecordProj:
		return &algebra.RecordProj{Exp: s.translateExpr(n.Exp, p), Name: n.Idn, T: s.typeOf(e)}
	case *ast.IfThenElse:
		return &algebra.IfThenElse{
			Cond: s.translateExpr(n.Cond, p),
			Then: s.translateExpr(n.Then, p),
			Else: s.translateExpr(n.Else, p),
			T:    s.typeOf(e),
		}
	case *ast.BinaryExp:
		return &algebra.BinaryOp{Op: n.Op.String(), Left: s.translateExpr(n.Left, p), Right: s.translateExpr(n.Right, p), T: s.typeOf(e)}
	case *ast.UnaryExp:
		return &algebra.UnaryOp{Op: n.Op.String(), Exp: s.translateExpr(n.Exp, p), T: s.typeOf(e)}
	default:
		s.internal(e.Position(), "expression %T must have been eliminated before unnesting", e)
		return &algebra.Const{T: s.typeOf(e)}
	}
}

// translateConjunction ANDs a list of canonical conjuncts (already
// restricted to p's variables by splitPredicate) into one algebra
// Expr, defaulting to the literal true for an empty list.
func (s *state) translateConjunction(conjuncts []ast.Expr, p Pattern) algebra.Expr {
	if len(conjuncts) == 0 {
		return &algebra.Const{T: kernel.NewPrimitive(kernel.TBool), Value: true}
	}
	out := s.translateExpr(conjuncts[0], p)
	for _, c := range conjuncts[1:] {
		out = &algebra.BinaryOp{Op: "and", Left: out, Right: s.translateExpr(c, p), T: kernel.NewPrimitive(kernel.TBool)}
	}
	return out
}

// pathToAlgebraExpr converts a canonical Path into the algebra
// expression used as Unnest/OuterUnnest's Path field, resolving its
// root variable against p.
func (s *state) pathToAlgebraExpr(pa canon.Path, p Pattern) algebra.Expr {
	switch n := pa.(type) {
	case *canon.VariablePath:
		idx, ok := indexOfVar(patternVariables(p), n.Name)
		if !ok {
			s.internal(ast.Pos{}, "path variable %q has no Argument binding", n.Name)
			return &algebra.Const{T: n.T}
		}
		return &algebra.Argument{T: n.T, Index: idx}
	case *canon.InnerPath:
		return &algebra.RecordProj{Exp: s.pathToAlgebraExpr(n.Prefix, p), Name: n.Field, T: n.T}
	default:
		s.internal(ast.Pos{}, "unrecognized path %T", pa)
		return &algebra.Const{}
	}
}

// patternExpr materializes target's variables, looked up in ctx, as a
// single algebra Expr: bare for one variable, a tupled RecordCons for
// more than one, spec §4.5's implicit "key/g are expressions" reading
// of Nest's pattern-valued fields.
func (s *state) patternExpr(target, ctx Pattern) algebra.Expr {
	vars := patternVariables(target)
	if len(vars) == 0 {
		return &algebra.Const{T: kernel.NewPrimitive(kernel.TBool), Value: true}
	}
	if len(vars) == 1 {
		return s.argumentFor(vars[0], ctx)
	}
	atts := make([]algebra.Att, len(vars))
	fieldTypes := make([]kernel.Att, len(vars))
	for i, v := range vars {
		field := fmt.Sprintf("_%d", i+1)
		atts[i] = algebra.Att{Name: field, Exp: s.argumentFor(v, ctx)}
		fieldTypes[i] = kernel.Att{Idn: field, Type: v.T}
	}
	return &algebra.RecordCons{Atts: atts, T: kernel.NewRecord(&kernel.Attributes{Atts: fieldTypes})}
}

func (s *state) argumentFor(v Variable, ctx Pattern) algebra.Expr {
	idx, ok := indexOfVar(patternVariables(ctx), v.Name)
	if !ok {
		s.internal(ast.Pos{}, "pattern variable %q not found in context pattern", v.Name)
		return &algebra.Const{T: v.T}
	}
	return &algebra.Argument{T: v.T, Index: idx}
}
