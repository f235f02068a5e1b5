package analyzer

import (
	"fmt"

	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/entity"
	"github.com/sunholo/queryc/internal/errors"
	"github.com/sunholo/queryc/internal/kernel"
)

// infer is the single dispatcher over every ast.Expr variant, typing e
// in chains and returning its type (also recorded via setType).
func (a *analyzer) infer(e ast.Expr, chains *entity.Chains) kernel.Type {
	switch n := e.(type) {
	case *ast.BoolConst:
		return a.setType(e, kernel.NewPrimitive(kernel.TBool))
	case *ast.IntConst:
		return a.setType(e, kernel.NewPrimitive(kernel.TInt))
	case *ast.FloatConst:
		return a.setType(e, kernel.NewPrimitive(kernel.TFloat))
	case *ast.StringConst:
		return a.setType(e, kernel.NewPrimitive(kernel.TString))

	case *ast.IdnExp:
		ent := a.resolveIdn(n.Idn, chains)
		return a.setType(e, a.entityType(ent))

	case *ast.RecordCons:
		return a.setType(e, a.inferRecordCons(n, chains))
	case *ast.RecordProj:
		return a.setType(e, a.inferRecordProj(n, chains))

	case *ast.IfThenElse:
		cond := a.infer(n.Cond, chains)
		a.unify(cond, kernel.NewPrimitive(kernel.TBool), n.Cond.Position(), n.Pos)
		thenT := a.infer(n.Then, chains)
		elseT := a.infer(n.Else, chains)
		return a.setType(e, a.unify(thenT, elseT, n.Then.Position(), n.Else.Position()))

	case *ast.BinaryExp:
		return a.setType(e, a.inferBinary(n, chains))
	case *ast.UnaryExp:
		return a.setType(e, a.inferUnary(n, chains))

	case *ast.MergeMonoid:
		return a.setType(e, a.inferMergeMonoid(n, chains))
	case *ast.ZeroCollectionMonoid:
		inner := a.state.FreshTypeVar()
		return a.setType(e, kernel.NewCollection(a.monoidTag(n.Monoid), inner))
	case *ast.ConsCollectionMonoid:
		return a.setType(e, a.inferConsCollectionMonoid(n, chains))
	case *ast.MultiCons:
		return a.setType(e, a.inferMultiCons(n, chains))

	case *ast.Comp:
		return a.setType(e, a.inferComp(n, chains))
	case *ast.Select:
		return a.setType(e, a.inferSelect(n, chains))

	case *ast.FunAbs:
		return a.setType(e, a.inferFunAbs(n, chains))
	case *ast.FunApp:
		funT := a.infer(n.Fun, chains)
		argT := a.infer(n.Arg, chains)
		resultT := a.state.FreshTypeVar()
		a.unify(funT, kernel.NewFun(argT, resultT), n.Fun.Position(), n.Pos)
		return a.setType(e, resultT)

	case *ast.ExpBlock:
		return a.setType(e, a.inferExpBlock(n, chains))

	case *ast.Partition:
		if chains.Partition == nil {
			a.report(errors.New(errors.CodeUnknownPartition, errors.PhaseAnalyzer, n.Pos,
				"`partition` used outside a grouped select projection"))
			return a.setType(e, kernel.NewAnyType())
		}
		a.entities[n] = chains.Partition
		return a.setType(e, a.entityType(chains.Partition))

	case *ast.Star:
		if chains.Star == nil {
			a.report(errors.New(errors.CodeStarWithoutContext, errors.PhaseAnalyzer, n.Pos,
				"`*` used outside a select projection"))
			return a.setType(e, kernel.NewAnyType())
		}
		a.entities[n] = chains.Star
		return a.setType(e, a.entityType(chains.Star))

	case *ast.Into:
		return a.setType(e, a.inferInto(n, chains))

	case *ast.Sum:
		return a.setType(e, a.inferAggregate(n.Exp, n.Pos, chains))
	case *ast.Max:
		return a.setType(e, a.inferAggregate(n.Exp, n.Pos, chains))
	case *ast.Min:
		return a.setType(e, a.inferAggregate(n.Exp, n.Pos, chains))
	case *ast.Avg:
		a.inferAggregate(n.Exp, n.Pos, chains)
		return a.setType(e, kernel.NewPrimitive(kernel.TFloat))
	case *ast.Count:
		srcT := a.infer(n.Exp, chains)
		elem := a.state.FreshTypeVar()
		a.unify(srcT, kernel.NewCollection(a.state.FreshMonoidVar(), elem), n.Exp.Position(), n.Pos)
		return a.setType(e, kernel.NewPrimitive(kernel.TInt))
	case *ast.Exists:
		srcT := a.infer(n.Exp, chains)
		elem := a.state.FreshTypeVar()
		a.unify(srcT, kernel.NewCollection(a.state.FreshMonoidVar(), elem), n.Exp.Position(), n.Pos)
		return a.setType(e, kernel.NewPrimitive(kernel.TBool))
	case *ast.InExp:
		e1T := a.infer(n.E1, chains)
		e2T := a.infer(n.E2, chains)
		a.unify(e2T, kernel.NewCollection(a.state.FreshMonoidVar(), e1T), n.E2.Position(), n.Pos)
		return a.setType(e, kernel.NewPrimitive(kernel.TBool))

	default:
		a.report(errors.Internal(errors.PhaseAnalyzer, e.Position(),
			fmt.Sprintf("analyzer: unhandled expression kind %T", e)))
		return a.setType(e, kernel.NewAnyType())
	}
}

// inferAggregate types a Sum/Max/Min argument: it must be a collection
// of numbers, and the aggregate's own type is that number type.
func (a *analyzer) inferAggregate(exp ast.Expr, pos ast.Pos, chains *entity.Chains) kernel.Type {
	srcT := a.infer(exp, chains)
	elem := a.state.FreshNumberVar()
	a.unify(srcT, kernel.NewCollection(a.state.FreshMonoidVar(), elem), exp.Position(), pos)
	return elem
}

func (a *analyzer) inferRecordCons(n *ast.RecordCons, chains *entity.Chains) kernel.Type {
	atts := make([]kernel.Att, len(n.Atts))
	for i, ra := range n.Atts {
		atts[i] = kernel.Att{Idn: ra.Idn, Type: a.infer(ra.Exp, chains)}
	}
	return kernel.NewRecord(&kernel.Attributes{Atts: atts})
}

func (a *analyzer) inferRecordProj(n *ast.RecordProj, chains *entity.Chains) kernel.Type {
	srcT := a.infer(n.Exp, chains)
	walked := a.state.Walk(srcT)
	if rec, ok := walked.(*kernel.Record); ok {
		if fieldT, ok := recordAttributesLookup(rec.Atts, n.Idn); ok {
			return fieldT
		}
	}
	fieldT := a.state.FreshTypeVar()
	av := &kernel.AttributesVariable{Atts: []kernel.Att{{Idn: n.Idn, Type: fieldT}}, Sym: a.state.Symbols.Fresh("r")}
	a.unify(srcT, kernel.NewRecord(av), n.Exp.Position(), n.Pos)
	return fieldT
}

// recordAttributesLookup exposes Lookup across the RecordAttributes
// sum without a type switch at every call site.
func recordAttributesLookup(a kernel.RecordAttributes, name string) (kernel.Type, bool) {
	switch v := a.(type) {
	case *kernel.Attributes:
		return v.Lookup(name)
	case *kernel.AttributesVariable:
		return v.Lookup(name)
	default:
		return nil, false
	}
}
