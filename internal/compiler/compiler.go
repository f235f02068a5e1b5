// Package compiler wires the four passes of spec §2 into the single
// top-level Compile entry point: analyze, desugar, canonicalize,
// unnest, in that fixed order, short-circuiting as soon as a pass
// reports a user-facing error (spec §7: later passes assume the
// canonical invariants and only ever raise internal errors, so
// running them over a tree the analyzer already rejected would just
// produce noise).
package compiler

import (
	"github.com/sunholo/queryc/internal/algebra"
	"github.com/sunholo/queryc/internal/analyzer"
	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/canon"
	"github.com/sunholo/queryc/internal/catalog"
	"github.com/sunholo/queryc/internal/desugar"
	"github.com/sunholo/queryc/internal/errors"
	"github.com/sunholo/queryc/internal/kernel"
	"github.com/sunholo/queryc/internal/unnest"
)

// Result is everything a caller needs from a compile: the algebra
// tree, the resolved type of the original expression, and every
// structured error accumulated along the way.
type Result struct {
	Algebra algebra.Node
	Type    kernel.Type
	Errors  []*errors.Report
}

// Compile runs the full middle-end pipeline over tree against world
// (spec §5/§6): Analyze -> Desugar -> Canonicalize -> Unnest.
func Compile(tree ast.Expr, world *catalog.World) *Result {
	analysis := analyzer.Analyze(tree, world)
	if len(analysis.Errors) > 0 {
		return &Result{Type: resolvedType(tree, analysis.Types, analysis.State), Errors: analysis.Errors}
	}

	desugared, entities, types := desugar.Desugar(tree, analysis)

	canonical, entities, types, canonErrs := canon.Canonicalize(desugared, entities, types)
	if len(canonErrs) > 0 {
		return &Result{Type: resolvedType(desugared, types, analysis.State), Errors: canonErrs}
	}

	alg, unnestErrs := unnest.Unnest(canonical, types, entities)
	return &Result{
		Algebra: alg,
		Type:    resolvedType(canonical, types, analysis.State),
		Errors:  unnestErrs,
	}
}

// resolvedType returns the walk-resolved type of e (spec §6's output
// contract), looking it up in types and collapsing any remaining
// kernel type variable through state. Every intermediate pass stores
// its side table exactly as computed, unwalked — only this externally
// reported type needs the final resolution.
func resolvedType(e ast.Expr, types map[ast.Expr]kernel.Type, state *kernel.State) kernel.Type {
	t, ok := types[e]
	if !ok {
		return kernel.NewAnyType()
	}
	if state == nil {
		return t
	}
	return state.Walk(t)
}
