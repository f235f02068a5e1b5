// Package examples is the small library of hand-built calculus trees
// cmd/queryc walks through the compiler (spec §1 excludes a parser
// from this repo's scope, so there is no textual surface syntax to
// read example queries from).
package examples

import (
	"fmt"
	"sort"

	"github.com/sunholo/queryc/internal/ast"
)

// Example pairs a named calculus tree with the catalog sources it
// expects to find in the World it's compiled against.
type Example struct {
	Name        string
	Description string
	Catalog     string // the testdata catalog file this example is grounded on
	Tree        ast.Expr
}

func idn(name string) *ast.IdnDef { return &ast.IdnDef{Name: name} }
func use(name string) *ast.IdnUse { return &ast.IdnUse{Name: name} }

var registry = buildRegistry()

func buildRegistry() map[string]Example {
	out := map[string]Example{}
	for _, ex := range []Example{filterExample(), projectExample(), joinExample()} {
		out[ex.Name] = ex
	}
	return out
}

// Names returns every registered example name, sorted for stable
// display.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get resolves an example by name.
func Get(name string) (Example, error) {
	ex, ok := registry[name]
	if !ok {
		return Example{}, fmt.Errorf("no such example %q (try one of %v)", name, Names())
	}
	return ex, nil
}

// filterExample is spec §8 scenario 1: `for (o <- orders; o.total >
// 100.0) yield bag o.customer`.
func filterExample() Example {
	o := idn("o")
	pred := &ast.BinaryExp{
		Op:    ast.OpGt,
		Left:  &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "total"},
		Right: &ast.FloatConst{Value: 100.0},
	}
	tree := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals: []ast.Qualifier{
			&ast.Gen{Pattern: &ast.PatternIdn{Idn: o}, Src: &ast.IdnExp{Idn: use("orders")}},
			&ast.BoolQualifier{Exp: pred},
		},
		Yield: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "customer"},
	}
	return Example{
		Name:        "filter",
		Description: "orders over $100, projected to customer name",
		Catalog:     "internal/catalog/testdata/orders.yaml",
		Tree:        tree,
	}
}

// projectExample reshapes every order into a (customer, total) pair,
// with no filtering — exercises RecordCons translation with no
// predicate qualifier at all.
func projectExample() Example {
	o := idn("o")
	tree := &ast.Comp{
		Monoid: ast.BagMonoid,
		Quals: []ast.Qualifier{
			&ast.Gen{Pattern: &ast.PatternIdn{Idn: o}, Src: &ast.IdnExp{Idn: use("orders")}},
		},
		Yield: &ast.RecordCons{Atts: []ast.RecordAtt{
			{Idn: "customer", Exp: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "customer"}},
			{Idn: "total", Exp: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("o")}, Idn: "total"}},
		}},
	}
	return Example{
		Name:        "project",
		Description: "every order reshaped to (customer, total)",
		Catalog:     "internal/catalog/testdata/orders.yaml",
		Tree:        tree,
	}
}

// joinExample is spec §8 scenario 2: students and professors sharing
// an age, yielding their names as a pair.
func joinExample() Example {
	s, p := idn("s"), idn("p")
	pred := &ast.BinaryExp{
		Op:    ast.OpEq,
		Left:  &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("s")}, Idn: "age"},
		Right: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("p")}, Idn: "age"},
	}
	tree := &ast.Comp{
		Monoid: ast.ListMonoid,
		Quals: []ast.Qualifier{
			&ast.Gen{Pattern: &ast.PatternIdn{Idn: s}, Src: &ast.IdnExp{Idn: use("students")}},
			&ast.Gen{Pattern: &ast.PatternIdn{Idn: p}, Src: &ast.IdnExp{Idn: use("professors")}},
			&ast.BoolQualifier{Exp: pred},
		},
		Yield: &ast.RecordCons{Atts: []ast.RecordAtt{
			{Idn: "student", Exp: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("s")}, Idn: "name"}},
			{Idn: "professor", Exp: &ast.RecordProj{Exp: &ast.IdnExp{Idn: use("p")}, Idn: "name"}},
		}},
	}
	return Example{
		Name:        "join",
		Description: "students paired with same-age professors",
		Catalog:     "internal/catalog/testdata/academy.yaml",
		Tree:        tree,
	}
}
