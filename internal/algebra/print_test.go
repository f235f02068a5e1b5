package algebra

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/sunholo/queryc/internal/kernel"
	"github.com/sunholo/queryc/testutil"
)

// diffPrint fails the test with a unified diff when want and Print(got)
// disagree, the same way the teacher's parser testutil diffs expected
// vs. actual source text.
func diffPrint(t *testing.T, want string, got Node) {
	t.Helper()
	if diff := cmp.Diff(want, Print(got)); diff != "" {
		t.Errorf("Print output mismatch (-want +got):\n%s", diff)
	}
}

func intT() kernel.Type { return kernel.NewPrimitive(kernel.TInt) }
func boolT() kernel.Type { return kernel.NewPrimitive(kernel.TBool) }

// TestPrintSimpleFilter matches spec §8 scenario 1's expected shape:
// Reduce over a Select over a Scan.
func TestPrintSimpleFilter(t *testing.T) {
	scan := &Scan{Name: "students", T: intT()}
	pred := &BinaryOp{Op: ">", Left: &RecordProj{Exp: &Argument{T: intT(), Index: 0}, Name: "age", T: intT()}, Right: &Const{T: intT(), Value: 20}, T: boolT()}
	sel := &Select{Pred: pred, Child: scan, T: intT()}
	reduce := &Reduce{Monoid: kernel.Concrete(kernel.SetMonoid), Elem: &Argument{T: intT(), Index: 0}, Pred: &Const{T: boolT(), Value: true}, Child: sel, T: intT()}

	assert.Equal(t, "Reduce(set, #0, true, Select((#0.age > 20), Scan(students)))", Print(reduce))
}

// TestPrintSimpleFilterGolden checks the same tree as
// TestPrintSimpleFilter against a recorded fixture instead of an
// inline string, exercising testutil's golden-file comparison against
// this package's own Print output.
func TestPrintSimpleFilterGolden(t *testing.T) {
	scan := &Scan{Name: "students", T: intT()}
	pred := &BinaryOp{Op: ">", Left: &RecordProj{Exp: &Argument{T: intT(), Index: 0}, Name: "age", T: intT()}, Right: &Const{T: intT(), Value: 20}, T: boolT()}
	sel := &Select{Pred: pred, Child: scan, T: intT()}
	reduce := &Reduce{Monoid: kernel.Concrete(kernel.SetMonoid), Elem: &Argument{T: intT(), Index: 0}, Pred: &Const{T: boolT(), Value: true}, Child: sel, T: intT()}

	testutil.CompareWithGolden(t, "algebra", "simple_filter", Print(reduce))
}

func TestPrintJoin(t *testing.T) {
	left := &Scan{Name: "students", T: intT()}
	right := &Scan{Name: "professors", T: intT()}
	pred := &BinaryOp{Op: "=", Left: &Argument{T: intT(), Index: 0}, Right: &Argument{T: intT(), Index: 1}, T: boolT()}
	join := &Join{Pred: pred, Left: left, Right: right, T: intT()}

	assert.Equal(t, "Join((#0 = #1), Scan(students), Scan(professors))", Print(join))
}

func TestPrintNest(t *testing.T) {
	scan := &Scan{Name: "orders", T: intT()}
	nest := &Nest{
		Monoid: kernel.Concrete(kernel.SumMonoid),
		Elem:   &Argument{T: intT(), Index: 1},
		Key:    &Argument{T: intT(), Index: 0},
		Pred:   &Const{T: boolT(), Value: true},
		Group:  &Argument{T: intT(), Index: 1},
		Child:  scan,
		T:      intT(),
	}
	assert.Equal(t, "Nest(sum, #1, key=#0, true, g=#1, Scan(orders))", Print(nest))
}

func TestPrintConstString(t *testing.T) {
	c := &Const{T: kernel.NewPrimitive(kernel.TString), Value: "hi"}
	assert.Equal(t, `"hi"`, c.String())
}

func TestPrintEmptyAndNil(t *testing.T) {
	assert.Equal(t, "Empty", Print(&Empty{T: intT()}))
	assert.Equal(t, "<nil>", Print(nil))
}

// TestPrintNestedJoinDiff exercises diffPrint's cmp.Diff path on a
// deeper tree (join nested under a select) to confirm a multi-line
// mismatch would be legible, not just a single-line equality.
func TestPrintNestedJoinDiff(t *testing.T) {
	left := &Scan{Name: "students", T: intT()}
	right := &Scan{Name: "professors", T: intT()}
	joinPred := &BinaryOp{Op: "=", Left: &Argument{T: intT(), Index: 0}, Right: &Argument{T: intT(), Index: 1}, T: boolT()}
	join := &Join{Pred: joinPred, Left: left, Right: right, T: intT()}
	outerPred := &BinaryOp{Op: ">", Left: &Argument{T: intT(), Index: 0}, Right: &Const{T: intT(), Value: 18}, T: boolT()}
	sel := &Select{Pred: outerPred, Child: join, T: intT()}

	diffPrint(t, "Select((#0 > 18), Join((#0 = #1), Scan(students), Scan(professors)))", sel)
}

func TestPrintUnnestAndOuterUnnest(t *testing.T) {
	child := &Scan{Name: "students", T: intT()}
	path := &RecordProj{Exp: &Argument{T: intT(), Index: 0}, Name: "tags", T: intT()}
	u := &Unnest{Path: path, Pred: &Const{T: boolT(), Value: true}, Child: child, T: intT()}
	assert.Equal(t, "Unnest(#0.tags, true, Scan(students))", Print(u))

	ou := &OuterUnnest{Path: path, Pred: &Const{T: boolT(), Value: true}, Child: child, T: intT()}
	assert.Equal(t, "OuterUnnest(#0.tags, true, Scan(students))", Print(ou))
}
