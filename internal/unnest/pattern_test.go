package unnest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sunholo/queryc/internal/kernel"
)

func intVar(name string) Variable {
	return Variable{Name: name, T: kernel.NewPrimitive(kernel.TInt)}
}

func TestPatternVariablesOrderAndDedup(t *testing.T) {
	p := PairPattern{
		Left:  PairPattern{Left: VariablePattern{Var: intVar("a")}, Right: VariablePattern{Var: intVar("b")}},
		Right: VariablePattern{Var: intVar("a")},
	}
	vars := patternVariables(p)
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestPatternVariablesEmpty(t *testing.T) {
	assert.Nil(t, patternVariables(EmptyPattern{}))
}

func TestIndexOfVar(t *testing.T) {
	vars := []Variable{intVar("a"), intVar("b"), intVar("c")}
	idx, ok := indexOfVar(vars, "b")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = indexOfVar(vars, "z")
	assert.False(t, ok)
}

// TestReducePattern mirrors spec §4.5 rule C8: the Nest group row is
// w's variables minus whatever u (the outer group-by key pattern)
// already covers.
func TestReducePattern(t *testing.T) {
	w := PairPattern{
		Left:  PairPattern{Left: VariablePattern{Var: intVar("s")}, Right: VariablePattern{Var: intVar("dept")}},
		Right: VariablePattern{Var: intVar("grade")},
	}
	u := VariablePattern{Var: intVar("dept")}

	g := reducePattern(w, u)
	names := make([]string, 0)
	for _, v := range patternVariables(g) {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"s", "grade"}, names)
}

func TestReducePatternAllConsumed(t *testing.T) {
	w := VariablePattern{Var: intVar("s")}
	u := VariablePattern{Var: intVar("s")}
	assert.True(t, isEmptyPattern(reducePattern(w, u)))
}

func TestBuildPatternRoundTrip(t *testing.T) {
	vars := []Variable{intVar("x"), intVar("y"), intVar("z")}
	p := buildPattern(vars)
	got := patternVariables(p)
	require := assert.New(t)
	require.Len(got, 3)
	for i, v := range got {
		require.Equal(vars[i].Name, v.Name)
	}
}

func TestBuildPatternEmpty(t *testing.T) {
	assert.True(t, isEmptyPattern(buildPattern(nil)))
}
