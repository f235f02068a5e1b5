package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneralizeOnlyClosesOverNewVariables(t *testing.T) {
	s := newTestState()
	outer := s.FreshTypeVar()
	snap := s.TakeSnapshot()
	inner := s.FreshTypeVar()

	fn := NewFun(outer, inner)
	sc := s.Generalize(snap, fn)

	require.Len(t, sc.TypeVars, 1)
	innerSym, _ := IsTypeVar(sc.TypeVars[0])
	sym, _ := IsTypeVar(inner)
	assert.True(t, innerSym.Equal(sym))
}

func TestInstantiateProducesIndependentVariables(t *testing.T) {
	s := newTestState()
	snap := s.TakeSnapshot()
	tv := s.FreshTypeVar()
	sc := s.Generalize(snap, tv)

	use1 := s.Instantiate(sc)
	use2 := s.Instantiate(sc)

	require.NoError(t, s.Unify(use1, NewPrimitive(TInt), "a", "b"))
	require.NoError(t, s.Unify(use2, NewPrimitive(TString), "a", "b"))

	assert.True(t, Equal(s.Walk(use1), NewPrimitive(TInt)))
	assert.True(t, Equal(s.Walk(use2), NewPrimitive(TString)))
}

func TestInstantiatePreservesConstrainedVariableKind(t *testing.T) {
	s := newTestState()
	snap := s.TakeSnapshot()
	nv := s.FreshNumberVar()
	sc := s.Generalize(snap, nv)

	use := s.Instantiate(sc)
	_, isNumber := use.(*NumberType)
	assert.True(t, isNumber)

	err := s.Unify(use, NewPrimitive(TString), "a", "b")
	require.Error(t, err)
}
