package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonoidPartialOrder(t *testing.T) {
	assert.True(t, leConcrete(ListMonoid, BagMonoid))
	assert.True(t, leConcrete(BagMonoid, SetMonoid))
	assert.True(t, leConcrete(ListMonoid, SetMonoid))
	assert.False(t, leConcrete(SetMonoid, ListMonoid))
	assert.True(t, leConcrete(SumMonoid, SumMonoid))
	assert.False(t, leConcrete(SumMonoid, MaxMonoid))
}

func TestUnifyMonoidsConcrete(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.UnifyMonoids(Concrete(BagMonoid), Concrete(BagMonoid)))
	require.Error(t, s.UnifyMonoids(Concrete(BagMonoid), Concrete(SetMonoid)))
}

func TestUnifyMonoidsVariableResolvesToConcrete(t *testing.T) {
	s := newTestState()
	mv := s.FreshMonoidVar()
	require.NoError(t, s.UnifyMonoids(mv, Concrete(ListMonoid)))
	assert.Equal(t, ListMonoid, s.walkMonoid(mv).Tag)

	err := s.UnifyMonoids(mv, Concrete(SetMonoid))
	require.Error(t, err)
}

func TestMonoidGraphLowerBoundPropagatesAxes(t *testing.T) {
	g := NewMonoidGraph()
	v := newTestState().Symbols.Fresh("m")
	require.NoError(t, g.AddLowerBound(v, Concrete(ListMonoid)))
	// ListMonoid is non-commutative, non-idempotent; this alone does
	// not forbid resolving v to a stricter collection monoid.
	assert.True(t, g.Permits(v, BagMonoid))
	assert.True(t, g.Permits(v, SetMonoid))
}

func TestMonoidGraphUpperBoundForbidsCommutative(t *testing.T) {
	g := NewMonoidGraph()
	v := newTestState().Symbols.Fresh("m")
	// v <= ListMonoid forces v itself to be non-commutative and
	// non-idempotent, since List is the bottom of both axes.
	require.NoError(t, g.AddUpperBound(v, Concrete(ListMonoid)))
	assert.True(t, g.Permits(v, ListMonoid))
	assert.False(t, g.Permits(v, BagMonoid))
	assert.False(t, g.Permits(v, SetMonoid))
}

func TestMaxOfMonoidsBoundsResult(t *testing.T) {
	s := newTestState()
	result, err := s.MaxOfMonoids([]Monoid{Concrete(BagMonoid), Concrete(BagMonoid)})
	require.NoError(t, err)
	assert.True(t, result.IsVar)
	assert.False(t, s.Monoids.Permits(result.Var, ListMonoid))
}
