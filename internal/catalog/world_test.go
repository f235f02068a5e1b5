package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/queryc/internal/kernel"
)

func TestLoadFileParsesSourcesAndTipes(t *testing.T) {
	w, err := LoadFile("testdata/orders.yaml")
	require.NoError(t, err)

	orders, ok := w.LookupSource("orders")
	require.True(t, ok)
	coll, ok := orders.(*kernel.Collection)
	require.True(t, ok)
	assert.Equal(t, kernel.BagMonoid, coll.Monoid.Tag)

	rec, ok := coll.Inner.(*kernel.Record)
	require.True(t, ok)
	atts, ok := rec.Atts.(*kernel.Attributes)
	require.True(t, ok)
	require.Len(t, atts.Atts, 4)
	assert.Equal(t, "orderId", atts.Atts[0].Idn)
	assert.Equal(t, "shipped", atts.Atts[3].Idn)
	assert.True(t, atts.Atts[3].Type.Nullable())

	_, ok = w.LookupTipe("ShipmentStatus")
	assert.True(t, ok)

	_, ok = w.LookupSource("nonexistent")
	assert.False(t, ok)
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	_, err := Load([]byte("sources:\n  x:\n    kind: nope\n"))
	require.Error(t, err)
}

func TestUserTypeSymbolsAreStableAcrossLoads(t *testing.T) {
	w1, err := LoadFile("testdata/orders.yaml")
	require.NoError(t, err)
	w2, err := LoadFile("testdata/orders.yaml")
	require.NoError(t, err)

	coll1 := w1.Sources["orders"].(*kernel.Collection)
	shipped1 := coll1.Inner.(*kernel.Record).Atts.(*kernel.Attributes).Atts[3].Type.(*kernel.UserType)

	coll2 := w2.Sources["orders"].(*kernel.Collection)
	shipped2 := coll2.Inner.(*kernel.Record).Atts.(*kernel.Attributes).Atts[3].Type.(*kernel.UserType)

	assert.True(t, shipped1.Sym.Equal(shipped2.Sym))
}
