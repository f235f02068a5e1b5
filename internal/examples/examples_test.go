package examples

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/queryc/internal/catalog"
	"github.com/sunholo/queryc/internal/compiler"
)

// TestEveryExampleCompilesCleanly confirms every bundled example
// compiles with no errors against its own declared catalog fixture —
// a regression guard for cmd/queryc's demo library.
func TestEveryExampleCompilesCleanly(t *testing.T) {
	for _, name := range Names() {
		ex, err := Get(name)
		require.NoError(t, err)

		world, err := catalog.LoadFile("../../" + ex.Catalog)
		require.NoErrorf(t, err, "loading catalog for example %q", name)

		result := compiler.Compile(ex.Tree, world)
		assert.Emptyf(t, result.Errors, "example %q should compile cleanly, got %v", name, result.Errors)
		assert.NotNilf(t, result.Algebra, "example %q should produce algebra", name)
	}
}

func TestGetUnknownExample(t *testing.T) {
	_, err := Get("nonexistent")
	assert.Error(t, err)
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}
