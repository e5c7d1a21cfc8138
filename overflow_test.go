package stablecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverflow_getOrAdd(t *testing.T) {
	o := newOverflow[string, int]()

	require.Nil(t, o.find("foo"))

	v, existed := o.getOrAdd("foo", 1)
	require.False(t, existed)
	require.Equal(t, 1, *v)

	v, existed = o.getOrAdd("foo", 2)
	require.True(t, existed)
	assert.Equal(t, 1, *v)

	require.Equal(t, 1, o.len())
}

func TestOverflow_StableReferences(t *testing.T) {
	o := newOverflow[int, int]()

	const n = blockSize*10 + 3

	refs := make([]*int, n)
	for i := range n {
		v, existed := o.getOrAdd(i, i*10)
		require.False(t, existed)

		refs[i] = v
	}

	require.Len(t, o.blocks, 11)
	require.Equal(t, n, o.len())

	for i := range n {
		require.Same(t, refs[i], o.find(i), "reference for %d moved", i)
		require.Equal(t, i*10, *refs[i])
	}

	// Writes through an old reference are visible to find.
	*refs[0] = -1
	assert.Equal(t, -1, *o.find(0))
}

func TestOverflow_Placement(t *testing.T) {
	o := newOverflow[int, string]()

	for i := range blockSize + 1 {
		o.getOrAdd(i, "v")
	}

	require.Equal(t, location{block: 0, slot: blockSize - 1}, o.index[blockSize-1])
	require.Equal(t, location{block: 1, slot: 0}, o.index[blockSize])
	require.Equal(t, blockSize, o.blocks[1].keys[0])
}
