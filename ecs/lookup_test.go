package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupFindsExactAndMissing(t *testing.T) {
	p := newPool(Tag, 0, 0)
	for _, id := range []uint32{2, 4, 6, 8, 10, 12} {
		enableTag(p, id)
	}
	for _, id := range []uint32{2, 6, 12} {
		row := lookup(p, id, 0)
		require.GreaterOrEqual(t, row, 0)
		require.Equal(t, id, p.ids[row])
	}
	require.Equal(t, -1, lookup(p, 5, 0))
	require.Equal(t, -1, lookup(p, 100, 0))
}

// invariant 6: two consecutive lookups with no intervening mutation
// return the same row regardless of the hint passed in.
func TestLookupIdempotent(t *testing.T) {
	p := newPool(Tag, 0, 0)
	for id := uint32(1); id <= 500; id++ {
		enableTag(p, id*2)
	}
	first := lookup(p, 600, 0)
	second := lookup(p, 600, first)
	require.Equal(t, first, second)
	third := lookup(p, 600, 999999)
	require.Equal(t, first, third)
}

func TestBinarySearchEmptyRange(t *testing.T) {
	require.Equal(t, -1, binarySearch(nil, 0, 0, 5))
}
