package idpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateNeverReturnsZero(t *testing.T) {
	p := New()
	for i := 0; i < 1000; i++ {
		id, ok := p.Allocate()
		require.True(t, ok)
		require.NotZero(t, id)
	}
}

func TestAllocateNoDuplicateWhileHeld(t *testing.T) {
	p := New()
	seen := make(map[uint16]bool)
	for i := 0; i < 500; i++ {
		id, ok := p.Allocate()
		require.True(t, ok)
		require.False(t, seen[id], "id %d allocated twice", id)
		seen[id] = true
	}
}

func TestReleaseAllowsReuse(t *testing.T) {
	p := New()
	id, ok := p.Allocate()
	require.True(t, ok)
	p.Release(id)
	require.False(t, p.InUse(id))

	// The cursor has moved past id, so id comes back only once the scan
	// wraps around the whole id space.
	var id2 uint16
	for i := 0; i < maxID; i++ {
		id2, ok = p.Allocate()
		require.True(t, ok)
	}
	require.Equal(t, id, id2)
}

func TestPoolExhaustion(t *testing.T) {
	p := New()
	for i := 0; i < maxID; i++ {
		_, ok := p.Allocate()
		require.True(t, ok)
	}
	_, ok := p.Allocate()
	require.False(t, ok, "pool should be exhausted after allocating every id")
}

func TestReserveRejectsDuplicate(t *testing.T) {
	p := New()
	require.True(t, p.Reserve(42))
	require.False(t, p.Reserve(42))
	p.Release(42)
	require.True(t, p.Reserve(42))
}

func TestReserveZeroRejected(t *testing.T) {
	p := New()
	require.False(t, p.Reserve(0))
}

func TestLenTracksAllocations(t *testing.T) {
	p := New()
	require.Equal(t, 0, p.Len())
	id, _ := p.Allocate()
	require.Equal(t, 1, p.Len())
	p.Release(id)
	require.Equal(t, 0, p.Len())
}
