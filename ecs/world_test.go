package ecs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func dataPayload(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func readDataPayload(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

const (
	typeData TypeID = 1
	typeTag  TypeID = 2
)

func TestDeclareTypeRejectsReserved(t *testing.T) {
	w := NewWorld()
	require.Panics(t, func() { w.DeclareType(RemovedType, Tag, 0, 0) })
}

func TestDeclareTypeRejectsRedeclare(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)
	require.Panics(t, func() { w.DeclareType(typeData, Data, 4, 0) })
}

func TestNewEntityMonotonic(t *testing.T) {
	w := NewWorld()
	a := w.NewEntity()
	b := w.NewEntity()
	require.Less(t, a, b)
	require.Equal(t, b, w.MaxID())
}

// invariant 1: ids strictly increasing outside iteration/reap.
func TestAddComponentSortedAppend(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)
	w.AddComponent(10, typeData, dataPayload(1))
	w.AddComponent(20, typeData, dataPayload(2))
	require.Panics(t, func() { w.AddComponent(15, typeData, dataPayload(3)) })
}

func TestAddComponentPayloadSizeMismatch(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)
	require.Panics(t, func() { w.AddComponent(1, typeData, []byte{1, 2, 3}) })
}

// invariant 2: id 0 never appears in any pool, even if a caller bypasses
// NewEntity and supplies an explicit id.
func TestAddComponentRejectsZeroID(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)
	require.Panics(t, func() { w.AddComponent(0, typeData, dataPayload(1)) })
}

// invariant 3: after Update, pool 0 is empty and removed ids are gone
// from every other pool.
func TestUpdateReapsRemovedIDs(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)
	for i, id := range []uint32{1, 2, 3, 4, 5} {
		w.AddComponent(id, typeData, dataPayload(int32((i+1)*10)))
	}
	w.RemoveEntityAt(typeData, 2) // id 3
	w.RemoveEntityAt(typeData, 4) // id 5
	w.Update()

	require.Equal(t, 0, w.Count(RemovedType))
	require.Equal(t, 3, w.Count(typeData))
	wantIDs := []uint32{1, 2, 4}
	wantVals := []int32{10, 20, 40}
	for i, id := range wantIDs {
		require.Equal(t, id, w.IDAt(typeData, i))
		require.Equal(t, wantVals[i], readDataPayload(w.mustPool(typeData).row(i)))
	}
}

// round-trip: adds minus removes equals final count.
func TestUpdateCountRoundTrip(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)
	for i := uint32(1); i <= 10; i++ {
		w.AddComponent(i, typeData, dataPayload(int32(i)))
	}
	for _, row := range []int{1, 3, 5} {
		w.RemoveEntityAt(typeData, row)
	}
	w.Update()
	require.Equal(t, 7, w.Count(typeData))
}

// S4 — renumber.
func TestRenumber(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)

	base := RearrangeThreshold - 2
	ids := []uint32{base, base + 1, base + 2}
	for i, id := range ids {
		w.AddComponent(id, typeData, dataPayload(int32((i+1)*100)))
	}
	w.maxID = base + 2
	w.Update()

	require.Equal(t, uint32(3), w.MaxID())
	require.Equal(t, 3, w.Count(typeData))
	for i := 0; i < 3; i++ {
		require.Equal(t, uint32(i+1), w.IDAt(typeData, i))
		require.Equal(t, int32((i+1)*100), readDataPayload(w.mustPool(typeData).row(i)))
	}
}

func TestCollectShrinksCapacity(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)
	for i := uint32(1); i <= 200; i++ {
		w.AddComponent(i, typeData, dataPayload(int32(i)))
	}
	p := w.mustPool(typeData)
	require.Greater(t, p.cap, p.n)
	w.Collect()
	require.Equal(t, p.n, p.cap)
}

func TestMemoryReservedAtLeastLive(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)
	w.AddComponent(1, typeData, dataPayload(1))
	reserved, live := w.Memory()
	require.GreaterOrEqual(t, reserved, live)
	require.Greater(t, live, 0)
}

func TestReleaseReuse(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeData, Data, 4, 0)
	w.AddComponent(1, typeData, dataPayload(10))
	w.AddComponent(2, typeData, dataPayload(20))

	_, ok := w.Reuse(typeData)
	require.False(t, ok)

	w.Release(typeData, 0)
	row, ok := w.Reuse(typeData)
	require.True(t, ok)
	require.Equal(t, 0, row)

	_, ok = w.Reuse(typeData)
	require.False(t, ok)
}
