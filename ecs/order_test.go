package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const typeOrder TypeID = 6

func TestOrderPoolIterationIsAppendOrder(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeOrder, Order, 0, 0)
	for _, id := range []uint32{5, 3, 9} {
		w.AddComponent(id, typeOrder, nil)
	}

	plan := w.Compile([]KeySpec{{CID: typeOrder, Name: "o", Attribs: Existence}})
	it := w.NewIterator(plan)

	var got []EntityID
	for it.Next() {
		got = append(got, it.Row().Entity)
	}
	require.Equal(t, []EntityID{5, 3, 9}, got)
}

func TestOrderPoolPostponeRotatesToTail(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeOrder, Order, 0, 0)
	for _, id := range []uint32{5, 3, 9} {
		w.AddComponent(id, typeOrder, nil)
	}

	plan := w.Compile([]KeySpec{{CID: typeOrder, Name: "o", Attribs: Existence}})
	it := w.NewIterator(plan)

	var got []EntityID
	first := true
	for it.Next() {
		got = append(got, it.Row().Entity)
		if first {
			it.Postpone()
			first = false
		}
	}
	require.Equal(t, []EntityID{5, 3, 9, 5}, got)
}

const typeFlag TypeID = 7

// Postponing a row rotates the order pool's tail before the next Next()
// call, so the cached row index no longer names the postponed entity. A
// writeback flush gated only on readonly (not on postponed) would apply
// the postponed row's pending decision to whichever entity slid into that
// slot instead. Per the mutual-exclusivity rule, postponing drops the
// pending decision rather than misapplying it.
func TestPostponeDoesNotMisapplyWritebackToWrongEntity(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeOrder, Order, 0, 0)
	w.DeclareType(typeFlag, Tag, 0, 0)
	for _, id := range []uint32{5, 3, 9} {
		w.AddComponent(id, typeOrder, nil)
	}

	plan := w.Compile([]KeySpec{
		{CID: typeOrder, Name: "o", Attribs: Existence},
		{CID: typeFlag, Name: "flag", Attribs: Out | Optional},
	})
	require.False(t, plan.readonly)

	it := w.NewIterator(plan)
	first := true
	for it.Next() {
		if first {
			it.Row().Slot("flag").SetFlag(true)
			it.Postpone()
			first = false
		}
	}

	require.Equal(t, 0, w.Count(typeFlag), "postponed row's decision must not land on another entity")
}

// Sync before Postpone writes back immediately, while the cached row
// index still names the entity the consumer actually meant.
func TestSyncBeforePostponeTargetsCorrectEntity(t *testing.T) {
	w := NewWorld()
	w.DeclareType(typeOrder, Order, 0, 0)
	w.DeclareType(typeFlag, Tag, 0, 0)
	for _, id := range []uint32{5, 3, 9} {
		w.AddComponent(id, typeOrder, nil)
	}

	plan := w.Compile([]KeySpec{
		{CID: typeOrder, Name: "o", Attribs: Existence},
		{CID: typeFlag, Name: "flag", Attribs: Out | Optional},
	})

	it := w.NewIterator(plan)
	first := true
	for it.Next() {
		if first {
			it.Row().Slot("flag").SetFlag(true)
			it.Sync()
			it.Postpone()
			first = false
		}
	}

	require.Equal(t, 1, w.Count(typeFlag))
	require.Equal(t, uint32(5), w.IDAt(typeFlag, 0))
}

func TestTemporaryOrderSiblingAppendsOnWriteback(t *testing.T) {
	w := NewWorld()
	w.DeclareType(1, Tag, 0, 0)
	w.DeclareType(typeOrder, Order, 0, 0)
	w.AddComponent(10, 1, nil)
	w.AddComponent(20, 1, nil)

	plan := w.Compile([]KeySpec{
		{CID: 1, Name: "a", Attribs: Existence},
		{CID: typeOrder, Name: "job", Attribs: Temporary},
	})
	require.False(t, plan.readonly)

	it := w.NewIterator(plan)
	for it.Next() {
		it.Row().Slot("job").SetFlag(true)
	}

	require.Equal(t, 2, w.Count(typeOrder))
	require.Equal(t, uint32(10), w.IDAt(typeOrder, 0))
	require.Equal(t, uint32(20), w.IDAt(typeOrder, 1))
}
