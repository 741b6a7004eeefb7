// Package ecs implements an in-process entity-component-system data
// store: entities are bare 32-bit ids, components live in densely packed,
// per-type pools kept sorted by entity id, and a compiled query iterator
// walks a main pool and joins sibling pools by id.
//
// The package is not safe for concurrent use: a World and any Iterator
// derived from it are meant to be driven from a single goroutine, one
// tick at a time, matching the cooperative, single-threaded scheduling
// model the embedding host provides.
package ecs

// EntityID is a 32-bit entity identifier, never zero. 0xFFFFFFFF is
// reserved as a sentinel upper bound and is never assigned.
type EntityID = uint32

// TypeID is a component type index in [0, MaxTypes). Type 0 is reserved
// for the built-in "removed" tag.
type TypeID = uint8

const (
	// MaxTypes bounds the number of distinct component types a World can
	// declare, including the reserved "removed" tag at type 0.
	MaxTypes = 256

	// RemovedType is the built-in tag pool that RemoveEntityAt appends to
	// and Update reaps.
	RemovedType TypeID = 0

	// GuessRange bounds the fast-path window around a lookup hint before
	// falling back to a full binary search.
	GuessRange = 64

	// RearrangeThreshold is the max_id value at which Update performs a
	// renumber pass to restore id headroom.
	RearrangeThreshold uint32 = 1 << 31

	// DefaultPoolCap is the initial capacity a pool is allocated with on
	// first insert, when DeclareType was not given an explicit size hint.
	DefaultPoolCap = 128

	// sentinelID is the reserved upper bound no entity is ever assigned.
	sentinelID uint32 = 0xFFFFFFFF
)

// Stride describes a pool's payload layout.
type Stride int

const (
	// Tag pools carry no payload: membership is the only information.
	Tag Stride = iota
	// Data pools carry a fixed-size payload row per entity.
	Data
	// Foreign pools carry an opaque, host-owned reference per entity,
	// held in a parallel side table rather than a packed byte buffer.
	Foreign
	// Order pools carry no payload and are ordered by append, not by id;
	// valid only as a main key or a temporary sibling in a query.
	Order
)
