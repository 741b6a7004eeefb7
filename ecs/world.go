package ecs

// World owns every declared component pool and the monotonic entity id
// counter. All public methods assume single-threaded, cooperative access
// (§5): nothing here is safe to call concurrently, and nothing suspends
// mid-operation.
type World struct {
	pools      [MaxTypes]*pool
	maxID      uint32
	references map[TypeID]*referencePool
	dead       map[TypeID]*pool // per-type free list of released rows, keyed by a private dead-tag pool
}

// NewWorld returns an empty World with the built-in "removed" tag already
// declared at type 0.
func NewWorld() *World {
	w := &World{}
	w.pools[RemovedType] = newPool(Tag, 0, DefaultPoolCap)
	return w
}

// DeclareType registers component type cid with the given storage stride.
// sizeHint, if positive, is the pool's initial capacity; otherwise
// DefaultPoolCap is used. DeclareType is a contract violation (panics) if
// cid is out of range, already declared, or reserved (type 0).
func (w *World) DeclareType(cid TypeID, stride Stride, size int, sizeHint int) {
	if int(cid) >= MaxTypes || cid == RemovedType {
		fatalf("ecs: can't declare type", cid)
	}
	if w.pools[cid] != nil {
		fatalf("ecs: type already declared", cid)
	}
	if stride == Data && size <= 0 {
		fatalf("ecs: data type needs positive size", cid, size)
	}
	if stride != Data {
		size = 0
	}
	w.pools[cid] = newPool(stride, size, sizeHint)
}

func (w *World) mustPool(cid TypeID) *pool {
	if int(cid) >= MaxTypes || w.pools[cid] == nil {
		fatalf("ecs: invalid type id", cid)
	}
	return w.pools[cid]
}

// NewEntity returns a freshly minted entity id, monotonically greater
// than every id previously returned. In steady operation Update's
// renumber pass (§4.5) restores headroom well before max_id approaches
// the reserved sentinel, so exhausting the id space means the embedder
// failed to call Update; that is a contract violation, not a recoverable
// condition.
func (w *World) NewEntity() EntityID {
	if w.maxID >= sentinelID-1 {
		fatalf("ecs: entity id space exhausted", w.maxID)
	}
	w.maxID++
	return w.maxID
}

// AddComponent appends id to cid's pool with the given payload (nil for
// Tag/Order pools), returning the new row index. It is a contract
// violation if id is less than the pool's current tail id, or if the
// payload size does not match the pool's declared stride.
func (w *World) AddComponent(id EntityID, cid TypeID, payload []byte) int {
	p := w.mustPool(cid)
	return p.append(id, payload)
}

// ClearType empties cid's pool without releasing its allocated capacity.
func (w *World) ClearType(cid TypeID) {
	w.mustPool(cid).clear()
}

// RemoveEntityAt enqueues the entity currently at row rowIndex of pool
// cid for removal: its id is appended to the type-0 "removed" tag. The
// row is not physically removed until the next Update.
func (w *World) RemoveEntityAt(cid TypeID, rowIndex int) {
	p := w.mustPool(cid)
	if rowIndex < 0 || rowIndex >= p.n {
		fatalf("ecs: invalid row index", rowIndex, p.n)
	}
	id := p.ids[rowIndex]
	w.pools[RemovedType].append(id, nil)
}

// IDAt returns the entity id stored at rowIndex in pool cid.
func (w *World) IDAt(cid TypeID, rowIndex int) EntityID {
	p := w.mustPool(cid)
	if rowIndex < 0 || rowIndex >= p.n {
		fatalf("ecs: invalid row index", rowIndex, p.n)
	}
	return p.ids[rowIndex]
}

// Count returns the number of live rows in cid's pool.
func (w *World) Count(cid TypeID) int {
	return w.mustPool(cid).n
}

// MaxID returns the highest entity id assigned so far.
func (w *World) MaxID() EntityID {
	return w.maxID
}

// Collect trims every declared pool's backing storage to its live size.
func (w *World) Collect() {
	for _, p := range w.pools {
		if p != nil {
			p.collect()
		}
	}
}

// Release marks the row currently at rowIndex of cid's pool as available
// for reuse: it records the row's entity id in a private dead-tag pool
// paired with cid, created lazily on first use. It does not remove the
// row or touch the entity itself; pairing Release with RemoveEntityAt on
// the same row is the caller's choice, not something this makes for it.
func (w *World) Release(cid TypeID, rowIndex int) {
	p := w.mustPool(cid)
	if rowIndex < 0 || rowIndex >= p.n {
		fatalf("ecs: invalid row index", rowIndex, p.n)
	}
	enableTag(w.deadPool(cid), p.ids[rowIndex])
}

// Reuse pops one previously Release'd row of cid, if any remain, and
// reports its current row index. A row popped here is no longer
// considered dead, so it is not returned again unless it is released
// again. If the popped entity no longer has a row in cid's pool, Reuse
// returns ok == false even when other released rows remain.
func (w *World) Reuse(cid TypeID) (row int, ok bool) {
	p := w.mustPool(cid)
	d := w.dead[cid]
	if d == nil || d.n == 0 {
		return 0, false
	}
	id := d.ids[d.n-1]
	disableTag(d, id, d.n-1)
	rowIndex := lookup(p, id, p.lastLookup)
	if rowIndex < 0 {
		return 0, false
	}
	return rowIndex, true
}

func (w *World) deadPool(cid TypeID) *pool {
	if w.dead == nil {
		w.dead = make(map[TypeID]*pool)
	}
	d := w.dead[cid]
	if d == nil {
		d = newPool(Tag, 0, DefaultPoolCap)
		w.dead[cid] = d
	}
	return d
}

// Memory reports the World's total reserved (allocated) and live
// (occupied) byte footprint across every declared pool.
func (w *World) Memory() (reserved, live int) {
	for _, p := range w.pools {
		if p == nil {
			continue
		}
		reserved += p.reservedBytes()
		live += p.liveBytes()
	}
	return reserved, live
}
