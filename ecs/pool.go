package ecs

// pool is the packed, per-type storage for one component type: a dense,
// sorted-by-id array of entity ids plus (depending on stride) a packed
// payload buffer or a side table of host-owned references.
//
// Outside of an in-flight reap pass (§4.5), ids[0:n] is non-decreasing
// for every non-Order pool, and strictly increasing except where a tag
// pool still holds a transient run of duplicates left by disableTag (a
// later enableTag absorbs it). Order pools carry append order instead and
// are never binary-searched.
type pool struct {
	stride  Stride
	size    int // payload bytes per row, for stride == Data
	cap     int
	n       int
	ids     []uint32
	data    []byte // packed rows, len == n*size, for stride == Data
	foreign []any  // side table, len == n, for stride == Foreign

	lastLookup int // cached index hint for the join fast path
}

func newPool(stride Stride, size, capHint int) *pool {
	if capHint <= 0 {
		capHint = DefaultPoolCap
	}
	return &pool{stride: stride, size: size, cap: capHint}
}

// grow ensures the pool has room for one more row, reallocating the
// backing arrays (×1.5 growth) if necessary. It is a no-op until the
// first insert, matching the teacher's lazy-allocate-on-first-use pool
// lifecycle.
func (p *pool) grow() {
	switch {
	case p.ids == nil:
		p.ids = make([]uint32, p.n, p.cap)
		if p.stride == Data {
			p.data = make([]byte, p.n*p.size, p.cap*p.size)
		} else if p.stride == Foreign {
			p.foreign = make([]any, p.n, p.cap)
		}
	case p.n >= p.cap:
		newCap := p.cap*3/2 + 1
		newIDs := make([]uint32, p.n, newCap)
		copy(newIDs, p.ids)
		p.ids = newIDs
		if p.stride == Data {
			newData := make([]byte, p.n*p.size, newCap*p.size)
			copy(newData, p.data)
			p.data = newData
		} else if p.stride == Foreign {
			newForeign := make([]any, p.n, newCap)
			copy(newForeign, p.foreign)
			p.foreign = newForeign
		}
		p.cap = newCap
	}
}

// row returns the payload slice for the given row index, for stride ==
// Data pools.
func (p *pool) row(index int) []byte {
	return p.data[index*p.size : (index+1)*p.size]
}

// append adds id as a new row at the tail, enforcing the sorted-append
// contract (invariant 5/3): id must be >= the current tail id for
// non-Order pools. Returns the new row's index.
func (p *pool) append(id uint32, payload []byte) int {
	if id == 0 {
		fatalf("ecs: entity id 0 is reserved", id)
	}
	if p.stride != Order && p.n > 0 && id < p.ids[p.n-1] {
		fatalf("ecs: out-of-order append", id, p.ids[p.n-1])
	}
	p.grow()
	index := p.n
	p.ids = append(p.ids[:index], id)
	switch p.stride {
	case Data:
		p.data = append(p.data[:index*p.size], make([]byte, p.size)...)
		if payload != nil {
			if len(payload) != p.size {
				fatalf("ecs: payload size mismatch", len(payload), p.size)
			}
			copy(p.row(index), payload)
		}
	case Foreign:
		p.foreign = append(p.foreign[:index], nil)
	}
	p.n++
	return index
}

// clear empties the pool without releasing its backing capacity.
func (p *pool) clear() {
	p.n = 0
}

// collect trims the pool's backing arrays to exactly n elements,
// releasing any capacity accumulated by ×1.5 growth.
func (p *pool) collect() {
	if p.ids == nil || p.n == p.cap {
		return
	}
	if p.n == 0 {
		p.ids = nil
		p.data = nil
		p.foreign = nil
		p.cap = 0
		return
	}
	newIDs := make([]uint32, p.n)
	copy(newIDs, p.ids)
	p.ids = newIDs
	if p.stride == Data {
		newData := make([]byte, p.n*p.size)
		copy(newData, p.data)
		p.data = newData
	} else if p.stride == Foreign {
		newForeign := make([]any, p.n)
		copy(newForeign, p.foreign)
		p.foreign = newForeign
	}
	p.cap = p.n
}

// reservedBytes and liveBytes report the pool's allocated vs. occupied
// footprint, for World.Memory.
func (p *pool) reservedBytes() int {
	sz := p.cap * 4 // ids
	switch p.stride {
	case Data:
		sz += p.cap * p.size
	case Foreign:
		sz += p.cap * int(pointerSize)
	}
	return sz
}

func (p *pool) liveBytes() int {
	sz := p.n * 4
	switch p.stride {
	case Data:
		sz += p.n * p.size
	case Foreign:
		sz += p.n * int(pointerSize)
	}
	return sz
}

const pointerSize = 8
