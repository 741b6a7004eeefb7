package ecs

// Update realises every pending RemoveEntityAt call and, once max_id has
// grown past RearrangeThreshold, renumbers every live id to a fresh dense
// range. It is meant to be called once per tick, between query passes.
func (w *World) Update() {
	removed := w.pools[RemovedType]
	if removed.n > 0 {
		for cid := 1; cid < MaxTypes; cid++ {
			p := w.pools[cid]
			if p == nil || p.n == 0 {
				continue
			}
			if _, isReference := w.references[TypeID(cid)]; isReference {
				continue // reference pools are compacted by UpdateReferences, not the generic sweep
			}
			if p.stride == Order {
				reapOrderPool(p, removed)
			} else {
				reapPool(p, removed)
			}
		}
		for cid := range w.references {
			w.UpdateReferences(TypeID(cid))
		}
		removed.clear()
	}

	if w.maxID >= RearrangeThreshold {
		verbosef("ecs: renumbering, max_id=%d", w.maxID)
		w.renumber()
	}
}

// reapPool marks every row in p whose id appears in the removed set, then
// compacts the survivors downward in place.
func reapPool(p *pool, removed *pool) {
	hint := 0
	var lastID uint32
	first := true
	marked := false
	for i := 0; i < removed.n; i++ {
		id := removed.ids[i]
		if !first && id == lastID {
			continue // collapse runs of the same removed id
		}
		first = false
		lastID = id
		if row := lookup(p, id, hint); row >= 0 {
			// A tag pool may hold id as a run of transient duplicates left
			// by disableTag; every copy is marked.
			lo, hi := row, row+1
			for lo > 0 && p.ids[lo-1] == id {
				lo--
			}
			for hi < p.n && p.ids[hi] == id {
				hi++
			}
			for j := lo; j < hi; j++ {
				p.ids[j] = 0
			}
			hint = hi - 1
			marked = true
		}
	}
	if !marked {
		return
	}
	sweepCompact(p)
}

// sweepCompact removes every zeroed (tombstoned) row from p, shifting
// survivors down to keep the pool dense.
func sweepCompact(p *pool) {
	out := 0
	for i := 0; i < p.n; i++ {
		if p.ids[i] == 0 {
			continue
		}
		if out != i {
			p.ids[out] = p.ids[i]
			if p.stride == Data {
				copy(p.row(out), p.row(i))
			} else if p.stride == Foreign {
				p.foreign[out] = p.foreign[i]
			}
		}
		out++
	}
	p.n = out
	if p.stride == Data {
		p.data = p.data[:out*p.size]
	} else if p.stride == Foreign {
		p.foreign = p.foreign[:out]
	}
	p.ids = p.ids[:out]
}

// reapOrderPool compacts an Order pool: it scans the order pool's own
// entries (not id order) and drops any that are present in the removed
// set.
func reapOrderPool(p *pool, removed *pool) {
	out := 0
	for i := 0; i < p.n; i++ {
		id := p.ids[i]
		if binarySearch(removed.ids, 0, removed.n, id) >= 0 {
			continue
		}
		if out != i {
			p.ids[out] = p.ids[i]
		}
		out++
	}
	p.n = out
	p.ids = p.ids[:out]
}

// renumber performs a k-way merge across every non-Order pool (type 0,
// the removed tag, is empty by the time Update calls this and so
// contributes nothing) to find the globally sorted union of surviving
// ids, assigning each distinct id encountered a fresh, dense value
// starting at 1. The old->new mapping is then applied to every pool,
// including Order pools (which carry append order, not id order, and so
// cannot participate in the merge itself but still need every id they
// hold translated).
func (w *World) renumber() {
	mapping := make(map[uint32]uint32, w.maxID/2+1)
	cursors := make([]int, MaxTypes)
	newID := uint32(0)
	for {
		cid, minID := -1, ^uint32(0)
		for t := 1; t < MaxTypes; t++ {
			p := w.pools[t]
			if p == nil || p.stride == Order {
				continue
			}
			c := cursors[t]
			if c < p.n && p.ids[c] <= minID {
				minID = p.ids[c]
				cid = t
			}
		}
		if cid < 0 {
			break
		}
		if _, ok := mapping[minID]; !ok {
			newID++
			mapping[minID] = newID
		}
		cursors[cid]++
	}
	for t := 1; t < MaxTypes; t++ {
		p := w.pools[t]
		if p == nil {
			continue
		}
		for i := 0; i < p.n; i++ {
			newValue, ok := mapping[p.ids[i]]
			if !ok {
				fatalf("ecs: renumber: id not found in any merged pool", p.ids[i])
			}
			p.ids[i] = newValue
		}
	}
	w.maxID = newID
}
