package ecs

// referencePool tracks which Foreign-stride pools the host has opted into
// reference maintenance for (§4.8). Pools not registered here are
// compacted by the generic sweep in Update like any other pool; a
// registered pool is compacted by UpdateReferences instead. The dead
// field is not populated by any code path.
type referencePool struct {
	dead []bool // parallel to the pool's pre-compaction rows
}

// RegisterReference marks cid (which must be a Foreign-stride pool) for
// reference maintenance: subsequent Update calls will invoke
// UpdateReferences for it automatically.
func (w *World) RegisterReference(cid TypeID) {
	p := w.mustPool(cid)
	if p.stride != Foreign {
		fatalf("ecs: not a foreign pool", cid)
	}
	if w.references == nil {
		w.references = make(map[TypeID]*referencePool)
	}
	w.references[cid] = &referencePool{}
}

// ReferenceRemap describes how one surviving reference row moved during
// UpdateReferences, so the host can rewrite its own cached row indexes.
type ReferenceRemap struct {
	EntityID EntityID
	OldIndex int
	NewIndex int
}

// UpdateReferences walks cid's Foreign pool in id order alongside the
// pending removed set: for each id present in removed, it clears the
// side-table slot and tombstones the row; for every surviving row it
// records the row-index move compaction will cause. It then compacts
// dead rows out, so the next tick starts dense, and returns the list of
// surviving rows that moved so the host can rewrite any row index it
// cached externally.
//
// Unlike a plain pool, a Foreign pool's rows are not reaped by the
// generic sweep (update.go's reapPool) once registered via
// RegisterReference — see the skip in Update. The references held by
// removed rows are set to nil and are not reported to the caller; only
// the moves of surviving rows are. When Update runs UpdateReferences, the
// returned list is discarded.
func (w *World) UpdateReferences(cid TypeID) []ReferenceRemap {
	p := w.mustPool(cid)
	if p.stride != Foreign {
		fatalf("ecs: not a foreign pool", cid)
	}
	removed := w.pools[RemovedType]

	dead := make([]bool, p.n)
	hint := 0
	var lastID uint32
	first := true
	for i := 0; i < removed.n; i++ {
		id := removed.ids[i]
		if !first && id == lastID {
			continue
		}
		first = false
		lastID = id
		if row := lookup(p, id, hint); row >= 0 {
			hint = row
			dead[row] = true
			p.foreign[row] = nil
		}
	}

	remaps := make([]ReferenceRemap, 0, p.n)
	out := 0
	for i := 0; i < p.n; i++ {
		if dead[i] {
			continue
		}
		if out != i {
			p.ids[out] = p.ids[i]
			p.foreign[out] = p.foreign[i]
			remaps = append(remaps, ReferenceRemap{EntityID: p.ids[out], OldIndex: i, NewIndex: out})
		}
		out++
	}
	p.n = out
	p.ids = p.ids[:out]
	p.foreign = p.foreign[:out]
	return remaps
}
