package ecs

import (
	"github.com/hengle/ecscore/ecs/field"
)

// Attrib is a bitmask of the attributes a query key can carry.
type Attrib uint8

const (
	// In marks a key whose field values are read out on every visit.
	In Attrib = 1 << iota
	// Out marks a key whose field values are written back at the next
	// iteration step or at an explicit Sync.
	Out
	// Optional marks a sibling key whose row may be absent; iteration
	// still yields, reporting the key's values as missing.
	Optional
	// Existence marks a boolean filter: presence is required, values are
	// neither read nor written.
	Existence
	// Absent marks a boolean filter: absence is required; mutually
	// exclusive with any read/write attribute.
	Absent
	// Temporary marks a key with neither In nor Out: it is added as a new
	// sibling row on every yielded step that supplies a value for it.
	Temporary
)

func (a Attrib) has(bit Attrib) bool { return a&bit != 0 }

// isTemporary reports whether a key is a transient marker: added as a
// new sibling row (or, for an Order key, an appended entry) at writeback
// and never read back. A Tag key can't be Temporary. Temporary must not be combined with In, Out,
// Existence, or Absent; Compile enforces this.
func isTemporary(a Attrib) bool { return a.has(Temporary) }

// KeySpec describes one key of a query: the component type it joins on,
// a name the consumer-facing Row is keyed by, its attributes, and (for
// Data keys) the field layout to encode/decode.
type KeySpec struct {
	CID     TypeID
	Name    string
	Attribs Attrib
	Fields  []field.Spec
}

type compiledKey struct {
	spec KeySpec
	pool *pool
}

// Plan is a compiled query: a main key plus zero or more sibling keys.
type Plan struct {
	world    *World
	keys     []compiledKey
	readonly bool
}

// Compile validates keys and builds a Plan. The first element of keys is
// the main key; the rest are siblings. Compile panics (a contract
// violation) if the plan shape is forbidden by §4.6.
func (w *World) Compile(keys []KeySpec) *Plan {
	if len(keys) == 0 {
		fatalf("ecs: query needs at least one key")
	}
	plan := &Plan{world: w, readonly: true}
	for i, spec := range keys {
		p := w.mustPool(spec.CID)
		if spec.Attribs.has(Absent) && (spec.Attribs.has(In) || spec.Attribs.has(Out) || spec.Attribs.has(Existence)) {
			fatalf("ecs: absent key can't also read/write/require-existence", spec.Name)
		}
		if spec.Attribs.has(Temporary) && (spec.Attribs.has(In) || spec.Attribs.has(Out) || spec.Attribs.has(Existence) || spec.Attribs.has(Absent)) {
			fatalf("ecs: temporary key can't also read/write/filter", spec.Name)
		}
		if p.stride == Foreign && len(spec.Fields) > 0 {
			fatalf("ecs: foreign key can't carry a field plan", spec.Name)
		}
		if p.stride == Order {
			isMainExistence := i == 0 && spec.Attribs == Existence
			if !isMainExistence && !isTemporary(spec.Attribs) {
				fatalf("ecs: order key only valid as main (existence) or temporary sibling", spec.Name)
			}
		}
		if p.stride == Tag && isTemporary(spec.Attribs) {
			fatalf("ecs: tag sibling can't be temporary; use out instead", spec.Name)
		}
		if i == 0 {
			if spec.Attribs.has(Absent) {
				fatalf("ecs: main key can't be absent", spec.Name)
			}
			if isTemporary(spec.Attribs) {
				fatalf("ecs: main key can't be temporary", spec.Name)
			}
			if spec.Attribs.has(Optional) {
				fatalf("ecs: main key can't be optional", spec.Name)
			}
		}
		if spec.Attribs.has(Out) && !isTemporary(spec.Attribs) {
			plan.readonly = false
		}
		if isTemporary(spec.Attribs) {
			plan.readonly = false
		}
		plan.keys = append(plan.keys, compiledKey{spec: spec, pool: p})
	}
	return plan
}

// Slot holds one key's per-step data: the resolved row's field values (or
// "missing", for an absent Optional sibling), and the value(s) a consumer
// supplies for an Out/Temporary key before the next step's writeback.
type Slot struct {
	Present bool // a row was resolved for this key this step
	Value   field.Value
	Fields  map[string]field.Value
	Object  any  // the resolved/to-be-written reference, for a Foreign key
	Flag    bool // consumer's true/false decision for a Tag/Order Out or Temporary key

	flagSet   bool
	valueSet  bool
	objectSet bool
}

// SetObject records the consumer's decision to write Out/Temporary value
// v for a Foreign key.
func (s *Slot) SetObject(v any) {
	s.Object = v
	s.objectSet = true
}

// Set records the consumer's decision to write Out/Temporary value v for
// a single-field (value-type) key.
func (s *Slot) Set(v field.Value) {
	s.Value = v
	s.valueSet = true
}

// SetField records one field of an Out/Temporary aggregate key.
func (s *Slot) SetField(name string, v field.Value) {
	if s.Fields == nil {
		s.Fields = make(map[string]field.Value)
	}
	s.Fields[name] = v
}

// SetFlag records the consumer's true/false decision for a Tag/Order
// Out or Temporary key (enable/disable, append/skip).
func (s *Slot) SetFlag(v bool) {
	s.Flag = v
	s.flagSet = true
}

// Row is the per-step value the iterator yields to the consumer, keyed
// by each key's declared Name.
type Row struct {
	Entity EntityID
	slots  map[string]*Slot
}

// Slot returns the named key's data for the current step, or nil if name
// is not a key of the compiled plan.
func (r *Row) Slot(name string) *Slot { return r.slots[name] }

// Iterator drives a compiled Plan over a World: main-pool rows in
// increasing id order (append order for an Order main key), joining each
// sibling by entity id via the hinted lookup.
type Iterator struct {
	world    *World
	plan     *Plan
	row      int
	started  bool
	done     bool
	advanced bool // it.row has already been examined once; advance past it next pass

	prevRow   int // row index of the last successfully yielded step, for writeback
	prevValid bool
	postponed bool

	cur *Row
}

// NewIterator returns an Iterator positioned before the first row of
// plan's main pool.
func (w *World) NewIterator(plan *Plan) *Iterator {
	it := &Iterator{world: w, plan: plan, prevRow: -1}
	it.cur = &Row{slots: make(map[string]*Slot, len(plan.keys))}
	for _, k := range plan.keys {
		it.cur.slots[k.spec.Name] = &Slot{}
	}
	return it
}

// Next advances the iterator. On entry (other than the very first call)
// it flushes the writeback for the previously yielded row, per §4.7,
// unless the plan is readonly or that row was postponed, then
// resolves the next main row and its siblings. It returns false once the
// main pool is exhausted.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if it.postponed {
		// Postpone and writeback-flush are mutually exclusive at this
		// boundary. Postpone already rotated the order pool's tail, so
		// the previous row's index no longer names the entity that was
		// postponed; flushing against it here would apply that entity's
		// pending Out/Temporary decisions to whatever slid into its slot.
		// A consumer that needs both calls Sync() before Postpone().
		it.prevValid = false
	} else if it.started && !it.plan.readonly {
		it.flushWriteback()
	}
	it.started = true

	mainPool := it.plan.keys[0].pool
	for {
		if it.postponed {
			it.postponed = false
			// The previous row was rotated to the tail of the order pool
			// and everything shifted down into its slot; re-visit the
			// same index next.
		} else if it.advanced {
			it.row++
		}
		it.advanced = true
		if it.row >= mainPool.n {
			it.done = true
			return false
		}
		entity := mainPool.ids[it.row]
		ok := true
		for i := 1; i < len(it.plan.keys); i++ {
			k := it.plan.keys[i]
			slot := it.cur.slots[k.spec.Name]
			*slot = Slot{}
			if isTemporary(k.spec.Attribs) {
				continue // resolved only at writeback time
			}
			rowIdx := lookup(k.pool, entity, k.pool.lastLookup)
			switch {
			case k.spec.Attribs.has(Absent):
				if rowIdx >= 0 {
					ok = false
				}
			case rowIdx >= 0:
				slot.Present = true
				if !k.spec.Attribs.has(Existence) || k.spec.Attribs.has(In) {
					it.readInto(slot, k, rowIdx)
				}
			case k.spec.Attribs.has(Optional):
				// yield anyway, reported missing
			default:
				ok = false // required sibling (including EXISTENCE) missing: skip this main row
			}
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		it.cur.Entity = entity
		mainSlot := it.cur.slots[it.plan.keys[0].spec.Name]
		*mainSlot = Slot{Present: true}
		if it.plan.keys[0].spec.Attribs.has(In) {
			it.readInto(mainSlot, it.plan.keys[0], it.row)
		}
		it.prevRow = it.row
		it.prevValid = true
		return true
	}
}

// readInto decodes k's field plan (or, for a Foreign key, its side-table
// reference) out of pool row rowIdx into slot.
func (it *Iterator) readInto(slot *Slot, k compiledKey, rowIdx int) {
	if k.pool.stride == Foreign {
		slot.Object = k.pool.foreign[rowIdx]
		return
	}
	if k.pool.stride != Data {
		return
	}
	buf := k.pool.row(rowIdx)
	if len(k.spec.Fields) == 1 && k.spec.Fields[0].Name == "" {
		v, err := field.Decode(k.spec.Fields[0], buf)
		if err != nil {
			fatalf("ecs:", err)
		}
		slot.Value = v
		return
	}
	slot.Fields = make(map[string]field.Value, len(k.spec.Fields))
	for _, fs := range k.spec.Fields {
		v, err := field.Decode(fs, buf)
		if err != nil {
			fatalf("ecs:", err)
		}
		slot.Fields[fs.Name] = v
	}
}

// Row returns the data yielded by the most recent successful Next call.
func (it *Iterator) Row() *Row { return it.cur }

// Remove enqueues the entity at the iterator's current row for removal,
// equivalent to World.RemoveEntityAt on the main key's pool at the
// current row. The row itself is not physically gone until the next
// World.Update.
func (it *Iterator) Remove() {
	it.world.RemoveEntityAt(it.plan.keys[0].spec.CID, it.row)
}

// Postpone, valid only when the main key is an Order pool, defers the
// current row to the end of the order pool. The pool's tail is rotated
// immediately, and the next Next call visits the row that slid into the
// current slot.
func (it *Iterator) Postpone() {
	mainKey := it.plan.keys[0]
	if mainKey.pool.stride != Order {
		fatalf("ecs: postpone is only valid for an order main key")
	}
	p := mainKey.pool
	id := p.ids[it.row]
	copy(p.ids[it.row:p.n-1], p.ids[it.row+1:p.n])
	p.ids[p.n-1] = id
	it.postponed = true
}

// Sync performs an out-of-band writeback of the current row immediately,
// without advancing the iterator. Subsequent field writes the consumer
// makes to the current Row before the next Next call are written back
// again at the normal iteration boundary.
func (it *Iterator) Sync() {
	it.writebackRow(it.row, it.cur)
}

// Object returns the Foreign component's side-table entry at name for
// the iterator's current main row.
func (it *Iterator) Object(name string) (any, bool) {
	k, idx := it.findKey(name)
	if k.pool.stride != Foreign {
		fatalf("ecs: not a foreign key", name)
	}
	var rowIdx int
	if idx == 0 {
		rowIdx = it.row
	} else {
		entity := it.plan.keys[0].pool.ids[it.row]
		rowIdx = lookup(k.pool, entity, k.pool.lastLookup)
		if rowIdx < 0 {
			return nil, false
		}
	}
	return k.pool.foreign[rowIdx], true
}

// SetObject directly writes a Foreign component's side-table entry at
// name for the iterator's current main row, without waiting for the next
// writeback boundary.
func (it *Iterator) SetObject(name string, value any) {
	k, idx := it.findKey(name)
	if k.pool.stride != Foreign {
		fatalf("ecs: not a foreign key", name)
	}
	var rowIdx int
	if idx == 0 {
		rowIdx = it.row
	} else {
		entity := it.plan.keys[0].pool.ids[it.row]
		rowIdx = lookup(k.pool, entity, k.pool.lastLookup)
		if rowIdx < 0 {
			fatalf("ecs: foreign sibling row missing", name)
		}
	}
	k.pool.foreign[rowIdx] = value
}

func (it *Iterator) findKey(name string) (compiledKey, int) {
	for i, k := range it.plan.keys {
		if k.spec.Name == name {
			return k, i
		}
	}
	fatalf("ecs: no such key", name)
	return compiledKey{}, -1
}

// flushWriteback applies the previous row's writeback, if the plan is
// not readonly and a previous row exists.
func (it *Iterator) flushWriteback() {
	if !it.prevValid {
		return
	}
	it.writebackRow(it.prevRow, it.cur)
}

// writebackRow applies every key's Out/Temporary decision recorded in row
// against mainRow of the main pool, in the order §4.7 requires: every
// sibling first, then (deferred) the main key's own Tag disable, so that
// the sibling joins performed earlier in this same step never observe
// the disable-induced perturbation of the main pool's tag array.
func (it *Iterator) writebackRow(mainRow int, row *Row) {
	mainKey := it.plan.keys[0]
	entity := mainKey.pool.ids[mainRow]

	var deferredMainTagOff bool
	applyKey := func(k compiledKey, isMain bool) {
		slot := row.slots[k.spec.Name]
		attrib := k.spec.Attribs
		switch k.pool.stride {
		case Tag:
			if attrib.has(Out) && slot.flagSet {
				if slot.Flag {
					enableTag(k.pool, entity)
					if !attrib.has(In) {
						*slot = Slot{}
					}
				} else if isMain {
					deferredMainTagOff = true
				} else {
					disableTag(k.pool, entity, k.pool.lastLookup)
					if !attrib.has(In) {
						*slot = Slot{}
					}
				}
			}
		case Order:
			if isTemporary(attrib) && slot.flagSet && slot.Flag {
				k.pool.append(entity, nil)
				*slot = Slot{}
			}
		case Data:
			if attrib.has(Out) {
				rowIdx := lookup(k.pool, entity, k.pool.lastLookup)
				if rowIdx < 0 {
					fatalf("ecs: writeback target missing", k.spec.Name, entity)
				}
				it.encodeInto(k, rowIdx, slot)
			} else if isTemporary(attrib) && (slot.valueSet || len(slot.Fields) > 0) {
				rowIdx := k.pool.append(entity, nil)
				it.encodeInto(k, rowIdx, slot)
				*slot = Slot{}
			}
		case Foreign:
			if attrib.has(Out) {
				if !slot.objectSet {
					break
				}
				rowIdx := lookup(k.pool, entity, k.pool.lastLookup)
				if rowIdx < 0 {
					fatalf("ecs: writeback target missing", k.spec.Name, entity)
				}
				k.pool.foreign[rowIdx] = slot.Object
			} else if isTemporary(attrib) && slot.objectSet {
				rowIdx := k.pool.append(entity, nil)
				k.pool.foreign[rowIdx] = slot.Object
				*slot = Slot{}
			}
		}
	}

	for i := 1; i < len(it.plan.keys); i++ {
		applyKey(it.plan.keys[i], false)
	}
	applyKey(mainKey, true)
	if deferredMainTagOff {
		disableTag(mainKey.pool, entity, mainKey.pool.lastLookup)
		mainSlot := row.slots[mainKey.spec.Name]
		if !mainKey.spec.Attribs.has(In) {
			*mainSlot = Slot{}
		}
	}
}

func (it *Iterator) encodeInto(k compiledKey, rowIdx int, slot *Slot) {
	buf := k.pool.row(rowIdx)
	if len(k.spec.Fields) == 1 && k.spec.Fields[0].Name == "" {
		if err := field.Encode(k.spec.Fields[0], buf, slot.Value); err != nil {
			fatalf("ecs:", err)
		}
		return
	}
	for _, fs := range k.spec.Fields {
		v, ok := slot.Fields[fs.Name]
		if !ok {
			continue
		}
		if err := field.Encode(fs, buf, v); err != nil {
			fatalf("ecs:", err)
		}
	}
}
