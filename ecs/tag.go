package ecs

// enableTag marks entity id as present in tag pool p. If id is already
// present, this is a no-op. Otherwise id is inserted at its sorted
// position, shifting later ids right by one (growing the pool first if
// needed).
//
// Before shifting, ids[p..n-1] is scanned for an adjacent duplicate: the
// transient pair left behind by disableTag's overwrite-with-next scheme.
// If one is found at position i, the shift is bounded to [p..i] instead
// of [p..n-1]: one of the two duplicate slots is consumed to make room
// for id, n does not grow, and the duplicate is gone. This is the
// mechanism that absorbs disableTag's transient duplicates back down to
// a strictly-increasing run; without it a duplicate run only ever gets
// relabeled (by renumber) or shifted around, never removed.
func enableTag(p *pool, id uint32) {
	n := p.n
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if p.ids[mid] < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < n && p.ids[lo] == id {
		return
	}
	dup := -1
	for i := lo; i < n-1; i++ {
		if p.ids[i] == p.ids[i+1] {
			dup = i
			break
		}
	}
	if dup >= 0 {
		copy(p.ids[lo+1:dup+2], p.ids[lo:dup+1])
		p.ids[lo] = id
		return
	}
	p.grow()
	p.ids = append(p.ids, 0)
	copy(p.ids[lo+1:n+1], p.ids[lo:n])
	p.ids[lo] = id
	p.n++
}

// disableTag removes entity id's presence from tag pool p, if present.
// The implementation guarantees that disabling the id a forward
// iteration is currently visiting neither skips nor revisits any later
// id: the cell the iterator reads next after a disable at its current
// position holds the first id strictly greater than the one just
// disabled, because disableTag overwrites the disabled run with that
// next id rather than shifting the whole tail down (which is also
// exactly how the transient duplicate above comes to exist).
func disableTag(p *pool, id uint32, hint int) {
	index := lookup(p, id, hint)
	if index < 0 {
		return
	}
	lo := index
	for lo > 0 && p.ids[lo-1] == id {
		lo--
	}
	hi := index + 1
	for hi < p.n && p.ids[hi] == id {
		hi++
	}
	if hi < p.n {
		next := p.ids[hi]
		for i := lo; i < hi; i++ {
			p.ids[i] = next
		}
	} else {
		p.n = lo
	}
}
