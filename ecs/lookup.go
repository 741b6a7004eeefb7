package ecs

// binarySearch returns the index of id within ids[lo:hi], or -1 if absent.
// ids[lo:hi] must be sorted ascending.
func binarySearch(ids []uint32, lo, hi int, id uint32) int {
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case ids[mid] == id:
			return mid
		case ids[mid] < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}

// lookup finds id's row in p, starting from the hint h (typically the
// pool's cached lastLookup, or the current row of a driving iteration).
// The hint exploits locality: in a join iteration, a sibling's prior
// match is almost always just ahead of its previous one, so the search
// degrades to O(1) on average instead of O(log n) per probe.
//
// A successful lookup updates p.lastLookup to the returned index.
func lookup(p *pool, id uint32, h int) int {
	n := p.n
	if n == 0 {
		return -1
	}
	var result int
	switch {
	case h < 0 || h >= n:
		result = binarySearch(p.ids, 0, n, id)
	case id <= p.ids[h]:
		if id == p.ids[h] {
			result = h
		} else {
			result = binarySearch(p.ids, 0, h, id)
		}
	case h+2*GuessRange >= n:
		result = binarySearch(p.ids, h+1, n, id)
	case id > p.ids[h+GuessRange]:
		result = binarySearch(p.ids, h+GuessRange+1, n, id)
	default:
		result = binarySearch(p.ids, h+1, h+GuessRange+1, id)
	}
	if result >= 0 {
		p.lastLookup = result
	}
	return result
}
