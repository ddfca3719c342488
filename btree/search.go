package btree

// linearScanThreshold bounds how many keys a node-local search will walk
// linearly before switching to binary search: below this,
// a linear scan's better cache behavior and branch predictability beat
// binary search's fewer comparisons.
const linearScanThreshold = 2048

// keyAt decodes the key stored at slot position i in node b.
func (t *Tree[V]) keyAt(b []byte, i int) V {
	return t.codec.Decode(t.pool.layout.keyAt(b, i))
}

func (t *Tree[V]) putKeyAt(b []byte, i int, v V) {
	t.codec.Encode(t.pool.layout.keyAt(b, i), v)
}

// lowerBound returns the smallest index in [0, n] whose key is not less
// than x -- the standard position for maintaining sorted order within a
// leaf.
func (t *Tree[V]) lowerBound(b []byte, n int, x V) int {
	if n <= linearScanThreshold {
		i := 0
		for i < n && t.order.Less(t.keyAt(b, i), x) {
			i++
		}
		return i
	}

	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if t.order.Less(t.keyAt(b, mid), x) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// upperBound returns the smallest index in [0, n] whose key is strictly
// greater than x, which is the child index descendChildIndex picks.
func (t *Tree[V]) upperBound(b []byte, n int, x V) int {
	if n <= linearScanThreshold {
		i := 0
		for i < n && !t.order.Less(x, t.keyAt(b, i)) {
			i++
		}
		return i
	}

	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if t.order.Less(x, t.keyAt(b, mid)) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// findExact returns the position of x in a leaf's key array and whether
// it is actually present (as opposed to merely the insertion point).
func (t *Tree[V]) findExact(b []byte, n int, x V) (pos int, found bool) {
	pos = t.lowerBound(b, n, x)
	if pos < n && t.order.Eq(t.keyAt(b, pos), x) {
		return pos, true
	}
	return pos, false
}

// descendChildIndex picks which child of an inner node holds x: child i
// holds every key < keys[i], child n holds every key >= keys[n-1].
func (t *Tree[V]) descendChildIndex(b []byte, n int, x V) int {
	return t.upperBound(b, n, x)
}

// findLeafFor walks from the root to the leaf that would contain x.
func (t *Tree[V]) findLeafFor(x V) NodeSlot {
	slot := t.pool.header.root
	for {
		b := t.pool.node(slot)
		if isLeaf(b) {
			return slot
		}
		n := numValsOf(b)
		idx := t.descendChildIndex(b, n, x)
		slot = t.pool.layout.childAt(b, idx)
	}
}

// Contains reports whether x is present in the tree.
func (t *Tree[V]) Contains(x V) bool {
	leaf := t.findLeafFor(x)
	b := t.pool.node(leaf)
	_, found := t.findExact(b, numValsOf(b), x)
	return found
}

// Find returns a copy of the stored value equal to x, if present. Useful
// when V carries payload beyond what the comparator inspects.
func (t *Tree[V]) Find(x V) (V, bool) {
	leaf := t.findLeafFor(x)
	b := t.pool.node(leaf)
	pos, found := t.findExact(b, numValsOf(b), x)
	if !found {
		var zero V
		return zero, false
	}
	return t.keyAt(b, pos), true
}

// FindKey looks up by a heterogeneous key type K using the comparator's
// optional TransparentComparator capability, avoiding materializing a V
// just to drive the search.
func FindKey[V any, K any](t *Tree[V], cmp TransparentComparator[V, K], key K) (V, bool) {
	slot := t.pool.header.root
	for {
		b := t.pool.node(slot)
		n := numValsOf(b)
		if isLeaf(b) {
			lo, hi := 0, n
			for lo < hi {
				mid := (lo + hi) / 2
				if cmp.LessKey(t.keyAt(b, mid), key) {
					lo = mid + 1
				} else {
					hi = mid
				}
			}
			if lo < n {
				candidate := t.keyAt(b, lo)
				if !cmp.LessKey(candidate, key) && !cmp.KeyLess(key, candidate) {
					return candidate, true
				}
			}
			var zero V
			return zero, false
		}

		lo, hi := 0, n
		for lo < hi {
			mid := (lo + hi) / 2
			if cmp.KeyLess(key, t.keyAt(b, mid)) {
				hi = mid
			} else {
				lo = mid + 1
			}
		}
		slot = t.pool.layout.childAt(b, lo)
	}
}
