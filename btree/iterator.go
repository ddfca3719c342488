package btree

// Iterator walks the tree's values in sorted order by following the
// leaf doubly linked list, never touching inner nodes.
type Iterator[V any] struct {
	t      *Tree[V]
	node   NodeSlot
	offset int
}

// Begin returns an iterator positioned at the smallest value. On an
// empty tree firstLeaf still names a live (empty) leaf slot, so Begin
// checks occupancy directly rather than trusting firstLeaf alone, and
// returns End() when there is nothing to point at.
func (t *Tree[V]) Begin() *Iterator[V] {
	first := t.pool.header.firstLeaf
	if first == NullSlot || numValsOf(t.pool.node(first)) == 0 {
		return t.End()
	}
	return &Iterator[V]{t: t, node: first, offset: 0}
}

// End returns the sentinel past-the-end iterator.
func (t *Tree[V]) End() *Iterator[V] {
	return &Iterator[V]{t: t, node: NullSlot, offset: 0}
}

// Valid reports whether the iterator refers to an actual value.
func (it *Iterator[V]) Valid() bool { return it.node != NullSlot }

// Value returns the value the iterator currently refers to. Valid() must
// be true.
func (it *Iterator[V]) Value() V {
	b := it.t.pool.node(it.node)
	return it.t.keyAt(b, it.offset)
}

// Next advances to the next value in sorted order.
func (it *Iterator[V]) Next() {
	if it.node == NullSlot {
		return
	}
	b := it.t.pool.node(it.node)
	it.offset++
	if it.offset >= numValsOf(b) {
		it.node = rightOf(b)
		it.offset = 0
	}
}

// NextSpan returns every remaining value in the iterator's current leaf
// as a single decoded slice and advances to the first value of the next
// leaf, letting a caller consume a whole page at a time instead of one
// value per Next call. ok is false once the
// iterator is past the end.
func (it *Iterator[V]) NextSpan() (span []V, ok bool) {
	if it.node == NullSlot {
		return nil, false
	}
	b := it.t.pool.node(it.node)
	n := numValsOf(b)
	span = make([]V, n-it.offset)
	for i := range span {
		span[i] = it.t.keyAt(b, it.offset+i)
	}
	it.node = rightOf(b)
	it.offset = 0
	return span, true
}

// RandomAccessIterator addresses values by absolute position rather than
// by following links one hop at a time. Repositioning
// walks the leaf chain from one end, so it is O(distance moved), not
// O(log n); the tree does not maintain per-subtree counts, which would be
// the usual way to make this O(log n) and is left as a possible future
// enhancement rather than required by this container's workload.
type RandomAccessIterator[V any] struct {
	t      *Tree[V]
	index  int
	node   NodeSlot
	offset int
}

// IteratorAt returns a random-access iterator positioned at index (0 is
// the smallest value, Len() is the past-the-end position).
func (t *Tree[V]) IteratorAt(index int) *RandomAccessIterator[V] {
	it := &RandomAccessIterator[V]{t: t}
	it.Seek(index)
	return it
}

// Index reports the iterator's current absolute position.
func (it *RandomAccessIterator[V]) Index() int { return it.index }

// Valid reports whether the iterator refers to an actual value (as
// opposed to the past-the-end position).
func (it *RandomAccessIterator[V]) Valid() bool { return it.node != NullSlot }

// Value returns the value at the iterator's current position.
func (it *RandomAccessIterator[V]) Value() V {
	b := it.t.pool.node(it.node)
	return it.t.keyAt(b, it.offset)
}

// Advance moves the iterator by delta positions (positive or negative).
func (it *RandomAccessIterator[V]) Advance(delta int) { it.Seek(it.index + delta) }

// Seek repositions the iterator to an absolute index.
func (it *RandomAccessIterator[V]) Seek(target int) {
	it.index = target
	it.node = it.t.pool.header.firstLeaf
	it.offset = 0

	if it.node != NullSlot && numValsOf(it.t.pool.node(it.node)) == 0 {
		it.node = NullSlot
		return
	}

	remaining := target
	for remaining > 0 && it.node != NullSlot {
		b := it.t.pool.node(it.node)
		n := numValsOf(b)
		if remaining < n {
			it.offset = remaining
			remaining = 0
		} else {
			remaining -= n
			it.node = rightOf(b)
		}
	}
}

// Less gives the iterators' total order, which is just their index order.
func (it *RandomAccessIterator[V]) Less(other *RandomAccessIterator[V]) bool {
	return it.index < other.index
}

// Sub returns it.Index() - other.Index().
func (it *RandomAccessIterator[V]) Sub(other *RandomAccessIterator[V]) int {
	return it.index - other.index
}
