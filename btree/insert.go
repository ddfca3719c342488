package btree

import "github.com/pkg/errors"

// Insert adds x in sorted position and reports whether it was actually
// inserted. On a Unique tree (Options.Unique), a value comparator-equal
// to one already present is a no-op that returns false;
// on a multiset tree duplicates are always permitted and Insert returns
// true whenever it does not error.
func (t *Tree[V]) Insert(x V) (bool, error) {
	// Every level of the tree can split once on the way up, plus the
	// freshly split leaf itself and a possible new root: Depth+2 node
	// allocations covers the worst case, reserved up front so no
	// mid-insert grow can invalidate a slice this call is still holding.
	if err := t.pool.reserveAdditional(t.Depth() + 2); err != nil {
		return false, errors.Wrap(err, "btree: insert: reserving node capacity")
	}

	leaf := t.findLeafFor(x)
	if t.unique {
		b := t.pool.node(leaf)
		if _, found := t.findExact(b, numValsOf(b), x); found {
			return false, nil
		}
	}

	if err := t.insertIntoLeaf(leaf, x); err != nil {
		return false, err
	}

	t.pool.header.size++
	t.pool.syncHeaderOut()
	return true, nil
}

func (t *Tree[V]) insertIntoLeaf(slot NodeSlot, x V) error {
	l := t.pool.layout
	b := t.pool.node(slot)
	n := numValsOf(b)
	pos := t.lowerBound(b, n, x)

	if n < l.maxLeafValues {
		l.copyKeys(b, pos+1, b, pos, n-pos)
		t.putKeyAt(b, pos, x)
		setNumVals(b, n+1)
		return nil
	}

	newSlot, allocErr := t.pool.allocateNode()
	if allocErr != nil {
		return errors.Wrap(allocErr, "btree: insert: splitting leaf")
	}
	nb := t.pool.node(newSlot)
	resetHeader(nb, kindLeaf)
	b = t.pool.node(slot) // re-derive: allocateNode may have grown the pool

	// The old node ends up with exactly minLeafValues of the n+1 values and
	// the new right sibling with the rest, so both meet the minimum.
	mid := l.minLeafValues
	if pos < mid {
		mid--
	}
	rightCount := n - mid
	l.copyKeys(nb, 0, b, mid, rightCount)
	setNumVals(b, mid)
	setNumVals(nb, rightCount)

	oldRight := rightOf(b)
	setRight(nb, oldRight)
	setLeft(nb, slot)
	setRight(b, newSlot)
	if oldRight != NullSlot {
		setLeft(t.pool.node(oldRight), newSlot)
	} else {
		t.pool.header.lastLeaf = newSlot
	}

	if pos < l.minLeafValues {
		l.copyKeys(b, pos+1, b, pos, mid-pos)
		t.putKeyAt(b, pos, x)
		setNumVals(b, mid+1)
	} else {
		rpos := pos - mid
		l.copyKeys(nb, rpos+1, nb, rpos, rightCount-rpos)
		t.putKeyAt(nb, rpos, x)
		setNumVals(nb, rightCount+1)
	}

	sep := t.keyAt(t.pool.node(newSlot), 0)
	return t.insertIntoParent(slot, newSlot, sep)
}

// insertIntoParent links rightSlot into leftSlot's parent as the sibling
// immediately after it, separated by sepKey. leftSlot must already carry
// the correct Parent/ParentChildIdx; if it has none, leftSlot was the
// root and a new root is created above both.
func (t *Tree[V]) insertIntoParent(leftSlot, rightSlot NodeSlot, sepKey V) error {
	l := t.pool.layout
	parentSlot := parentOf(t.pool.node(leftSlot))

	if parentSlot == NullSlot {
		newRoot, allocErr := t.pool.allocateNode()
		if allocErr != nil {
			return errors.Wrap(allocErr, "btree: insert: creating new root")
		}
		rb := t.pool.node(newRoot)
		resetHeader(rb, kindInner)
		l.setChildAt(rb, 0, leftSlot)
		l.setChildAt(rb, 1, rightSlot)
		t.putKeyAt(rb, 0, sepKey)
		setNumVals(rb, 1)

		lb := t.pool.node(leftSlot)
		setParent(lb, newRoot)
		setParentChildIdx(lb, 0)
		rightB := t.pool.node(rightSlot)
		setParent(rightB, newRoot)
		setParentChildIdx(rightB, 1)

		t.pool.header.root = newRoot
		t.pool.header.depth++
		return nil
	}

	parentB := t.pool.node(parentSlot)
	idx := parentChildIdxOf(t.pool.node(leftSlot))
	n := numValsOf(parentB)

	if n < l.maxInnerKeys() {
		l.copyKeys(parentB, idx+1, parentB, idx, n-idx)
		l.copyChildren(parentB, idx+2, parentB, idx+1, n-idx)
		t.putKeyAt(parentB, idx, sepKey)
		l.setChildAt(parentB, idx+1, rightSlot)
		setNumVals(parentB, n+1)

		rb := t.pool.node(rightSlot)
		setParent(rb, parentSlot)
		setParentChildIdx(rb, idx+1)

		for i := idx + 2; i <= n+1; i++ {
			c := l.childAt(parentB, i)
			setParentChildIdx(t.pool.node(c), i)
		}
		return nil
	}

	promoted, newInner, splitErr := t.splitInnerAndInsert(parentSlot, idx, sepKey, rightSlot)
	if splitErr != nil {
		return splitErr
	}
	return t.insertIntoParent(parentSlot, newInner, promoted)
}

// splitInnerAndInsert splits a full inner node while inserting a new
// separator key and right child at childIdx, returning the key promoted
// to the grandparent and the newly allocated right-sibling inner node.
// Keys and children are briefly materialized into plain Go slices (not
// mapped memory) since an inner node's fan-out is small and this makes
// the redistribution arithmetic unambiguous.
func (t *Tree[V]) splitInnerAndInsert(slot NodeSlot, childIdx int, sepKey V, rightChild NodeSlot) (V, NodeSlot, error) {
	l := t.pool.layout
	b := t.pool.node(slot)
	n := numValsOf(b)

	keys := make([]V, n+1)
	children := make([]NodeSlot, n+2)

	for i := 0; i < childIdx; i++ {
		keys[i] = t.keyAt(b, i)
	}
	keys[childIdx] = sepKey
	for i := childIdx; i < n; i++ {
		keys[i+1] = t.keyAt(b, i)
	}

	for i := 0; i <= childIdx; i++ {
		children[i] = l.childAt(b, i)
	}
	children[childIdx+1] = rightChild
	for i := childIdx + 1; i <= n; i++ {
		children[i+1] = l.childAt(b, i)
	}

	mid := (n + 1) / 2
	promoted := keys[mid]

	newSlot, allocErr := t.pool.allocateNode()
	if allocErr != nil {
		var zero V
		return zero, NullSlot, errors.Wrap(allocErr, "btree: insert: splitting inner node")
	}
	nb := t.pool.node(newSlot)
	resetHeader(nb, kindInner)
	b = t.pool.node(slot)

	leftKeyCount := mid
	rightKeyCount := n - mid
	for i := 0; i < leftKeyCount; i++ {
		t.putKeyAt(b, i, keys[i])
	}
	for i := 0; i < rightKeyCount; i++ {
		t.putKeyAt(nb, i, keys[mid+1+i])
	}
	setNumVals(b, leftKeyCount)
	setNumVals(nb, rightKeyCount)

	leftChildCount := leftKeyCount + 1
	rightChildCount := rightKeyCount + 1
	for i := 0; i < leftChildCount; i++ {
		l.setChildAt(b, i, children[i])
	}
	for i := 0; i < rightChildCount; i++ {
		l.setChildAt(nb, i, children[leftChildCount+i])
	}

	for i := 0; i < leftChildCount; i++ {
		cb := t.pool.node(children[i])
		setParent(cb, slot)
		setParentChildIdx(cb, i)
	}
	for i := 0; i < rightChildCount; i++ {
		cb := t.pool.node(children[leftChildCount+i])
		setParent(cb, newSlot)
		setParentChildIdx(cb, i)
	}

	return promoted, newSlot, nil
}
