package btree

// Erase removes one occurrence of x, if present, and reports whether
// anything was removed.
func (t *Tree[V]) Erase(x V) (bool, error) {
	leaf := t.findLeafFor(x)
	b := t.pool.node(leaf)
	n := numValsOf(b)
	pos, found := t.findExact(b, n, x)
	if !found {
		return false, nil
	}

	l := t.pool.layout
	l.copyKeys(b, pos, b, pos+1, n-pos-1)
	setNumVals(b, n-1)

	if pos == 0 {
		t.updateSeparatorForLeftmostChange(leaf)
	}

	t.pool.header.size--

	if err := t.fixupAfterErase(leaf); err != nil {
		return true, err
	}
	t.pool.syncHeaderOut()
	return true, nil
}

// updateSeparatorForLeftmostChange repairs an ancestor separator key after
// slot's first key changed (or was removed): the nearest ancestor for
// which slot's subtree is not the leftmost child holds a copy of what used
// to be slot's smallest key, which must track the new one.
func (t *Tree[V]) updateSeparatorForLeftmostChange(slot NodeSlot) {
	b := t.pool.node(slot)
	if numValsOf(b) == 0 {
		return
	}
	newFirst := t.keyAt(b, 0)

	cur := slot
	for {
		cb := t.pool.node(cur)
		parentSlot := parentOf(cb)
		if parentSlot == NullSlot {
			return
		}
		idx := parentChildIdxOf(cb)
		if idx > 0 {
			t.putKeyAt(t.pool.node(parentSlot), idx-1, newFirst)
			return
		}
		cur = parentSlot
	}
}

func (t *Tree[V]) minOccupancy(slot NodeSlot) int {
	if isLeaf(t.pool.node(slot)) {
		return t.pool.layout.minLeafValues
	}
	return t.pool.layout.minInnerKeys()
}

// fixupAfterErase restores the minimum-occupancy invariant at slot after a
// key or child was removed from it, propagating merges upward as needed.
func (t *Tree[V]) fixupAfterErase(slot NodeSlot) error {
	b := t.pool.node(slot)

	if parentOf(b) == NullSlot {
		if !isLeaf(b) && numValsOf(b) == 0 {
			child := t.pool.layout.childAt(b, 0)
			setParent(t.pool.node(child), NullSlot)
			t.pool.header.root = child
			t.pool.header.depth--
			t.pool.free(slot)
		}
		return nil
	}

	if numValsOf(b) >= t.minOccupancy(slot) {
		return nil
	}

	return t.rebalance(slot)
}

func (t *Tree[V]) rebalance(slot NodeSlot) error {
	l := t.pool.layout
	parentSlot := parentOf(t.pool.node(slot))
	idx := parentChildIdxOf(t.pool.node(slot))
	nParent := numValsOf(t.pool.node(parentSlot))

	var leftSib, rightSib NodeSlot = NullSlot, NullSlot
	if idx > 0 {
		leftSib = l.childAt(t.pool.node(parentSlot), idx-1)
	}
	if idx < nParent {
		rightSib = l.childAt(t.pool.node(parentSlot), idx+1)
	}

	leaf := isLeaf(t.pool.node(slot))
	minCount := t.minOccupancy(slot)

	if leftSib != NullSlot && numValsOf(t.pool.node(leftSib)) > minCount {
		if leaf {
			t.borrowFromLeftLeaf(slot, leftSib, parentSlot, idx)
		} else {
			t.borrowFromLeftInner(slot, leftSib, parentSlot, idx)
		}
		return nil
	}

	if rightSib != NullSlot && numValsOf(t.pool.node(rightSib)) > minCount {
		if leaf {
			t.borrowFromRightLeaf(slot, rightSib, parentSlot, idx)
		} else {
			t.borrowFromRightInner(slot, rightSib, parentSlot, idx)
		}
		return nil
	}

	if leftSib != NullSlot {
		if leaf {
			t.mergeLeaves(leftSib, slot, parentSlot, idx)
		} else {
			t.mergeInner(leftSib, slot, parentSlot, idx)
		}
		return t.fixupAfterErase(parentSlot)
	}

	if leaf {
		t.mergeLeaves(slot, rightSib, parentSlot, idx+1)
	} else {
		t.mergeInner(slot, rightSib, parentSlot, idx+1)
	}
	return t.fixupAfterErase(parentSlot)
}

func (t *Tree[V]) borrowFromLeftLeaf(slot, leftSib, parentSlot NodeSlot, idx int) {
	l := t.pool.layout
	lb := t.pool.node(leftSib)
	b := t.pool.node(slot)
	nl := numValsOf(lb)
	n := numValsOf(b)

	borrowed := t.keyAt(lb, nl-1)
	l.copyKeys(b, 1, b, 0, n)
	t.putKeyAt(b, 0, borrowed)
	setNumVals(b, n+1)
	setNumVals(lb, nl-1)

	t.putKeyAt(t.pool.node(parentSlot), idx-1, borrowed)
}

func (t *Tree[V]) borrowFromRightLeaf(slot, rightSib, parentSlot NodeSlot, idx int) {
	l := t.pool.layout
	b := t.pool.node(slot)
	rb := t.pool.node(rightSib)
	n := numValsOf(b)
	nr := numValsOf(rb)

	borrowed := t.keyAt(rb, 0)
	t.putKeyAt(b, n, borrowed)
	setNumVals(b, n+1)

	l.copyKeys(rb, 0, rb, 1, nr-1)
	setNumVals(rb, nr-1)

	t.putKeyAt(t.pool.node(parentSlot), idx, t.keyAt(rb, 0))
}

func (t *Tree[V]) mergeLeaves(leftSlot, rightSlot, parentSlot NodeSlot, rightIdxInParent int) {
	l := t.pool.layout
	lb := t.pool.node(leftSlot)
	rb := t.pool.node(rightSlot)
	nl := numValsOf(lb)
	nr := numValsOf(rb)

	l.copyKeys(lb, nl, rb, 0, nr)
	setNumVals(lb, nl+nr)

	newRight := rightOf(rb)
	setRight(lb, newRight)
	if newRight != NullSlot {
		setLeft(t.pool.node(newRight), leftSlot)
	} else {
		t.pool.header.lastLeaf = leftSlot
	}

	t.pool.free(rightSlot)
	t.removeKeyChildFromParent(parentSlot, rightIdxInParent-1, rightIdxInParent)
}

func (t *Tree[V]) borrowFromLeftInner(slot, leftSib, parentSlot NodeSlot, idx int) {
	l := t.pool.layout
	b := t.pool.node(slot)
	lb := t.pool.node(leftSib)
	pb := t.pool.node(parentSlot)
	n := numValsOf(b)
	nl := numValsOf(lb)

	l.copyKeys(b, 1, b, 0, n)
	l.copyChildren(b, 1, b, 0, n+1)
	t.putKeyAt(b, 0, t.keyAt(pb, idx-1))

	movedChild := l.childAt(lb, nl)
	l.setChildAt(b, 0, movedChild)
	setNumVals(b, n+1)

	mcb := t.pool.node(movedChild)
	setParent(mcb, slot)
	setParentChildIdx(mcb, 0)
	for i := 1; i <= n+1; i++ {
		c := l.childAt(b, i)
		setParentChildIdx(t.pool.node(c), i)
	}

	t.putKeyAt(pb, idx-1, t.keyAt(lb, nl-1))
	setNumVals(lb, nl-1)
}

func (t *Tree[V]) borrowFromRightInner(slot, rightSib, parentSlot NodeSlot, idx int) {
	l := t.pool.layout
	b := t.pool.node(slot)
	rb := t.pool.node(rightSib)
	pb := t.pool.node(parentSlot)
	n := numValsOf(b)
	nr := numValsOf(rb)

	t.putKeyAt(b, n, t.keyAt(pb, idx))
	movedChild := l.childAt(rb, 0)
	l.setChildAt(b, n+1, movedChild)
	setNumVals(b, n+1)

	mcb := t.pool.node(movedChild)
	setParent(mcb, slot)
	setParentChildIdx(mcb, n+1)

	t.putKeyAt(pb, idx, t.keyAt(rb, 0))

	l.copyKeys(rb, 0, rb, 1, nr-1)
	l.copyChildren(rb, 0, rb, 1, nr)
	setNumVals(rb, nr-1)
	for i := 0; i < nr; i++ {
		c := l.childAt(rb, i)
		setParentChildIdx(t.pool.node(c), i)
	}
}

func (t *Tree[V]) mergeInner(leftSlot, rightSlot, parentSlot NodeSlot, rightIdxInParent int) {
	l := t.pool.layout
	lb := t.pool.node(leftSlot)
	rb := t.pool.node(rightSlot)
	pb := t.pool.node(parentSlot)
	nl := numValsOf(lb)
	nr := numValsOf(rb)

	sep := t.keyAt(pb, rightIdxInParent-1)
	t.putKeyAt(lb, nl, sep)
	l.copyKeys(lb, nl+1, rb, 0, nr)
	l.copyChildren(lb, nl+1, rb, 0, nr+1)
	setNumVals(lb, nl+1+nr)

	for i := 0; i <= nr; i++ {
		c := l.childAt(lb, nl+1+i)
		cb := t.pool.node(c)
		setParent(cb, leftSlot)
		setParentChildIdx(cb, nl+1+i)
	}

	t.pool.free(rightSlot)
	t.removeKeyChildFromParent(parentSlot, rightIdxInParent-1, rightIdxInParent)
}

// removeKeyChildFromParent deletes the key at keyIdx and the child at
// childIdx from an inner node, shifting the remainder down and reindexing
// the ParentChildIdx of every child that moved.
func (t *Tree[V]) removeKeyChildFromParent(parentSlot NodeSlot, keyIdx, childIdx int) {
	l := t.pool.layout
	pb := t.pool.node(parentSlot)
	n := numValsOf(pb)

	l.copyKeys(pb, keyIdx, pb, keyIdx+1, n-keyIdx-1)
	l.copyChildren(pb, childIdx, pb, childIdx+1, n-childIdx)
	setNumVals(pb, n-1)

	for i := childIdx; i < n; i++ {
		c := l.childAt(pb, i)
		setParentChildIdx(t.pool.node(c), i)
	}
}
