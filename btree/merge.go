package btree

// Merge inserts every value of other into t and returns how many were
// inserted, then empties other: its nodes go back to its free list and it
// is reinitialized as an empty tree, with its backing storage still
// attached. This always takes the copy path: two
// Tree values are backed by independent vector.Vector instances with
// independent, unrelated address spaces, so there is no structural
// transplant of other's nodes to take instead -- the same restriction
// b+tree.hpp documents for its own merge.
func (t *Tree[V]) Merge(other *Tree[V]) (int, error) {
	count := 0
	for it := other.Begin(); it.Valid(); it.Next() {
		inserted, err := t.Insert(it.Value())
		if err != nil {
			return count, err
		}
		if inserted {
			count++
		}
	}
	if err := other.clear(); err != nil {
		return count, err
	}
	return count, nil
}
