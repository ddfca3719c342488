package btree

import (
	"sort"

	"github.com/pkg/errors"
)

// BulkInsert inserts every value in values, sorting a working copy first
// so that each successive insertion descends close to where the previous
// one left off and the leaf-level work stays sequential.
// On a Unique tree, a value comparator-equal to one already present (in
// the tree, or to an earlier value in this same batch) is silently
// skipped. Returns the number of values actually inserted; a failure
// partway through still leaves the tree structurally valid and reports how many succeeded.
func (t *Tree[V]) BulkInsert(values []V) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}

	staged := make([]V, len(values))
	copy(staged, values)
	sort.Slice(staged, func(i, j int) bool { return t.order.Less(staged[i], staged[j]) })

	estimatedLeaves := len(staged)/t.pool.layout.maxLeafValues + 1
	if err := t.pool.reserveAdditional(estimatedLeaves*2 + t.Depth() + 2); err != nil {
		return 0, errors.Wrap(err, "btree: bulk insert: reserving node capacity")
	}

	inserted := 0
	for _, v := range staged {
		leaf := t.findLeafFor(v)
		if t.unique {
			b := t.pool.node(leaf)
			if _, found := t.findExact(b, numValsOf(b), v); found {
				continue
			}
		}
		if err := t.insertIntoLeaf(leaf, v); err != nil {
			t.pool.syncHeaderOut()
			return inserted, err
		}
		inserted++
		t.pool.header.size++
	}

	t.pool.syncHeaderOut()
	return inserted, nil
}
