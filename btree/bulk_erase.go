package btree

import (
	"bytes"
	"sort"
)

// BulkErase removes every key in keys that is present, tolerating keys
// that are not found. Matching is by the tree's comparator, the same as
// Erase: under an indirection comparator this can remove a stored key
// that is merely comparator-equivalent to the requested one, not
// necessarily bitwise identical to it. Returns the number actually
// removed.
func (t *Tree[V]) BulkErase(keys []V) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	staged := make([]V, len(keys))
	copy(staged, keys)
	sort.Slice(staged, func(i, j int) bool { return t.order.Less(staged[i], staged[j]) })

	erased := 0
	for _, k := range staged {
		ok, err := t.Erase(k)
		if err != nil {
			return erased, err
		}
		if ok {
			erased++
		}
	}
	return erased, nil
}

// exactMatchAt reports whether x's encoded bytes are bitwise identical to
// the key stored at position pos of node b -- the stricter test
// EraseSortedExact needs on top of comparator equivalence. A comparator
// that looks values up through an indirection can call two distinct
// stored keys equal; this catches that case and refuses the match.
func (t *Tree[V]) exactMatchAt(b []byte, pos int, x V) bool {
	want := make([]byte, t.pool.layout.keySize)
	t.codec.Encode(want, x)
	return bytes.Equal(want, t.pool.layout.keyAt(b, pos))
}

// EraseSortedExact is the strict counterpart of BulkErase: a key is only
// removed when it is both comparator-equivalent to, and bitwise identical
// (via the codec) with, the stored key the comparator locates. This
// matters for comparators that compare through an indirection, where an
// absent key can compare equal to a present one without being it --
// BulkErase would remove the present key in that case, EraseSortedExact
// must not. Keys that are absent, or only comparator-equivalent to a
// stored key, are skipped rather than treated as an error. Returns the
// number actually removed.
func (t *Tree[V]) EraseSortedExact(keys []V) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	staged := make([]V, len(keys))
	copy(staged, keys)
	sort.Slice(staged, func(i, j int) bool { return t.order.Less(staged[i], staged[j]) })

	erased := 0
	for _, k := range staged {
		leaf := t.findLeafFor(k)
		b := t.pool.node(leaf)
		pos, found := t.findExact(b, numValsOf(b), k)
		if !found || !t.exactMatchAt(b, pos, k) {
			continue
		}

		ok, err := t.Erase(k)
		if err != nil {
			return erased, err
		}
		if ok {
			erased++
		}
	}
	return erased, nil
}
