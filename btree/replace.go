package btree

import "github.com/pkg/errors"

// ReplaceKeysInPlace overwrites each stored key equal to oldKeys[i] with
// newKeys[i], in place, for every aligned pair -- no structural change,
// no move to a different slot. Precondition: each pair is
// comparator-equivalent (neither compares less than the other), so the
// tree's sort order is automatically preserved even though old and new
// need not be bitwise equal. This is what lets a caller update, say, an
// external row id that the comparator does not distinguish from the one
// it replaces. A pair that is not comparator-equivalent is a
// precondition violation: it panics rather than silently corrupting the
// tree or returning an error a caller might ignore. Returns the number
// of pairs whose old key was actually found.
func (t *Tree[V]) ReplaceKeysInPlace(oldKeys, newKeys []V) (int, error) {
	if len(oldKeys) != len(newKeys) {
		return 0, errors.New("btree: ReplaceKeysInPlace: oldKeys and newKeys must have the same length")
	}

	replaced := 0
	for i, old := range oldKeys {
		ok := t.replaceKeyInPlace(old, newKeys[i])
		if ok {
			replaced++
		}
	}
	return replaced, nil
}

// ReplaceKeyInPlace is the single-pair form of ReplaceKeysInPlace.
func (t *Tree[V]) ReplaceKeyInPlace(old, newVal V) (bool, error) {
	return t.replaceKeyInPlace(old, newVal), nil
}

func (t *Tree[V]) replaceKeyInPlace(old, newVal V) bool {
	if !t.order.Eq(old, newVal) {
		panic("btree: ReplaceKeyInPlace: old and new must be comparator-equivalent")
	}

	leaf := t.findLeafFor(old)
	b := t.pool.node(leaf)
	n := numValsOf(b)
	pos, found := t.findExact(b, n, old)
	if !found {
		return false
	}

	t.putKeyAt(b, pos, newVal)
	if pos == 0 {
		t.updateSeparatorForLeftmostChange(leaf)
	}
	return true
}
