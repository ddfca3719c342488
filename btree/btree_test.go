package btree

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/sirgallo/vmtree/vector"
)

func newTestTree(t *testing.T, unique bool) *Tree[uint64] {
	t.Helper()
	tree, err := OpenMemory[uint64](Options[uint64]{
		Comparator: Uint64Comparator{},
		Codec:      Uint64Codec{},
		Unique:     unique,
	})
	if err != nil {
		t.Fatalf("open memory tree: %v", err)
	}
	return tree
}

// indirectUint64Comparator orders and equates keys by looking them up in
// a shared external table rather than comparing the key bits directly --
// the indirection that erase_sorted_exact must see through: two distinct
// keys can compare equal here if their looked-up values are equal, even
// though they are not the same key.
type indirectUint64Comparator struct {
	values []uint64
}

func (c indirectUint64Comparator) Less(a, b uint64) bool { return c.values[a] < c.values[b] }
func (c indirectUint64Comparator) Eq(a, b uint64) bool   { return c.values[a] == c.values[b] }

func newIndirectTestTree(t *testing.T, values []uint64) *Tree[uint64] {
	t.Helper()
	tree, err := OpenMemory[uint64](Options[uint64]{
		Comparator: indirectUint64Comparator{values: values},
		Codec:      Uint64Codec{},
	})
	if err != nil {
		t.Fatalf("open memory tree: %v", err)
	}
	return tree
}

func collect(t *Tree[uint64]) []uint64 {
	var out []uint64
	for it := t.Begin(); it.Valid(); it.Next() {
		out = append(out, it.Value())
	}
	return out
}

func isSorted(s []uint64) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}

// checkInvariants walks the whole tree and asserts its structural
// invariants: occupancy bounds, parent-child consistency, separator-key
// placement, and leaf-chain agreement with Len().
func checkInvariants(t *testing.T, tr *Tree[uint64]) {
	t.Helper()

	if tr.Empty() {
		return
	}

	var walk func(slot NodeSlot, isRoot bool) (minKey, maxKey uint64, count int)
	walk = func(slot NodeSlot, isRoot bool) (uint64, uint64, int) {
		b := tr.pool.node(slot)
		n := numValsOf(b)

		if isLeaf(b) {
			if !isRoot {
				if n < tr.pool.layout.minLeafValues || n > tr.pool.layout.maxLeafValues {
					t.Errorf("leaf %d occupancy %d out of [%d,%d]", slot, n, tr.pool.layout.minLeafValues, tr.pool.layout.maxLeafValues)
				}
			}
			for i := 1; i < n; i++ {
				if tr.order.Less(tr.keyAt(b, i), tr.keyAt(b, i-1)) {
					t.Errorf("leaf %d keys not sorted at position %d", slot, i)
				}
			}
			return tr.keyAt(b, 0), tr.keyAt(b, n-1), n
		}

		if !isRoot {
			if n < tr.pool.layout.minInnerKeys() || n > tr.pool.layout.maxInnerKeys() {
				t.Errorf("inner %d occupancy %d out of [%d,%d]", slot, n, tr.pool.layout.minInnerKeys(), tr.pool.layout.maxInnerKeys())
			}
		}

		total := 0
		var firstMin, lastMax uint64
		for i := 0; i <= n; i++ {
			child := tr.pool.layout.childAt(b, i)
			cb := tr.pool.node(child)
			if parentOf(cb) != slot {
				t.Errorf("child %d of %d has wrong parent", child, slot)
			}
			if parentChildIdxOf(cb) != i {
				t.Errorf("child %d of %d has parentChildIdx %d, want %d", child, slot, parentChildIdxOf(cb), i)
			}

			childMin, childMax, childCount := walk(child, false)
			if i == 0 {
				firstMin = childMin
			} else {
				sep := tr.keyAt(b, i-1)
				if tr.order.Less(childMin, sep) {
					t.Errorf("separator key %v at inner %d exceeds child %d's min %v", sep, slot, child, childMin)
				}
				if tr.order.Less(sep, lastMax) {
					t.Errorf("separator key %v at inner %d is less than left sibling's max %v", sep, slot, lastMax)
				}
			}
			lastMax = childMax
			total += childCount
		}

		return firstMin, lastMax, total
	}

	_, _, totalFromWalk := walk(tr.pool.header.root, true)
	if totalFromWalk != tr.Len() {
		t.Errorf("size consistency: walk counted %d values, Len() reports %d", totalFromWalk, tr.Len())
	}

	// leaf chain agreement
	count := 0
	prev := NodeSlot(NullSlot)
	for slot := tr.pool.header.firstLeaf; slot != NullSlot; {
		b := tr.pool.node(slot)
		if leftOf(b) != prev {
			t.Errorf("leaf %d has wrong left link %d, want %d", slot, leftOf(b), prev)
		}
		count += numValsOf(b)
		prev = slot
		slot = rightOf(b)
	}
	if prev != tr.pool.header.lastLeaf {
		t.Errorf("leaf chain ends at %d, want lastLeaf %d", prev, tr.pool.header.lastLeaf)
	}
	if count != tr.Len() {
		t.Errorf("leaf chain total %d != Len() %d", count, tr.Len())
	}

	seq := collect(tr)
	for i := 1; i < len(seq); i++ {
		if tr.order.Less(seq[i], seq[i-1]) {
			t.Errorf("in-order traversal is not sorted: %v", seq)
			break
		}
	}
	if len(seq) != tr.Len() {
		t.Errorf("in-order traversal length %d != Len() %d", len(seq), tr.Len())
	}
}

func TestEmptyTreeBoundaries(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	if !tr.Empty() {
		t.Errorf("fresh tree should be empty")
	}
	if tr.Contains(5) {
		t.Errorf("empty tree should not contain anything")
	}
	if ok, err := tr.Erase(5); ok || err != nil {
		t.Errorf("erase on empty tree should report false, nil, got %v, %v", ok, err)
	}
	if tr.Begin().Valid() {
		t.Errorf("Begin() on empty tree should equal End()")
	}
}

func TestSingleElementBoundaries(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	if _, err := tr.Insert(50); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := tr.Insert(10); err != nil {
		t.Fatalf("insert smaller: %v", err)
	}
	if tr.pool.header.firstLeaf == NullSlot {
		t.Fatalf("firstLeaf must be set")
	}
	firstB := tr.pool.node(tr.pool.header.firstLeaf)
	if tr.keyAt(firstB, 0) != 10 {
		t.Errorf("inserting a smaller key should become the new first value, got %d", tr.keyAt(firstB, 0))
	}

	if _, err := tr.Insert(100); err != nil {
		t.Fatalf("insert larger: %v", err)
	}
	lastB := tr.pool.node(tr.pool.header.lastLeaf)
	n := numValsOf(lastB)
	if tr.keyAt(lastB, n-1) != 100 {
		t.Errorf("inserting a larger key should become the new last value, got %d", tr.keyAt(lastB, n-1))
	}

	checkInvariants(t, tr)
}

func TestSequentialAscendingInsertErase(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	const n = 20000
	for i := 0; i < n; i++ {
		if _, err := tr.Insert(uint64(i)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if tr.Len() != i+1 {
			t.Fatalf("after inserting %d values, Len() = %d", i+1, tr.Len())
		}
		if !tr.Contains(uint64(i)) {
			t.Fatalf("just-inserted value %d not found", i)
		}
	}

	checkInvariants(t, tr)

	perm := rand.New(rand.NewSource(1)).Perm(n)
	for _, i := range perm {
		ok, err := tr.Erase(uint64(i))
		if err != nil {
			t.Fatalf("erase %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("erase %d should report found", i)
		}
	}

	if tr.Len() != 0 {
		t.Fatalf("expected empty tree after erasing everything, got size %d", tr.Len())
	}
	if tr.Begin().Valid() {
		t.Fatalf("expected Begin() == End() on an emptied tree")
	}
}

func TestInterleavedHalvesThenCheck(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	const n = 5000
	for i := 0; i < n; i++ {
		if _, err := tr.Insert(uint64(2 * i)); err != nil {
			t.Fatalf("insert even %d: %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		if _, err := tr.Insert(uint64(2*i + 1)); err != nil {
			t.Fatalf("insert odd %d: %v", i, err)
		}
	}

	seq := collect(tr)
	if len(seq) != 2*n {
		t.Fatalf("expected %d values, got %d", 2*n, len(seq))
	}
	for i, v := range seq {
		if v != uint64(i) {
			t.Fatalf("position %d: got %d, want %d", i, v, i)
		}
	}

	checkInvariants(t, tr)
}

func TestBulkMergeOfTwoTrees(t *testing.T) {
	a := newTestTree(t, false)
	defer a.Close()
	b := newTestTree(t, false)
	defer b.Close()

	const k = 3000
	for i := 0; i < k; i++ {
		if _, err := a.Insert(uint64(2 * i)); err != nil {
			t.Fatalf("seed a: %v", err)
		}
		if _, err := b.Insert(uint64(2*i + 1)); err != nil {
			t.Fatalf("seed b: %v", err)
		}
	}

	count, err := a.Merge(b)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if count != k {
		t.Fatalf("expected merge to insert %d values, got %d", k, count)
	}

	seq := collect(a)
	if len(seq) != 2*k {
		t.Fatalf("expected %d values after merge, got %d", 2*k, len(seq))
	}
	for i, v := range seq {
		if v != uint64(i) {
			t.Fatalf("merged position %d: got %d, want %d", i, v, i)
		}
	}

	if !b.Empty() || b.Len() != 0 {
		t.Fatalf("expected b to be left empty after merge, len=%d", b.Len())
	}
	if b.Begin().Valid() {
		t.Fatalf("expected b.Begin() to be invalid after merge")
	}

	checkInvariants(t, a)
	checkInvariants(t, b)
}

func TestDuplicateHandlingUniqueVsMultiset(t *testing.T) {
	t.Run("unique tree", func(t *testing.T) {
		tr := newTestTree(t, true)
		defer tr.Close()

		first, err := tr.Insert(7)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if !first {
			t.Fatalf("first insert of a unique tree must report true")
		}

		second, err := tr.Insert(7)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if second {
			t.Fatalf("second insert of the same key on a unique tree must report false")
		}

		if tr.Len() != 1 {
			t.Fatalf("size should increment exactly once, got %d", tr.Len())
		}
	})

	t.Run("multiset tree", func(t *testing.T) {
		tr := newTestTree(t, false)
		defer tr.Close()

		if _, err := tr.Insert(7); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if _, err := tr.Insert(7); err != nil {
			t.Fatalf("insert: %v", err)
		}

		if tr.Len() != 2 {
			t.Fatalf("multiset should increment size on every insert, got %d", tr.Len())
		}
	})
}

func TestEraseThenInsertReturnsToOriginalSequence(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	values := []uint64{5, 1, 9, 3, 7, 2, 8, 4, 6, 0}
	for _, v := range values {
		if _, err := tr.Insert(v); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	before := collect(tr)

	ok, err := tr.Erase(5)
	if err != nil || !ok {
		t.Fatalf("erase: %v, %v", ok, err)
	}
	if _, err := tr.Insert(5); err != nil {
		t.Fatalf("reinsert: %v", err)
	}

	after := collect(tr)
	if len(before) != len(after) {
		t.Fatalf("sequence length changed: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("sequence differs at %d: %d vs %d", i, before[i], after[i])
		}
	}
}

func TestExactlyFullLeafTriggersSplit(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	max := tr.pool.layout.maxLeafValues
	for i := 0; i < max; i++ {
		if _, err := tr.Insert(uint64(i)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if tr.Depth() != 1 {
		t.Fatalf("a full-but-not-overflowing leaf should not have split yet, depth=%d", tr.Depth())
	}

	if _, err := tr.Insert(uint64(max)); err != nil {
		t.Fatalf("insert triggering split: %v", err)
	}
	if tr.Depth() != 2 {
		t.Fatalf("expected the tree to grow to depth 2 after splitting the root leaf, got %d", tr.Depth())
	}
	checkInvariants(t, tr)
}

func TestExactlyMinimumLeafEraseTriggersRebalance(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	max := tr.pool.layout.maxLeafValues
	const leaves = 6
	for i := 0; i < max*leaves; i++ {
		if _, err := tr.Insert(uint64(i)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	checkInvariants(t, tr)

	// Sequential inserts leave the first leaf at minimum occupancy after
	// its split, so the first erase already underflows it and forces a
	// borrow or merge; keep erasing to drive further rebalances.
	min := tr.pool.layout.minLeafValues
	toErase := max - min + 1
	for i := 0; i < toErase; i++ {
		ok, err := tr.Erase(uint64(i))
		if err != nil || !ok {
			t.Fatalf("erase %d: %v, %v", i, ok, err)
		}
	}
	checkInvariants(t, tr)
}

func TestBulkInsertSizes(t *testing.T) {
	cases := []struct {
		name string
		n    int
	}{
		{"n=1", 1},
		{"n=max_leaf_values", 0}, // filled below
		{"n=max_leaf_values_plus_one", 0},
		{"n=0 (empty range)", 0},
	}

	tr := newTestTree(t, false)
	max := tr.pool.layout.maxLeafValues
	tr.Close()

	cases[1].n = max
	cases[2].n = max + 1

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fresh := newTestTree(t, false)
			defer fresh.Close()

			values := make([]uint64, c.n)
			for i := range values {
				values[i] = uint64(c.n - i) // unsorted input
			}

			inserted, err := fresh.BulkInsert(values)
			if err != nil {
				t.Fatalf("bulk insert: %v", err)
			}
			if inserted != c.n {
				t.Fatalf("expected %d inserted, got %d", c.n, inserted)
			}
			if fresh.Len() != c.n {
				t.Fatalf("expected size %d, got %d", c.n, fresh.Len())
			}
			checkInvariants(t, fresh)

			seq := collect(fresh)
			if !isSorted(seq) {
				t.Fatalf("bulk-inserted sequence not sorted: %v", seq)
			}
		})
	}
}

func TestBulkInsertUniqueSkipsDuplicates(t *testing.T) {
	tr := newTestTree(t, true)
	defer tr.Close()

	if _, err := tr.Insert(5); err != nil {
		t.Fatalf("seed: %v", err)
	}

	inserted, err := tr.BulkInsert([]uint64{1, 2, 5, 2, 3})
	if err != nil {
		t.Fatalf("bulk insert: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("expected 3 new values inserted (1,2,3; 5 and the dup 2 skipped), got %d", inserted)
	}
	if tr.Len() != 4 {
		t.Fatalf("expected final size 4, got %d", tr.Len())
	}
}

func TestBulkEraseToleratesAbsentKeys(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	for _, v := range []uint64{1, 2, 3} {
		if _, err := tr.Insert(v); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	erased, err := tr.BulkErase([]uint64{2, 99, 3})
	if err != nil {
		t.Fatalf("bulk erase: %v", err)
	}
	if erased != 2 {
		t.Fatalf("expected 2 erased (99 absent), got %d", erased)
	}
	if tr.Len() != 1 || !tr.Contains(1) {
		t.Fatalf("expected only 1 to remain, got %v", collect(tr))
	}
}

func TestEraseSortedExactBasic(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	for _, v := range []uint64{1, 2, 3} {
		if _, err := tr.Insert(v); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	erased, err := tr.EraseSortedExact([]uint64{1, 99, 3})
	if err != nil {
		t.Fatalf("erase sorted exact: %v", err)
	}
	if erased != 2 {
		t.Fatalf("expected 2 erased (99 absent), got %d", erased)
	}
	if tr.Len() != 1 || !tr.Contains(2) {
		t.Fatalf("expected only 2 to remain, got %v", collect(tr))
	}
}

// TestEraseSortedExactVsBulkEraseIndirectComparator exercises the one
// thing that separates EraseSortedExact from BulkErase: a comparator
// that equates a key that was never inserted with one that was. BulkErase
// may erase on comparator equivalence alone; EraseSortedExact must only
// erase the literal stored key.
func TestEraseSortedExactVsBulkEraseIndirectComparator(t *testing.T) {
	values := make([]uint64, 6)
	values[0], values[1], values[2] = 0, 1, 2
	values[5] = values[0] // key 5 was never inserted but compares equal to stored key 0

	tr := newIndirectTestTree(t, values)
	defer tr.Close()

	for _, v := range []uint64{0, 1, 2} {
		if _, err := tr.Insert(v); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	erased, err := tr.EraseSortedExact([]uint64{5})
	if err != nil {
		t.Fatalf("erase sorted exact: %v", err)
	}
	if erased != 0 {
		t.Fatalf("expected erase_sorted_exact to erase nothing for a comparator-equivalent but absent key, got %d", erased)
	}
	if !tr.Contains(0) || tr.Len() != 3 {
		t.Fatalf("erase_sorted_exact must not have modified the tree, got %v", collect(tr))
	}

	erased, err = tr.BulkErase([]uint64{5})
	if err != nil {
		t.Fatalf("bulk erase: %v", err)
	}
	if erased != 1 {
		t.Fatalf("expected BulkErase to remove the comparator-equivalent stored key, got %d", erased)
	}
	if tr.Contains(0) || tr.Len() != 2 {
		t.Fatalf("expected stored key 0 removed via comparator equivalence, got %v", collect(tr))
	}
}

func TestReplaceKeyInPlace(t *testing.T) {
	values := make([]uint64, 11)
	for i := uint64(0); i < 5; i++ {
		values[i] = i
	}
	values[10] = values[0] // comparator-equivalent to stored key 0, but not bitwise equal
	values[7] = 999        // distinct from every stored value, so key 7 matches nothing

	tr := newIndirectTestTree(t, values)
	defer tr.Close()

	for i := uint64(0); i < 5; i++ {
		if _, err := tr.Insert(i); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	ok, err := tr.ReplaceKeyInPlace(0, 10)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !ok {
		t.Fatalf("expected replace of an existing key to report true")
	}
	if tr.Len() != 5 {
		t.Fatalf("replace must not change the tree's size, got %d", tr.Len())
	}
	if got := tr.Begin().Value(); got != 10 {
		t.Fatalf("expected stored key 0 overwritten in place with 10, got %d", got)
	}
	checkInvariants(t, tr)

	ok, err = tr.ReplaceKeyInPlace(7, 7)
	if err != nil {
		t.Fatalf("replace absent: %v", err)
	}
	if ok {
		t.Fatalf("replace of an absent key must report false")
	}
}

func TestReplaceKeyInPlacePanicsOnNonEquivalentPair(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	for _, v := range []uint64{10, 20, 30} {
		if _, err := tr.Insert(v); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected ReplaceKeyInPlace to panic when old and new are not comparator-equivalent")
		}
	}()
	tr.ReplaceKeyInPlace(20, 25)
}

func TestReplaceKeysInPlaceArrayForm(t *testing.T) {
	values := make([]uint64, 16)
	for i := uint64(0); i < 5; i++ {
		values[i] = i
	}
	values[10] = values[0]
	values[11] = values[1]

	tr := newIndirectTestTree(t, values)
	defer tr.Close()

	for i := uint64(0); i < 5; i++ {
		if _, err := tr.Insert(i); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	replaced, err := tr.ReplaceKeysInPlace([]uint64{0, 1}, []uint64{10, 11})
	if err != nil {
		t.Fatalf("replace keys in place: %v", err)
	}
	if replaced != 2 {
		t.Fatalf("expected 2 pairs replaced, got %d", replaced)
	}
	if tr.Len() != 5 {
		t.Fatalf("replace must not change the tree's size, got %d", tr.Len())
	}
	checkInvariants(t, tr)
}

func TestRandomAccessIterator(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	const n = 2000
	for i := 0; i < n; i++ {
		if _, err := tr.Insert(uint64(i)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	it := tr.IteratorAt(0)
	for i := 0; i < n; i++ {
		if it.Value() != uint64(i) {
			t.Fatalf("at index %d, got %d", i, it.Value())
		}
		it.Advance(1)
	}

	mid := tr.IteratorAt(n / 2)
	if mid.Value() != uint64(n/2) {
		t.Fatalf("IteratorAt(%d) = %d, want %d", n/2, mid.Value(), n/2)
	}

	other := tr.IteratorAt(n/2 + 10)
	if diff := other.Sub(mid); diff != 10 {
		t.Fatalf("expected difference of 10, got %d", diff)
	}
	if !mid.Less(other) {
		t.Fatalf("expected mid < other")
	}
}

func TestFindKeyTransparentLookup(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	for i := uint64(0); i < 100; i++ {
		if _, err := tr.Insert(i * 10); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	v, ok := FindKey[uint64, int](tr, uint64DivisibleComparator{}, 500)
	if !ok || v != 500 {
		t.Fatalf("expected to find 500 via int key, got %v, %v", v, ok)
	}

	_, ok = FindKey[uint64, int](tr, uint64DivisibleComparator{}, 501)
	if ok {
		t.Fatalf("expected 501 not to be found")
	}
}

// uint64DivisibleComparator treats an int key k as comparing equal to the
// stored uint64 exactly when uint64(k) matches, i.e. a trivial
// TransparentComparator used only to exercise FindKey.
type uint64DivisibleComparator struct{}

func (uint64DivisibleComparator) Less(a, b uint64) bool  { return a < b }
func (uint64DivisibleComparator) LessKey(a uint64, k int) bool { return a < uint64(k) }
func (uint64DivisibleComparator) KeyLess(k int, b uint64) bool { return uint64(k) < b }

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.dat")

	const n = 8000
	values := rand.New(rand.NewSource(2)).Perm(n)

	tr, err := OpenFile[uint64](path, vector.OpenOrCreate, Options[uint64]{
		Comparator: Uint64Comparator{},
		Codec:      Uint64Codec{},
	})
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	for _, v := range values {
		if _, err := tr.Insert(uint64(v)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenFile[uint64](path, vector.OpenExisting, Options[uint64]{
		Comparator: Uint64Comparator{},
		Codec:      Uint64Codec{},
	})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if reopened.Len() != n {
		t.Fatalf("expected persisted size %d, got %d", n, reopened.Len())
	}
	for _, v := range values {
		if !reopened.Contains(uint64(v)) {
			t.Fatalf("expected %d to be findable after reopen", v)
		}
	}
	checkInvariants(t, reopened)

	ok, err := reopened.Erase(uint64(values[0]))
	if err != nil || !ok {
		t.Fatalf("erase after reopen: %v, %v", ok, err)
	}
	if err := reopened.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	final, err := OpenFile[uint64](path, vector.OpenExisting, Options[uint64]{
		Comparator: Uint64Comparator{},
		Codec:      Uint64Codec{},
	})
	if err != nil {
		t.Fatalf("final reopen: %v", err)
	}
	defer final.Close()

	if final.Len() != n-1 {
		t.Fatalf("expected size %d after erase+reopen, got %d", n-1, final.Len())
	}
}

func TestDebugStringDoesNotPanic(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	for i := 0; i < 500; i++ {
		if _, err := tr.Insert(uint64(i)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	s := tr.DebugString()
	if len(s) == 0 {
		t.Fatalf("expected non-empty debug string")
	}
}

func TestProjectedCapacityIsPositive(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	for i := 0; i < 1000; i++ {
		if _, err := tr.Insert(uint64(i)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if tr.ProjectedCapacity() <= 0 {
		t.Fatalf("expected a positive projected capacity, got %d", tr.ProjectedCapacity())
	}
}

func TestCompactReducesCapacityAfterManyErases(t *testing.T) {
	tr := newTestTree(t, false)
	defer tr.Close()

	const n = 10000
	for i := 0; i < n; i++ {
		if _, err := tr.Insert(uint64(i)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	for i := 0; i < n-10; i++ {
		if _, err := tr.Erase(uint64(i)); err != nil {
			t.Fatalf("erase: %v", err)
		}
	}

	before := tr.pool.capacityNodes()
	if err := tr.Compact(); err != nil {
		t.Fatalf("compact: %v", err)
	}
	after := tr.pool.capacityNodes()

	if after >= before {
		t.Fatalf("compact should reduce capacity after many erases, before=%d after=%d", before, after)
	}
	checkInvariants(t, tr)
}
