package btree

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sirgallo/vmtree/vector"
)

// Options configures a Tree at construction: a flat struct of options,
// the same shape as MariOpts.
type Options[V any] struct {
	// Comparator establishes the tree's total order; only Less is
	// required, see Comparator and resolveOrder.
	Comparator Comparator[V]
	// Codec packs/unpacks V to and from its fixed on-disk width.
	Codec Codec[V]
	// InitialCapacity is a hint for how many values to pre-size storage
	// for; OpenMemory uses it, OpenFile ignores it.
	InitialCapacity int
	// Unique selects set semantics: Insert/BulkInsert skip a value that
	// compares equal to one already present. False (the default) gives
	// multiset semantics, where every Insert succeeds.
	Unique bool
	// Logger receives structured status events (tree opened, flush,
	// compact). A nil Logger gets logrus.StandardLogger().
	Logger *logrus.Logger
}

// Tree is an ordered container of V backed by a B+ tree whose node pool
// lives in a vector.Vector[rawNode].
type Tree[V any] struct {
	pool   pool
	order  resolvedOrder[V]
	codec  Codec[V]
	unique bool
	log    *logrus.Entry
	closed bool
}

func (o Options[V]) logger() *logrus.Entry {
	l := o.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	return l.WithField("component", "btree")
}

// OpenFile opens or creates a tree backed by path.
func OpenFile[V any](path string, policy vector.OpenPolicy, opts Options[V]) (*Tree[V], error) {
	if opts.Comparator == nil {
		return nil, errors.New("btree: Options.Comparator is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("btree: Options.Codec is required")
	}

	nodes, openErr := vector.Open[rawNode](path, policy, 0)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "btree: opening %s", path)
	}

	t := newTree(nodes, opts)
	// A new or truncated file has a zeroed header, which does not encode
	// NullSlot, so a pool with no nodes is initialized instead of read back.
	if nodes.Size() > 0 {
		t.pool.syncHeaderIn()
	} else if initErr := t.initEmpty(); initErr != nil {
		nodes.Close()
		return nil, initErr
	}

	t.log.WithFields(logrus.Fields{"path": path, "size": t.pool.header.size, "depth": t.pool.header.depth}).Debug("tree opened")
	return t, nil
}

// OpenMemory creates an anonymous, process-private tree.
func OpenMemory[V any](opts Options[V]) (*Tree[V], error) {
	if opts.Comparator == nil {
		return nil, errors.New("btree: Options.Comparator is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("btree: Options.Codec is required")
	}

	nodeCapacityHint := 1
	if opts.Codec != nil && opts.InitialCapacity > 0 {
		l := newLayout(opts.Codec.Size())
		nodeCapacityHint = opts.InitialCapacity/l.maxLeafValues + 1
	}

	nodes, mapErr := vector.MapMemory[rawNode](nodeCapacityHint, 0)
	if mapErr != nil {
		return nil, errors.Wrap(mapErr, "btree: mapping anonymous storage")
	}

	t := newTree(nodes, opts)
	if initErr := t.initEmpty(); initErr != nil {
		return nil, initErr
	}

	return t, nil
}

func newTree[V any](nodes *vector.Vector[rawNode], opts Options[V]) *Tree[V] {
	return &Tree[V]{
		pool: pool{
			nodes:  nodes,
			layout: newLayout(opts.Codec.Size()),
			header: poolHeader{root: NullSlot, firstLeaf: NullSlot, lastLeaf: NullSlot, freeListHead: NullSlot},
		},
		order:  resolveOrder(opts.Comparator),
		codec:  opts.Codec,
		unique: opts.Unique,
		log:    opts.logger(),
	}
}

// initEmpty allocates the tree's first (and initially only) node: an
// empty leaf that is simultaneously root, first leaf, and last leaf.
func (t *Tree[V]) initEmpty() error {
	slot, allocErr := t.pool.allocateNode()
	if allocErr != nil {
		return errors.Wrap(allocErr, "btree: allocating initial leaf")
	}

	b := t.pool.node(slot)
	resetHeader(b, kindLeaf)

	t.pool.header.root = slot
	t.pool.header.firstLeaf = slot
	t.pool.header.lastLeaf = slot
	t.pool.header.depth = 1
	t.pool.header.size = 0
	t.pool.syncHeaderOut()

	return nil
}

// clear frees every node the tree owns and reinitializes it to a single
// empty leaf, the same state a freshly opened empty tree starts in. Used
// by Merge to empty a source tree once its values have been copied
// elsewhere; the backing storage stays attached.
func (t *Tree[V]) clear() error {
	t.freeSubtree(t.pool.header.root)
	return t.initEmpty()
}

func (t *Tree[V]) freeSubtree(slot NodeSlot) {
	if slot == NullSlot {
		return
	}
	b := t.pool.node(slot)
	if !isLeaf(b) {
		n := numValsOf(b)
		for i := 0; i <= n; i++ {
			t.freeSubtree(t.pool.layout.childAt(b, i))
		}
	}
	t.pool.free(slot)
}

// Len reports the number of values currently stored.
func (t *Tree[V]) Len() int { return int(t.pool.header.size) }

// Depth reports the tree's current height in levels (a lone leaf is
// depth 1).
func (t *Tree[V]) Depth() int { return int(t.pool.header.depth) }

// Empty reports whether the tree holds no values.
func (t *Tree[V]) Empty() bool { return t.pool.header.size == 0 }

// ProjectedCapacity reports the approximate number of values storable
// before the node pool's next grow.
func (t *Tree[V]) ProjectedCapacity() int { return t.pool.projectedValueCapacity() }

// Flush forces the node pool to durable storage. This is
// a synchronous, caller-invoked operation: the tree's cooperative,
// single-threaded concurrency model means there is no
// background flush handler to signal.
func (t *Tree[V]) Flush() error {
	t.pool.syncHeaderOut()
	if flushErr := t.pool.nodes.Flush(); flushErr != nil {
		return errors.Wrap(flushErr, "btree: flush")
	}
	t.log.WithFields(logrus.Fields{"size": t.pool.header.size, "depth": t.pool.header.depth}).Debug("flush complete")
	return nil
}

// Close flushes (if writable) and releases the tree's storage. Safe to
// call more than once.
func (t *Tree[V]) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.pool.syncHeaderOut()
	return t.pool.nodes.Close()
}

// Compact releases node-pool capacity beyond the pool's node count: it
// shrinks the backing vector down to its current size. Nodes on the free
// list count toward that size and are kept. Like Flush, this is synchronous and caller-invoked rather than
// running on a background timer, per the tree's single-threaded
// cooperative model.
func (t *Tree[V]) Compact() error {
	before := t.pool.capacityNodes()
	if err := t.pool.nodes.ShrinkToFit(); err != nil {
		return errors.Wrap(err, "btree: compact")
	}
	t.pool.syncHeaderOut()
	t.log.WithFields(logrus.Fields{
		"nodes_before": before,
		"nodes_after":  t.pool.capacityNodes(),
		"free_nodes":   t.pool.header.freeCount,
	}).Info("compact complete")
	return nil
}

// DebugString walks the tree printing per-level occupancy. Intended for tests and
// the vmtreectl stat --verbose command, not the hot path.
func (t *Tree[V]) DebugString() string {
	out := "root=" + slotString(t.pool.header.root) +
		" depth=" + itoa(t.Depth()) + " size=" + itoa(t.Len()) + "\n"
	out += t.debugWalk(t.pool.header.root, 0)
	return out
}

func (t *Tree[V]) debugWalk(slot NodeSlot, level int) string {
	if slot == NullSlot {
		return ""
	}
	b := t.pool.node(slot)
	indent := ""
	for i := 0; i < level; i++ {
		indent += "  "
	}

	if isLeaf(b) {
		return indent + "leaf(" + itoa(int(slot)) + ") vals=" + itoa(numValsOf(b)) + "\n"
	}

	n := numValsOf(b)
	out := indent + "inner(" + itoa(int(slot)) + ") keys=" + itoa(n) + "\n"
	for i := 0; i <= n; i++ {
		out += t.debugWalk(t.pool.layout.childAt(b, i), level+1)
	}
	return out
}

func slotString(s NodeSlot) string {
	if s == NullSlot {
		return "nil"
	}
	return itoa(int(s))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
