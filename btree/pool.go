package btree

import (
	"github.com/sirgallo/vmtree/vector"
)

// poolHeader is the tree's persistent metadata,
// stored in the node vector's reserved user-header area so it survives a
// close/reopen cycle alongside the nodes themselves.
type poolHeader struct {
	root         NodeSlot
	firstLeaf    NodeSlot
	lastLeaf     NodeSlot
	freeListHead NodeSlot
	freeCount    uint32
	depth        uint32
	size         uint64
}

// Byte offsets of poolHeader fields within Vector.UserHeaderData().
const (
	phOffRoot      = 0
	phOffFirstLeaf = 4
	phOffLastLeaf  = 8
	phOffFreeHead  = 12
	phOffFreeCount = 16
	phOffDepth     = 20
	phOffSize      = 24
	phBytes        = 32
)

func readPoolHeader(buf []byte) poolHeader {
	if len(buf) < phBytes {
		return poolHeader{root: NullSlot, firstLeaf: NullSlot, lastLeaf: NullSlot, freeListHead: NullSlot}
	}
	return poolHeader{
		root:         getSlot(buf, phOffRoot),
		firstLeaf:    getSlot(buf, phOffFirstLeaf),
		lastLeaf:     getSlot(buf, phOffLastLeaf),
		freeListHead: getSlot(buf, phOffFreeHead),
		freeCount:    getU32(buf, phOffFreeCount),
		depth:        getU32(buf, phOffDepth),
		size:         uint64(getU32(buf, phOffSize)) | uint64(getU32(buf, phOffSize+4))<<32,
	}
}

func writePoolHeader(buf []byte, h poolHeader) {
	putSlot(buf, phOffRoot, h.root)
	putSlot(buf, phOffFirstLeaf, h.firstLeaf)
	putSlot(buf, phOffLastLeaf, h.lastLeaf)
	putSlot(buf, phOffFreeHead, h.freeListHead)
	putU32(buf, phOffFreeCount, h.freeCount)
	putU32(buf, phOffDepth, h.depth)
	putU32(buf, phOffSize, uint32(h.size))
	putU32(buf, phOffSize+4, uint32(h.size>>32))
}

// pool owns the node storage: a vector.Vector of fixed-size node slabs,
// plus the persistent poolHeader describing the tree rooted in it.
type pool struct {
	nodes  *vector.Vector[rawNode]
	layout layout
	header poolHeader
}

func (p *pool) syncHeaderOut() {
	writePoolHeader(p.nodes.UserHeaderData(), p.header)
}

func (p *pool) syncHeaderIn() {
	p.header = readPoolHeader(p.nodes.UserHeaderData())
}

// node returns the live byte view for slot. The slice is only valid until
// the next operation that may grow the pool (allocateNode, reserveAdditional);
// callers must re-derive it after any such call.
func (p *pool) node(slot NodeSlot) []byte {
	raw := p.nodes.Data()
	return raw[int(slot)][:]
}

// allocateNode returns a fresh slot: popped from the free list in O(1) if
// non-empty, otherwise appended via the vector's grow path. The slot's
// header.NumVals is 0; all other content is uninitialized except for the
// kindFree markers cleared in free().
func (p *pool) allocateNode() (NodeSlot, error) {
	if p.header.freeListHead != NullSlot {
		slot := p.header.freeListHead
		b := p.node(slot)
		next := rightOf(b) // a free node's Right doubles as the free-list link
		p.header.freeListHead = next
		p.header.freeCount--
		return slot, nil
	}

	if growErr := p.nodes.GrowBy(1, vector.NoInit); growErr != nil {
		return NullSlot, growErr
	}

	slot := NodeSlot(p.nodes.Size() - 1)
	b := p.node(slot)
	resetHeader(b, kindFree)
	return slot, nil
}

// reserveAdditional ensures room for n more nodes without a subsequent grow
// during an operation that must not partially fail mid-structural-change.
func (p *pool) reserveAdditional(n int) error {
	need := p.nodes.Size() + n - int(p.header.freeCount)
	if need <= p.nodes.Capacity() {
		return nil
	}
	return p.nodes.Reserve(need)
}

// free clears slot's linkage and pushes it onto the free list. If slot was
// a leaf, it is first unlinked from the leaf doubly linked list by the
// caller (erase.go / merge routines), since only they know the correct
// neighbors at the point of removal.
func (p *pool) free(slot NodeSlot) {
	b := p.node(slot)
	head := p.header.freeListHead
	resetHeader(b, kindFree)
	setRight(b, head) // reuse Right as the free-list "next" pointer
	p.header.freeListHead = slot
	p.header.freeCount++
}

// capacityNodes returns the pool's current vector capacity in node slots.
func (p *pool) capacityNodes() int { return p.nodes.Capacity() }

// projectedValueCapacity approximates the maximum number of values storable
// before the next pool grow: total node capacity minus the
// maximum inner-node count consistent with the current depth, times the
// leaf fan-out.
func (p *pool) projectedValueCapacity() int {
	capacity := p.capacityNodes()
	depth := int(p.header.depth)
	if depth <= 1 {
		return capacity * p.layout.maxLeafValues
	}

	maxInner := 1
	levelWidth := 1
	for i := 1; i < depth-1; i++ {
		levelWidth *= p.layout.maxChildren
		maxInner += levelWidth
	}

	usable := capacity - maxInner
	if usable < 0 {
		usable = 0
	}
	return usable * p.layout.maxLeafValues
}
