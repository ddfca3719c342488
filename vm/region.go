package vm

import (
	"os"

	"github.com/pkg/errors"
)

// AllocType selects the fixed-address allocation semantics of
// AllocateFixed and the internal primitives Expand dispatches to.
type AllocType int

const (
	// AllocReserve reserves address space without committing backing.
	AllocReserve AllocType = iota
	// AllocCommit commits physical (or file) backing, implicitly
	// reserving first if the range is not already reserved.
	AllocCommit
)

// RelocType controls whether Expand is permitted to relocate the region
// to satisfy a request that cannot be met in place.
type RelocType int

const (
	// Fixed forbids relocation: Expand either extends in place or fails.
	Fixed RelocType = iota
	// Moveable permits Expand to fall back to allocate-copy-free.
	Moveable
)

// ExpandMethod reports how Expand actually satisfied a request.
type ExpandMethod int

const (
	// ExpandFailed means neither in-place extension nor relocation
	// succeeded; the original region is untouched.
	ExpandFailed ExpandMethod = iota
	// ExpandBackExtended grew the region at its tail, same base address.
	ExpandBackExtended
	// ExpandFrontExtended grew the region at its head; callers must treat
	// every previously-held offset as shifted by the growth delta.
	ExpandFrontExtended
	// ExpandMoved relocated the region to a new base address; the used
	// prefix was copied (or the kernel moved the underlying pages).
	ExpandMoved
)

// Granularities are queried once per process at startup.
var (
	// ReserveGranularity is the OS-imposed minimum size/alignment for an
	// address-range reservation.
	ReserveGranularity = queryReserveGranularity()
	// CommitGranularity is the OS-imposed minimum size/alignment for
	// committing physical backing -- the host page size.
	CommitGranularity = os.Getpagesize()
)

// Region is an owned, page-aligned address range. A Region is created by
// Reserve or Allocate, may be expanded or relocated via Expand, and must be
// freed exactly once via Free.
type Region struct {
	// Base is the mapped byte slice; Base[0] is the region's page-aligned
	// start address from the OS's perspective.
	Base []byte
	// AccessMode is the current protection of the committed range.
	AccessMode AccessMode
	// Backing identifies whether this region is anonymous or file-backed.
	Backing Backing
	// File is non-nil for BackingFile regions.
	File *os.File
	// FileOffset is the byte offset into File this region maps from.
	FileOffset int64
}

// Size returns the region's current mapped extent in bytes.
func (r *Region) Size() int {
	if r == nil {
		return 0
	}
	return len(r.Base)
}

func alignUp(v, granularity int) int {
	if granularity <= 0 {
		return v
	}
	rem := v % granularity
	if rem == 0 {
		return v
	}
	return v + (granularity - rem)
}

// Allocate reserves and commits size bytes of anonymous, read-write memory,
// rounded up to ReserveGranularity.
func Allocate(size int) (*Region, error) {
	if size <= 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "vm: allocate size must be positive")
	}

	rounded := alignUp(size, ReserveGranularity)
	base, allocErr := platformAllocate(rounded, AccessReadWrite)
	if allocErr != nil {
		return nil, errors.Wrap(ErrOutOfMemory, allocErr.Error())
	}

	return &Region{Base: base, AccessMode: AccessReadWrite, Backing: BackingAnonymous}, nil
}

// Reserve reserves size bytes of address space without committing backing.
func Reserve(size int) (*Region, error) {
	if size <= 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "vm: reserve size must be positive")
	}

	rounded := alignUp(size, ReserveGranularity)
	base, reserveErr := platformReserve(rounded)
	if reserveErr != nil {
		return nil, errors.Wrap(ErrOutOfMemory, reserveErr.Error())
	}

	return &Region{Base: base, AccessMode: AccessNone, Backing: BackingAnonymous}, nil
}

// Commit makes the [offset, offset+size) range (already reserved in r)
// backed by physical memory with read-write access. offset and size must
// be CommitGranularity-aligned.
func (r *Region) Commit(offset, size int) error {
	if offset < 0 || size <= 0 || offset%CommitGranularity != 0 || size%CommitGranularity != 0 {
		return errors.Wrap(ErrInvalidArgument, "vm: commit range must be page-aligned")
	}
	if offset+size > len(r.Base) {
		return errors.Wrap(ErrInvalidArgument, "vm: commit range exceeds region")
	}

	if commitErr := platformCommit(r.Base[offset : offset+size]); commitErr != nil {
		return errors.Wrap(ErrOutOfMemory, commitErr.Error())
	}

	r.AccessMode = AccessReadWrite
	return nil
}

// Decommit returns the physical backing for [offset, offset+size) while
// keeping the address reservation intact.
func (r *Region) Decommit(offset, size int) error {
	if offset < 0 || size <= 0 || offset%CommitGranularity != 0 {
		return errors.Wrap(ErrInvalidArgument, "vm: decommit range must be page-aligned")
	}
	if offset+size > len(r.Base) {
		return errors.Wrap(ErrInvalidArgument, "vm: decommit range exceeds region")
	}

	return platformDecommit(r.Base[offset : offset+size])
}

// Free releases the region's reservation. Idempotent when the region is
// already empty.
func (r *Region) Free() error {
	if r == nil || len(r.Base) == 0 {
		return nil
	}

	if freeErr := platformFreeRegion(r); freeErr != nil {
		return freeErr
	}

	r.Base = nil
	return nil
}

// AllocateFixed allocates exactly at the address backing ptr (a slice
// previously obtained from a Region's Base, or a raw offset within one),
// never overwriting an existing mapping.
func AllocateFixed(addr uintptr, size int, kind AllocType) (*Region, error) {
	if size <= 0 || addr%uintptr(ReserveGranularity) != 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "vm: allocate_fixed requires an aligned address")
	}

	rounded := alignUp(size, ReserveGranularity)
	base, fixedErr := platformAllocateFixed(addr, rounded, kind == AllocCommit)
	if fixedErr != nil {
		return nil, errors.Wrap(ErrAddressInUse, fixedErr.Error())
	}

	mode := AccessNone
	if kind == AllocCommit {
		mode = AccessReadWrite
	}
	return &Region{Base: base, AccessMode: mode, Backing: BackingAnonymous}, nil
}

// ExpandResult is the outcome of Expand.
type ExpandResult struct {
	// Region is the (possibly relocated) region; nil on ExpandFailed.
	Region *Region
	// Method reports how the request was satisfied.
	Method ExpandMethod
}

// Expand grows r to back bytes (or front bytes toward lower addresses, or
// both), per a fixed priority policy: back-extend in place,
// then front-extend if requested, then relocate if reloc allows it, else
// fail. used bytes at the head of r are guaranteed preserved at their
// original virtual addresses whenever Method is ExpandBackExtended or
// ExpandFrontExtended (the never-copy guarantee).
func Expand(r *Region, back, front, used int, kind AllocType, reloc RelocType) (ExpandResult, error) {
	cur := len(r.Base)
	if used > cur {
		return ExpandResult{}, errors.Wrap(ErrInvalidArgument, "vm: used exceeds current region size")
	}
	if back <= cur && front <= cur {
		return ExpandResult{}, errors.Wrap(ErrInvalidArgument, "vm: expand requires a larger back or front target")
	}

	if back > cur {
		if newBase, ok := platformBackExtend(r, alignUp(back, ReserveGranularity), kind == AllocCommit); ok {
			r.Base = newBase
			return ExpandResult{Region: r, Method: ExpandBackExtended}, nil
		}
	}

	if front > cur {
		extra := alignUp(front, ReserveGranularity) - cur
		if newBase, ok := platformFrontExtend(r, extra, kind == AllocCommit); ok {
			r.Base = newBase
			return ExpandResult{Region: r, Method: ExpandFrontExtended}, nil
		}
	}

	if reloc != Moveable {
		return ExpandResult{Method: ExpandFailed}, nil
	}

	target := back
	if front > target {
		target = front
	}
	target = alignUp(target, ReserveGranularity)

	moved, moveErr := platformRelocate(r, target, used, kind == AllocCommit)
	if moveErr != nil {
		return ExpandResult{Method: ExpandFailed}, nil
	}

	return ExpandResult{Region: moved, Method: ExpandMoved}, nil
}
