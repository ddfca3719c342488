//go:build windows

package vm

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// queryReserveGranularity reads dwAllocationGranularity from
// GetSystemInfo, Windows' 64KiB minimum granularity for VirtualAlloc
// address-range reservations -- coarser than the page size, unlike POSIX.
func queryReserveGranularity() int {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return int(info.AllocationGranularity)
}

func protectFlag(mode AccessMode) uint32 {
	switch mode {
	case AccessRead:
		return windows.PAGE_READONLY
	case AccessReadWrite:
		return windows.PAGE_READWRITE
	case AccessReadExecute:
		return windows.PAGE_EXECUTE_READ
	default:
		return windows.PAGE_NOACCESS
	}
}

func virtualAllocSlice(addr uintptr, size int, allocType uint32, protect uint32) ([]byte, error) {
	base, err := windows.VirtualAlloc(addr, uintptr(size), allocType, protect)
	if err != nil {
		return nil, err
	}
	return rebuildSliceAt(base, size), nil
}

func platformReserve(size int) ([]byte, error) {
	return virtualAllocSlice(0, size, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
}

func platformAllocate(size int, mode AccessMode) ([]byte, error) {
	return virtualAllocSlice(0, size, windows.MEM_RESERVE|windows.MEM_COMMIT, protectFlag(mode))
}

func platformCommit(region []byte) error {
	_, err := virtualAllocSlice(sliceAddr(region), len(region), windows.MEM_COMMIT, windows.PAGE_READWRITE)
	return err
}

func platformDecommit(region []byte) error {
	return windows.VirtualFree(sliceAddr(region), uintptr(len(region)), windows.MEM_DECOMMIT)
}

// platformFree releases an anonymous VirtualAlloc reservation. File-backed
// views created via MapViewOfFile are released through UnmapViewOfFile
// instead (Region.Free dispatches on Backing before reaching here) since
// VirtualFree rejects an address it did not itself reserve.
func platformFree(region []byte) error {
	if len(region) == 0 {
		return nil
	}
	return windows.VirtualFree(sliceAddr(region), 0, windows.MEM_RELEASE)
}

func platformUnmapView(region []byte) error {
	if len(region) == 0 {
		return nil
	}
	return windows.UnmapViewOfFile(sliceAddr(region))
}

// platformFreeRegion dispatches on Backing: VirtualFree for anonymous
// reservations, UnmapViewOfFile for MapViewOfFile-backed file mappings.
func platformFreeRegion(r *Region) error {
	if r.Backing == BackingFile {
		return platformUnmapView(r.Base)
	}
	return platformFree(r.Base)
}

func platformAllocateFixed(addr uintptr, size int, commit bool) ([]byte, error) {
	allocType := uint32(windows.MEM_RESERVE)
	protect := uint32(windows.PAGE_NOACCESS)
	if commit {
		allocType |= windows.MEM_COMMIT
		protect = windows.PAGE_READWRITE
	}

	// VirtualAlloc at a fixed address fails outright (ERROR_INVALID_ADDRESS)
	// if any part of the range is already reserved, which is exactly the
	// "never overwrites an existing mapping" contract -- no NOREPLACE flag
	// needed on this platform.
	return virtualAllocSlice(addr, size, allocType, protect)
}

// platformBackExtend implements an over-reserve strategy: platformRelocate
// allocates align_up(newSize*2, reserve_granularity) bytes and hands out
// only the first newSize of them (the slice's capacity keeps the rest), so
// a later back-extend that still fits in that allocation only widens the
// slice, committing the new tail pages when asked to.
// Where there is no such slack (the region was allocated without
// over-reserve, e.g. via Allocate), this degrades to attempting a fresh
// reservation at the adjacent address, which can legitimately fail if
// another allocation has since claimed it.
func platformBackExtend(r *Region, newSize int, commit bool) ([]byte, bool) {
	if newSize <= len(r.Base) {
		return nil, false
	}

	tailAddr := sliceAddr(r.Base) + uintptr(len(r.Base))
	extra := newSize - len(r.Base)

	if cap(r.Base) >= newSize {
		// Inside the region's own over-reserved allocation: committing
		// already-reserved pages is all that is left to do.
		if commit {
			if _, err := virtualAllocSlice(tailAddr, extra, windows.MEM_COMMIT, windows.PAGE_READWRITE); err != nil {
				return nil, false
			}
		}
		return r.Base[:newSize], true
	}

	allocType := uint32(windows.MEM_RESERVE)
	protect := uint32(windows.PAGE_NOACCESS)
	if commit {
		allocType |= windows.MEM_COMMIT
		protect = windows.PAGE_READWRITE
	}

	if _, err := virtualAllocSlice(tailAddr, extra, allocType, protect); err != nil {
		return nil, false
	}

	return rebuildSliceAt(sliceAddr(r.Base), newSize), true
}

func platformFrontExtend(r *Region, extra int, commit bool) ([]byte, bool) {
	frontAddr := sliceAddr(r.Base) - uintptr(extra)
	if frontAddr <= 0 || frontAddr%uintptr(ReserveGranularity) != 0 {
		return nil, false
	}

	allocType := uint32(windows.MEM_RESERVE)
	protect := uint32(windows.PAGE_NOACCESS)
	if commit {
		allocType |= windows.MEM_COMMIT
		protect = windows.PAGE_READWRITE
	}

	if _, err := virtualAllocSlice(frontAddr, extra, allocType, protect); err != nil {
		return nil, false
	}

	return rebuildSliceAt(frontAddr, len(r.Base)+extra), true
}

// platformRelocate has no mremap equivalent on Windows at all: the
// "over-reserve" placeholder trick only helps future back-extensions, not
// this move itself, so the last-resort allocate-new/memcpy/free sequence
// is always used. The fresh allocation over-reserves 2x the requested
// size (rounded to ReserveGranularity) so a subsequent back-extend has
// somewhere to land without another relocation.
func platformRelocate(r *Region, newSize, used int, commit bool) (*Region, error) {
	overReserved := alignUp(newSize*2, ReserveGranularity)

	mode := r.AccessMode
	if commit {
		mode = AccessReadWrite
	}

	fresh, allocErr := platformAllocate(overReserved, mode)
	if allocErr != nil {
		return nil, allocErr
	}
	fresh = fresh[:newSize]

	copy(fresh[:used], r.Base[:used])

	if freeErr := platformFree(r.Base); freeErr != nil {
		return nil, freeErr
	}

	return &Region{Base: fresh, AccessMode: mode, Backing: r.Backing, File: r.File, FileOffset: r.FileOffset}, nil
}

func rebuildSliceAt(addr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

func sliceAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
