//go:build !windows

package vm

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// queryReserveGranularity returns the OS's minimum address-space
// reservation granularity. POSIX hosts have no separate notion of
// "allocation granularity" distinct from the page size (unlike Windows,
// where VirtualAlloc's 64KiB allocation granularity exceeds the page
// size), so the two coincide here.
func queryReserveGranularity() int {
	return os.Getpagesize()
}

func mmapProt(mode AccessMode) int {
	switch mode {
	case AccessRead:
		return unix.PROT_READ
	case AccessReadWrite:
		return unix.PROT_READ | unix.PROT_WRITE
	case AccessReadExecute:
		return unix.PROT_READ | unix.PROT_EXEC
	default:
		return unix.PROT_NONE
	}
}

func platformReserve(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

func platformAllocate(size int, mode AccessMode) ([]byte, error) {
	return unix.Mmap(-1, 0, size, mmapProt(mode), unix.MAP_PRIVATE|unix.MAP_ANON)
}

func platformCommit(region []byte) error {
	return unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE)
}

func platformDecommit(region []byte) error {
	// POSIX has no "decommit but keep reservation" primitive distinct from
	// MADV_DONTNEED: it drops the physical pages but, unlike Windows
	// MEM_DECOMMIT, the range stays readable (re-faulted as zero pages).
	// That is an acceptable approximation of the contract: the backing is
	// returned, the reservation persists.
	return unix.Madvise(region, unix.MADV_DONTNEED)
}

func platformFree(region []byte) error {
	// The raw syscall, because unix.Munmap rejects any slice that is not
	// exactly a mapping unix.Mmap returned (as after a Shrink or an
	// in-place back-extension).
	if _, _, errno := unix.Syscall(unix.SYS_MUNMAP, sliceAddr(region), uintptr(len(region)), 0); errno != 0 {
		return errno
	}
	return nil
}

// platformFreeRegion frees r regardless of Backing: munmap is the single
// release primitive for both anonymous and file-backed POSIX mappings.
func platformFreeRegion(r *Region) error {
	return platformFree(r.Base)
}

func platformAllocateFixed(addr uintptr, size int, commit bool) ([]byte, error) {
	prot := unix.PROT_NONE
	if commit {
		prot = unix.PROT_READ | unix.PROT_WRITE
	}

	// unixMmapAt always mixes in MAP_FIXED; Expand's never-copy guarantee
	// depends on the target range being genuinely free, so a conflicting
	// mapping surfaces as an error instead of silently being clobbered.
	return unixMmapAt(addr, size, prot, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// platformBackExtend attempts to grow r in place at its tail. On Linux this
// is unix.Mremap without MREMAP_MAYMOVE (moving is left to
// platformRelocate); elsewhere (Darwin, BSD) there is no mremap, so
// the fallback is to mmap the immediately-following pages with MAP_FIXED
// and, if the kernel grants that exact address, treat it as a successful
// in-place back-extension.
func platformBackExtend(r *Region, newSize int, commit bool) ([]byte, bool) {
	if newSize <= len(r.Base) {
		return nil, false
	}

	if runtime.GOOS == "linux" {
		// flags = 0: no MREMAP_MAYMOVE, so the kernel either grows in
		// place or returns EINVAL -- exactly "in place or fail".
		if grown, err := unix.Mremap(r.Base, newSize, 0); err == nil {
			return grown, true
		}
	}

	tailAddr := sliceAddr(r.Base) + uintptr(len(r.Base))
	extra := newSize - len(r.Base)
	prot := unix.PROT_NONE
	if commit {
		prot = unix.PROT_READ | unix.PROT_WRITE
	}

	tail, err := unixMmapAt(tailAddr, extra, prot, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, false
	}
	_ = tail

	return rebuildSliceAt(sliceAddr(r.Base), newSize), true
}

func platformFrontExtend(r *Region, extra int, commit bool) ([]byte, bool) {
	frontAddr := sliceAddr(r.Base) - uintptr(extra)
	if frontAddr <= 0 || frontAddr%uintptr(ReserveGranularity) != 0 {
		return nil, false
	}

	prot := unix.PROT_NONE
	if commit {
		prot = unix.PROT_READ | unix.PROT_WRITE
	}

	_, err := unixMmapAt(frontAddr, extra, prot, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, false
	}

	return rebuildSliceAt(frontAddr, len(r.Base)+extra), true
}

// platformRelocate moves r to a fresh, larger allocation, preserving the
// used prefix. On Linux, Mremap(MREMAP_MAYMOVE) lets the kernel move pages
// without copying; on Darwin, mach_vm_remap would do the same (not exposed
// by golang.org/x/sys/unix, so the portable copy fallback is used there
// too); every other POSIX host uses the classical allocate-new/memcpy/free
// sequence.
func platformRelocate(r *Region, newSize, used int, commit bool) (*Region, error) {
	if runtime.GOOS == "linux" {
		if grown, err := unix.Mremap(r.Base, newSize, unix.MREMAP_MAYMOVE); err == nil {
			return &Region{Base: grown, AccessMode: r.AccessMode, Backing: r.Backing, File: r.File, FileOffset: r.FileOffset}, nil
		}
	}

	mode := r.AccessMode
	if commit {
		mode = AccessReadWrite
	}

	fresh, allocErr := platformAllocate(newSize, mode)
	if allocErr != nil {
		return nil, allocErr
	}

	copy(fresh[:used], r.Base[:used])

	if freeErr := platformFree(r.Base); freeErr != nil {
		return nil, freeErr
	}

	return &Region{Base: fresh, AccessMode: mode, Backing: r.Backing, File: r.File, FileOffset: r.FileOffset}, nil
}
