//go:build !windows

package vm

import (
	"os"

	"golang.org/x/sys/unix"
)

func platformMapFile(file *os.File, mode AccessMode, offset int64, size int) ([]byte, error) {
	return unix.Mmap(int(file.Fd()), offset, size, mmapProt(mode), unix.MAP_SHARED)
}

// platformUnmapPartial actually returns the pages to the OS on POSIX --
// munmap of a sub-range is well defined and splits the surrounding mapping.
// unix.Munmap only accepts a whole mapping that unix.Mmap returned, so the
// sub-range goes to the raw syscall; only the whole pages inside it are
// unmapped, since munmap works on page boundaries.
func platformUnmapPartial(region []byte) error {
	if len(region) == 0 {
		return nil
	}
	page := uintptr(os.Getpagesize())
	start := (sliceAddr(region) + page - 1) &^ (page - 1)
	end := (sliceAddr(region) + uintptr(len(region))) &^ (page - 1)
	if start >= end {
		return nil
	}
	if _, _, errno := unix.Syscall(unix.SYS_MUNMAP, start, end-start, 0); errno != 0 {
		return errno
	}
	return nil
}

func platformDiscard(region []byte) error {
	return unix.Madvise(region, unix.MADV_DONTNEED)
}

// platformFlush issues msync; MS_SYNC blocks until writeback completes,
// MS_ASYNC schedules it and returns immediately.
func platformFlush(region []byte, blocking bool) error {
	flags := unix.MS_ASYNC
	if blocking {
		flags = unix.MS_SYNC
	}
	return unix.Msync(region, flags)
}
