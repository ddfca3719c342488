//go:build !windows

package vm

import (
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sliceAddr returns the virtual address backing a mapped byte slice.
func sliceAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// rebuildSliceAt constructs a []byte view over [addr, addr+size) without
// going through unix.Mmap again -- used after a fixed-address mmap call
// has already placed/grown the mapping and only the Go slice header needs
// to catch up.
func rebuildSliceAt(addr uintptr, size int) []byte {
	var out []byte
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&out))
	hdr.Data = addr
	hdr.Len = size
	hdr.Cap = size
	return out
}

// unixMmapAt issues mmap(2) at a caller-chosen fixed address. This is the
// one primitive golang.org/x/sys/unix's high-level Mmap wrapper does not
// expose (it always lets the kernel choose the address), so it goes
// through the raw syscall directly, the same way the fixed-address path
// in mmap-style Go libraries does.
func unixMmapAt(addr uintptr, size, prot, flags int) ([]byte, error) {
	ret, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr,
		uintptr(size),
		uintptr(prot),
		uintptr(flags|unix.MAP_FIXED|noReplaceFlag),
		^uintptr(0),
		0,
	)
	if errno != 0 {
		return nil, errno
	}
	if ret != addr {
		// The kernel honored MAP_FIXED syntactically but placed the
		// mapping elsewhere only if it could not satisfy the address --
		// treat that as failure rather than silently following the move.
		unix.Syscall6(unix.SYS_MUNMAP, ret, uintptr(size), 0, 0, 0, 0)
		return nil, unix.EEXIST
	}

	return rebuildSliceAt(addr, size), nil
}
