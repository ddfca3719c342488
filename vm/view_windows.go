//go:build windows

package vm

import (
	"os"

	"golang.org/x/sys/windows"
)

func fileProtect(mode AccessMode) (pageProtect uint32, desiredAccess uint32) {
	switch mode {
	case AccessRead:
		return windows.PAGE_READONLY, windows.FILE_MAP_READ
	case AccessReadExecute:
		return windows.PAGE_EXECUTE_READ, windows.FILE_MAP_READ | windows.FILE_MAP_EXECUTE
	default:
		return windows.PAGE_READWRITE, windows.FILE_MAP_WRITE
	}
}

func platformMapFile(file *os.File, mode AccessMode, offset int64, size int) ([]byte, error) {
	protect, access := fileProtect(mode)

	mappingSize := uint64(offset) + uint64(size)
	h, createErr := windows.CreateFileMapping(windows.Handle(file.Fd()), nil, protect, uint32(mappingSize>>32), uint32(mappingSize), nil)
	if createErr != nil {
		return nil, createErr
	}
	defer windows.CloseHandle(h)

	addr, mapErr := windows.MapViewOfFile(h, access, uint32(offset>>32), uint32(offset), uintptr(size))
	if mapErr != nil {
		return nil, mapErr
	}

	return rebuildSliceAt(addr, size), nil
}

// platformUnmapPartial can only discard the content of a sub-range:
// Windows mappings are unmapped as a single unit via UnmapViewOfFile, so a
// genuine partial-range munmap equivalent does not exist here.
func platformUnmapPartial(region []byte) error {
	return platformDiscard(region)
}

func platformDiscard(region []byte) error {
	return windows.DiscardVirtualMemory(sliceAddr(region), uintptr(len(region)))
}

// platformFlush issues FlushViewOfFile (view-to-cache) only, whatever
// blocking says; the cache-to-storage step (FlushFileBuffers) is the
// File.Sync call that FlushBlocking makes afterwards.
func platformFlush(region []byte, blocking bool) error {
	if err := windows.FlushViewOfFile(sliceAddr(region), uintptr(len(region))); err != nil {
		return err
	}
	return nil
}
