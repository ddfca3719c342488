package vm

import (
	"os"

	"github.com/pkg/errors"
)

// MappedView is an owned typed span over a Region: { ptr, size_in_bytes }
// parameterized by read-only-ness. A view owns no backing
// bytes of its own; the core creates at most one view per mapping.
type MappedView struct {
	region   *Region
	readOnly bool
}

// Bytes exposes the view's current span. Callers that hold a pointer
// derived from Bytes() across any operation that may relocate the mapping
// (Expand, or a vector grow that delegates to it) must re-derive the
// pointer afterward.
func (v *MappedView) Bytes() []byte {
	if v == nil || v.region == nil {
		return nil
	}
	return v.region.Base
}

// Size reports the view's current length in bytes.
func (v *MappedView) Size() int {
	return len(v.Bytes())
}

// ReadOnly reports whether writes to Bytes() are permitted.
func (v *MappedView) ReadOnly() bool {
	return v.readOnly
}

// Map creates a view over exactly size bytes of file starting at offset
// (which must be ReserveGranularity-aligned). size must be positive. On
// failure the returned view is the zero value.
func Map(file *os.File, mode AccessMode, offset int64, size int) (*MappedView, error) {
	if size <= 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "vm: map size must be positive")
	}
	if offset%int64(ReserveGranularity) != 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "vm: map offset must be reserve-granularity aligned")
	}

	base, mapErr := platformMapFile(file, mode, offset, size)
	if mapErr != nil {
		return nil, errors.Wrapf(mapErr, "vm: map failed for %s", file.Name())
	}

	return &MappedView{
		region: &Region{
			Base:       base,
			AccessMode: mode,
			Backing:    BackingFile,
			File:       file,
			FileOffset: offset,
		},
		readOnly: mode == AccessRead,
	}, nil
}

// MapAnonymous creates a process-private view over freshly committed
// anonymous memory -- used by vector.Vector when opened without a backing
// file.
func MapAnonymous(size int) (*MappedView, error) {
	region, allocErr := Allocate(size)
	if allocErr != nil {
		return nil, allocErr
	}

	return &MappedView{region: region}, nil
}

// Unmap releases the view's mapping through Region.Free. On POSIX a single
// munmap covers the whole range, including tail pages added by a
// back-extension. On Windows Free releases only the allocation at the
// view's base: tail pages that a back-extension reserved with a separate
// VirtualAlloc call are not released by it.
func (v *MappedView) Unmap() error {
	if v == nil || v.region == nil {
		return nil
	}

	err := v.region.Free()
	v.region = nil
	return err
}

// UnmapPartial discards [offset, offset+size) best-effort: POSIX actually
// returns the pages (a real munmap of the sub-range); Windows can only
// discard their content, not the address-space reservation, since a
// Windows mapping is unmapped as a single unit.
func (v *MappedView) UnmapPartial(offset, size int) error {
	if v == nil || v.region == nil {
		return nil
	}
	if offset < 0 || size <= 0 || offset+size > len(v.region.Base) {
		return errors.Wrap(ErrInvalidArgument, "vm: unmap_partial range out of bounds")
	}

	return platformUnmapPartial(v.region.Base[offset : offset+size])
}

// Discard declares [offset, offset+size) uninteresting (MADV_DONTNEED /
// DiscardVirtualMemory), without destroying the mapping. It must never
// observably change mapped file contents -- only the in-memory page cache
// copy may be dropped, to be re-faulted from disk on next touch.
func (v *MappedView) Discard(offset, size int) error {
	if v == nil || v.region == nil {
		return nil
	}
	if offset < 0 || size <= 0 || offset+size > len(v.region.Base) {
		return errors.Wrap(ErrInvalidArgument, "vm: discard range out of bounds")
	}

	return platformDiscard(v.region.Base[offset : offset+size])
}

// FlushAsync requests the view's dirty pages be written back without
// waiting for completion.
func (v *MappedView) FlushAsync(offset, size int) error {
	if v == nil || v.region == nil {
		return nil
	}
	return platformFlush(v.region.Base[offset:offset+size], false)
}

// FlushBlocking ensures both the view-to-cache and cache-to-storage steps
// complete: platformFlush (msync with MS_SYNC on POSIX, FlushViewOfFile on
// Windows), then, for a file-backed view, File.Sync (fsync on POSIX,
// FlushFileBuffers on Windows).
func (v *MappedView) FlushBlocking(offset, size int) error {
	if v == nil || v.region == nil {
		return nil
	}
	if flushErr := platformFlush(v.region.Base[offset:offset+size], true); flushErr != nil {
		return flushErr
	}
	if v.region.File != nil {
		return v.region.File.Sync()
	}
	return nil
}

// Shrink reduces the logical span to target bytes, unmapping the tail
// where the platform allows partial unmap.
func (v *MappedView) Shrink(target int) error {
	if v == nil || v.region == nil {
		return errors.Wrap(ErrInvalidArgument, "vm: shrink on unmapped view")
	}
	if target < 0 || target > len(v.region.Base) {
		return errors.Wrap(ErrInvalidArgument, "vm: shrink target out of bounds")
	}
	if target == len(v.region.Base) {
		return nil
	}

	if unmapErr := platformUnmapPartial(v.region.Base[target:]); unmapErr != nil {
		return unmapErr
	}

	v.region.Base = v.region.Base[:target]
	return nil
}

// Expand enlarges the view to cover target bytes of the same underlying
// mapping: widen in place if the kernel extent already
// covers it, else try a tail-adjacent remap, else remap fresh and copy (or
// mach_vm_remap zero-copy on Darwin for anonymous mappings -- not exposed
// by golang.org/x/sys, so the copy path is always taken there too).
func (v *MappedView) Expand(target int) error {
	if v == nil || v.region == nil {
		return errors.Wrap(ErrInvalidArgument, "vm: expand on unmapped view")
	}
	if target <= len(v.region.Base) {
		return nil
	}

	if v.region.Backing == BackingFile {
		if statErr := v.region.File.Truncate(int64(v.region.FileOffset) + int64(target)); statErr != nil {
			return errors.Wrap(ErrOutOfDiskSpace, statErr.Error())
		}
	}

	result, expandErr := Expand(v.region, target, 0, len(v.region.Base), AllocCommit, Moveable)
	if expandErr != nil {
		return expandErr
	}
	if result.Method == ExpandFailed {
		return errors.Wrap(ErrOutOfMemory, "vm: view expand failed")
	}

	v.region = result.Region
	return nil
}
