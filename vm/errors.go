package vm

import "github.com/pkg/errors"

// Sentinel errors surfaced by the VM layer. Callers may compare against
// these with errors.Is after unwrapping an errors.Wrap chain.
var (
	// ErrOutOfMemory is returned when reserve/commit/expand cannot obtain
	// the requested address space or physical backing.
	ErrOutOfMemory = errors.New("vm: out of memory")
	// ErrOutOfDiskSpace is returned when a file-backed commit or expand
	// cannot grow the backing file.
	ErrOutOfDiskSpace = errors.New("vm: out of disk space")
	// ErrInvalidArgument flags a misaligned or otherwise malformed
	// argument -- a contract violation, not a resource failure.
	ErrInvalidArgument = errors.New("vm: invalid argument")
	// ErrAddressInUse is returned by AllocateFixed when the requested
	// address range overlaps an existing mapping.
	ErrAddressInUse = errors.New("vm: address already in use")
	// ErrUnsupported flags an operation the host does not implement even
	// as a fallback.
	ErrUnsupported = errors.New("vm: operation unsupported on this host")
)
