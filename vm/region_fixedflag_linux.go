//go:build linux

package vm

import "golang.org/x/sys/unix"

// noReplaceFlag adds MAP_FIXED_NOREPLACE (Linux 4.17+) on top of the
// MAP_FIXED unixMmapAt always sets, so a fixed-address mapping request
// fails instead of silently unmapping whatever was already there --
// matching AllocateFixed's "never overwrites an existing mapping"
// contract.
const noReplaceFlag = unix.MAP_FIXED_NOREPLACE
