//go:build !windows && !linux

package vm

// noReplaceFlag is 0 on POSIX hosts without MAP_FIXED_NOREPLACE (Darwin,
// the BSDs): a fixed-address request there can silently overlap an
// existing mapping. The same acceptance that applies to the equivalent
// gap on older Windows builds (no placeholder VA support) applies here.
const noReplaceFlag = 0
