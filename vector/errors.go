package vector

import "github.com/pkg/errors"

var (
	// ErrClosed is returned by growth and by ShrinkToFit on a Vector that
	// has no attached storage (never opened, or already Close()d); Flush
	// and Close return nil in that case.
	ErrClosed = errors.New("vector: no attached storage")
	// ErrOutOfRange flags an index outside [0, size).
	ErrOutOfRange = errors.New("vector: index out of range")
	// ErrReadOnly is returned by a mutating call on a read-only mapping.
	ErrReadOnly = errors.New("vector: vector is mapped read-only")
)
