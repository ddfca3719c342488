// Package vector implements vm.Vector<T>: a
// contiguous, header-prefixed, growable sequence whose storage is a single
// vm.MappedView. T must be trivially relocatable -- moving a T is a
// bytewise copy and the source need not be destructed afterward -- which
// every Go struct composed only of value fields (no pointers into itself)
// satisfies automatically, since a Go assignment of a struct value is
// already that bytewise copy.
package vector

import (
	"os"
	"path/filepath"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/sirgallo/vmtree/vm"
)

// DefaultHeaderSize is the compile-time header size reserved ahead of the
// element array: page-aligned, >= 64 bytes. Embedders get
// DefaultHeaderSize - 8 bytes of it for their own metadata; the final 8
// bytes are the persisted element count.
const DefaultHeaderSize = 4096

// sizeFieldWidth is sizeof(size_t) in the on-disk layout.
const sizeFieldWidth = 8

// Vector is a dynamic array of T backed by a single memory mapping.
// size and capacity are both in units of T; capacity is always
// (mapped view size - header size) / sizeof(T).
type Vector[T any] struct {
	view       *vm.MappedView
	headerSize int
	elemSize   uintptr
	size       int
	path       string
}

func elemSizeOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

func sizeOffset(headerSize int) int { return headerSize - sizeFieldWidth }

// Open maps path per policy. On open of a pre-existing
// file, size is read from the header and clamped to
// (file_size - header_size) / sizeof(T); an empty/fresh file is
// initialized with a zeroed header. headerSize <= 0 selects
// DefaultHeaderSize.
func Open[T any](path string, policy OpenPolicy, headerSize int) (*Vector[T], error) {
	if headerSize <= 0 {
		headerSize = DefaultHeaderSize
	}
	if headerSize < 64 {
		return nil, errors.Wrap(ErrOutOfRange, "vector: header_size must be >= 64 bytes")
	}

	if dir := filepath.Dir(path); dir != "." {
		if mkErr := os.MkdirAll(dir, 0700); mkErr != nil {
			return nil, errors.Wrap(mkErr, "vector: creating parent directory")
		}
	}

	file, fresh, openErr := vm.OpenFile(path, policy)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "vector: opening %s", path)
	}

	if fresh {
		if truncErr := file.Truncate(int64(headerSize)); truncErr != nil {
			file.Close()
			return nil, errors.Wrap(truncErr, "vector: initializing header")
		}
	}

	stat, statErr := file.Stat()
	if statErr != nil {
		file.Close()
		return nil, errors.Wrap(statErr, "vector: stat")
	}

	mapSize := int(stat.Size())
	if mapSize < headerSize {
		mapSize = headerSize
	}

	view, mapErr := vm.Map(file, vm.AccessReadWrite, 0, mapSize)
	if mapErr != nil {
		file.Close()
		return nil, errors.Wrap(mapErr, "vector: mapping file")
	}

	elemSize := elemSizeOf[T]()
	capacity := 0
	if elemSize > 0 {
		capacity = (mapSize - headerSize) / int(elemSize)
	}

	storedSize := 0
	if !fresh {
		storedSize = int(readUint64(view.Bytes(), sizeOffset(headerSize)))
	}
	if storedSize > capacity {
		storedSize = capacity
	}

	v := &Vector[T]{view: view, headerSize: headerSize, elemSize: elemSize, size: storedSize, path: path}
	if fresh {
		v.persistSize()
	}

	return v, nil
}

// MapMemory creates an anonymous, process-private backing with room for at
// least initialCapacity elements.
func MapMemory[T any](initialCapacity int, headerSize int) (*Vector[T], error) {
	if headerSize <= 0 {
		headerSize = DefaultHeaderSize
	}
	if initialCapacity < 0 {
		initialCapacity = 0
	}

	elemSize := elemSizeOf[T]()
	mapSize := headerSize + initialCapacity*int(elemSize)

	view, mapErr := vm.MapAnonymous(mapSize)
	if mapErr != nil {
		return nil, mapErr
	}

	return &Vector[T]{view: view, headerSize: headerSize, elemSize: elemSize}, nil
}

// HasAttachedStorage reports whether the vector currently has a mapping.
func (v *Vector[T]) HasAttachedStorage() bool {
	return v != nil && v.view != nil && v.view.Bytes() != nil
}

// Close unmaps the vector's storage, persisting size first if the mapping
// is writable. Safe to call on an already-closed Vector.
func (v *Vector[T]) Close() error {
	if !v.HasAttachedStorage() {
		return nil
	}

	if !v.view.ReadOnly() {
		v.persistSize()
		if flushErr := v.view.FlushBlocking(0, v.view.Size()); flushErr != nil {
			return flushErr
		}
	}

	err := v.view.Unmap()
	v.view = nil
	return err
}

// Size returns the current element count.
func (v *Vector[T]) Size() int { return v.size }

// Capacity returns the number of T slots the current mapping can hold.
func (v *Vector[T]) Capacity() int {
	if !v.HasAttachedStorage() || v.elemSize == 0 {
		return 0
	}
	return (v.view.Size() - v.headerSize) / int(v.elemSize)
}

// UserHeaderData exposes the headerSize - sizeof(size_t) bytes of header
// space reserved for the embedder's own metadata -- the B+
// tree pool stores its pool header here.
func (v *Vector[T]) UserHeaderData() []byte {
	if !v.HasAttachedStorage() {
		return nil
	}
	return v.view.Bytes()[:sizeOffset(v.headerSize)]
}

func (v *Vector[T]) persistSize() {
	writeUint64(v.view.Bytes(), sizeOffset(v.headerSize), uint64(v.size))
}

// dataSlice reinterprets the mapped bytes after the header as a []T of the
// full current capacity. Any call that may have relocated the mapping
// (GrowBy, Reserve, Resize growing) invalidates a previously-taken slice;
// callers must re-derive it afterward.
func (v *Vector[T]) dataSlice() []T {
	if !v.HasAttachedStorage() || v.elemSize == 0 {
		return nil
	}
	capacity := v.Capacity()
	if capacity == 0 {
		return nil
	}
	base := unsafe.Pointer(&v.view.Bytes()[v.headerSize])
	return unsafe.Slice((*T)(base), capacity)
}

// Data returns the live backing slice for [0, Capacity()). Indices
// [Size(), Capacity()) hold indeterminate values.
func (v *Vector[T]) Data() []T { return v.dataSlice() }

// Slice returns the live backing slice for [0, Size()).
func (v *Vector[T]) Slice() []T {
	d := v.dataSlice()
	if d == nil {
		return nil
	}
	return d[:v.size]
}

// At returns element i. Panics if i is
// out of [0, size).
func (v *Vector[T]) At(i int) T {
	if i < 0 || i >= v.size {
		panic(errors.Wrap(ErrOutOfRange, "vector: At index out of range"))
	}
	return v.dataSlice()[i]
}

// Set overwrites element i in place. i must be within [0, size).
func (v *Vector[T]) Set(i int, val T) {
	if i < 0 || i >= v.size {
		panic(errors.Wrap(ErrOutOfRange, "vector: Set index out of range"))
	}
	v.dataSlice()[i] = val
}

// Reserve ensures capacity for at least n total elements without changing
// size.
func (v *Vector[T]) Reserve(n int) error {
	if n <= v.Capacity() {
		return nil
	}
	return v.growTo(n)
}

// growTo is the sole path through which the vector's storage grows,
// ultimately delegating to vm.MappedView.Expand.
func (v *Vector[T]) growTo(capacityTarget int) error {
	if !v.HasAttachedStorage() {
		return ErrClosed
	}
	if v.view.ReadOnly() {
		return ErrReadOnly
	}

	target := v.headerSize + capacityTarget*int(v.elemSize)
	if target <= v.view.Size() {
		return nil
	}

	// Geometric growth amortizes the cost of repeated small appends, same
	// as a classical dynamic array; the underlying Expand call still
	// prefers an in-place back-extension over a relocating copy.
	doubled := v.view.Size() * 2
	if doubled > target {
		target = doubled
	}

	return v.view.Expand(target)
}

// GrowBy appends n slots, applying policy to their initial contents, and
// advances size by n.
func (v *Vector[T]) GrowBy(n int, policy InitPolicy) error {
	if n <= 0 {
		return nil
	}

	newSize := v.size + n
	if newSize > v.Capacity() {
		if growErr := v.growTo(newSize); growErr != nil {
			return growErr
		}
	}

	if policy != NoInit {
		zeroRange(v.dataSlice()[v.size:newSize])
	}

	v.size = newSize
	v.persistSize()
	return nil
}

func zeroRange[T any](s []T) {
	var zero T
	for i := range s {
		s[i] = zero
	}
}

// Resize grows or shrinks to exactly n elements.
func (v *Vector[T]) Resize(n int, policy InitPolicy) error {
	if n < 0 {
		return errors.Wrap(ErrOutOfRange, "vector: resize to negative length")
	}
	if n == v.size {
		return nil
	}
	if n < v.size {
		v.size = n
		v.persistSize()
		return nil
	}
	return v.GrowBy(n-v.size, policy)
}

// ShrinkToFit releases any capacity beyond the current size by shrinking
// the view, which unmaps the whole pages past the new end where the
// platform allows it. The length of a backing file is not changed.
func (v *Vector[T]) ShrinkToFit() error {
	if !v.HasAttachedStorage() {
		return ErrClosed
	}

	target := v.headerSize + v.size*int(v.elemSize)
	if target >= v.view.Size() {
		return nil
	}

	if shrinkErr := v.view.Shrink(target); shrinkErr != nil {
		return shrinkErr
	}

	return nil
}

// PushBack appends val, growing storage if needed.
func (v *Vector[T]) PushBack(val T) error {
	if growErr := v.GrowBy(1, NoInit); growErr != nil {
		return growErr
	}
	v.dataSlice()[v.size-1] = val
	return nil
}

// PopBack removes and returns the last element. ok is false on an empty
// vector.
func (v *Vector[T]) PopBack() (val T, ok bool) {
	if v.size == 0 {
		return val, false
	}
	val = v.dataSlice()[v.size-1]
	v.size--
	v.persistSize()
	return val, true
}

// Insert shifts elements [i, size) right by one and writes val at i.
func (v *Vector[T]) Insert(i int, val T) error {
	if i < 0 || i > v.size {
		return errors.Wrap(ErrOutOfRange, "vector: insert index out of range")
	}

	if growErr := v.GrowBy(1, NoInit); growErr != nil {
		return growErr
	}

	data := v.dataSlice()
	copy(data[i+1:v.size], data[i:v.size-1])
	data[i] = val
	return nil
}

// Erase removes the element at i, shifting the tail left by one.
func (v *Vector[T]) Erase(i int) error {
	if i < 0 || i >= v.size {
		return errors.Wrap(ErrOutOfRange, "vector: erase index out of range")
	}

	data := v.dataSlice()
	copy(data[i:v.size-1], data[i+1:v.size])
	v.size--
	v.persistSize()
	return nil
}

// Clear empties the vector without releasing capacity.
func (v *Vector[T]) Clear() {
	v.size = 0
	v.persistSize()
}

// Flush forces the element region (and, for file-backed storage, the
// header) to durable storage.
func (v *Vector[T]) Flush() error {
	if !v.HasAttachedStorage() {
		return nil
	}
	v.persistSize()
	return v.view.FlushBlocking(0, v.view.Size())
}

func readUint64(buf []byte, offset int) uint64 {
	if offset < 0 || offset+8 > len(buf) {
		return 0
	}
	var x uint64
	for i := 0; i < 8; i++ {
		x |= uint64(buf[offset+i]) << (8 * i)
	}
	return x
}

func writeUint64(buf []byte, offset int, val uint64) {
	if offset < 0 || offset+8 > len(buf) {
		return
	}
	for i := 0; i < 8; i++ {
		buf[offset+i] = byte(val >> (8 * i))
	}
}
