// Package btree implements a persistent, memory-mapped B+ tree: an
// ordered set/multiset/map whose node pool lives inside a
// vector.Vector of fixed page-sized node slots, addressed by compact
// 32-bit slot indices rather than pointers.
package btree

// Codec describes how a fixed-size value V is packed into and out of a
// node's byte storage. V must have a size known up front (Size), since
// node pages are fixed-size byte arrays -- Go's type parameters cannot
// themselves size an array, so the tree lays out keys as raw bytes and
// goes through a Codec instead of a generic [N]V field.
type Codec[V any] interface {
	// Size is the fixed encoded width in bytes of every V this codec
	// handles.
	Size() int
	// Encode writes v into dst, which is guaranteed to be exactly Size()
	// bytes long.
	Encode(dst []byte, v V)
	// Decode reads a V back out of src, which is exactly Size() bytes.
	Decode(src []byte) V
}

// Uint64Codec encodes uint64 values in little-endian order.
type Uint64Codec struct{}

func (Uint64Codec) Size() int { return 8 }

func (Uint64Codec) Encode(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}

func (Uint64Codec) Decode(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(src[i]) << (8 * i)
	}
	return v
}

// Int64Codec encodes int64 values by XOR-flipping the sign bit so that
// unsigned byte-order comparison of the encoded form matches signed
// numeric order -- the same trick used by most ordered on-disk key
// encodings.
type Int64Codec struct{}

func (Int64Codec) Size() int { return 8 }

func (Int64Codec) Encode(dst []byte, v int64) {
	u := uint64(v) ^ (1 << 63)
	for i := 0; i < 8; i++ {
		dst[7-i] = byte(u >> (8 * i))
	}
}

func (Int64Codec) Decode(src []byte) int64 {
	var u uint64
	for i := 0; i < 8; i++ {
		u |= uint64(src[7-i]) << (8 * i)
	}
	return int64(u ^ (1 << 63))
}

// FixedBytesCodec encodes a fixed-width byte key, right-padding with
// zeroes on Encode and trimming trailing zeroes on Decode. Suitable for
// short, fixed-format string keys (e.g. a zero-padded identifier).
type FixedBytesCodec struct {
	Width int
}

func (c FixedBytesCodec) Size() int { return c.Width }

func (c FixedBytesCodec) Encode(dst []byte, v []byte) {
	n := copy(dst, v)
	for i := n; i < c.Width; i++ {
		dst[i] = 0
	}
}

func (c FixedBytesCodec) Decode(src []byte) []byte {
	end := len(src)
	for end > 0 && src[end-1] == 0 {
		end--
	}
	out := make([]byte, end)
	copy(out, src[:end])
	return out
}
