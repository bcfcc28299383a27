package qc

import (
	"bytes"
	"fmt"
	"math/bits"
)

// SignerBitmap is a fixed-length bit vector over the entries of a stake table:
// bit i is set iff the partial signature of validator i is part of the aggregate.
// Bits are packed most significant bit first, i.e. index 0 is the highest bit of
// the first byte. Padding bits of the last byte are always zero.
type SignerBitmap struct {
	Length uint32 `cbor:"1,keyasint" msgpack:"length"`
	Bits   []byte `cbor:"2,keyasint" msgpack:"bits"`
}

// NewSignerBitmap returns a bitmap of the given length with no bit set.
func NewSignerBitmap(length int) SignerBitmap {
	return SignerBitmap{
		Length: uint32(length),
		Bits:   make([]byte, bytesLen(length)),
	}
}

// SignerBitmapFromBools returns a bitmap with bit i set iff signed[i] is true.
func SignerBitmapFromBools(signed ...bool) SignerBitmap {
	b := NewSignerBitmap(len(signed))
	for i, s := range signed {
		if s {
			b.setBit(i)
		}
	}
	return b
}

// SignerBitmapFromIndices returns a bitmap of the given length with exactly the listed bits set.
// Returns an error if any index is out of range.
func SignerBitmapFromIndices(length int, indices ...int) (SignerBitmap, error) {
	b := NewSignerBitmap(length)
	for _, i := range indices {
		err := b.Set(i)
		if err != nil {
			return SignerBitmap{}, err
		}
	}
	return b, nil
}

func bytesLen(length int) int {
	return (length + 7) >> 3
}

// Len returns the number of bits in the bitmap.
func (b SignerBitmap) Len() int {
	return int(b.Length)
}

// Validate checks that the packed representation is consistent with the declared length:
// the byte slice must have exactly the required size and all padding bits must be zero.
func (b SignerBitmap) Validate() error {
	if len(b.Bits) != bytesLen(b.Len()) {
		return fmt.Errorf("bitmap of length %d requires %d bytes, got %d", b.Length, bytesLen(b.Len()), len(b.Bits))
	}
	padding := b.Len() & 7
	if padding != 0 {
		mask := byte(0xff) >> padding
		if b.Bits[len(b.Bits)-1]&mask != 0 {
			return fmt.Errorf("bitmap of length %d has non-zero padding bits", b.Length)
		}
	}
	return nil
}

// Set sets bit i. Returns an error if i is out of range.
func (b SignerBitmap) Set(i int) error {
	if i < 0 || i >= b.Len() {
		return fmt.Errorf("index %d out of range for bitmap of length %d", i, b.Length)
	}
	b.setBit(i)
	return nil
}

func (b SignerBitmap) setBit(i int) {
	b.Bits[i>>3] |= 1 << (7 - i&7)
}

// IsSet returns true iff bit i is set. Out of range indices are reported as not set.
func (b SignerBitmap) IsSet(i int) bool {
	if i < 0 || i >= b.Len() || i>>3 >= len(b.Bits) {
		return false
	}
	return b.Bits[i>>3]&(1<<(7-i&7)) != 0
}

// Count returns the number of set bits.
func (b SignerBitmap) Count() int {
	c := 0
	for _, v := range b.Bits {
		c += bits.OnesCount8(v)
	}
	return c
}

// Indices returns the positions of all set bits in ascending order.
func (b SignerBitmap) Indices() []int {
	indices := make([]int, 0, b.Count())
	for i := 0; i < b.Len(); i++ {
		if b.IsSet(i) {
			indices = append(indices, i)
		}
	}
	return indices
}

// Equal returns true iff both bitmaps have the same length and the same bits set.
func (b SignerBitmap) Equal(other SignerBitmap) bool {
	return b.Length == other.Length && bytes.Equal(b.Bits, other.Bits)
}

// Clone returns an independent copy of the bitmap.
func (b SignerBitmap) Clone() SignerBitmap {
	return SignerBitmap{
		Length: b.Length,
		Bits:   bytes.Clone(b.Bits),
	}
}

func (b SignerBitmap) String() string {
	var buf bytes.Buffer
	buf.Grow(b.Len())
	for i := 0; i < b.Len(); i++ {
		if b.IsSet(i) {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	}
	return buf.String()
}
