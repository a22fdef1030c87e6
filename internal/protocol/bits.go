package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxBits is the widest frame a Bits value can hold.
const MaxBits = 128

// Bits is a received bit sequence of up to MaxBits bits held as a wide
// integer. The first received bit is the most significant bit of the
// Len-bit value; bit position 0 is the last bit received.
type Bits struct {
	Hi  uint64
	Lo  uint64
	Len int
}

// FromUint64 returns the low n bits of v.
func FromUint64(v uint64, n int) Bits {
	if n < 64 {
		v &= 1<<uint(n) - 1
	}
	return Bits{Lo: v, Len: n}
}

// Push appends one received bit.
func (b *Bits) Push(bit bool) {
	b.Hi = b.Hi<<1 | b.Lo>>63
	b.Lo <<= 1
	if bit {
		b.Lo |= 1
	}
	b.Len++
}

// Append pushes the low width bits of v, most significant first.
func (b *Bits) Append(v uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		b.Push(v>>uint(i)&1 == 1)
	}
}

func (b Bits) bit(pos int) bool {
	if pos < 64 {
		return b.Lo>>uint(pos)&1 == 1
	}
	return b.Hi>>uint(pos-64)&1 == 1
}

func (b *Bits) setBit(pos int, v bool) {
	word := &b.Lo
	if pos >= 64 {
		word = &b.Hi
		pos -= 64
	}
	if v {
		*word |= 1 << uint(pos)
	} else {
		*word &^= 1 << uint(pos)
	}
}

// Field returns width bits starting at bit position shift (0 = last received).
func (b Bits) Field(shift, width int) uint64 {
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v <<= 1
		if pos := shift + i; pos < b.Len && b.bit(pos) {
			v |= 1
		}
	}
	return v
}

// SetField writes the low width bits of v at bit position shift.
// Len grows to cover the field.
func (b *Bits) SetField(shift, width int, v uint64) {
	for i := 0; i < width; i++ {
		b.setBit(shift+i, v>>uint(i)&1 == 1)
	}
	if shift+width > b.Len {
		b.Len = shift + width
	}
}

// At returns the i-th received bit (0 = first).
func (b Bits) At(i int) bool {
	return b.bit(b.Len - 1 - i)
}

// Reverse returns the bits in opposite reception order.
func (b Bits) Reverse() Bits {
	var out Bits
	for i := b.Len - 1; i >= 0; i-- {
		out.Push(b.At(i))
	}
	return out
}

// Invert complements every bit.
func (b Bits) Invert() Bits {
	out := b
	for pos := 0; pos < b.Len; pos++ {
		out.setBit(pos, !b.bit(pos))
	}
	return out
}

// Uint64 returns the low 64 bits.
func (b Bits) Uint64() uint64 {
	return b.Lo
}

// Bytes returns the value as big-endian bytes, right aligned.
func (b Bits) Bytes() []byte {
	n := (b.Len + 7) / 8
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(b.Field((n-1-i)*8, 8))
	}
	return out
}

// String formats the value as hex.
func (b Bits) String() string {
	if b.Hi != 0 {
		return fmt.Sprintf("%X%016X", b.Hi, b.Lo)
	}
	return fmt.Sprintf("%X", b.Lo)
}

// ParseBits reads a hex value (optional 0x prefix) of n bits.
func ParseBits(s string, n int) (Bits, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if s == "" {
		return Bits{}, fmt.Errorf("parse bits: empty value")
	}
	if n <= 0 || n > MaxBits {
		return Bits{}, fmt.Errorf("parse bits: length %d out of range", n)
	}
	var hi, lo string
	if len(s) > 16 {
		hi, lo = s[:len(s)-16], s[len(s)-16:]
	} else {
		lo = s
	}
	var out Bits
	var err error
	if hi != "" {
		if out.Hi, err = strconv.ParseUint(hi, 16, 64); err != nil {
			return Bits{}, fmt.Errorf("parse bits: %w", err)
		}
	}
	if out.Lo, err = strconv.ParseUint(lo, 16, 64); err != nil {
		return Bits{}, fmt.Errorf("parse bits: %w", err)
	}
	out.Len = n
	for pos := n; pos < MaxBits; pos++ {
		if out.bit(pos) {
			return Bits{}, fmt.Errorf("parse bits: value wider than %d bits", n)
		}
	}
	return out, nil
}
