// Package leb128 implements the unsigned LEB128 varint encoding for 128-bit integers.
package leb128

import (
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

const (
	ErrEmpty        = errs.ErrorKind("leb128: empty byte sequence")
	ErrUnterminated = errs.ErrorKind("leb128: unterminated byte sequence")
)

// maxLength is the longest encoding of a 128-bit value.
const maxLength = 19

// AppendUint128 appends the encoding of n to dst.
func AppendUint128(dst []byte, n uint128.Uint128) []byte {
	for !n.Rsh(7).IsZero() {
		dst = append(dst, n.And64(0x7f).Uint8()|0x80)
		n = n.Rsh(7)
	}
	return append(dst, n.Uint8())
}

func EncodeUint128(n uint128.Uint128) []byte {
	return AppendUint128(make([]byte, 0, maxLength), n)
}

// DecodeUint128 decodes one varint from the front of data and reports how many bytes it used.
func DecodeUint128(data []byte) (n uint128.Uint128, length int, err error) {
	if len(data) == 0 {
		return uint128.Zero, 0, ErrEmpty
	}
	for i, b := range data {
		if i >= maxLength {
			return uint128.Zero, 0, errs.OverflowUint128
		}
		group := uint128.From64(uint64(b & 0x7f))
		// the 19th byte may only carry the top 2 bits
		if i == maxLength-1 && b&0x7c != 0 {
			return uint128.Zero, 0, errs.OverflowUint128
		}
		n = n.Or(group.Lsh(uint(7 * i)))
		if b&0x80 == 0 {
			return n, i + 1, nil
		}
	}
	return uint128.Zero, 0, ErrUnterminated
}

// Cursor reads consecutive varints from a byte slice.
type Cursor struct {
	data []byte
}

func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the number of unread bytes.
func (c *Cursor) Len() int {
	return len(c.data)
}

func (c *Cursor) Next() (uint128.Uint128, error) {
	n, length, err := DecodeUint128(c.data)
	if err != nil {
		return uint128.Zero, err
	}
	c.data = c.data[length:]
	return n, nil
}
