package leb128

import (
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

func TestRoundTrip(t *testing.T) {
	test := func(t *testing.T, n uint128.Uint128) {
		t.Helper()
		encoded := EncodeUint128(n)
		actual, length, err := DecodeUint128(encoded)
		assert.NoError(t, err)
		assert.Equal(t, n, actual)
		assert.Equal(t, len(encoded), length)
	}

	t.Run("powers_of_two", func(t *testing.T) {
		for i := 0; i < 128; i++ {
			test(t, uint128.From64(1).Lsh(uint(i)))
		}
	})
	t.Run("alternating_bits", func(t *testing.T) {
		value := uint128.Zero
		for i := 0; i < 128; i++ {
			value = value.Lsh(1).Or(uint128.From64(uint64(i % 2)))
			test(t, value)
		}
	})
	t.Run("max", func(t *testing.T) {
		test(t, uint128.Max)
		assert.Len(t, EncodeUint128(uint128.Max), 19)
	})
}

func TestEncodeUint128(t *testing.T) {
	assert.Equal(t, []byte{0x00}, EncodeUint128(uint128.Zero))
	assert.Equal(t, []byte{0x7f}, EncodeUint128(uint128.From64(127)))
	assert.Equal(t, []byte{0x80, 0x01}, EncodeUint128(uint128.From64(128)))
	assert.Equal(t, []byte{0xff, 0x7f}, EncodeUint128(uint128.From64(16383)))
}

func TestDecodeError(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, _, err := DecodeUint128(nil)
		assert.ErrorIs(t, err, ErrEmpty)
	})
	t.Run("unterminated", func(t *testing.T) {
		_, _, err := DecodeUint128([]byte{0x80, 0x80})
		assert.ErrorIs(t, err, ErrUnterminated)
	})
	t.Run("too_long", func(t *testing.T) {
		data := make([]byte, 20)
		for i := range data {
			data[i] = 0x80
		}
		_, _, err := DecodeUint128(data)
		assert.ErrorIs(t, err, errs.OverflowUint128)
	})
	t.Run("overflow_in_last_byte", func(t *testing.T) {
		data := make([]byte, 19)
		for i := range data[:18] {
			data[i] = 0x80
		}
		data[18] = 0x04
		_, _, err := DecodeUint128(data)
		assert.ErrorIs(t, err, errs.OverflowUint128)
	})
}

func TestCursor(t *testing.T) {
	data := AppendUint128(EncodeUint128(uint128.From64(300)), uint128.From64(1))
	cursor := NewCursor(data)

	n, err := cursor.Next()
	assert.NoError(t, err)
	assert.Equal(t, uint128.From64(300), n)
	assert.Equal(t, 1, cursor.Len())

	n, err = cursor.Next()
	assert.NoError(t, err)
	assert.Equal(t, uint128.From64(1), n)
	assert.Equal(t, 0, cursor.Len())

	_, err = cursor.Next()
	assert.ErrorIs(t, err, ErrEmpty)
}
