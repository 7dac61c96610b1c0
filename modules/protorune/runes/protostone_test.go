package runes

import (
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackBytes(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	packed := PackBytes(data)
	assert.Len(t, packed, 3)
	for _, v := range packed {
		assert.Zero(t, v.Hi>>56, "the top byte of every word is empty")
	}
	assert.Equal(t, data, UnpackBytes(packed))
	assert.Empty(t, UnpackBytes(nil))
}

func TestDecodeProtostones(t *testing.T) {
	protocol := uint128.From64(88)
	stones := []Protostone{
		{
			ProtocolTag: protocol,
			Fields:      Fields{TagProtoBurn: []uint128.Uint128{protocol}, TagProtoPointer: u128s(1)},
			Edicts:      []Edict{},
		},
		{
			ProtocolTag: protocol,
			Fields: Fields{
				TagProtoMessage: PackBytes([]byte("calldata")),
				TagProtoPointer: u128s(0),
				TagProtoRefund:  u128s(1),
			},
			Edicts: []Edict{},
		},
		{
			ProtocolTag: uint128.From64(7),
			Fields:      Fields{},
			Edicts: []Edict{
				{Id: NewRuneId(840000, 1), Amount: uint128.From64(5), Output: 2},
				{Id: NewRuneId(840000, 1), Amount: uint128.Zero, Output: 0},
			},
		},
	}

	decoded, err := DecodeProtostones(EncodeProtostones(stones))
	require.NoError(t, err)
	assert.Equal(t, stones, decoded)

	t.Run("kinds", func(t *testing.T) {
		assert.Equal(t, ProtostoneKindBurn, decoded[0].Kind())
		assert.Equal(t, ProtostoneKindMessage, decoded[1].Kind())
		assert.Equal(t, ProtostoneKindPlainEdict, decoded[2].Kind())
		assert.Equal(t, ProtostoneKindNone, Protostone{Fields: Fields{}}.Kind())
	})
	t.Run("burn_takes_precedence", func(t *testing.T) {
		stone := Protostone{
			Fields: Fields{TagProtoBurn: u128s(88), TagProtoMessage: u128s(1), TagProtoPointer: u128s(0)},
			Edicts: []Edict{{Id: NewRuneId(1, 0), Output: 0}},
		}
		assert.Equal(t, ProtostoneKindBurn, stone.Kind())
	})
	t.Run("burn", func(t *testing.T) {
		burn, ok := decoded[0].Burn()
		require.True(t, ok)
		assert.Equal(t, ProtoBurn{ProtocolTag: protocol, Pointer: 1}, burn)

		_, ok = Protostone{Fields: Fields{TagProtoBurn: u128s(88)}}.Burn()
		assert.False(t, ok, "burn without pointer")
	})
	t.Run("message", func(t *testing.T) {
		assert.Equal(t, []byte("calldata"), decoded[1].Calldata())
		pointer, ok := decoded[1].Pointer()
		assert.True(t, ok)
		assert.EqualValues(t, 0, pointer)
		refund, ok := decoded[1].Refund()
		assert.True(t, ok)
		assert.EqualValues(t, 1, refund)
	})
	t.Run("trailing_zero_value_survives_padding", func(t *testing.T) {
		stone := []Protostone{{
			ProtocolTag: protocol,
			Fields:      Fields{TagProtoPointer: u128s(0)},
			Edicts:      []Edict{},
		}}
		decoded, err := DecodeProtostones(EncodeProtostones(stone))
		require.NoError(t, err)
		assert.Equal(t, stone, decoded)
	})
	t.Run("empty", func(t *testing.T) {
		decoded, err := DecodeProtostones(nil)
		require.NoError(t, err)
		assert.Empty(t, decoded)
	})
	t.Run("truncated_length", func(t *testing.T) {
		_, err := DecodeProtostones(PackBytes(EncodeIntegers(u128s(88, 100, 91, 0))))
		assert.ErrorIs(t, err, ErrTruncated)
	})
	t.Run("truncated_message", func(t *testing.T) {
		_, err := DecodeProtostones(PackBytes(EncodeIntegers(u128s(88, 1, 91))))
		assert.ErrorIs(t, err, ErrTruncated)
	})
}
