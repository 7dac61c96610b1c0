package kv

import (
	"context"
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

func TestPointer(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	root := NewPointer(store, "/runes/")

	t.Run("select_builds_hierarchical_keys", func(t *testing.T) {
		p := root.Keyword("height/").SelectUint32(1)
		assert.Equal(t, []byte("/runes/height/\x01\x00\x00\x00"), p.Key())
		assert.Equal(t, []byte("/runes/"), root.Key())
	})
	t.Run("absent_values_read_as_empty", func(t *testing.T) {
		p := root.Keyword("absent")
		value, err := p.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, value)

		exists, err := p.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists)

		n, err := p.Uint128(ctx)
		require.NoError(t, err)
		assert.True(t, n.IsZero())
	})
	t.Run("typed_values", func(t *testing.T) {
		require.NoError(t, root.Keyword("u8").SetUint8(ctx, 38))
		require.NoError(t, root.Keyword("u32").SetUint32(ctx, 840000))
		require.NoError(t, root.Keyword("u64").SetUint64(ctx, 1<<40))
		require.NoError(t, root.Keyword("u128").SetUint128(ctx, uint128.Max.Sub64(1)))

		u8, err := root.Keyword("u8").Uint8(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint8(38), u8)
		u32, err := root.Keyword("u32").Uint32(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(840000), u32)
		u64, err := root.Keyword("u64").Uint64(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1<<40), u64)
		u128, err := root.Keyword("u128").Uint128(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint128.Max.Sub64(1), u128)
	})
	t.Run("wrong_width_is_an_error", func(t *testing.T) {
		require.NoError(t, root.Keyword("short").Set(ctx, []byte{1, 2}))
		_, err := root.Keyword("short").Uint32(ctx)
		assert.ErrorIs(t, err, errs.InternalError)
	})
	t.Run("list", func(t *testing.T) {
		list := root.Keyword("etchings")
		require.NoError(t, list.Append(ctx, []byte("A")))
		require.NoError(t, list.Append(ctx, []byte("B")))

		length, err := list.Length(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(2), length)

		second, err := list.SelectIndex(1).Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("B"), second)

		items, err := list.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("A"), []byte("B")}, items)
	})
}
