package runes

import (
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

func TestBalanceSheet(t *testing.T) {
	x, y, z := NewRuneId(840000, 1), NewRuneId(840000, 2), NewRuneId(840001, 0)

	t.Run("credit_keeps_first_seen_order", func(t *testing.T) {
		sheet := NewBalanceSheet()
		require.NoError(t, sheet.Credit(y, uint128.From64(5)))
		require.NoError(t, sheet.Credit(x, uint128.From64(7)))
		require.NoError(t, sheet.Credit(y, uint128.From64(1)))
		require.NoError(t, sheet.Credit(z, uint128.Zero))

		assert.Equal(t, []BalanceEntry{
			{Id: y, Amount: uint128.From64(6)},
			{Id: x, Amount: uint128.From64(7)},
		}, sheet.Entries())
	})
	t.Run("credit_overflow", func(t *testing.T) {
		sheet := NewBalanceSheet()
		require.NoError(t, sheet.Credit(x, uint128.Max))
		err := sheet.Credit(x, uint128.From64(1))
		assert.ErrorIs(t, err, errs.OverflowUint128)
		assert.Equal(t, uint128.Max, sheet.Get(x))
	})
	t.Run("debit", func(t *testing.T) {
		sheet := NewBalanceSheet()
		require.NoError(t, sheet.Credit(x, uint128.From64(100)))

		assert.False(t, sheet.Debit(x, uint128.From64(101)))
		assert.Equal(t, uint128.From64(100), sheet.Get(x))

		assert.True(t, sheet.Debit(x, uint128.From64(40)))
		assert.Equal(t, uint128.From64(60), sheet.Get(x))

		assert.True(t, sheet.Debit(x, uint128.From64(60)))
		assert.True(t, sheet.IsEmpty())
		assert.Empty(t, sheet.Entries())

		assert.False(t, sheet.Debit(y, uint128.From64(1)))
		assert.True(t, sheet.Debit(y, uint128.Zero))
	})
	t.Run("merge", func(t *testing.T) {
		a, b := NewBalanceSheet(), NewBalanceSheet()
		require.NoError(t, a.Credit(x, uint128.From64(1)))
		require.NoError(t, b.Credit(z, uint128.From64(2)))
		require.NoError(t, b.Credit(x, uint128.From64(3)))

		merged, err := MergeBalanceSheets(a, nil, b)
		require.NoError(t, err)
		assert.Equal(t, []BalanceEntry{
			{Id: x, Amount: uint128.From64(4)},
			{Id: z, Amount: uint128.From64(2)},
		}, merged.Entries())
		assert.Equal(t, uint128.From64(1), a.Get(x), "inputs are not mutated")
	})
	t.Run("merge_overflow", func(t *testing.T) {
		a, b := NewBalanceSheet(), NewBalanceSheet()
		require.NoError(t, a.Credit(x, uint128.Max))
		require.NoError(t, b.Credit(x, uint128.From64(1)))
		_, err := MergeBalanceSheets(a, b)
		assert.ErrorIs(t, err, errs.OverflowUint128)
	})
}

func TestBalanceSheetEncoding(t *testing.T) {
	sheet := NewBalanceSheet()
	require.NoError(t, sheet.Credit(NewRuneId(840000, 1), uint128.From64(1000)))
	require.NoError(t, sheet.Credit(NewRuneId(1, 0), uint128.Max))

	test := func(name string, cenotaph bool) {
		t.Run(name, func(t *testing.T) {
			b := sheet.Encode(cenotaph)
			require.Len(t, b, 5+2*48)
			assert.Equal(t, []byte{0, 0, 0, 2}, b[1:5])

			decoded, decodedCenotaph, err := DecodeBalanceSheet(b)
			require.NoError(t, err)
			assert.Equal(t, cenotaph, decodedCenotaph)
			assert.Equal(t, sheet.Entries(), decoded.Entries())
		})
	}
	test("valid", false)
	test("cenotaph", true)

	t.Run("layout", func(t *testing.T) {
		single := NewBalanceSheet()
		require.NoError(t, single.Credit(NewRuneId(2, 3), uint128.From64(0x0102)))
		b := single.Encode(true)
		assert.Equal(t, byte(1), b[0])
		assert.Equal(t, NewRuneId(2, 3).Bytes(), b[5:37])
		assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 2}, b[37:53])
	})
	t.Run("empty_input", func(t *testing.T) {
		decoded, cenotaph, err := DecodeBalanceSheet(nil)
		require.NoError(t, err)
		assert.False(t, cenotaph)
		assert.True(t, decoded.IsEmpty())
	})
	t.Run("corrupt_length", func(t *testing.T) {
		b := sheet.Encode(false)
		_, _, err := DecodeBalanceSheet(b[:len(b)-1])
		assert.ErrorIs(t, err, errs.InternalError)
	})
}
