package runes

import (
	"math"
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestRuneEntryMintWindow(t *testing.T) {
	entry := func(terms *Terms, remaining uint64) *RuneEntry {
		return &RuneEntry{
			RuneId:         NewRuneId(100, 1),
			EtchingHeight:  100,
			Terms:          terms,
			MintsRemaining: uint128.From64(remaining),
		}
	}
	test := func(name string, e *RuneEntry, height uint64, expectedErr error) {
		t.Run(name, func(t *testing.T) {
			t.Helper()
			amount, err := e.GetMintableAmount(height)
			if expectedErr != nil {
				assert.ErrorIs(t, err, expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, lo.FromPtr(e.Terms.Amount), amount)
		})
	}
	amount := lo.ToPtr(uint128.From64(10))
	absolute := &Terms{Amount: amount, HeightStart: lo.ToPtr[uint64](100), HeightEnd: lo.ToPtr[uint64](200)}
	relative := &Terms{Amount: amount, OffsetStart: lo.ToPtr[uint64](5), OffsetEnd: lo.ToPtr[uint64](10)}

	test("no_terms", entry(nil, 5), 150, ErrUnmintable)
	test("cap_reached", entry(absolute, 0), 150, ErrMintCapReached)
	test("before_height_start", entry(absolute, 5), 99, ErrMintBeforeStart)
	test("at_height_start", entry(absolute, 5), 100, nil)
	test("inside_window", entry(absolute, 5), 150, nil)
	test("at_height_end", entry(absolute, 5), 200, ErrMintAfterEnd)
	test("after_height_end", entry(absolute, 5), 250, ErrMintAfterEnd)
	test("before_offset_start", entry(relative, 5), 104, ErrMintBeforeStart)
	test("at_offset_start", entry(relative, 5), 105, nil)
	test("at_offset_end", entry(relative, 5), 110, ErrMintAfterEnd)
	test("zero_bounds_are_unbounded", entry(&Terms{Amount: amount, HeightStart: lo.ToPtr[uint64](0), HeightEnd: lo.ToPtr[uint64](0)}, 5), 1, nil)
	test("offset_end_saturates", entry(&Terms{Amount: amount, OffsetEnd: lo.ToPtr[uint64](math.MaxUint64)}, 5), math.MaxUint64-1, nil)
	test("missing_amount_mints_zero", entry(&Terms{}, 1), 1, nil)
}
