package runes

import (
	"math"
	"testing"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/btcsuite/btcd/txscript"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/core/types"
)

func payloadScript(t *testing.T, integers ...uint128.Uint128) []byte {
	t.Helper()
	return utils.Must(ScriptFromPayload(EncodeIntegers(integers)))
}

func txWithOutputs(scripts ...[]byte) *types.Transaction {
	return &types.Transaction{
		Version: 2,
		TxOut: lo.Map(scripts, func(script []byte, _ int) *types.TxOut {
			return &types.TxOut{PkScript: script}
		}),
	}
}

var p2trScript = append([]byte{txscript.OP_1, txscript.OP_DATA_32}, make([]byte, 32)...)

func TestPayloadFromScript(t *testing.T) {
	t.Run("concatenates_pushes", func(t *testing.T) {
		script := utils.Must(txscript.NewScriptBuilder().
			AddOp(txscript.OP_RETURN).
			AddOp(MagicNumber).
			AddData([]byte{1, 2}).
			AddData([]byte{3}).
			Script())
		payload, err := PayloadFromScript(script)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, payload)
	})
	t.Run("non_push_opcode", func(t *testing.T) {
		script := utils.Must(txscript.NewScriptBuilder().
			AddOp(txscript.OP_RETURN).
			AddOp(MagicNumber).
			AddData([]byte{1}).
			AddOp(txscript.OP_VERIFY).
			Script())
		_, err := PayloadFromScript(script)
		assert.ErrorIs(t, err, ErrNonDataOutput)
	})
	t.Run("malformed_push", func(t *testing.T) {
		_, err := PayloadFromScript([]byte{txscript.OP_RETURN, MagicNumber, txscript.OP_DATA_4, 1})
		assert.ErrorIs(t, err, ErrNonDataOutput)
	})
	t.Run("not_a_runestone", func(t *testing.T) {
		assert.False(t, IsRunestoneScript([]byte{txscript.OP_RETURN}))
		assert.False(t, IsRunestoneScript([]byte{txscript.OP_RETURN, txscript.OP_14}))
		assert.False(t, IsRunestoneScript(p2trScript))
		assert.True(t, IsRunestoneScript([]byte{txscript.OP_RETURN, MagicNumber}))
	})
}

func TestRunestoneOutput(t *testing.T) {
	first := payloadScript(t, u128s(22, 0)...)
	last := payloadScript(t, u128s(22, 1)...)
	tx := txWithOutputs(first, p2trScript, last, []byte{txscript.OP_RETURN})

	vout, ok := RunestoneOutput(tx)
	require.True(t, ok)
	assert.EqualValues(t, 2, vout)

	defaultOutput, ok := DefaultOutput(tx)
	require.True(t, ok)
	assert.EqualValues(t, 1, defaultOutput)

	_, ok = RunestoneOutput(txWithOutputs(p2trScript))
	assert.False(t, ok)
	_, ok = DefaultOutput(txWithOutputs(first))
	assert.False(t, ok)
}

func TestDecipherRunestone(t *testing.T) {
	test := func(name string, tx *types.Transaction, expected *Runestone) {
		t.Run(name, func(t *testing.T) {
			t.Helper()
			runestone, _, err := DecipherRunestone(tx)
			require.NoError(t, err)
			assert.Equal(t, expected, runestone)
		})
	}
	rejected := func(name string, tx *types.Transaction, target error) {
		t.Run(name, func(t *testing.T) {
			t.Helper()
			runestone, _, err := DecipherRunestone(tx)
			assert.ErrorIs(t, err, target)
			assert.Nil(t, runestone)
		})
	}

	test("no_runestone", txWithOutputs(p2trScript), nil)
	test("empty_runestone", txWithOutputs(payloadScript(t)), &Runestone{Edicts: []Edict{}})
	test("etching_with_terms",
		txWithOutputs(payloadScript(t, u128s(
			2, 3,
			4, 99246114928149462,
			1, 2,
			3, 1,
			5, '$',
			6, 1000,
			10, 50,
			8, 5,
			12, 100,
			14, 200,
		)...), p2trScript),
		&Runestone{
			Edicts: []Edict{},
			Etching: &Etching{
				Rune:         lo.ToPtr(MinimumName),
				Divisibility: lo.ToPtr[uint8](2),
				Spacers:      lo.ToPtr[uint32](1),
				Symbol:       lo.ToPtr('$'),
				Premine:      lo.ToPtr(uint128.From64(1000)),
				Terms: &Terms{
					Amount:      lo.ToPtr(uint128.From64(50)),
					Cap:         lo.ToPtr(uint128.From64(5)),
					HeightStart: lo.ToPtr[uint64](100),
					HeightEnd:   lo.ToPtr[uint64](200),
				},
			},
		},
	)
	test("invalid_etching_metadata_is_absent",
		txWithOutputs(payloadScript(t, u128s(
			2, 1,
			1, 39,
			3, uint64(MaxSpacers)+1,
			5, 0xD800,
			16, 1,
		)...)),
		&Runestone{Edicts: []Edict{}, Etching: &Etching{}},
	)
	test("terms_without_flag_are_ignored",
		txWithOutputs(payloadScript(t, u128s(2, 1, 10, 50)...)),
		&Runestone{Edicts: []Edict{}, Etching: &Etching{}},
	)
	test("window_saturates",
		txWithOutputs(payloadScript(t, []uint128.Uint128{
			uint128.From64(2), uint128.From64(3),
			uint128.From64(18), uint128.New(0, 1),
		}...)),
		&Runestone{Edicts: []Edict{}, Etching: &Etching{Terms: &Terms{OffsetEnd: lo.ToPtr[uint64](math.MaxUint64)}}},
	)
	test("mint_and_pointer",
		txWithOutputs(payloadScript(t, u128s(20, 840000, 20, 1, 22, 1)...), p2trScript),
		&Runestone{Edicts: []Edict{}, Mint: lo.ToPtr(NewRuneId(840000, 1)), Pointer: lo.ToPtr[uint32](1)},
	)
	test("mint_needs_exactly_two_values",
		txWithOutputs(payloadScript(t, u128s(20, 840000)...)),
		&Runestone{Edicts: []Edict{}},
	)
	test("mint_tx_out_of_range",
		txWithOutputs(payloadScript(t, u128s(20, 840000, 20, 1<<32)...)),
		&Runestone{Edicts: []Edict{}},
	)
	test("edicts",
		txWithOutputs(payloadScript(t, u128s(0, 840000, 1, 40, 1, 0, 0, 10, 0)...), p2trScript),
		&Runestone{Edicts: []Edict{
			{Id: NewRuneId(840000, 1), Amount: uint128.From64(40), Output: 1},
			{Id: NewRuneId(840000, 1), Amount: uint128.From64(10), Output: 0},
		}},
	)
	test("last_runestone_output_wins",
		txWithOutputs(payloadScript(t, u128s(22, 0)...), p2trScript, payloadScript(t, u128s(22, 1)...)),
		&Runestone{Edicts: []Edict{}, Pointer: lo.ToPtr[uint32](1)},
	)

	rejected("truncated", txWithOutputs(payloadScript(t, u128s(2)...)), ErrTruncated)
	rejected("edict_output_out_of_range", txWithOutputs(payloadScript(t, u128s(0, 1, 0, 1, 2)...), p2trScript), ErrTruncated)
	rejected("pointer_out_of_range", txWithOutputs(payloadScript(t, u128s(22, 2)...), p2trScript), ErrTruncated)
	rejected("non_data_output", txWithOutputs([]byte{txscript.OP_RETURN, MagicNumber, txscript.OP_VERIFY}), ErrNonDataOutput)
}

func TestRunestoneEncipher(t *testing.T) {
	runestone := &Runestone{
		Etching: &Etching{
			Rune:    lo.ToPtr(MinimumName),
			Premine: lo.ToPtr(uint128.From64(1000)),
			Terms:   &Terms{Amount: lo.ToPtr(uint128.From64(1)), Cap: lo.ToPtr(uint128.From64(10))},
		},
		Pointer: lo.ToPtr[uint32](0),
		Edicts: []Edict{
			{Id: NewRuneId(840000, 1), Amount: uint128.From64(40), Output: 1},
		},
		Protorune: u128s(7, 8),
	}
	script, err := runestone.Encipher()
	require.NoError(t, err)

	decoded, vout, err := DecipherRunestone(txWithOutputs(p2trScript, script))
	require.NoError(t, err)
	assert.EqualValues(t, 1, vout)
	assert.Equal(t, runestone, decoded)
}
