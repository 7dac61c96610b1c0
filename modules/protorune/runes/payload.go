package runes

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/types"
)

// MagicNumber follows OP_RETURN in a runestone output script.
const MagicNumber = txscript.OP_13

// ErrNonDataOutput is returned when a runestone script holds anything but data pushes after its prefix.
const ErrNonDataOutput = errs.ErrorKind("runestone output contains a non-data opcode")

// IsRunestoneScript reports whether script starts with OP_RETURN OP_13.
func IsRunestoneScript(script []byte) bool {
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_RETURN {
		return false
	}
	return tokenizer.Next() && tokenizer.Opcode() == MagicNumber
}

// PayloadFromScript concatenates the data pushes that follow the OP_RETURN OP_13 prefix.
func PayloadFromScript(script []byte) ([]byte, error) {
	if !IsRunestoneScript(script) {
		return nil, errors.Wrap(errs.InvalidArgument, "not a runestone script")
	}
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	tokenizer.Next()
	tokenizer.Next()

	payload := make([]byte, 0, len(script))
	for tokenizer.Next() {
		if !IsDataPushOpCode(tokenizer.Opcode()) {
			return nil, errors.Wrapf(ErrNonDataOutput, "opcode %#x", tokenizer.Opcode())
		}
		payload = append(payload, tokenizer.Data()...)
	}
	if err := tokenizer.Err(); err != nil {
		return nil, errors.WithStack(errors.Join(ErrNonDataOutput, err))
	}
	return payload, nil
}

// IsDataPushOpCode includes OP_0, OP_DATA_1 to OP_DATA_75 and OP_PUSHDATA1/2/4.
func IsDataPushOpCode(opCode byte) bool {
	return opCode <= txscript.OP_PUSHDATA4
}

// RunestoneOutput returns the index of the last output carrying a runestone script.
func RunestoneOutput(tx *types.Transaction) (uint32, bool) {
	for i := len(tx.TxOut) - 1; i >= 0; i-- {
		if IsRunestoneScript(tx.TxOut[i].PkScript) {
			return uint32(i), true
		}
	}
	return 0, false
}

// DefaultOutput returns the first output whose script does not start with OP_RETURN.
func DefaultOutput(tx *types.Transaction) (uint32, bool) {
	for i, out := range tx.TxOut {
		if !out.IsOpReturn() {
			return uint32(i), true
		}
	}
	return 0, false
}
