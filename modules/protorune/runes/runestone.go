package runes

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
	"github.com/subfrost/runicbtcfederation/core/types"
)

// Runestone is the interpreted message of a runestone output.
type Runestone struct {
	// Etch request, nil unless the etching flag is set
	Etching *Etching
	// Token to mint, nil when the MINT field is absent or malformed
	Mint *RuneId
	// Output receiving unallocated balances. nil means the default output.
	Pointer *uint32
	Edicts  []Edict
	// Packed protostone stream of the PROTORUNE field
	Protorune []uint128.Uint128
}

// ParseRunestone interprets a payload for a transaction with numOutputs outputs.
// Malformed payloads, an out of range pointer and edicts to missing outputs are all reported as ErrTruncated.
func ParseRunestone(payload []byte, numOutputs int) (*Runestone, error) {
	message, err := DecodeMessage(payload)
	if err != nil {
		return nil, err
	}
	edicts, err := NormalizeEdicts(message.Body)
	if err != nil {
		return nil, err
	}
	for i, edict := range edicts {
		if int64(edict.Output) >= int64(numOutputs) {
			return nil, errors.Wrapf(ErrTruncated, "edict %d targets output %d of %d", i, edict.Output, numOutputs)
		}
	}

	fields := message.Fields
	runestone := &Runestone{
		Edicts:    edicts,
		Protorune: fields[TagProtorune],
	}
	if v, ok := fields.First(TagPointer); ok {
		if !v.IsUint32() || int64(v.Uint32()) >= int64(numOutputs) {
			return nil, errors.Wrapf(ErrTruncated, "pointer %s out of range of %d outputs", v, numOutputs)
		}
		runestone.Pointer = lo.ToPtr(v.Uint32())
	}
	if mint := fields[TagMint]; len(mint) == 2 && mint[0].IsUint64() && mint[1].IsUint32() {
		runestone.Mint = lo.ToPtr(NewRuneId(mint[0].Uint64(), mint[1].Uint32()))
	}
	flags, _ := fields.First(TagFlags)
	runestone.Etching = etchingFromFields(fields, Flags(flags))
	return runestone, nil
}

// DecipherRunestone finds and interprets the runestone of tx. It returns a nil runestone when tx has none.
func DecipherRunestone(tx *types.Transaction) (*Runestone, uint32, error) {
	vout, ok := RunestoneOutput(tx)
	if !ok {
		return nil, 0, nil
	}
	payload, err := PayloadFromScript(tx.TxOut[vout].PkScript)
	if err != nil {
		return nil, vout, err
	}
	runestone, err := ParseRunestone(payload, len(tx.TxOut))
	if err != nil {
		return nil, vout, err
	}
	return runestone, vout, nil
}

// Message builds the tag/value message of the runestone.
func (r Runestone) Message() *Message {
	message := &Message{Fields: make(Fields)}
	if r.Etching != nil {
		var flags Flags
		r.Etching.addFields(message.Fields, &flags)
		message.Fields.Add(TagFlags, flags.Uint128())
	}
	if r.Mint != nil {
		message.Fields.Add(TagMint, uint128.From64(r.Mint.Block), uint128.From64(uint64(r.Mint.Tx)))
	}
	if r.Pointer != nil {
		message.Fields.Add(TagPointer, uint128.From64(uint64(*r.Pointer)))
	}
	if len(r.Protorune) > 0 {
		message.Fields.Add(TagProtorune, r.Protorune...)
	}
	message.Body = DeltaEncodeEdicts(r.Edicts)
	return message
}

// Encipher encodes the runestone into an output script.
func (r Runestone) Encipher() ([]byte, error) {
	return ScriptFromPayload(EncodeMessage(r.Message()))
}

// ScriptFromPayload wraps payload in an OP_RETURN OP_13 script, split into pushes of at most MaxScriptElementSize.
func ScriptFromPayload(payload []byte) ([]byte, error) {
	sb := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddOp(MagicNumber)
	for _, chunk := range lo.Chunk(payload, txscript.MaxScriptElementSize) {
		sb.AddData(chunk)
	}
	script, err := sb.Script()
	if err != nil {
		return nil, errors.Wrap(err, "cannot build scriptPubKey")
	}
	return script, nil
}
