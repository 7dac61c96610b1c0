package entity

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
)

// Receipt records one edict credit to an address, indexed by height and recipient.
type Receipt struct {
	TxHash chainhash.Hash
	Vout   uint32
	RuneId runes.RuneId
	Amount uint128.Uint128
	// Sender is the address of the first input with a decodable address, empty if none.
	Sender string
}

const receiptFixedSize = chainhash.HashSize + 4 + 32 + 16

// Bytes encodes r as txhash, vout (u32 LE), rune id, amount (u128 BE), sender.
func (r Receipt) Bytes() []byte {
	b := make([]byte, 0, receiptFixedSize+len(r.Sender))
	b = append(b, r.TxHash[:]...)
	b = binary.LittleEndian.AppendUint32(b, r.Vout)
	b = append(b, r.RuneId.Bytes()...)
	amount := make([]byte, 16)
	r.Amount.PutBytesBE(amount)
	b = append(b, amount...)
	return append(b, r.Sender...)
}

func ReceiptFromBytes(b []byte) (Receipt, error) {
	if len(b) < receiptFixedSize {
		return Receipt{}, errors.Wrapf(errs.InternalError, "receipt has %d bytes, expected at least %d", len(b), receiptFixedSize)
	}
	var r Receipt
	copy(r.TxHash[:], b[:chainhash.HashSize])
	b = b[chainhash.HashSize:]
	r.Vout = binary.LittleEndian.Uint32(b[:4])
	id, err := runes.RuneIdFromBytes(b[4:36])
	if err != nil {
		return Receipt{}, errors.WithStack(err)
	}
	r.RuneId = id
	r.Amount = uint128.FromBytesBE(b[36:52])
	r.Sender = string(b[52:])
	return r, nil
}
