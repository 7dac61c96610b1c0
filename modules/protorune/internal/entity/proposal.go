package entity

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

// Proposal is a federation proposal accepted at Height by the message at Vout of TxHash.
type Proposal struct {
	Height  uint64
	TxIndex uint32
	TxHash  chainhash.Hash
	Vout    uint32
	// Payload is the two values of the PROPOSAL field.
	Payload [2]uint128.Uint128
	// Content is the inscription body following the proposal prefix.
	Content []byte
}

const proposalFixedSize = 8 + 4 + chainhash.HashSize + 4 + 2*16

// Bytes encodes p as height (u64 BE), tx index (u32 BE), txhash, vout (u32 BE), payload (2 x u128 BE), content.
func (p Proposal) Bytes() []byte {
	b := make([]byte, 0, proposalFixedSize+len(p.Content))
	b = binary.BigEndian.AppendUint64(b, p.Height)
	b = binary.BigEndian.AppendUint32(b, p.TxIndex)
	b = append(b, p.TxHash[:]...)
	b = binary.BigEndian.AppendUint32(b, p.Vout)
	value := make([]byte, 16)
	for _, v := range p.Payload {
		v.PutBytesBE(value)
		b = append(b, value...)
	}
	return append(b, p.Content...)
}

func ProposalFromBytes(b []byte) (Proposal, error) {
	if len(b) < proposalFixedSize {
		return Proposal{}, errors.Wrapf(errs.InternalError, "proposal has %d bytes, expected at least %d", len(b), proposalFixedSize)
	}
	var p Proposal
	p.Height = binary.BigEndian.Uint64(b[:8])
	p.TxIndex = binary.BigEndian.Uint32(b[8:12])
	b = b[12:]
	copy(p.TxHash[:], b[:chainhash.HashSize])
	b = b[chainhash.HashSize:]
	p.Vout = binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	p.Payload[0] = uint128.FromBytesBE(b[:16])
	p.Payload[1] = uint128.FromBytesBE(b[16:32])
	if content := b[32:]; len(content) > 0 {
		p.Content = append([]byte(nil), content...)
	}
	return p, nil
}
