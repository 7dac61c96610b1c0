package types

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/samber/lo"
)

type BlockHeader struct {
	Hash       chainhash.Hash
	Height     int64
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32
}

type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

// ParseMsgBlock parses btcd/wire.MsgBlock at height to Block.
func ParseMsgBlock(src *wire.MsgBlock, height int64) *Block {
	hash := src.Header.BlockHash()
	return &Block{
		Header: ParseBlockHeader(&src.Header, height),
		Transactions: lo.Map(src.Transactions, func(item *wire.MsgTx, index int) *Transaction {
			return ParseMsgTx(item, height, hash, uint32(index))
		}),
	}
}

func ParseBlockHeader(src *wire.BlockHeader, height int64) BlockHeader {
	return BlockHeader{
		Hash:       src.BlockHash(),
		Height:     height,
		Version:    src.Version,
		PrevBlock:  src.PrevBlock,
		MerkleRoot: src.MerkleRoot,
		Timestamp:  src.Timestamp,
		Bits:       src.Bits,
		Nonce:      src.Nonce,
	}
}

// BlockHeader returns the header of the block, so Block can be consumed by core/indexer.
func (b *Block) BlockHeader() BlockHeader {
	return b.Header
}
