package runes

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

// OutPointKey is the storage key of an output: the txid bytes followed by the vout as u32 little-endian.
func OutPointKey(outPoint wire.OutPoint) []byte {
	key := make([]byte, chainhash.HashSize+4)
	copy(key, outPoint.Hash[:])
	binary.LittleEndian.PutUint32(key[chainhash.HashSize:], outPoint.Index)
	return key
}

func OutPointFromKey(key []byte) (wire.OutPoint, error) {
	if len(key) != chainhash.HashSize+4 {
		return wire.OutPoint{}, errors.Wrapf(errs.InvalidArgument, "outpoint key must be %d bytes", chainhash.HashSize+4)
	}
	var hash chainhash.Hash
	copy(hash[:], key[:chainhash.HashSize])
	return *wire.NewOutPoint(&hash, binary.LittleEndian.Uint32(key[chainhash.HashSize:])), nil
}
