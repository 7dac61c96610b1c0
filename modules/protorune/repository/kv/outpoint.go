package kv

import (
	"context"
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
)

const (
	outPointToHeightKey = "/outpoint/height/"
	outPointToOutputKey = "/outpoint/output/"
)

func (r *Repository) CreateOutPoint(ctx context.Context, outPoint wire.OutPoint, height uint64, output *types.TxOut) error {
	key := runes.OutPointKey(outPoint)
	if err := r.pointer(outPointToHeightKey).Select(key).SetUint64(ctx, height); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(r.pointer(outPointToOutputKey).Select(key).Set(ctx, encodeTxOut(output)))
}

func (r *Repository) GetOutPointHeight(ctx context.Context, outPoint wire.OutPoint) (uint64, error) {
	p := r.pointer(outPointToHeightKey).Select(runes.OutPointKey(outPoint))
	exists, err := p.Exists(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if !exists {
		return 0, errors.Wrapf(errs.NotFound, "outpoint %s", outPoint)
	}
	height, err := p.Uint64(ctx)
	return height, errors.WithStack(err)
}

func (r *Repository) GetOutPointOutput(ctx context.Context, outPoint wire.OutPoint) (*types.TxOut, error) {
	value, err := r.pointer(outPointToOutputKey).Select(runes.OutPointKey(outPoint)).Get(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(value) == 0 {
		return nil, errors.Wrapf(errs.NotFound, "outpoint %s", outPoint)
	}
	output, err := decodeTxOut(value)
	if err != nil {
		return nil, errors.Wrapf(err, "outpoint %s", outPoint)
	}
	return output, nil
}

// encodeTxOut encodes an output as value (i64 little-endian) followed by the script.
func encodeTxOut(output *types.TxOut) []byte {
	b := binary.LittleEndian.AppendUint64(make([]byte, 0, 8+len(output.PkScript)), uint64(output.Value))
	return append(b, output.PkScript...)
}

func decodeTxOut(b []byte) (*types.TxOut, error) {
	if len(b) < 8 {
		return nil, errors.Wrapf(errs.InternalError, "output has %d bytes, expected at least 8", len(b))
	}
	return &types.TxOut{
		Value:    int64(binary.LittleEndian.Uint64(b[:8])),
		PkScript: b[8:],
	}, nil
}
