package kv

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/internal/kv"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
)

const (
	heightToBlockHashKey     = "/blockhash/byheight/"
	heightToPrevBlockHashKey = "/prevblockhash/byheight/"
	blockHashToHeightKey     = "/height/byblockhash/"
	latestBlockKey           = "/block/latest"
)

func (r *Repository) GetLatestBlock(ctx context.Context) (types.BlockHeader, error) {
	value, err := r.pointer(latestBlockKey).Get(ctx)
	if err != nil {
		return types.BlockHeader{}, errors.WithStack(err)
	}
	if len(value) == 0 {
		return types.BlockHeader{}, errors.WithStack(errs.NotFound)
	}
	height, err := r.pointer(latestBlockKey).Uint64(ctx)
	if err != nil {
		return types.BlockHeader{}, errors.WithStack(err)
	}
	block, err := r.GetIndexedBlockByHeight(ctx, int64(height))
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "latest block is not indexed")
	}
	return types.BlockHeader{
		Height:    block.Height,
		Hash:      block.Hash,
		PrevBlock: block.PrevHash,
	}, nil
}

func (r *Repository) GetIndexedBlockByHeight(ctx context.Context, height int64) (*entity.IndexedBlock, error) {
	if height < 0 {
		return nil, errors.Wrapf(errs.NotFound, "height %d", height)
	}
	hash, err := r.getHash(ctx, r.pointer(heightToBlockHashKey).SelectUint64(uint64(height)))
	if err != nil {
		return nil, errors.Wrapf(err, "block hash at height %d", height)
	}
	prevHash, err := r.getHash(ctx, r.pointer(heightToPrevBlockHashKey).SelectUint64(uint64(height)))
	if err != nil {
		return nil, errors.Wrapf(err, "previous block hash at height %d", height)
	}
	return &entity.IndexedBlock{
		Height:   height,
		Hash:     hash,
		PrevHash: prevHash,
	}, nil
}

func (r *Repository) GetBlockHeightByHash(ctx context.Context, hash chainhash.Hash) (int64, error) {
	p := r.pointer(blockHashToHeightKey).Select(hash[:])
	exists, err := p.Exists(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if !exists {
		return 0, errors.Wrapf(errs.NotFound, "block %s", hash)
	}
	height, err := p.Uint64(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return int64(height), nil
}

func (r *Repository) CreateIndexedBlock(ctx context.Context, block *entity.IndexedBlock) error {
	if block.Height < 0 {
		return errors.Wrapf(errs.InvalidArgument, "negative block height %d", block.Height)
	}
	height := uint64(block.Height)
	if err := r.pointer(heightToBlockHashKey).SelectUint64(height).Set(ctx, block.Hash[:]); err != nil {
		return errors.WithStack(err)
	}
	if err := r.pointer(heightToPrevBlockHashKey).SelectUint64(height).Set(ctx, block.PrevHash[:]); err != nil {
		return errors.WithStack(err)
	}
	if err := r.pointer(blockHashToHeightKey).Select(block.Hash[:]).SetUint64(ctx, height); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(r.pointer(latestBlockKey).SetUint64(ctx, height))
}

func (r *Repository) getHash(ctx context.Context, p kv.Pointer) (chainhash.Hash, error) {
	value, err := p.Get(ctx)
	if err != nil {
		return chainhash.Hash{}, errors.WithStack(err)
	}
	if len(value) == 0 {
		return chainhash.Hash{}, errors.WithStack(errs.NotFound)
	}
	hash, err := chainhash.NewHash(value)
	if err != nil {
		return chainhash.Hash{}, errors.Wrap(errs.InternalError, err.Error())
	}
	return *hash, nil
}
