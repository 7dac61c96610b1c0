package kv

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
)

const (
	indexerStateDBVersionKey = "/indexer/db-version"
	indexerStateNetworkKey   = "/indexer/network"
)

func (r *Repository) GetIndexerState(ctx context.Context) (entity.IndexerState, error) {
	network, err := r.pointer(indexerStateNetworkKey).Get(ctx)
	if err != nil {
		return entity.IndexerState{}, errors.WithStack(err)
	}
	if len(network) == 0 {
		return entity.IndexerState{}, errors.WithStack(errs.NotFound)
	}
	version, err := r.pointer(indexerStateDBVersionKey).Uint32(ctx)
	if err != nil {
		return entity.IndexerState{}, errors.WithStack(err)
	}
	return entity.IndexerState{
		DBVersion: int32(version),
		Network:   common.Network(network),
	}, nil
}

func (r *Repository) SetIndexerState(ctx context.Context, state entity.IndexerState) error {
	if err := r.pointer(indexerStateDBVersionKey).SetUint32(ctx, uint32(state.DBVersion)); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(r.pointer(indexerStateNetworkKey).Set(ctx, []byte(state.Network)))
}
