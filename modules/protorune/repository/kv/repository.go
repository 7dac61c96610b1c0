// Package kv persists the protorune tables on a flat byte-keyed store.
package kv

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/internal/kv"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

const (
	baseTablePrefix     = "/"
	protocolTablePrefix = "/runes/proto/"
)

var (
	_ datagateway.ProtoruneDataGatewayWithTx = (*Repository)(nil)
	_ datagateway.IndexerInfoDataGateway     = (*Repository)(nil)
)

type Repository struct {
	store kv.Store
	// tx buffers the writes of a transaction-bound repository, nil otherwise.
	tx *kv.Overlay
}

func NewRepository(store kv.Store) *Repository {
	return &Repository{
		store: store,
	}
}

func (r *Repository) BeginProtoruneTx(ctx context.Context) (datagateway.ProtoruneDataGatewayWithTx, error) {
	overlay := kv.NewOverlay(r.store)
	return &Repository{
		store: overlay,
		tx:    overlay,
	}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	size := r.tx.Size()
	if err := r.tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	logger.DebugContext(ctx, "committed transaction", slogx.Int("writes", size))
	return nil
}

func (r *Repository) Rollback(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	if size := r.tx.Size(); size > 0 {
		logger.InfoContext(ctx, "rolled back transaction", slogx.Int("writes", size))
	}
	r.tx.Discard()
	return nil
}

func (r *Repository) Base() datagateway.RuneTableDataGateway {
	return newTable(kv.NewPointer(r.store, baseTablePrefix))
}

func (r *Repository) Protocol(tag uint128.Uint128) datagateway.RuneTableDataGateway {
	return newTable(kv.NewPointer(r.store, protocolTablePrefix+tag.String()+"/"))
}

func (r *Repository) pointer(key string) kv.Pointer {
	return kv.NewPointer(r.store, key)
}
