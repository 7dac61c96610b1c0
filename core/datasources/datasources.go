package datasources

import (
	"context"

	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/internal/subscription"
)

// Datasource produces the inputs of an indexer, by height. A negative `to` means up to the current tip.
type Datasource[T any] interface {
	Name() string
	Fetch(ctx context.Context, from, to int64) ([]T, error)
	// FetchAsync streams batches of inputs into ch, in height order.
	FetchAsync(ctx context.Context, from, to int64, ch chan<- []T) (*subscription.ClientSubscription[[]T], error)
	GetBlockHeader(ctx context.Context, height int64) (types.BlockHeader, error)
}

// BlockDatasource is a datasource of full Bitcoin blocks.
type BlockDatasource = Datasource[*types.Block]
