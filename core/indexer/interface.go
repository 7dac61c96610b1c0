package indexer

import (
	"context"

	"github.com/subfrost/runicbtcfederation/core/types"
)

// Input is a unit of data the indexer feeds to a processor in height order.
type Input interface {
	BlockHeader() types.BlockHeader
}

type Processor[T Input] interface {
	Name() string

	// Process processes the input data and indexes it.
	Process(ctx context.Context, inputs []T) error

	// CurrentBlock returns the latest indexed block header.
	CurrentBlock(ctx context.Context) (types.BlockHeader, error)

	// GetIndexedBlock returns the indexed block header by the specified block height.
	GetIndexedBlock(ctx context.Context, height int64) (types.BlockHeader, error)

	// RevertData revert synced data to the specified block height for re-indexing.
	RevertData(ctx context.Context, from int64) error

	// Shutdown releases resources held by the processor.
	Shutdown(ctx context.Context) error
}

// IndexerWorker is a module that can be run by the `run` command.
type IndexerWorker interface {
	Run(ctx context.Context) error
	Shutdown() error
}
