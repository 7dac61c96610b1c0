package datasources

import (
	"context"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/cockroachdb/errors"
	cstream "github.com/planxnx/concurrent-stream"
	"github.com/samber/lo"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/internal/subscription"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

const (
	// blockStreamConcurrency is the number of chunks fetched from the node in parallel.
	blockStreamConcurrency = 8

	blockChunkSize = 100
)

// Make sure to implement the Datasource interface
var _ Datasource[*types.Block] = (*BitcoinNodeDatasource)(nil)

// BitcoinNodeDatasource fetch data from Bitcoin node for Bitcoin Indexer
type BitcoinNodeDatasource struct {
	btcclient *rpcclient.Client
}

func NewBitcoinNode(btcclient *rpcclient.Client) *BitcoinNodeDatasource {
	return &BitcoinNodeDatasource{
		btcclient: btcclient,
	}
}

func (d BitcoinNodeDatasource) Name() string {
	return "bitcoin_node"
}

// Fetch polling blocks from Bitcoin node
//
//   - from: block height to start fetching, if -1, it will start from genesis block
//   - to: block height to stop fetching, if -1, it will fetch until the latest block
func (d *BitcoinNodeDatasource) Fetch(ctx context.Context, from, to int64) ([]*types.Block, error) {
	ch := make(chan []*types.Block)
	subscription, err := d.FetchAsync(ctx, from, to, ch)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer subscription.Unsubscribe()

	blocks := make([]*types.Block, 0)
	for {
		select {
		case b, ok := <-ch:
			if !ok {
				return blocks, nil
			}
			blocks = append(blocks, b...)
		case <-subscription.Done():
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, "context done")
			}
			return blocks, nil
		case err := <-subscription.Err():
			if err != nil {
				return nil, errors.Wrap(err, "got error while fetch async")
			}
			return blocks, nil
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "context done")
		}
	}
}

// FetchAsync polling blocks from Bitcoin node asynchronously (non-blocking).
// Chunks are fetched in parallel and delivered to ch in height order.
//
//   - from: block height to start fetching, if -1, it will start from genesis block
//   - to: block height to stop fetching, if -1, it will fetch until the latest block
func (d *BitcoinNodeDatasource) FetchAsync(ctx context.Context, from, to int64, ch chan<- []*types.Block) (*subscription.ClientSubscription[[]*types.Block], error) {
	from, to, skip, err := d.prepareRange(from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare fetch range")
	}

	subscription := subscription.NewSubscription(ch)
	if skip {
		if err := subscription.UnsubscribeWithContext(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to unsubscribe")
		}
		return subscription.Client(), nil
	}

	out := make(chan []*types.Block)
	stream := cstream.NewStream(ctx, blockStreamConcurrency, out)

	blockHeights := make([]int64, 0, to-from+1)
	for i := from; i <= to; i++ {
		blockHeights = append(blockHeights, i)
	}

	go func() {
		defer close(out)
		_ = stream.Wait()
	}()

	// Fan-out blocks to subscription channel
	go func() {
		defer subscription.Unsubscribe()
		for {
			select {
			case data, ok := <-out:
				if !ok {
					return
				}
				if len(data) == 0 {
					continue
				}
				if err := subscription.Send(ctx, data); err != nil {
					logger.ErrorContext(ctx, "failed while dispatch block", err,
						slogx.Int64("start", data[0].Header.Height),
						slogx.Int64("end", data[len(data)-1].Header.Height),
					)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer stream.Close()
		done := subscription.Done()
		for _, chunk := range lo.Chunk(blockHeights, blockChunkSize) {
			chunk := chunk
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			default:
				stream.Go(func() []*types.Block {
					blocks, err := d.getBlocks(chunk)
					if err != nil {
						logger.ErrorContext(ctx, "failed to get blocks", err,
							slogx.Int64("from_height", chunk[0]),
							slogx.Int64("to_height", chunk[len(chunk)-1]),
						)
						if err := subscription.SendError(ctx, errors.WithStack(err)); err != nil {
							logger.ErrorContext(ctx, "failed to send error", err)
						}
						return nil
					}
					return blocks
				})
			}
		}
	}()

	return subscription.Client(), nil
}

func (d *BitcoinNodeDatasource) getBlocks(heights []int64) ([]*types.Block, error) {
	blocks := make([]*types.Block, 0, len(heights))
	for _, height := range heights {
		hash, err := d.btcclient.GetBlockHash(height)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get block hash, height: %d", height)
		}
		block, err := d.btcclient.GetBlock(hash)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get block, height: %d, hash: %s", height, hash)
		}
		blocks = append(blocks, types.ParseMsgBlock(block, height))
	}
	return blocks, nil
}

func (d *BitcoinNodeDatasource) GetBlockHeader(_ context.Context, height int64) (types.BlockHeader, error) {
	hash, err := d.btcclient.GetBlockHash(height)
	if err != nil {
		return types.BlockHeader{}, errors.Wrapf(err, "failed to get block hash, height: %d", height)
	}
	header, err := d.btcclient.GetBlockHeader(hash)
	if err != nil {
		return types.BlockHeader{}, errors.Wrapf(err, "failed to get block header, hash: %s", hash)
	}
	return types.ParseBlockHeader(header, height), nil
}

func (d *BitcoinNodeDatasource) prepareRange(fromHeight, toHeight int64) (start, end int64, skip bool, err error) {
	start = fromHeight
	end = toHeight

	latestBlockHeight, err := d.btcclient.GetBlockCount()
	if err != nil {
		return -1, -1, false, errors.Wrap(err, "failed to get block count")
	}

	if start < 0 {
		start = 0
	}

	// clamp end to the node tip
	if end < 0 || end > latestBlockHeight {
		end = latestBlockHeight
	}

	if start > end {
		return -1, -1, true, nil
	}

	return start, end, false, nil
}
