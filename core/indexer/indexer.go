package indexer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/datasources"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

const (
	maxReorgLookBack = 1000

	// pollingInterval is the default polling interval for the indexer polling worker
	pollingInterval = 15 * time.Second

	shutdownTimeout = 180 * time.Second
)

var _ IndexerWorker = (*Indexer[*types.Block])(nil)

// Indexer drives a Processor with inputs from a Datasource, one polling round at a time.
type Indexer[T Input] struct {
	Processor    Processor[T]
	Datasource   datasources.Datasource[T]
	currentBlock types.BlockHeader

	quitOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

func New[T Input](processor Processor[T], datasource datasources.Datasource[T]) *Indexer[T] {
	return &Indexer[T]{
		Processor:  processor,
		Datasource: datasource,

		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (i *Indexer[T]) Shutdown() error {
	return i.ShutdownWithContext(context.Background())
}

func (i *Indexer[T]) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return i.ShutdownWithContext(ctx)
}

// ShutdownWithContext stops the polling loop and waits until the in-flight round finishes.
func (i *Indexer[T]) ShutdownWithContext(ctx context.Context) (err error) {
	i.quitOnce.Do(func() {
		close(i.quit)
		select {
		case <-i.done:
		case <-time.After(shutdownTimeout):
			err = errors.Wrap(errs.Timeout, "indexer shutdown timeout")
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "indexer shutdown context canceled")
		}
	})
	return
}

func (i *Indexer[T]) Run(ctx context.Context) (err error) {
	defer close(i.done)

	ctx = logger.WithContext(ctx,
		slog.String("package", "indexer"),
		slog.String("processor", i.Processor.Name()),
		slog.String("datasource", i.Datasource.Name()),
	)

	i.currentBlock, err = i.Processor.CurrentBlock(ctx)
	if err != nil {
		if !errors.Is(err, errs.NotFound) {
			return errors.Wrap(err, "can't init state, failed to get indexer current block")
		}
		// nothing indexed yet, start from the first block the datasource has
		i.currentBlock.Height = -1
	}

	// first round runs right away, then once per polling interval
	if err := i.process(ctx); err != nil {
		return errors.Wrap(err, "process failed")
	}

	ticker := time.NewTicker(pollingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-i.quit:
			logger.InfoContext(ctx, "Got quit signal, stopping indexer")
			if err := i.Processor.Shutdown(ctx); err != nil {
				return errors.Wrap(err, "processor shutdown failed")
			}
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := i.process(ctx); err != nil {
				logger.ErrorContext(ctx, "Indexer failed while processing", err)
				return errors.Wrap(err, "process failed")
			}
			logger.DebugContext(ctx, "Waiting for next polling interval")
		}
	}
}

func (i *Indexer[T]) process(ctx context.Context) error {
	from := i.currentBlock.Height + 1

	logger.InfoContext(ctx, "Start fetching input data", slog.Int64("from", from))
	ch := make(chan []T)
	subscription, err := i.Datasource.FetchAsync(ctx, from, -1, ch)
	if err != nil {
		return errors.Wrap(err, "failed to fetch input data")
	}
	defer subscription.Unsubscribe()

	for {
		select {
		case <-i.quit:
			return nil
		case inputs := <-ch:
			if len(inputs) == 0 {
				continue
			}
			done, err := i.processInputs(ctx, inputs)
			if err != nil {
				return errors.WithStack(err)
			}
			if done {
				return nil
			}
		case <-subscription.Done():
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "context done")
			}
			return nil
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case err := <-subscription.Err():
			if err != nil {
				return errors.Wrap(err, "got error while fetch async")
			}
		}
	}
}

// processInputs validates one fetched batch and hands it to the processor.
// done reports that the current round must end and be fetched again.
func (i *Indexer[T]) processInputs(ctx context.Context, inputs []T) (done bool, err error) {
	first := inputs[0].BlockHeader()
	last := inputs[len(inputs)-1].BlockHeader()
	ctx = logger.WithContext(ctx,
		slogx.Int64("from", first.Height),
		slogx.Int64("to", last.Height),
	)

	if i.currentBlock.Height >= 0 && !first.PrevBlock.IsEqual(&i.currentBlock.Hash) {
		logger.WarnContext(ctx, "Detected chain reorganization. Searching for fork point...",
			slogx.String("event", "reorg_detected"),
			slogx.Stringer("current_hash", i.currentBlock.Hash),
			slogx.Stringer("expected_hash", first.PrevBlock),
		)
		if err := i.revertToForkPoint(ctx); err != nil {
			return false, errors.WithStack(err)
		}
		return true, nil
	}

	for n := 1; n < len(inputs); n++ {
		header, prev := inputs[n].BlockHeader(), inputs[n-1].BlockHeader()
		if header.Height != prev.Height+1 {
			return false, errors.Wrapf(errs.InternalError, "input is not continuous, input[%d] height: %d, input[%d] height: %d", n-1, prev.Height, n, header.Height)
		}
		if !header.PrevBlock.IsEqual(&prev.Hash) {
			logger.WarnContext(ctx, "Chain Reorganization occurred in the middle of batch fetching inputs, need to try to fetch again")
			return true, nil
		}
	}

	startAt := time.Now()
	ctx = logger.WithContext(ctx, slog.Int("total_inputs", len(inputs)))
	logger.InfoContext(ctx, "Processing inputs")
	if err := i.Processor.Process(ctx, inputs); err != nil {
		return false, errors.WithStack(err)
	}
	i.currentBlock = last

	logger.InfoContext(ctx, "Processed inputs successfully",
		slogx.String("event", "processed_inputs"),
		slogx.Int64("current_block", i.currentBlock.Height),
		slogx.Duration("duration", time.Since(startAt)),
	)
	return false, nil
}

// revertToForkPoint walks back from the current block until the indexed and remote hashes agree,
// then asks the processor to revert everything above that height.
func (i *Indexer[T]) revertToForkPoint(ctx context.Context) error {
	start := time.Now()
	fork := types.BlockHeader{Height: -1}
	for height, n := i.currentBlock.Height-1, 0; height >= 0 && n < maxReorgLookBack; height, n = height-1, n+1 {
		indexed, err := i.Processor.GetIndexedBlock(ctx, height)
		if err != nil {
			return errors.Wrapf(err, "failed to get indexed block, height: %d", height)
		}
		remote, err := i.Datasource.GetBlockHeader(ctx, height)
		if err != nil {
			return errors.Wrapf(err, "failed to get remote block header, height: %d", height)
		}
		if indexed.Hash.IsEqual(&remote.Hash) {
			fork = remote
			break
		}
	}
	if fork.Height < 0 {
		return errors.Wrap(errs.SomethingWentWrong, "reorg look back limit reached")
	}

	logger.InfoContext(ctx, "Found reorg fork point, starting to revert data...",
		slogx.String("event", "reorg_forkpoint"),
		slogx.Int64("since", fork.Height+1),
		slogx.Int64("total_blocks", i.currentBlock.Height-fork.Height),
		slogx.Duration("search_duration", time.Since(start)),
	)
	if err := i.Processor.RevertData(ctx, fork.Height+1); err != nil {
		return errors.Wrap(err, "failed to revert data")
	}
	i.currentBlock = fork
	return nil
}
