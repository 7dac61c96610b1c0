package protorune

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

func (p *Processor) Process(ctx context.Context, blocks []*types.Block) error {
	for _, block := range blocks {
		if err := p.IndexBlock(ctx, block); err != nil {
			return errors.Wrapf(err, "failed to index block %d", block.Header.Height)
		}
	}
	return nil
}

// IndexBlock applies block on top of the last indexed block. All writes of the block are committed at once,
// so a failed block leaves no trace.
func (p *Processor) IndexBlock(ctx context.Context, block *types.Block) error {
	if block.Header.Height < 0 {
		return errors.Wrapf(errs.InvalidArgument, "negative block height %d", block.Header.Height)
	}
	height := uint64(block.Header.Height)
	ctx = logger.WithContext(ctx, slogx.Height(height))

	latest, err := p.protoruneDg.GetLatestBlock(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return errors.Wrap(err, "failed to get latest block")
	}
	if err == nil && block.Header.Height <= latest.Height {
		return errors.Wrapf(errs.InvalidArgument, "height regression: block %d is not above indexed block %d", block.Header.Height, latest.Height)
	}

	start := time.Now()
	dg, err := p.protoruneDg.BeginProtoruneTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := dg.Rollback(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to rollback transaction", err)
		}
	}()

	if err := dg.CreateIndexedBlock(ctx, &entity.IndexedBlock{
		Height:   block.Header.Height,
		Hash:     block.Header.Hash,
		PrevHash: block.Header.PrevBlock,
	}); err != nil {
		return errors.Wrap(err, "failed to create indexed block")
	}

	if height == p.genesisHeight {
		if err := p.etchGenesisRune(ctx, dg.Base()); err != nil {
			return errors.WithStack(err)
		}
	}

	for _, tx := range block.Transactions {
		if err := p.processTx(ctx, dg, tx, height); err != nil {
			return errors.Wrapf(err, "failed to process tx %s", tx.TxHash)
		}
	}

	if err := dg.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	logger.DebugContext(ctx, "indexed block",
		slog.Int("transactions", len(block.Transactions)),
		slogx.Duration("duration", time.Since(start)),
	)
	return nil
}

func (p *Processor) processTx(ctx context.Context, dg datagateway.ProtoruneDataGatewayWithTx, tx *types.Transaction, height uint64) error {
	ctx = logger.WithContext(ctx, slogx.TxHash(tx.TxHash))

	for vout, output := range tx.TxOut {
		if err := dg.CreateOutPoint(ctx, tx.OutPoint(uint32(vout)), height, output); err != nil {
			return errors.Wrap(err, "failed to index outpoint")
		}
	}
	if err := p.indexPayments(ctx, dg, tx, height); err != nil {
		return errors.Wrap(err, "failed to index payments")
	}
	if height < p.genesisHeight {
		return nil
	}

	runestone, runestoneVout, err := runes.DecipherRunestone(tx)
	if err != nil {
		// a malformed runestone moves nothing, the inputs' balances are gone with the spent outputs
		logger.DebugContext(ctx, "discarded runestone", slogx.Error(err), slogx.Uint32("vout", runestoneVout))
		return nil
	}

	var stones []runes.Protostone
	if runestone != nil && len(runestone.Protorune) > 0 {
		stones, err = runes.DecodeProtostones(runestone.Protorune)
		if err != nil {
			logger.DebugContext(ctx, "discarded protostones", slogx.Error(err))
			stones = nil
		}
	}

	pointer, hasPointer := runes.DefaultOutput(tx)
	if runestone != nil && runestone.Pointer != nil {
		pointer, hasPointer = *runestone.Pointer, true
	}
	target := outputTarget{vout: pointer, ok: hasPointer}

	credits, cenotaph, err := p.processRunestone(ctx, dg, tx, height, runestone, runestoneVout, target)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, tag := range p.protocols {
		if err := p.processProtocol(ctx, dg, tx, height, tag, stones, target); err != nil {
			return errors.Wrapf(err, "failed to process protocol %s", tag)
		}
	}

	if runestone != nil && !cenotaph && len(credits) > 0 {
		if err := p.processProtoburns(ctx, dg, tx, stones, credits); err != nil {
			return errors.Wrap(err, "failed to process protoburns")
		}
	}
	return nil
}

// processRunestone runs mint, etch and edict allocation against the base table and saves the touched outputs.
// It returns the ordered credits made to the runestone output and the cenotaph flag.
func (p *Processor) processRunestone(
	ctx context.Context,
	dg datagateway.ProtoruneDataGatewayWithTx,
	tx *types.Transaction,
	height uint64,
	runestone *runes.Runestone,
	runestoneVout uint32,
	target outputTarget,
) ([]runes.BalanceEntry, bool, error) {
	table := dg.Base()
	sheet, err := loadInputSheet(ctx, table, tx)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}

	alloc := newAllocation()
	var cenotaph bool
	if runestone != nil {
		alloc.watch(runestoneVout)

		if err := p.mint(ctx, table, height, runestone, sheet); err != nil {
			return nil, false, errors.Wrap(err, "error during mint")
		}
		if err := p.etch(ctx, table, tx, height, runestone, sheet); err != nil {
			return nil, false, errors.Wrap(err, "error during etch")
		}

		cenotaph, err = p.allocateEdicts(ctx, dg, tx, height, sheet, alloc, runestone.Edicts)
		if err != nil {
			return nil, false, errors.Wrap(err, "error during edicts allocation")
		}
		if target.ok {
			alloc.output(target.vout)
		}
	}

	if err := alloc.transferRemainder(ctx, sheet, target); err != nil {
		return nil, false, errors.WithStack(err)
	}
	if err := alloc.save(ctx, table, tx, cenotaph); err != nil {
		return nil, false, errors.WithStack(err)
	}
	if cenotaph {
		logger.DebugContext(ctx, "runestone is a cenotaph, outputs are flagged")
	}
	return alloc.credits, cenotaph, nil
}

// loadInputSheet merges the balance sheets of every input of tx in table.
func loadInputSheet(ctx context.Context, table datagateway.RuneTableDataGateway, tx *types.Transaction) (*runes.BalanceSheet, error) {
	sheet := runes.NewBalanceSheet()
	if tx.IsCoinbase() {
		return sheet, nil
	}
	for _, in := range tx.TxIn {
		input, err := table.GetBalanceSheet(ctx, in.PreviousOutPoint())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load balance sheet of input %s", in.PreviousOutPoint())
		}
		if err := sheet.Merge(input); err != nil {
			return nil, errors.Wrap(err, "failed to merge input balance sheets")
		}
	}
	return sheet, nil
}
