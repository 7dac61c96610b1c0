package protorune

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

// mint credits the mint amount of the runestone's MINT token into sheet. Rejected mints are a no-op.
func (p *Processor) mint(ctx context.Context, table datagateway.RuneTableDataGateway, height uint64, runestone *runes.Runestone, sheet *runes.BalanceSheet) error {
	if runestone.Mint == nil {
		return nil
	}
	runeId := *runestone.Mint
	ctx = logger.WithContext(ctx, slogx.RuneId(runeId))

	entry, err := table.GetRuneEntryByRuneId(ctx, runeId)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			logger.DebugContext(ctx, "mint rejected: rune not found")
			return nil
		}
		return errors.Wrap(err, "failed to get rune entry")
	}

	amount, err := entry.GetMintableAmount(height)
	if err != nil {
		logger.DebugContext(ctx, "mint rejected", slogx.Error(err))
		return nil
	}

	if err := table.UpdateMintsRemaining(ctx, runeId, entry.MintsRemaining.Sub64(1)); err != nil {
		return errors.Wrap(err, "failed to update mints remaining")
	}
	if err := sheet.Credit(runeId, amount); err != nil {
		return errors.Wrap(err, "failed to credit minted amount")
	}
	logger.DebugContext(ctx, "minted rune", slogx.String("amount", formatAmount(ctx, table, runeId, amount)))
	return nil
}
