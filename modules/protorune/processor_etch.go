package protorune

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/constants"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

// etch registers the runestone's etching in table and credits the premine into sheet. Rejected etchings are a no-op.
func (p *Processor) etch(ctx context.Context, table datagateway.RuneTableDataGateway, tx *types.Transaction, height uint64, runestone *runes.Runestone, sheet *runes.BalanceSheet) error {
	etching := runestone.Etching
	if etching == nil {
		return nil
	}

	name, ok := p.etchedRune(ctx, etching, tx, height)
	if !ok {
		return nil
	}
	ctx = logger.WithContext(ctx, slogx.Stringer("rune", name))

	_, err := table.GetRuneIdFromRune(ctx, name)
	if err == nil {
		logger.DebugContext(ctx, "etch rejected: rune already etched")
		return nil
	}
	if !errors.Is(err, errs.NotFound) {
		return errors.Wrap(err, "failed to get rune id")
	}

	entry := &runes.RuneEntry{
		RuneId:        runes.NewRuneId(height, tx.Index),
		SpacedRune:    runes.NewSpacedRune(name, lo.FromPtr(etching.Spacers)),
		Divisibility:  lo.FromPtr(etching.Divisibility),
		Symbol:        lo.FromPtr(etching.Symbol),
		EtchingHeight: height,
		Premine:       lo.FromPtr(etching.Premine),
		Terms:         etching.Terms,
	}
	if etching.Terms != nil {
		entry.MintsRemaining = lo.FromPtr(etching.Terms.Cap)
	}
	if err := table.CreateRuneEntry(ctx, entry); err != nil {
		return errors.Wrap(err, "failed to create rune entry")
	}

	if !entry.Premine.IsZero() {
		if err := sheet.Credit(entry.RuneId, entry.Premine); err != nil {
			return errors.Wrap(err, "failed to credit premine")
		}
	}
	logger.DebugContext(ctx, "etched rune",
		slogx.RuneId(entry.RuneId),
		slogx.Stringer("spaced_rune", entry.SpacedRune),
		slogx.String("premine", formatAmount(ctx, table, entry.RuneId, entry.Premine)),
	)
	return nil
}

// etchedRune returns the name of an etching. Etchings without a name take the reserved name of their
// transaction. The name must lie between the name floor at height and the reserved range either way.
func (p *Processor) etchedRune(ctx context.Context, etching *runes.Etching, tx *types.Transaction, height uint64) (runes.Rune, bool) {
	name := runes.ReservedRune(height, tx.Index)
	if etching.Rune != nil {
		name = *etching.Rune
	}
	if minimum := runes.MinimumNameAt(height, p.genesisHeight, constants.HeightInterval); name.Cmp(minimum) < 0 {
		logger.DebugContext(ctx, "etch rejected: rune name below minimum",
			slogx.Stringer("rune", name),
			slogx.Stringer("minimum", minimum),
		)
		return runes.Rune{}, false
	}
	if name.Cmp(runes.ReservedName) >= 0 {
		logger.DebugContext(ctx, "etch rejected: rune name is reserved", slogx.Stringer("rune", name))
		return runes.Rune{}, false
	}
	return name, true
}
