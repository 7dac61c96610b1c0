package protorune

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

// processProtocol moves the balances of tag's table spent by tx. Protostone edicts of the protocol run first,
// then every message of the protocol is dispatched with the sub-balance of its virtual output.
// Whatever is left goes to target, like the base table.
func (p *Processor) processProtocol(
	ctx context.Context,
	dg datagateway.ProtoruneDataGatewayWithTx,
	tx *types.Transaction,
	height uint64,
	tag uint128.Uint128,
	stones []runes.Protostone,
	target outputTarget,
) error {
	ctx = logger.WithContext(ctx, slogx.Stringer("protocol", tag))
	table := dg.Protocol(tag)
	sheet, err := loadInputSheet(ctx, table, tx)
	if err != nil {
		return errors.WithStack(err)
	}

	own := lo.Filter(stones, func(stone runes.Protostone, _ int) bool {
		return stone.ProtocolTag == tag
	})
	messages := lo.Filter(own, func(stone runes.Protostone, _ int) bool {
		return stone.Kind() == runes.ProtostoneKindMessage
	})
	numOutputs := uint32(len(tx.TxOut))
	numVirtualOutputs := numOutputs + uint32(len(messages))

	alloc := newAllocation()
	var cenotaph bool
	for i, stone := range own {
		if _, ok := lo.Find(stone.Edicts, func(edict runes.Edict) bool { return edict.Output >= numVirtualOutputs }); ok {
			logger.DebugContext(ctx, "ignored protostone: edict output out of range", slogx.Int("protostone", i))
			continue
		}
		overdrawn, err := p.allocateEdicts(ctx, nil, tx, height, sheet, alloc, stone.Edicts)
		if err != nil {
			return errors.WithStack(err)
		}
		cenotaph = cenotaph || overdrawn
	}

	handler := p.handler(tag)
	for k, stone := range messages {
		vout := numOutputs + uint32(k)
		balances := alloc.take(vout)
		accepted, err := handler.Handle(ctx, &MessageContext{
			ProtocolTag: tag,
			Transaction: tx,
			Height:      height,
			Vout:        vout,
			Calldata:    stone.Calldata(),
			Balances:    balances,
			Table:       table,
			Writer:      dg,
		})
		if err != nil {
			return errors.Wrapf(err, "message handler failed on message %d", k)
		}

		next := target
		destination, ok := stone.Refund()
		if accepted {
			destination, ok = stone.Pointer()
		}
		if ok && destination < numOutputs {
			next = outputTarget{vout: destination, ok: true}
		}
		logger.DebugContext(ctx, "handled protocol message",
			slogx.Uint32("vout", vout),
			slogx.Bool("accepted", accepted),
			slogx.Uint32("destination", next.vout),
		)
		if err := alloc.transferRemainder(ctx, balances, next); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := alloc.transferRemainder(ctx, sheet, target); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(alloc.save(ctx, table, tx, cenotaph))
}

// protoBurns returns the honored burns of stones, in declaration order. Both the protostone's protocol
// and the burn's destination must be allow-listed, and the burn pointer must be a real output.
func (p *Processor) protoBurns(ctx context.Context, tx *types.Transaction, stones []runes.Protostone) []runes.ProtoBurn {
	var burns []runes.ProtoBurn
	for i, stone := range stones {
		if stone.Kind() != runes.ProtostoneKindBurn || !p.isAllowed(stone.ProtocolTag) {
			continue
		}
		burn, ok := stone.Burn()
		if !ok {
			logger.DebugContext(ctx, "ignored protoburn: missing pointer", slogx.Int("protostone", i))
			continue
		}
		if !p.isAllowed(burn.ProtocolTag) {
			logger.DebugContext(ctx, "ignored protoburn: protocol not indexed", slogx.Stringer("protocol", burn.ProtocolTag))
			continue
		}
		if int(burn.Pointer) >= len(tx.TxOut) {
			logger.DebugContext(ctx, "ignored protoburn: pointer out of range", slogx.Uint32("pointer", burn.Pointer))
			continue
		}
		burns = append(burns, burn)
	}
	return burns
}

// processProtoburns migrates the credits of the runestone output into protocol tables.
// The n-th credit of a rune goes to the n-th burn. Credits without a matching burn stay in the base table.
func (p *Processor) processProtoburns(ctx context.Context, dg datagateway.ProtoruneDataGatewayWithTx, tx *types.Transaction, stones []runes.Protostone, credits []runes.BalanceEntry) error {
	burns := p.protoBurns(ctx, tx, stones)
	if len(burns) == 0 {
		return nil
	}

	routed := make([]*runes.BalanceSheet, len(burns))
	for i := range routed {
		routed[i] = runes.NewBalanceSheet()
	}
	occurrences := make(map[runes.RuneId]int)
	for _, credit := range credits {
		n := occurrences[credit.Id]
		occurrences[credit.Id]++
		if n >= len(burns) {
			continue
		}
		if err := routed[n].Credit(credit.Id, credit.Amount); err != nil {
			return errors.WithStack(err)
		}
	}

	base := dg.Base()
	for i, burn := range burns {
		sheet := routed[i]
		if sheet.IsEmpty() {
			continue
		}
		table := dg.Protocol(burn.ProtocolTag)
		for _, entry := range sheet.Entries() {
			if err := migrateRuneEntry(ctx, base, table, entry.Id); err != nil {
				return errors.WithStack(err)
			}
		}

		outPoint := tx.OutPoint(burn.Pointer)
		existing, cenotaph, err := table.GetBalanceSheetWithFlag(ctx, outPoint)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := existing.Merge(sheet); err != nil {
			return errors.Wrap(err, "failed to merge protoburn")
		}
		if err := table.SaveBalanceSheet(ctx, outPoint, existing, cenotaph); err != nil {
			return errors.Wrap(err, "failed to save protoburn balance sheet")
		}
		logger.DebugContext(ctx, "protoburned balances",
			slogx.Stringer("protocol", burn.ProtocolTag),
			slogx.Uint32("pointer", burn.Pointer),
			slogx.Int("runes", len(sheet.Entries())),
		)
	}
	return nil
}

// migrateRuneEntry copies the metadata of runeId from the base table into a protocol table,
// the first time the rune enters it.
func migrateRuneEntry(ctx context.Context, base, table datagateway.RuneTableDataGateway, runeId runes.RuneId) error {
	_, err := table.GetRuneEntryByRuneId(ctx, runeId)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.NotFound) {
		return errors.Wrap(err, "failed to get protocol rune entry")
	}
	entry, err := base.GetRuneEntryByRuneId(ctx, runeId)
	if err != nil {
		return errors.Wrapf(err, "failed to get rune entry %s", runeId)
	}
	return errors.WithStack(table.CreateRuneEntry(ctx, &runes.RuneEntry{
		RuneId:        entry.RuneId,
		SpacedRune:    entry.SpacedRune,
		Divisibility:  entry.Divisibility,
		Symbol:        entry.Symbol,
		EtchingHeight: entry.EtchingHeight,
	}))
}
