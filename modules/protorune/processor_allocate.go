package protorune

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
	"github.com/subfrost/runicbtcfederation/pkg/decimals"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

// outputTarget is the output receiving unallocated balances. ok is false when there is none.
type outputTarget struct {
	vout uint32
	ok   bool
}

// allocation collects the balance sheets credited to the outputs of one transaction, in touch order.
type allocation struct {
	outputs map[uint32]*runes.BalanceSheet
	order   []uint32

	watched *uint32
	// credits lists every credit made to the watched output, in credit order.
	credits []runes.BalanceEntry
}

func newAllocation() *allocation {
	return &allocation{
		outputs: make(map[uint32]*runes.BalanceSheet),
	}
}

func (a *allocation) watch(vout uint32) {
	a.watched = &vout
}

// output returns the sheet of vout, marking it as touched.
func (a *allocation) output(vout uint32) *runes.BalanceSheet {
	sheet, ok := a.outputs[vout]
	if !ok {
		sheet = runes.NewBalanceSheet()
		a.outputs[vout] = sheet
		a.order = append(a.order, vout)
	}
	return sheet
}

func (a *allocation) credit(vout uint32, id runes.RuneId, amount uint128.Uint128) error {
	if err := a.output(vout).Credit(id, amount); err != nil {
		return errors.Wrapf(err, "failed to credit %s to output %d", id, vout)
	}
	if a.watched != nil && *a.watched == vout && !amount.IsZero() {
		a.credits = append(a.credits, runes.BalanceEntry{Id: id, Amount: amount})
	}
	return nil
}

// take removes the sheet of vout from the allocation. It returns an empty sheet if vout was never touched.
func (a *allocation) take(vout uint32) *runes.BalanceSheet {
	sheet, ok := a.outputs[vout]
	if !ok {
		return runes.NewBalanceSheet()
	}
	delete(a.outputs, vout)
	for i, v := range a.order {
		if v == vout {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return sheet
}

// transferRemainder moves everything left in sheet to target. Without a target the remainder is burned.
func (a *allocation) transferRemainder(ctx context.Context, sheet *runes.BalanceSheet, target outputTarget) error {
	if sheet.IsEmpty() {
		return nil
	}
	if !target.ok {
		for _, entry := range sheet.Entries() {
			logger.DebugContext(ctx, "burned unallocated balance", slogx.RuneId(entry.Id), slogx.Stringer("amount", entry.Amount))
		}
		return nil
	}
	for _, entry := range sheet.Entries() {
		if err := a.credit(target.vout, entry.Id, entry.Amount); err != nil {
			return errors.WithStack(err)
		}
		sheet.Debit(entry.Id, entry.Amount)
	}
	return nil
}

// save persists the sheet of every touched output of tx below the transaction's output count.
func (a *allocation) save(ctx context.Context, table datagateway.RuneTableDataGateway, tx *types.Transaction, cenotaph bool) error {
	for _, vout := range a.order {
		if int(vout) >= len(tx.TxOut) {
			continue
		}
		if err := table.SaveBalanceSheet(ctx, tx.OutPoint(vout), a.outputs[vout], cenotaph); err != nil {
			return errors.Wrapf(err, "failed to save balance sheet of output %d", vout)
		}
	}
	return nil
}

// allocateEdicts moves the edict amounts from sheet to their outputs, clamping each to the available balance.
// It reports whether any edict asked for more than was available. Receipts are only recorded when dg is set.
func (p *Processor) allocateEdicts(
	ctx context.Context,
	dg datagateway.ProtoruneDataGatewayWithTx,
	tx *types.Transaction,
	height uint64,
	sheet *runes.BalanceSheet,
	alloc *allocation,
	edicts []runes.Edict,
) (cenotaph bool, err error) {
	var sender *string
	for _, edict := range edicts {
		balance := sheet.Get(edict.Id)
		amount := edict.Amount
		if amount.Cmp(balance) > 0 {
			logger.DebugContext(ctx, "edict amount exceeds balance",
				slogx.RuneId(edict.Id),
				slogx.Stringer("amount", edict.Amount),
				slogx.Stringer("balance", balance),
			)
			cenotaph = true
			amount = balance
		}
		sheet.Debit(edict.Id, amount)
		if err := alloc.credit(edict.Output, edict.Id, amount); err != nil {
			return false, errors.WithStack(err)
		}

		if dg == nil || !p.receipts || amount.IsZero() || int(edict.Output) >= len(tx.TxOut) {
			continue
		}
		address := p.addressOf(ctx, tx.TxOut[edict.Output].PkScript)
		if address == "" {
			continue
		}
		if sender == nil {
			s, err := p.senderOf(ctx, dg, tx)
			if err != nil {
				return false, errors.WithStack(err)
			}
			sender = &s
		}
		if err := dg.AppendReceipt(ctx, height, address, entity.Receipt{
			TxHash: tx.TxHash,
			Vout:   edict.Output,
			RuneId: edict.Id,
			Amount: amount,
			Sender: *sender,
		}); err != nil {
			return false, errors.Wrap(err, "failed to append receipt")
		}
	}
	return cenotaph, nil
}

// senderOf returns the address of the first input whose spent output has one.
func (p *Processor) senderOf(ctx context.Context, dg datagateway.ProtoruneReaderDataGateway, tx *types.Transaction) (string, error) {
	if tx.IsCoinbase() {
		return "", nil
	}
	for _, in := range tx.TxIn {
		output, err := dg.GetOutPointOutput(ctx, in.PreviousOutPoint())
		if err != nil {
			if errors.Is(err, errs.NotFound) {
				continue
			}
			return "", errors.Wrap(err, "failed to get spent output")
		}
		if address := p.addressOf(ctx, output.PkScript); address != "" {
			return address, nil
		}
	}
	return "", nil
}

// formatAmount renders amount of id in display units for logs, falling back to the raw integer.
func formatAmount(ctx context.Context, table datagateway.RuneTableDataGateway, id runes.RuneId, amount uint128.Uint128) string {
	entry, err := table.GetRuneEntryByRuneId(ctx, id)
	if err != nil {
		return amount.String()
	}
	return decimals.Format(amount, entry.Divisibility)
}
