package kv

import (
	"context"

	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/internal/kv"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
)

var _ datagateway.RuneTableDataGateway = (*table)(nil)

// table is one namespace of rune metadata. Metadata is keyed by the 16-byte name,
// balances by the outpoint key.
type table struct {
	etchingToRuneId  kv.Pointer
	runeIdToEtching  kv.Pointer
	runeIdToHeight   kv.Pointer
	divisibility     kv.Pointer
	spacers          kv.Pointer
	symbol           kv.Pointer
	premine          kv.Pointer
	terms            kv.Pointer
	amount           kv.Pointer
	cap              kv.Pointer
	mintsRemaining   kv.Pointer
	heightStart      kv.Pointer
	heightEnd        kv.Pointer
	offsetStart      kv.Pointer
	offsetEnd        kv.Pointer
	etchings         kv.Pointer
	outPointBalances kv.Pointer
	messages         kv.Pointer
}

func newTable(root kv.Pointer) *table {
	return &table{
		etchingToRuneId:  root.Keyword("etching/runeid/"),
		runeIdToEtching:  root.Keyword("runeid/etching/"),
		runeIdToHeight:   root.Keyword("runeid/height/"),
		divisibility:     root.Keyword("divisibility/"),
		spacers:          root.Keyword("spacers/"),
		symbol:           root.Keyword("symbol/"),
		premine:          root.Keyword("premine/"),
		terms:            root.Keyword("terms/"),
		amount:           root.Keyword("amount/"),
		cap:              root.Keyword("cap/"),
		mintsRemaining:   root.Keyword("mints-remaining/"),
		heightStart:      root.Keyword("height-start/"),
		heightEnd:        root.Keyword("height-end/"),
		offsetStart:      root.Keyword("offset-start/"),
		offsetEnd:        root.Keyword("offset-end/"),
		etchings:         root.Keyword("etchings"),
		outPointBalances: root.Keyword("outpoint/balances/"),
		messages:         root.Keyword("messages"),
	}
}

func (t *table) GetRuneIdFromRune(ctx context.Context, rune runes.Rune) (runes.RuneId, error) {
	value, err := t.etchingToRuneId.Select(rune.Bytes()).Get(ctx)
	if err != nil {
		return runes.RuneId{}, errors.WithStack(err)
	}
	if len(value) == 0 {
		return runes.RuneId{}, errors.WithStack(errs.NotFound)
	}
	runeId, err := runes.RuneIdFromBytes(value)
	if err != nil {
		return runes.RuneId{}, errors.Wrap(err, "invalid stored rune id")
	}
	return runeId, nil
}

func (t *table) getRune(ctx context.Context, runeId runes.RuneId) (runes.Rune, error) {
	value, err := t.runeIdToEtching.Select(runeId.Bytes()).Get(ctx)
	if err != nil {
		return runes.Rune{}, errors.WithStack(err)
	}
	if len(value) == 0 {
		return runes.Rune{}, errors.WithStack(errs.NotFound)
	}
	rune, err := runes.RuneFromBytes(value)
	if err != nil {
		return runes.Rune{}, errors.Wrap(err, "invalid stored rune")
	}
	return rune, nil
}

func (t *table) GetRuneEntryByRuneId(ctx context.Context, runeId runes.RuneId) (*runes.RuneEntry, error) {
	rune, err := t.getRune(ctx, runeId)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	name := rune.Bytes()

	entry := &runes.RuneEntry{RuneId: runeId}
	if entry.EtchingHeight, err = t.runeIdToHeight.Select(runeId.Bytes()).Uint64(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	if entry.Divisibility, err = t.divisibility.Select(name).Uint8(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	spacers, err := t.spacers.Select(name).Uint32(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	entry.SpacedRune = runes.NewSpacedRune(rune, spacers)
	symbol, err := t.symbol.Select(name).Uint32(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	entry.Symbol = int32(symbol)
	if entry.Premine, err = t.premine.Select(name).Uint128(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	if entry.MintsRemaining, err = t.mintsRemaining.Select(name).Uint128(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	hasTerms, err := t.terms.Select(name).Uint8(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if hasTerms == 0 {
		return entry, nil
	}
	terms := &runes.Terms{}
	if terms.Amount, err = optionalUint128(ctx, t.amount.Select(name)); err != nil {
		return nil, errors.WithStack(err)
	}
	if terms.Cap, err = optionalUint128(ctx, t.cap.Select(name)); err != nil {
		return nil, errors.WithStack(err)
	}
	if terms.HeightStart, err = optionalUint64(ctx, t.heightStart.Select(name)); err != nil {
		return nil, errors.WithStack(err)
	}
	if terms.HeightEnd, err = optionalUint64(ctx, t.heightEnd.Select(name)); err != nil {
		return nil, errors.WithStack(err)
	}
	if terms.OffsetStart, err = optionalUint64(ctx, t.offsetStart.Select(name)); err != nil {
		return nil, errors.WithStack(err)
	}
	if terms.OffsetEnd, err = optionalUint64(ctx, t.offsetEnd.Select(name)); err != nil {
		return nil, errors.WithStack(err)
	}
	entry.Terms = terms
	return entry, nil
}

func (t *table) CreateRuneEntry(ctx context.Context, entry *runes.RuneEntry) error {
	rune := entry.SpacedRune.Rune
	name := rune.Bytes()
	id := entry.RuneId.Bytes()

	writes := []func() error{
		func() error { return t.etchingToRuneId.Select(name).Set(ctx, id) },
		func() error { return t.runeIdToEtching.Select(id).Set(ctx, name) },
		func() error { return t.runeIdToHeight.Select(id).SetUint64(ctx, entry.EtchingHeight) },
	}
	if entry.Divisibility != 0 {
		writes = append(writes, func() error { return t.divisibility.Select(name).SetUint8(ctx, entry.Divisibility) })
	}
	if entry.SpacedRune.Spacers != 0 {
		writes = append(writes, func() error { return t.spacers.Select(name).SetUint32(ctx, entry.SpacedRune.Spacers) })
	}
	if entry.Symbol != 0 {
		writes = append(writes, func() error { return t.symbol.Select(name).SetUint32(ctx, uint32(entry.Symbol)) })
	}
	if !entry.Premine.IsZero() {
		writes = append(writes, func() error { return t.premine.Select(name).SetUint128(ctx, entry.Premine) })
	}
	if terms := entry.Terms; terms != nil {
		writes = append(writes,
			func() error { return t.terms.Select(name).SetUint8(ctx, 1) },
			func() error { return t.mintsRemaining.Select(name).SetUint128(ctx, entry.MintsRemaining) },
			func() error { return setOptionalUint128(ctx, t.amount.Select(name), terms.Amount) },
			func() error { return setOptionalUint128(ctx, t.cap.Select(name), terms.Cap) },
			func() error { return setOptionalUint64(ctx, t.heightStart.Select(name), terms.HeightStart) },
			func() error { return setOptionalUint64(ctx, t.heightEnd.Select(name), terms.HeightEnd) },
			func() error { return setOptionalUint64(ctx, t.offsetStart.Select(name), terms.OffsetStart) },
			func() error { return setOptionalUint64(ctx, t.offsetEnd.Select(name), terms.OffsetEnd) },
		)
	}
	writes = append(writes, func() error { return t.etchings.Append(ctx, name) })

	for _, write := range writes {
		if err := write(); err != nil {
			return errors.Wrapf(err, "failed to create rune entry %s", entry.SpacedRune)
		}
	}
	return nil
}

func (t *table) UpdateMintsRemaining(ctx context.Context, runeId runes.RuneId, remaining uint128.Uint128) error {
	rune, err := t.getRune(ctx, runeId)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(t.mintsRemaining.Select(rune.Bytes()).SetUint128(ctx, remaining))
}

func (t *table) GetEtchings(ctx context.Context) ([]runes.Rune, error) {
	items, err := t.etchings.List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	etchings := make([]runes.Rune, 0, len(items))
	for _, item := range items {
		rune, err := runes.RuneFromBytes(item)
		if err != nil {
			return nil, errors.Wrap(err, "invalid stored etching")
		}
		etchings = append(etchings, rune)
	}
	return etchings, nil
}

func (t *table) GetBalanceSheet(ctx context.Context, outPoint wire.OutPoint) (*runes.BalanceSheet, error) {
	sheet, cenotaph, err := t.GetBalanceSheetWithFlag(ctx, outPoint)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if cenotaph {
		return runes.NewBalanceSheet(), nil
	}
	return sheet, nil
}

func (t *table) GetBalanceSheetWithFlag(ctx context.Context, outPoint wire.OutPoint) (*runes.BalanceSheet, bool, error) {
	value, err := t.outPointBalances.Select(runes.OutPointKey(outPoint)).Get(ctx)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	sheet, cenotaph, err := runes.DecodeBalanceSheet(value)
	if err != nil {
		return nil, false, errors.Wrapf(err, "invalid balance sheet at %s", outPoint)
	}
	return sheet, cenotaph, nil
}

func (t *table) SaveBalanceSheet(ctx context.Context, outPoint wire.OutPoint, sheet *runes.BalanceSheet, cenotaph bool) error {
	return errors.WithStack(t.outPointBalances.Select(runes.OutPointKey(outPoint)).Set(ctx, sheet.Encode(cenotaph)))
}

func (t *table) AppendMessage(ctx context.Context, calldata []byte) error {
	return errors.WithStack(t.messages.Append(ctx, calldata))
}

func (t *table) GetMessages(ctx context.Context) ([][]byte, error) {
	messages, err := t.messages.List(ctx)
	return messages, errors.WithStack(err)
}

func optionalUint128(ctx context.Context, p kv.Pointer) (*uint128.Uint128, error) {
	exists, err := p.Exists(ctx)
	if err != nil || !exists {
		return nil, errors.WithStack(err)
	}
	v, err := p.Uint128(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &v, nil
}

func optionalUint64(ctx context.Context, p kv.Pointer) (*uint64, error) {
	exists, err := p.Exists(ctx)
	if err != nil || !exists {
		return nil, errors.WithStack(err)
	}
	v, err := p.Uint64(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &v, nil
}

func setOptionalUint128(ctx context.Context, p kv.Pointer, v *uint128.Uint128) error {
	if v == nil {
		return nil
	}
	return p.SetUint128(ctx, *v)
}

func setOptionalUint64(ctx context.Context, p kv.Pointer, v *uint64) error {
	if v == nil {
		return nil
	}
	return p.SetUint64(ctx, *v)
}
