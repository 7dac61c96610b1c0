package runes

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
)

// Edict moves Amount of token Id to Output. The amount is clamped to the available balance.
type Edict struct {
	Id     RuneId
	Amount uint128.Uint128
	Output uint32
}

// NormalizeEdicts resolves delta-encoded quadruplets (dBlock, dTx, amount, output) into absolute ids.
func NormalizeEdicts(body [][4]uint128.Uint128) ([]Edict, error) {
	edicts := make([]Edict, 0, len(body))
	var id RuneId
	for i, quad := range body {
		blockDelta, txDelta, amount, output := quad[0], quad[1], quad[2], quad[3]
		if !blockDelta.IsUint64() || !txDelta.IsUint32() || !output.IsUint32() {
			return nil, errors.Wrapf(ErrTruncated, "edict %d: field out of range", i)
		}
		next, err := id.Next(blockDelta.Uint64(), txDelta.Uint32())
		if err != nil {
			return nil, errors.Wrapf(errors.Join(ErrTruncated, err), "edict %d", i)
		}
		id = next
		edicts = append(edicts, Edict{
			Id:     id,
			Amount: amount,
			Output: output.Uint32(),
		})
	}
	return edicts, nil
}

// DeltaEncodeEdicts is the inverse of [NormalizeEdicts]. Edicts are stably sorted by id first.
func DeltaEncodeEdicts(edicts []Edict) [][4]uint128.Uint128 {
	sorted := slices.Clone(edicts)
	slices.SortStableFunc(sorted, func(a, b Edict) int {
		return a.Id.Cmp(b.Id)
	})

	body := make([][4]uint128.Uint128, 0, len(sorted))
	var previous RuneId
	for _, edict := range sorted {
		blockDelta, txDelta := previous.Delta(edict.Id)
		body = append(body, [4]uint128.Uint128{
			uint128.From64(blockDelta),
			uint128.From64(uint64(txDelta)),
			edict.Amount,
			uint128.From64(uint64(edict.Output)),
		})
		previous = edict.Id
	}
	return body
}
