package runes

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
)

// RuneEntry is the registered metadata of an etched rune.
type RuneEntry struct {
	RuneId        RuneId
	SpacedRune    SpacedRune
	Divisibility  uint8
	Symbol        rune
	EtchingHeight uint64
	Premine       uint128.Uint128
	// Terms is nil for runes etched without minting terms.
	Terms *Terms
	// MintsRemaining starts at the cap and drops by one per mint.
	MintsRemaining uint128.Uint128
}

var (
	ErrUnmintable      = errors.New("rune is not mintable")
	ErrMintCapReached  = errors.New("rune mint cap reached")
	ErrMintBeforeStart = errors.New("rune minting has not started")
	ErrMintAfterEnd    = errors.New("rune minting has ended")
)

// GetMintableAmount returns the amount a mint at height would credit.
func (e *RuneEntry) GetMintableAmount(height uint64) (uint128.Uint128, error) {
	if e.Terms == nil {
		return uint128.Uint128{}, ErrUnmintable
	}
	if e.MintsRemaining.IsZero() {
		return uint128.Uint128{}, ErrMintCapReached
	}
	if !e.IsMintStarted(height) {
		return uint128.Uint128{}, ErrMintBeforeStart
	}
	if e.IsMintEnded(height) {
		return uint128.Uint128{}, ErrMintAfterEnd
	}
	return lo.FromPtr(e.Terms.Amount), nil
}

// IsMintStarted checks the start bounds. A zero bound is unbounded.
func (e *RuneEntry) IsMintStarted(height uint64) bool {
	if e.Terms == nil {
		return false
	}
	if start := lo.FromPtr(e.Terms.HeightStart); start != 0 && height < start {
		return false
	}
	if offset := lo.FromPtr(e.Terms.OffsetStart); offset != 0 && height < saturatingAdd(e.EtchingHeight, offset) {
		return false
	}
	return true
}

// IsMintEnded checks the exclusive end bounds. A zero bound is unbounded.
func (e *RuneEntry) IsMintEnded(height uint64) bool {
	if e.Terms == nil {
		return false
	}
	if end := lo.FromPtr(e.Terms.HeightEnd); end != 0 && height >= end {
		return true
	}
	if offset := lo.FromPtr(e.Terms.OffsetEnd); offset != 0 && height >= saturatingAdd(e.EtchingHeight, offset) {
		return true
	}
	return false
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
