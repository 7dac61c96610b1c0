package runes

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

// RuneId is the block height and transaction index of the etching that created a rune.
type RuneId struct {
	Block uint64
	Tx    uint32
}

func NewRuneId(block uint64, tx uint32) RuneId {
	return RuneId{Block: block, Tx: tx}
}

var (
	ErrInvalidSeparator       = errors.New("invalid rune id: must contain exactly one separator")
	ErrCannotParseBlockHeight = errors.New("invalid rune id: cannot parse block height")
	ErrCannotParseTxIndex     = errors.New("invalid rune id: cannot parse tx index")
)

func NewRuneIdFromString(str string) (RuneId, error) {
	strs := strings.Split(str, ":")
	if len(strs) != 2 {
		return RuneId{}, ErrInvalidSeparator
	}
	block, err := strconv.ParseUint(strs[0], 10, 64)
	if err != nil {
		return RuneId{}, errors.WithStack(errors.Join(err, ErrCannotParseBlockHeight))
	}
	tx, err := strconv.ParseUint(strs[1], 10, 32)
	if err != nil {
		return RuneId{}, errors.WithStack(errors.Join(err, ErrCannotParseTxIndex))
	}
	return RuneId{Block: block, Tx: uint32(tx)}, nil
}

func (r RuneId) String() string {
	return fmt.Sprintf("%d:%d", r.Block, r.Tx)
}

// Bytes returns the 32-byte key of the id: block and tx as two big-endian u128 values.
func (r RuneId) Bytes() []byte {
	b := make([]byte, 32)
	binary.BigEndian.PutUint64(b[8:16], r.Block)
	binary.BigEndian.PutUint32(b[28:32], r.Tx)
	return b
}

// RuneIdFromBytes is the inverse of [RuneId.Bytes].
func RuneIdFromBytes(b []byte) (RuneId, error) {
	if len(b) != 32 {
		return RuneId{}, errors.Wrapf(errs.InvalidArgument, "rune id must be 32 bytes, got %d", len(b))
	}
	if !allZero(b[:8]) || !allZero(b[16:28]) {
		return RuneId{}, errors.Wrap(errs.InvalidArgument, "rune id component out of range")
	}
	return RuneId{
		Block: binary.BigEndian.Uint64(b[8:16]),
		Tx:    binary.BigEndian.Uint32(b[28:32]),
	}, nil
}

// Cmp orders ids by block, then by tx.
func (r RuneId) Cmp(other RuneId) int {
	switch {
	case r.Block < other.Block:
		return -1
	case r.Block > other.Block:
		return 1
	case r.Tx < other.Tx:
		return -1
	case r.Tx > other.Tx:
		return 1
	}
	return 0
}

// Delta returns the delta encoding of next relative to r. next must not be ordered before r.
func (r RuneId) Delta(next RuneId) (uint64, uint32) {
	blockDelta := next.Block - r.Block
	if blockDelta == 0 {
		return 0, next.Tx - r.Tx
	}
	return blockDelta, next.Tx
}

// Next applies a delta to r. A nonzero block delta resets the tx index.
func (r RuneId) Next(blockDelta uint64, txDelta uint32) (RuneId, error) {
	if blockDelta == 0 {
		if uint64(r.Tx)+uint64(txDelta) > math.MaxUint32 {
			return RuneId{}, errors.WithStack(errs.OverflowUint32)
		}
		return RuneId{Block: r.Block, Tx: r.Tx + txDelta}, nil
	}
	if r.Block > math.MaxUint64-blockDelta {
		return RuneId{}, errors.WithStack(errs.OverflowUint64)
	}
	return RuneId{Block: r.Block + blockDelta, Tx: txDelta}, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
