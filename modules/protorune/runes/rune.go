package runes

import (
	"math/big"
	"slices"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

// Rune is the integer form of a rune name. Names are a modified base-26 over A-Z,
// so "A" is 0, "Z" is 25 and "AA" is 26.
type Rune uint128.Uint128

var (
	// MinimumName is the shortest name etchable at the genesis height, "AAAAAAAAAAAAA".
	MinimumName = Rune(uint128.From64(99246114928149462))

	// ReservedName is the first reserved name. Etched names must be below it.
	ReservedName = Rune(utils.Must(uint128.FromString("6402364363415443603228541259936211926")))
)

func NewRune(value uint64) Rune {
	return Rune(uint128.From64(value))
}

var ErrInvalidBase26 = errs.ErrorKind("invalid base-26 character: must be in the range [A-Z]")

// NewRuneFromString parses a name of letters A-Z.
func NewRuneFromString(name string) (Rune, error) {
	x := new(big.Int)
	one, twentySix := big.NewInt(1), big.NewInt(26)
	for i, char := range name {
		if char < 'A' || char > 'Z' {
			return Rune{}, ErrInvalidBase26
		}
		if i > 0 {
			x.Add(x, one)
		}
		x.Mul(x, twentySix)
		x.Add(x, big.NewInt(int64(char-'A')))
	}
	n, err := uint128.FromBig(x)
	if err != nil {
		return Rune{}, errs.OverflowUint128
	}
	return Rune(n), nil
}

func (r Rune) Uint128() uint128.Uint128 {
	return uint128.Uint128(r)
}

func (r Rune) Cmp(other Rune) int {
	return r.Uint128().Cmp(other.Uint128())
}

// String returns the letters of the name.
func (r Rune) String() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	one, twentySix := big.NewInt(1), big.NewInt(26)

	value := new(big.Int).Add(r.Uint128().Big(), one)
	var encoded []byte
	for value.Sign() > 0 {
		value.Sub(value, one)
		idx := new(big.Int).Mod(value, twentySix).Int64()
		encoded = append(encoded, chars[idx])
		value.Div(value, twentySix)
	}
	slices.Reverse(encoded)
	return string(encoded)
}

// Bytes returns the 16-byte big-endian storage key of the name.
func (r Rune) Bytes() []byte {
	b := make([]byte, 16)
	r.Uint128().PutBytesBE(b)
	return b
}

// RuneFromBytes is the inverse of [Rune.Bytes].
func RuneFromBytes(b []byte) (Rune, error) {
	if len(b) != 16 {
		return Rune{}, errs.InvalidArgument
	}
	return Rune(uint128.FromBytesBE(b)), nil
}

// MinimumNameAt returns the smallest explicit name that can be etched at height.
// The floor starts at MinimumName and drops by one base-26 digit, m = (m-1)/26,
// for every whole interval elapsed since genesis.
func MinimumNameAt(height, genesis, interval uint64) Rune {
	m := MinimumName.Uint128()
	if height < genesis || interval == 0 {
		return Rune(m)
	}
	for steps := (height - genesis) / interval; steps > 0 && !m.IsZero(); steps-- {
		m = m.Sub64(1).Div64(26)
	}
	return Rune(m)
}

// ReservedRune derives the name of an etching that does not declare one.
func ReservedRune(height uint64, txIndex uint32) Rune {
	offset := uint128.From64(height).Lsh(32).Or64(uint64(txIndex))
	return Rune(ReservedName.Uint128().Add(offset))
}
