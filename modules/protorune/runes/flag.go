package runes

import "github.com/gaze-network/uint128"

// Flag is a single bit of the FLAGS field.
type Flag uint8

const (
	FlagEtching  = Flag(0)
	FlagTerms    = Flag(1)
	FlagCenotaph = Flag(127)
)

func (f Flag) Mask() Flags {
	return Flags(uint128.From64(1).Lsh(uint(f)))
}

// Flags is the bitmask value of the FLAGS field.
type Flags uint128.Uint128

func (f Flags) Uint128() uint128.Uint128 {
	return uint128.Uint128(f)
}

func (f Flags) Has(flag Flag) bool {
	return !f.Uint128().And(flag.Mask().Uint128()).IsZero()
}

// Take reports whether flag is set and clears it.
func (f *Flags) Take(flag Flag) bool {
	found := f.Has(flag)
	if found {
		*f = Flags(f.Uint128().Sub(flag.Mask().Uint128()))
	}
	return found
}

func (f *Flags) Set(flag Flag) {
	*f = Flags(f.Uint128().Or(flag.Mask().Uint128()))
}
