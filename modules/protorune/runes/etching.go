package runes

import (
	"math"
	"unicode/utf8"

	"github.com/gaze-network/uint128"
)

const (
	MaxDivisibility uint8  = 38
	MaxSpacers      uint32 = 0b00000111_11111111_11111111_11111111
)

type Terms struct {
	// Amount credited by each mint
	Amount *uint128.Uint128
	// Number of allowed mints
	Cap *uint128.Uint128
	// Absolute window, start inclusive and end exclusive
	HeightStart *uint64
	HeightEnd   *uint64
	// Window relative to the etching height, start inclusive and end exclusive
	OffsetStart *uint64
	OffsetEnd   *uint64
}

// Etching is the etch request of a runestone. Values that were present but invalid are nil.
type Etching struct {
	Rune         *Rune
	Divisibility *uint8
	Spacers      *uint32
	Symbol       *rune
	Premine      *uint128.Uint128
	// Terms is set only when the terms flag is set.
	Terms *Terms
}

func etchingFromFields(fields Fields, flags Flags) *Etching {
	if !flags.Has(FlagEtching) {
		return nil
	}
	etching := &Etching{
		Premine: fields.FirstPtr(TagPremine),
	}
	if v, ok := fields.First(TagRune); ok {
		r := Rune(v)
		etching.Rune = &r
	}
	if v, ok := fields.First(TagDivisibility); ok && v.Cmp64(uint64(MaxDivisibility)) <= 0 {
		d := v.Uint8()
		etching.Divisibility = &d
	}
	if v, ok := fields.First(TagSpacers); ok && v.Cmp64(uint64(MaxSpacers)) <= 0 {
		s := v.Uint32()
		etching.Spacers = &s
	}
	if v, ok := fields.First(TagSymbol); ok && v.Cmp64(utf8.MaxRune) <= 0 && utf8.ValidRune(rune(v.Uint32())) {
		s := rune(v.Uint32())
		etching.Symbol = &s
	}
	if flags.Has(FlagTerms) {
		etching.Terms = &Terms{
			Amount:      fields.FirstPtr(TagAmount),
			Cap:         fields.FirstPtr(TagCap),
			HeightStart: saturatedUint64Field(fields, TagHeightStart),
			HeightEnd:   saturatedUint64Field(fields, TagHeightEnd),
			OffsetStart: saturatedUint64Field(fields, TagOffsetStart),
			OffsetEnd:   saturatedUint64Field(fields, TagOffsetEnd),
		}
	}
	return etching
}

func saturatedUint64Field(fields Fields, tag Tag) *uint64 {
	v, ok := fields.First(tag)
	if !ok {
		return nil
	}
	n := uint64(math.MaxUint64)
	if v.IsUint64() {
		n = v.Uint64()
	}
	return &n
}

func (e *Etching) addFields(fields Fields, flags *Flags) {
	flags.Set(FlagEtching)
	if e.Rune != nil {
		fields.Add(TagRune, e.Rune.Uint128())
	}
	if e.Divisibility != nil {
		fields.Add(TagDivisibility, uint128.From64(uint64(*e.Divisibility)))
	}
	if e.Spacers != nil {
		fields.Add(TagSpacers, uint128.From64(uint64(*e.Spacers)))
	}
	if e.Symbol != nil {
		fields.Add(TagSymbol, uint128.From64(uint64(*e.Symbol)))
	}
	if e.Premine != nil {
		fields.Add(TagPremine, *e.Premine)
	}
	if e.Terms == nil {
		return
	}
	flags.Set(FlagTerms)
	terms := e.Terms
	if terms.Amount != nil {
		fields.Add(TagAmount, *terms.Amount)
	}
	if terms.Cap != nil {
		fields.Add(TagCap, *terms.Cap)
	}
	for tag, v := range map[Tag]*uint64{
		TagHeightStart: terms.HeightStart,
		TagHeightEnd:   terms.HeightEnd,
		TagOffsetStart: terms.OffsetStart,
		TagOffsetEnd:   terms.OffsetEnd,
	} {
		if v != nil {
			fields.Add(tag, uint128.From64(*v))
		}
	}
}
