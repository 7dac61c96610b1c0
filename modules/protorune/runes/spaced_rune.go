package runes

import (
	"math/bits"
	"strings"

	"github.com/cockroachdb/errors"
)

// SpacedRune is a rune name with its spacer bitmap, displayed with a bullet after
// every letter whose bit is set.
type SpacedRune struct {
	Rune    Rune
	Spacers uint32
}

func NewSpacedRune(r Rune, spacers uint32) SpacedRune {
	return SpacedRune{Rune: r, Spacers: spacers}
}

var (
	ErrLeadingSpacer              = errors.New("runes cannot start with a spacer")
	ErrTrailingSpacer             = errors.New("runes cannot end with a spacer")
	ErrDoubleSpacer               = errors.New("runes cannot have more than one spacer between characters")
	ErrInvalidSpacedRuneCharacter = errors.New("invalid spaced rune character: must satisfy regex [A-Z•.]")
)

func NewSpacedRuneFromString(input string) (SpacedRune, error) {
	var sb strings.Builder
	var spacers uint32

	for _, c := range input {
		switch {
		case c >= 'A' && c <= 'Z':
			sb.WriteRune(c)
		case c == '•' || c == '.':
			if sb.Len() == 0 {
				return SpacedRune{}, errors.WithStack(ErrLeadingSpacer)
			}
			bit := uint32(1) << (sb.Len() - 1)
			if spacers&bit != 0 {
				return SpacedRune{}, errors.WithStack(ErrDoubleSpacer)
			}
			spacers |= bit
		default:
			return SpacedRune{}, errors.WithStack(ErrInvalidSpacedRuneCharacter)
		}
	}

	if 32-bits.LeadingZeros32(spacers) >= sb.Len() {
		return SpacedRune{}, errors.WithStack(ErrTrailingSpacer)
	}
	r, err := NewRuneFromString(sb.String())
	if err != nil {
		return SpacedRune{}, errors.Wrap(err, "failed to parse rune from string")
	}
	return NewSpacedRune(r, spacers), nil
}

func (r SpacedRune) String() string {
	name := r.Rune.String()
	var sb strings.Builder
	for i, c := range name {
		sb.WriteRune(c)
		if i < len(name)-1 && r.Spacers&(1<<i) != 0 {
			sb.WriteRune('•')
		}
	}
	return sb.String()
}
