package runes

import "github.com/gaze-network/uint128"

// Tag identifies a field of a message. Only the low 64 bits of an encoded tag are significant.
type Tag uint64

const (
	TagBody        Tag = 0
	TagFlags       Tag = 2
	TagRune        Tag = 4
	TagPremine     Tag = 6
	TagCap         Tag = 8
	TagAmount      Tag = 10
	TagHeightStart Tag = 12
	TagHeightEnd   Tag = 14
	TagOffsetStart Tag = 16
	TagOffsetEnd   Tag = 18
	TagMint        Tag = 20
	TagPointer     Tag = 22
	TagCenotaph    Tag = 126

	TagDivisibility Tag = 1
	TagSpacers      Tag = 3
	TagSymbol       Tag = 5
	TagNop          Tag = 127

	// TagProtorune carries the packed protostone stream of a runestone.
	TagProtorune Tag = 16383
)

// Tags used inside a protostone.
const (
	TagProtoMessage Tag = 81
	TagProtoBurn    Tag = 83
	TagProtoFrom    Tag = 85
	TagProtoPointer Tag = 91
	TagProtoRefund  Tag = 93
)

// TagFromUint128 returns the tag of an encoded tag value.
func TagFromUint128(v uint128.Uint128) Tag {
	return Tag(v.Lo)
}

func (t Tag) Uint128() uint128.Uint128 {
	return uint128.From64(uint64(t))
}
