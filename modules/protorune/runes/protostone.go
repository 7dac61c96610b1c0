package runes

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/pkg/leb128"
)

// ProtostoneKind is the variant of a protostone. A stone with a BURN field is a burn even when it also
// carries a message, and a stone with a MESSAGE field is a message even when it also carries edicts.
type ProtostoneKind uint8

const (
	ProtostoneKindNone ProtostoneKind = iota
	ProtostoneKindBurn
	ProtostoneKindMessage
	ProtostoneKindPlainEdict
)

func (k ProtostoneKind) String() string {
	switch k {
	case ProtostoneKindBurn:
		return "burn"
	case ProtostoneKindMessage:
		return "message"
	case ProtostoneKindPlainEdict:
		return "edict"
	}
	return "none"
}

// Protostone is a sub-protocol message nested in the PROTORUNE field.
type Protostone struct {
	ProtocolTag uint128.Uint128
	Fields      Fields
	Edicts      []Edict
}

// ProtoBurn asks for the runestone output's balance to be migrated to the table of ProtocolTag
// and credited to output Pointer.
type ProtoBurn struct {
	ProtocolTag uint128.Uint128
	Pointer     uint32
}

// packedWidth is the number of payload bytes carried by each u128 of a packed stream.
const packedWidth = 15

// UnpackBytes concatenates the low 15 bytes of every value, little-endian, and trims trailing zeros.
func UnpackBytes(values []uint128.Uint128) []byte {
	return bytes.TrimRight(unpackWords(values), "\x00")
}

func unpackWords(values []uint128.Uint128) []byte {
	b := make([]byte, 0, len(values)*packedWidth)
	word := make([]byte, 16)
	for _, v := range values {
		v.PutBytes(word)
		b = append(b, word[:packedWidth]...)
	}
	return b
}

// PackBytes is the inverse of [UnpackBytes].
func PackBytes(b []byte) []uint128.Uint128 {
	values := make([]uint128.Uint128, 0, len(b)/packedWidth+1)
	for start := 0; start < len(b); start += packedWidth {
		word := make([]byte, 16)
		copy(word, b[start:min(start+packedWidth, len(b))])
		values = append(values, uint128.FromBytes(word))
	}
	return values
}

// DecodeProtostones parses the packed stream of a PROTORUNE field. The stream is a sequence of
// protocol tag, integer count and that many integers forming a tag/value message.
// A zero protocol tag ends the stream, so the padding of the last value is never read as a stone.
func DecodeProtostones(values []uint128.Uint128) ([]Protostone, error) {
	cursor := leb128.NewCursor(unpackWords(values))
	var stones []Protostone
	for cursor.Len() > 0 {
		protocolTag, err := cursor.Next()
		if err != nil {
			return nil, errors.WithStack(errors.Join(ErrTruncated, err))
		}
		if protocolTag.IsZero() {
			break
		}
		length, err := cursor.Next()
		if err != nil {
			return nil, errors.WithStack(errors.Join(ErrTruncated, err))
		}
		if !length.IsUint32() {
			return nil, errors.Wrapf(ErrTruncated, "protostone length %s out of range", length)
		}
		integers := make([]uint128.Uint128, 0, min(int(length.Uint32()), cursor.Len()))
		for i := uint32(0); i < length.Uint32(); i++ {
			n, err := cursor.Next()
			if err != nil {
				return nil, errors.WithStack(errors.Join(ErrTruncated, err))
			}
			integers = append(integers, n)
		}
		message, err := MessageFromIntegers(integers)
		if err != nil {
			return nil, errors.Wrapf(err, "protostone %d", len(stones))
		}
		edicts, err := NormalizeEdicts(message.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "protostone %d", len(stones))
		}
		stones = append(stones, Protostone{
			ProtocolTag: protocolTag,
			Fields:      message.Fields,
			Edicts:      edicts,
		})
	}
	return stones, nil
}

// EncodeProtostones is the inverse of [DecodeProtostones].
func EncodeProtostones(stones []Protostone) []uint128.Uint128 {
	var stream []byte
	for _, stone := range stones {
		message := &Message{Fields: stone.Fields, Body: DeltaEncodeEdicts(stone.Edicts)}
		if message.Fields == nil {
			message.Fields = make(Fields)
		}
		integers := message.Integers()
		stream = leb128.AppendUint128(stream, stone.ProtocolTag)
		stream = leb128.AppendUint128(stream, uint128.From64(uint64(len(integers))))
		stream = append(stream, EncodeIntegers(integers)...)
	}
	return PackBytes(stream)
}

func (p Protostone) Kind() ProtostoneKind {
	switch {
	case p.Fields.Has(TagProtoBurn):
		return ProtostoneKindBurn
	case p.Fields.Has(TagProtoMessage):
		return ProtostoneKindMessage
	case len(p.Edicts) > 0:
		return ProtostoneKindPlainEdict
	}
	return ProtostoneKindNone
}

// Burn returns the burn request of a burn stone. It needs a BURN field and a POINTER that fits u32.
func (p Protostone) Burn() (ProtoBurn, bool) {
	tag, ok := p.Fields.First(TagProtoBurn)
	if !ok {
		return ProtoBurn{}, false
	}
	pointer, ok := p.Pointer()
	if !ok {
		return ProtoBurn{}, false
	}
	return ProtoBurn{ProtocolTag: tag, Pointer: pointer}, true
}

// Calldata returns the opaque payload of a message stone.
func (p Protostone) Calldata() []byte {
	return UnpackBytes(p.Fields[TagProtoMessage])
}

func (p Protostone) Pointer() (uint32, bool) {
	return p.uint32Field(TagProtoPointer)
}

func (p Protostone) Refund() (uint32, bool) {
	return p.uint32Field(TagProtoRefund)
}

func (p Protostone) uint32Field(tag Tag) (uint32, bool) {
	v, ok := p.Fields.First(tag)
	if !ok || !v.IsUint32() {
		return 0, false
	}
	return v.Uint32(), true
}
