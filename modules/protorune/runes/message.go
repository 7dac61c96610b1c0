package runes

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/pkg/leb128"
)

// ErrTruncated is returned when a payload ends in the middle of a varint, a tag/value pair or an edict.
const ErrTruncated = errs.ErrorKind("truncated message")

// Fields holds the values of each tag in the order they appeared.
type Fields map[Tag][]uint128.Uint128

// First returns the first value of tag.
func (f Fields) First(tag Tag) (uint128.Uint128, bool) {
	values := f[tag]
	if len(values) == 0 {
		return uint128.Zero, false
	}
	return values[0], true
}

func (f Fields) FirstPtr(tag Tag) *uint128.Uint128 {
	v, ok := f.First(tag)
	if !ok {
		return nil
	}
	return &v
}

func (f Fields) Has(tag Tag) bool {
	return len(f[tag]) > 0
}

func (f Fields) Add(tag Tag, values ...uint128.Uint128) {
	f[tag] = append(f[tag], values...)
}

// Message is a decoded tag/value stream. Body holds the raw delta-encoded
// edict quadruplets that follow the body tag. Order holds the tag of every
// decoded pair, so the stream can be written back as it was read.
type Message struct {
	Fields Fields
	Body   [][4]uint128.Uint128
	Order  []Tag
}

// DecodeIntegers splits a payload into its varints.
func DecodeIntegers(payload []byte) ([]uint128.Uint128, error) {
	integers := make([]uint128.Uint128, 0, len(payload))
	cursor := leb128.NewCursor(payload)
	for cursor.Len() > 0 {
		n, err := cursor.Next()
		if err != nil {
			return nil, errors.WithStack(errors.Join(ErrTruncated, err))
		}
		integers = append(integers, n)
	}
	return integers, nil
}

func EncodeIntegers(integers []uint128.Uint128) []byte {
	var payload []byte
	for _, n := range integers {
		payload = leb128.AppendUint128(payload, n)
	}
	return payload
}

// MessageFromIntegers reads alternating tags and values until the body tag;
// everything after it must be whole edict quadruplets.
func MessageFromIntegers(integers []uint128.Uint128) (*Message, error) {
	message := &Message{Fields: make(Fields)}
	for i := 0; i < len(integers); i += 2 {
		tag := TagFromUint128(integers[i])
		if tag == TagBody {
			body := integers[i+1:]
			if len(body)%4 != 0 {
				return nil, errors.Wrap(ErrTruncated, "edict body is not a multiple of four integers")
			}
			for _, chunk := range lo.Chunk(body, 4) {
				message.Body = append(message.Body, [4]uint128.Uint128(chunk))
			}
			break
		}
		if i+1 >= len(integers) {
			return nil, errors.Wrapf(ErrTruncated, "tag %d has no value", tag)
		}
		message.Fields.Add(tag, integers[i+1])
		message.Order = append(message.Order, tag)
	}
	return message, nil
}

func DecodeMessage(payload []byte) (*Message, error) {
	integers, err := DecodeIntegers(payload)
	if err != nil {
		return nil, err
	}
	return MessageFromIntegers(integers)
}

// Integers flattens the message back into a varint stream. Pairs are written in decode order;
// values missing from Order follow in tag order.
func (m *Message) Integers() []uint128.Uint128 {
	var integers []uint128.Uint128
	written := make(map[Tag]int, len(m.Fields))
	write := func(tag Tag) {
		values := m.Fields[tag]
		if n := written[tag]; n < len(values) {
			integers = append(integers, tag.Uint128(), values[n])
			written[tag] = n + 1
		}
	}
	for _, tag := range m.Order {
		write(tag)
	}

	tags := lo.Keys(m.Fields)
	slices.Sort(tags)
	for _, tag := range tags {
		for written[tag] < len(m.Fields[tag]) {
			write(tag)
		}
	}
	if len(m.Body) > 0 {
		integers = append(integers, TagBody.Uint128())
		for _, quad := range m.Body {
			integers = append(integers, quad[:]...)
		}
	}
	return integers
}

// EncodeMessage is the inverse of [DecodeMessage].
func EncodeMessage(m *Message) []byte {
	return EncodeIntegers(m.Integers())
}
