package kv

import (
	"context"
	"encoding/binary"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

const lengthKeyword = "/length"

// Pointer addresses one value in a Store by a hierarchical key.
// Selecting appends a segment to the key; the store itself stays flat.
//
// Lists are stored as "<key>/length" (u32 little-endian) and "<key>/<u32 little-endian index>".
// Absent values read as empty bytes or zero scalars.
type Pointer struct {
	store Store
	key   []byte
}

func NewPointer(store Store, key string) Pointer {
	return Pointer{store: store, key: []byte(key)}
}

func (p Pointer) Key() []byte {
	return slices.Clone(p.key)
}

// Select returns a pointer to p's key followed by key.
func (p Pointer) Select(key []byte) Pointer {
	next := make([]byte, 0, len(p.key)+len(key))
	next = append(next, p.key...)
	next = append(next, key...)
	return Pointer{store: p.store, key: next}
}

func (p Pointer) Keyword(word string) Pointer {
	return p.Select([]byte(word))
}

func (p Pointer) SelectUint32(v uint32) Pointer {
	return p.Select(binary.LittleEndian.AppendUint32(nil, v))
}

func (p Pointer) SelectUint64(v uint64) Pointer {
	return p.Select(binary.LittleEndian.AppendUint64(nil, v))
}

// Get returns the stored bytes, or nil if nothing is stored.
func (p Pointer) Get(ctx context.Context) ([]byte, error) {
	value, err := p.store.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to get %x", p.key)
	}
	return value, nil
}

// Exists reports whether a non-empty value is stored.
func (p Pointer) Exists(ctx context.Context) (bool, error) {
	value, err := p.Get(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return len(value) > 0, nil
}

func (p Pointer) Set(ctx context.Context, value []byte) error {
	if err := p.store.Put(ctx, p.key, value); err != nil {
		return errors.Wrapf(err, "failed to set %x", p.key)
	}
	return nil
}

func (p Pointer) getFixed(ctx context.Context, size int) ([]byte, error) {
	value, err := p.Get(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(value) == 0 {
		return make([]byte, size), nil
	}
	if len(value) != size {
		return nil, errors.Wrapf(errs.InternalError, "value at %x has %d bytes, expected %d", p.key, len(value), size)
	}
	return value, nil
}

func (p Pointer) Uint8(ctx context.Context) (uint8, error) {
	value, err := p.getFixed(ctx, 1)
	if err != nil {
		return 0, err
	}
	return value[0], nil
}

func (p Pointer) SetUint8(ctx context.Context, v uint8) error {
	return p.Set(ctx, []byte{v})
}

func (p Pointer) Uint32(ctx context.Context) (uint32, error) {
	value, err := p.getFixed(ctx, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(value), nil
}

func (p Pointer) SetUint32(ctx context.Context, v uint32) error {
	return p.Set(ctx, binary.LittleEndian.AppendUint32(nil, v))
}

func (p Pointer) Uint64(ctx context.Context) (uint64, error) {
	value, err := p.getFixed(ctx, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(value), nil
}

func (p Pointer) SetUint64(ctx context.Context, v uint64) error {
	return p.Set(ctx, binary.LittleEndian.AppendUint64(nil, v))
}

func (p Pointer) Uint128(ctx context.Context) (uint128.Uint128, error) {
	value, err := p.getFixed(ctx, 16)
	if err != nil {
		return uint128.Zero, err
	}
	return uint128.New(binary.LittleEndian.Uint64(value[:8]), binary.LittleEndian.Uint64(value[8:])), nil
}

func (p Pointer) SetUint128(ctx context.Context, v uint128.Uint128) error {
	value := binary.LittleEndian.AppendUint64(make([]byte, 0, 16), v.Lo)
	return p.Set(ctx, binary.LittleEndian.AppendUint64(value, v.Hi))
}

// Length returns the number of items appended to the list at p.
func (p Pointer) Length(ctx context.Context) (uint32, error) {
	return p.Keyword(lengthKeyword).Uint32(ctx)
}

// SelectIndex returns a pointer to the i-th item of the list at p.
func (p Pointer) SelectIndex(i uint32) Pointer {
	return p.Keyword("/").SelectUint32(i)
}

// Append stores value as the next item of the list at p.
func (p Pointer) Append(ctx context.Context, value []byte) error {
	length, err := p.Length(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := p.SelectIndex(length).Set(ctx, value); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(p.Keyword(lengthKeyword).SetUint32(ctx, length+1))
}

// List returns every item appended to the list at p, in order.
func (p Pointer) List(ctx context.Context) ([][]byte, error) {
	length, err := p.Length(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	items := make([][]byte, 0, length)
	for i := uint32(0); i < length; i++ {
		item, err := p.SelectIndex(i).Get(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		items = append(items, item)
	}
	return items, nil
}
